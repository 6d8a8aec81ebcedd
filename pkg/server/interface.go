/*
Package server implements msgpack IPC for word completion.

Clients write a stream of msgpack encoded requests to the server's input and
read a stream of responses from its output. Requests are handled in order;
every response carries the ID of its request so clients may pipeline.

A completion request:

	{"id": "req_001", "p": "ame", "l": 24}

The optional "m" field selects the mode: "complete" (the default), "fuzzy"
to correct mistyped prefixes, or "related" to ask for follow ups of a chosen
word. The response lists suggestions best first:

	{"id": "req_001", "s": [{"w": "amenity", "r": 1}, {"w": "america", "r": 2}], "c": 2, "t": 145}

"t" is the lookup time in microseconds. Failed requests get an error:

	{"id": "req_002", "e": "prefix exceeds maximum length of 60 characters", "c": 400}
*/
package server

// Request modes.
const (
	ModeComplete = "complete"
	ModeFuzzy    = "fuzzy"
	ModeRelated  = "related"
)

// Error codes.
const (
	CodeBadRequest = 400
	CodeInternal   = 500
)

// CompletionRequest - minimal completion request
type CompletionRequest struct {
	ID     string `msgpack:"id"`
	Prefix string `msgpack:"p"`
	Limit  int    `msgpack:"l,omitempty"`
	Mode   string `msgpack:"m,omitempty"`
}

// CompletionSuggestion - minimal suggestion response
type CompletionSuggestion struct {
	Word string `msgpack:"w"`
	Rank uint16 `msgpack:"r"`
	Freq int    `msgpack:"f,omitempty"`
}

// CompletionResponse - completion response
type CompletionResponse struct {
	ID          string                 `msgpack:"id"`
	Suggestions []CompletionSuggestion `msgpack:"s"`
	Count       int                    `msgpack:"c"`
	TimeTaken   int64                  `msgpack:"t"`
	Corrected   string                 `msgpack:"cp,omitempty"`
}

// CompletionError holds basic error information for completion requests
type CompletionError struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}

// Envelope decodes either a CompletionResponse or a CompletionError.
// When Error is set, Count holds the error code.
type Envelope struct {
	ID          string                 `msgpack:"id"`
	Suggestions []CompletionSuggestion `msgpack:"s,omitempty"`
	Count       int                    `msgpack:"c"`
	TimeTaken   int64                  `msgpack:"t,omitempty"`
	Corrected   string                 `msgpack:"cp,omitempty"`
	Error       string                 `msgpack:"e,omitempty"`
}
