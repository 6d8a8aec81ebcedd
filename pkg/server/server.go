package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bastiangx/typeahead/internal/utils"
	"github.com/bastiangx/typeahead/pkg/config"
	"github.com/bastiangx/typeahead/pkg/suggest"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// defaultLimit is used when a request carries no limit.
const defaultLimit = 10

// Server answers completion requests read from r and writes responses to w.
type Server struct {
	completer suggest.ICompleter
	cfg       config.ServerConfig
	r         io.Reader
	enc       *msgpack.Encoder
	mu        sync.Mutex
	handled   int
}

// NewServer creates a server. Use os.Stdin and os.Stdout for stdio IPC.
func NewServer(completer suggest.ICompleter, cfg config.ServerConfig, r io.Reader, w io.Writer) *Server {
	return &Server{
		completer: completer,
		cfg:       cfg,
		r:         r,
		enc:       msgpack.NewEncoder(w),
	}
}

// Serve handles requests until the input ends or ctx is done. When ctx ends
// first and the input is an io.Closer, it is closed to unblock the reader.
// Otherwise Serve returns at once and the reader goroutine exits on the
// next read that completes.
func (s *Server) Serve(ctx context.Context) error {
	log.Debug("Starting server")

	reqs := make(chan msgpack.RawMessage)
	readErr := make(chan error, 1)
	go func() {
		defer close(reqs)
		dec := msgpack.NewDecoder(s.r)
		for {
			raw, err := dec.DecodeRaw()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case reqs <- raw:
			case <-ctx.Done():
				readErr <- ctx.Err()
				return
			}
		}
	}()

	for {
		select {
		case raw, ok := <-reqs:
			if !ok {
				err := <-readErr
				if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, context.Canceled) {
					log.Debugf("Server stopped after %d requests", s.handled)
					return nil
				}
				return fmt.Errorf("reading request: %w", err)
			}
			s.handle(raw)
		case <-ctx.Done():
			c, ok := s.r.(io.Closer)
			if !ok {
				return ctx.Err()
			}
			c.Close()
			for range reqs {
			}
			<-readErr
			return ctx.Err()
		}
	}
}

// handle decodes and answers one request.
func (s *Server) handle(raw msgpack.RawMessage) {
	s.handled++

	var req CompletionRequest
	if err := msgpack.Unmarshal(raw, &req); err != nil {
		log.Errorf("Unmarshaling request: %v", err)
		s.sendError("", "invalid request", CodeBadRequest)
		return
	}
	s.handleComplete(req)
}

// handleComplete validates the request, asks the completer and sends the
// ranked suggestions.
func (s *Server) handleComplete(req CompletionRequest) {
	prefix := req.Prefix
	n := utf8.RuneCountInString(prefix)

	switch {
	case prefix == "":
		s.sendError(req.ID, "missing prefix", CodeBadRequest)
		return
	case n < s.cfg.MinPrefix:
		s.sendError(req.ID, fmt.Sprintf("prefix must be at least %d characters", s.cfg.MinPrefix), CodeBadRequest)
		return
	case n > s.cfg.MaxPrefix:
		s.sendError(req.ID, fmt.Sprintf("prefix exceeds maximum length of %d characters", s.cfg.MaxPrefix), CodeBadRequest)
		return
	}

	limit := req.Limit
	if limit < 1 {
		limit = min(defaultLimit, s.cfg.MaxLimit)
	}
	if limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}

	start := time.Now()
	var suggestions []suggest.Suggestion
	switch req.Mode {
	case "", ModeComplete:
		suggestions = s.complete(prefix, limit, false)
	case ModeFuzzy:
		suggestions = s.complete(prefix, limit, true)
	case ModeRelated:
		suggestions = s.completer.Related(prefix, limit)
	default:
		s.sendError(req.ID, fmt.Sprintf("unknown mode: %s", req.Mode), CodeBadRequest)
		return
	}
	elapsed := time.Since(start)
	log.Debugf("Took [ %v ] for prefix '%s' (%d results)", elapsed, prefix, len(suggestions))

	resp := CompletionResponse{
		ID:          req.ID,
		Suggestions: normalizeRankings(suggestions),
		Count:       len(suggestions),
		TimeTaken:   elapsed.Microseconds(),
	}
	if len(suggestions) > 0 && suggestions[0].WasCorrected {
		resp.Corrected = suggestions[0].CorrectedPrefix
	}
	s.send(resp)
}

func (s *Server) complete(prefix string, limit int, fuzzy bool) []suggest.Suggestion {
	if s.cfg.EnableFilter && !utils.IsValidInput(prefix) {
		log.Debugf("Filtered prefix: '%s'", prefix)
		return nil
	}
	if fuzzy {
		return s.completer.CompleteWithFuzzy(prefix, limit)
	}
	return s.completer.Complete(prefix, limit)
}

func (s *Server) send(v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(v); err != nil {
		log.Errorf("Encoding response: %v", err)
	}
}

func (s *Server) sendError(id, message string, code int) {
	s.send(CompletionError{ID: id, Error: message, Code: code})
}

// normalizeRankings assigns ranks 1..n in result order.
func normalizeRankings(suggestions []suggest.Suggestion) []CompletionSuggestion {
	out := make([]CompletionSuggestion, len(suggestions))
	for i, sg := range suggestions {
		out[i] = CompletionSuggestion{
			Word: sg.Word,
			Rank: uint16(i + 1),
			Freq: sg.Frequency,
		}
	}
	return out
}
