package dictionary

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileFormat represents the dictionary file formats
type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatChunk              // dict_NNNN.bin binary chunk
	FormatText               // "word frequency" lines
)

func (f FileFormat) String() string {
	switch f {
	case FormatChunk:
		return "chunk"
	case FormatText:
		return "text"
	}
	return "unknown"
}

// maxChunkEntries is a sanity bound on the header of a chunk file.
const maxChunkEntries = 1000000

// DetectFormat picks the format of path from its extension and, for binary
// files, checks that the header is plausible.
func DetectFormat(path string) (FileFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bin":
		if err := validateChunkHeader(path); err != nil {
			return FormatUnknown, err
		}
		return FormatChunk, nil
	case ".txt":
		return FormatText, nil
	}
	return FormatUnknown, fmt.Errorf("unable to detect format for file %s", path)
}

func validateChunkHeader(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	var count int32
	if err := binary.Read(file, binary.LittleEndian, &count); err != nil {
		return fmt.Errorf("failed to read header from %s: %w", path, err)
	}
	if count < 0 || count > maxChunkEntries {
		return fmt.Errorf("invalid word count in %s: %d", path, count)
	}
	return nil
}
