// Package dictionary reads and writes the word lists behind the local
// suggestion source.
package dictionary

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

// Entry is a word with its score. Higher scores rank first.
type Entry struct {
	Word  string
	Score int
}

// ChunkInfo contains metadata about a chunk file
type ChunkInfo struct {
	ChunkID   int
	Filename  string
	WordCount int
}

// ErrNoDictionary is returned by LoadDir when the directory holds no word files.
var ErrNoDictionary = errors.New("no dictionary files found")

// ScoreFromRank converts a 1 based rank to a score: rank 1 becomes 65535.
func ScoreFromRank(rank uint16) int {
	return math.MaxUint16 - int(rank) + 1
}

// RankFromScore is the inverse of ScoreFromRank, clamped to the uint16 range.
func RankFromScore(score int) uint16 {
	rank := math.MaxUint16 - score + 1
	switch {
	case rank < 1:
		return 1
	case rank > math.MaxUint16:
		return math.MaxUint16
	}
	return uint16(rank)
}

// ReadBinary decodes a chunk: a little endian int32 entry count followed by
// entries of uint16 length, the word bytes and a uint16 rank.
func ReadBinary(r io.Reader) ([]Entry, error) {
	reader := bufio.NewReader(r)

	var total int32
	if err := binary.Read(reader, binary.LittleEndian, &total); err != nil {
		return nil, fmt.Errorf("failed to read entry count: %w", err)
	}
	if total < 0 || total > maxChunkEntries {
		return nil, fmt.Errorf("invalid entry count %d", total)
	}

	entries := make([]Entry, 0, total)
	for len(entries) < int(total) {
		var wordLen uint16
		if err := binary.Read(reader, binary.LittleEndian, &wordLen); err != nil {
			if errors.Is(err, io.EOF) {
				log.Warnf("Chunk ended after %d of %d entries", len(entries), total)
				break
			}
			return nil, fmt.Errorf("failed to read word length: %w", err)
		}

		word := make([]byte, wordLen)
		if _, err := io.ReadFull(reader, word); err != nil {
			return nil, fmt.Errorf("failed to read word: %w", err)
		}

		var rank uint16
		if err := binary.Read(reader, binary.LittleEndian, &rank); err != nil {
			return nil, fmt.Errorf("failed to read rank: %w", err)
		}
		entries = append(entries, Entry{Word: string(word), Score: ScoreFromRank(rank)})
	}
	return entries, nil
}

// WriteBinary encodes entries in the chunk format read by ReadBinary.
func WriteBinary(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, int32(len(entries))); err != nil {
		return err
	}
	for _, e := range entries {
		if len(e.Word) > math.MaxUint16 {
			return fmt.Errorf("word too long: %d bytes", len(e.Word))
		}
		if err := binary.Write(bw, binary.LittleEndian, uint16(len(e.Word))); err != nil {
			return err
		}
		if _, err := bw.WriteString(e.Word); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, RankFromScore(e.Score)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadText parses "word frequency" lines. Blank lines and lines starting
// with # are skipped; a missing frequency counts as 1.
func ReadText(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		score := 1
		if len(fields) > 1 {
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid frequency %q", line, fields[1])
			}
			score = n
		}
		entries = append(entries, Entry{Word: fields[0], Score: score})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// LoadFile reads a single dictionary file of any supported format.
func LoadFile(path string) ([]Entry, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var entries []Entry
	switch format {
	case FormatChunk:
		entries, err = ReadBinary(file)
	case FormatText:
		entries, err = ReadText(file)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Debugf("Loaded %d words from %s (%s)", len(entries), path, format)
	return entries, nil
}

// ListChunks returns the dict_NNNN.bin files of dir ordered by chunk id.
func ListChunks(dir string) ([]ChunkInfo, error) {
	files, err := filepath.Glob(filepath.Join(dir, "dict_*.bin"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan for chunk files: %w", err)
	}

	var chunks []ChunkInfo
	for _, file := range files {
		idStr := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(file), "dict_"), ".bin")
		id, err := strconv.Atoi(idStr)
		if err != nil {
			continue
		}
		count, err := chunkWordCount(file)
		if err != nil {
			log.Warnf("Failed to get word count for chunk %s: %v", file, err)
		}
		chunks = append(chunks, ChunkInfo{ChunkID: id, Filename: file, WordCount: count})
	}
	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].ChunkID < chunks[j].ChunkID
	})
	return chunks, nil
}

func chunkWordCount(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	var count int32
	if err := binary.Read(file, binary.LittleEndian, &count); err != nil {
		return 0, err
	}
	return int(count), nil
}

// LoadDir loads the chunks of dir in id order, then any .txt word lists,
// stopping once maxWords entries were read. maxWords <= 0 loads everything.
// Unreadable files are skipped with a warning.
func LoadDir(dir string, maxWords int) ([]Entry, error) {
	chunks, err := ListChunks(dir)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(chunks))
	for _, c := range chunks {
		paths = append(paths, c.Filename)
	}
	texts, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, err
	}
	sort.Strings(texts)
	paths = append(paths, texts...)

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoDictionary, dir)
	}

	var all []Entry
	for _, path := range paths {
		if maxWords > 0 && len(all) >= maxWords {
			break
		}
		entries, err := LoadFile(path)
		if err != nil {
			log.Warnf("Skipping %s: %v", path, err)
			continue
		}
		all = append(all, entries...)
	}
	if maxWords > 0 && len(all) > maxWords {
		all = all[:maxWords]
	}
	log.Debugf("Loaded %d words from %d files in %s", len(all), len(paths), dir)
	return all, nil
}
