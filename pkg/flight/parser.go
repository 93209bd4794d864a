package flight

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	// MaxFileSize is the largest record file ParseFile accepts (256MB).
	MaxFileSize = 256 * 1024 * 1024

	// MaxLineLength is the longest JSONL line decoded (1MB). Longer lines
	// are skipped.
	MaxLineLength = 1024 * 1024
)

// Parser decodes flight records from JSONL.
type Parser interface {
	// ParseFile reads records from path starting at offset.
	//
	// Returns the decoded records, the offset after the last consumed byte,
	// and the per-line errors for lines that were skipped. A skipped line
	// never fails the whole file; only I/O problems and oversized files do.
	// An unterminated last line that does not decode yet is left unconsumed
	// so a later call reads it whole.
	ParseFile(path string, offset int64) ([]Record, int64, []*ParseError, error)

	// ParseLine decodes and validates a single JSONL line.
	ParseLine(line string) (*Record, error)
}

type jsonlParser struct{}

// NewParser creates a JSONL record parser.
func NewParser() Parser {
	return &jsonlParser{}
}

// ParseFile implements Parser.ParseFile.
func (p *jsonlParser) ParseFile(path string, offset int64) ([]Record, int64, []*ParseError, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("failed to stat file: %w", err)
	}

	if info.Size() > MaxFileSize {
		return nil, 0, nil, fmt.Errorf("%w: size=%d, max=%d", ErrFileTooLarge, info.Size(), MaxFileSize)
	}

	// #nosec G304: path comes from the configured data directory
	f, err := os.Open(path) // nolint:gosec
	if err != nil {
		return nil, 0, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close() // nolint:errcheck // read-only handle

	if offset > 0 {
		if _, seekErr := f.Seek(offset, io.SeekStart); seekErr != nil {
			return nil, 0, nil, fmt.Errorf("failed to seek to offset %d: %w", offset, seekErr)
		}
	}

	records := make([]Record, 0, 256)
	var skipped []*ParseError

	reader := bufio.NewReaderSize(f, 64*1024)
	consumed := offset
	lineNum := 0

	for {
		raw, readErr := reader.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return records, 0, skipped, fmt.Errorf("read error at line %d: %w", lineNum+1, readErr)
		}
		if len(raw) == 0 {
			break
		}

		line := strings.TrimSpace(string(raw))

		if raw[len(raw)-1] != '\n' {
			// A writer may still be appending the last line. It is consumed
			// only once it decodes; otherwise the offset stays before it.
			if line == "" {
				consumed += int64(len(raw))
			} else if rec, err := p.ParseLine(line); err == nil {
				records = append(records, *rec)
				consumed += int64(len(raw))
			}
			break
		}

		lineNum++
		consumed += int64(len(raw))

		if line == "" {
			continue
		}
		if len(raw) > MaxLineLength {
			skipped = append(skipped, &ParseError{Line: lineNum, Data: line, Err: ErrLineTooLong})
			continue
		}

		rec, parseErr := p.ParseLine(line)
		if parseErr != nil {
			skipped = append(skipped, &ParseError{Line: lineNum, Data: line, Err: parseErr})
			continue
		}

		records = append(records, *rec)
	}

	return records, consumed, skipped, nil
}

// ParseLine implements Parser.ParseLine.
func (p *jsonlParser) ParseLine(line string) (*Record, error) {
	if line == "" {
		return nil, fmt.Errorf("%w: empty line", ErrMalformedJSON)
	}

	var rec Record
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}

	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &rec, nil
}
