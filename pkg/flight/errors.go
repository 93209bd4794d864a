package flight

import (
	"errors"
	"strconv"
)

// Common errors returned by the flight package.
var (
	// ErrInvalidDate is returned when a record has a zero or unparseable date.
	ErrInvalidDate = errors.New("invalid record date")

	// ErrNegativeValue is returned when a passenger, seat or weight value is negative.
	ErrNegativeValue = errors.New("invalid record: negative passenger, seat or weight value")

	// ErrUnknownStatus is returned when a leg status is not recognized.
	ErrUnknownStatus = errors.New("unknown leg status")

	// ErrMalformedJSON is returned when a JSONL line cannot be decoded.
	ErrMalformedJSON = errors.New("malformed JSON line")

	// ErrLineTooLong is reported for a line longer than MaxLineLength.
	ErrLineTooLong = errors.New("line exceeds maximum length")

	// ErrFileTooLarge is returned when a record file exceeds MaxFileSize.
	ErrFileTooLarge = errors.New("file size exceeds maximum limit")
)

// ParseError describes a line that could not be decoded or validated.
type ParseError struct {
	Line int    // 1-indexed line number
	Data string // offending line, truncated for display
	Err  error
}

func (e *ParseError) Error() string {
	data := e.Data
	if len(data) > 100 {
		data = data[:100] + "..."
	}
	return "parse error at line " + strconv.Itoa(e.Line) + ": " + data + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
