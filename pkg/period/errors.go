package period

import "errors"

// Common errors returned by the period package.
var (
	// ErrInvalidDate is returned when a date string is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date: must be YYYY-MM-DD")

	// ErrInvertedRange is returned when the start date is after the end date.
	ErrInvertedRange = errors.New("invalid range: from is after to")
)
