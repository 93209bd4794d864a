package report

import "errors"

var (
	// ErrUnknownDimension is returned for an unsupported group-by dimension.
	ErrUnknownDimension = errors.New("unknown group-by dimension")

	// ErrUnknownGranularity is returned for an unsupported granularity.
	ErrUnknownGranularity = errors.New("unknown granularity")
)
