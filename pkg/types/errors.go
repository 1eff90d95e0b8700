package types

import "errors"

// Domain errors for entry validation
var (
	ErrNegativeCount      = errors.New("passed and total must be non-negative")
	ErrPassedExceedsTotal = errors.New("passed cannot exceed total")
	ErrMissingID          = errors.New("entry id is required")
)
