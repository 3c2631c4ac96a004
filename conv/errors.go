package conv

import "errors"

var (
	// ErrInvalidConfiguration reports a zero traceback depth or an unusable puncture pattern.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrInvalidInput reports input whose length does not line up with the puncture pattern.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvariantViolation reports decoder bookkeeping that did not end where it must.
	ErrInvariantViolation = errors.New("internal invariant violated")
)
