package resizecache

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest matches every *ValidationError.
	ErrInvalidRequest = errors.New("invalid resize request")

	ErrMissingPath       = errors.New("image path is required")
	ErrNoDimension       = errors.New("width or height must be specified")
	ErrDimensionTooLarge = errors.New("dimension too large")

	// ErrOriginNotFound means the original image does not exist.
	ErrOriginNotFound = errors.New("image not found")
)

// ValidationError reports why a request was refused before any I/O.
type ValidationError struct {
	Reason error // ErrMissingPath, ErrNoDimension or ErrDimensionTooLarge
	Max    int   // configured maximum, set for ErrDimensionTooLarge
}

func (e *ValidationError) Error() string {
	if errors.Is(e.Reason, ErrDimensionTooLarge) {
		return fmt.Sprintf("%v: maximum dimension is %dpx", e.Reason, e.Max)
	}
	return e.Reason.Error()
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrInvalidRequest, e.Reason}
}

// reasonLabel is the short, stable name used by hooks and metrics.
func reasonLabel(err error) string {
	switch {
	case errors.Is(err, ErrMissingPath):
		return "missing_path"
	case errors.Is(err, ErrNoDimension):
		return "no_dimension"
	case errors.Is(err, ErrDimensionTooLarge):
		return "dimension_too_large"
	default:
		return "unsupported_format"
	}
}
