package fiscal

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyResult means the provider answered but found no document.
	ErrEmptyResult = errors.New("provider returned no documents")

	ErrLookupTimeout     = errors.New("document lookup timed out")
	ErrLookupUnreachable = errors.New("document lookup provider unreachable")
)

type ValidationKind string

const (
	InvalidLength ValidationKind = "INVALID_LENGTH"
	NonNumeric    ValidationKind = "NON_NUMERIC"
	MissingKey    ValidationKind = "MISSING_KEY"
)

// ValidationError rejects input before any network call is made.
type ValidationError struct {
	Kind  ValidationKind
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case InvalidLength:
		return fmt.Sprintf("%s must have exactly %d digits, got %d", e.Field, AccessKeyLength, len(e.Value))
	case NonNumeric:
		return fmt.Sprintf("%s must contain only digits", e.Field)
	case MissingKey:
		return fmt.Sprintf("no %d-digit access key found in %s", AccessKeyLength, e.Field)
	default:
		return fmt.Sprintf("%s is invalid", e.Field)
	}
}

// NormalizationError keeps the raw payload so the failure can be diagnosed later.
type NormalizationError struct {
	Reason string
	Raw    []byte
}

func (e *NormalizationError) Error() string {
	return "unrecognized document shape: " + e.Reason
}

func NewNormalizationError(raw []byte, format string, args ...any) *NormalizationError {
	return &NormalizationError{
		Reason: fmt.Sprintf(format, args...),
		Raw:    raw,
	}
}
