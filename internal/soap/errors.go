package soap

import (
	"errors"
	"fmt"
)

// Kind classifies calculation failures.
type Kind int

const (
	// InvalidInput marks malformed or degenerate input.
	InvalidInput Kind = iota + 1
	// MissingReferenceData marks an oil line that cannot be resolved.
	MissingReferenceData
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid input"
	case MissingReferenceData:
		return "missing reference data"
	default:
		return "unknown"
	}
}

var (
	ErrInvalidInput         = errors.New("soap: invalid input")
	ErrMissingReferenceData = errors.New("soap: missing reference data")
)

// Error is the typed failure returned by Calculate.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Field)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	return msg
}

// Is lets errors.Is match the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidInput:
		return e.Kind == InvalidInput
	case ErrMissingReferenceData:
		return e.Kind == MissingReferenceData
	}
	return false
}

func (e *Error) Unwrap() error {
	return e.Err
}

func invalidInput(field, message string) *Error {
	return &Error{Kind: InvalidInput, Field: field, Message: message}
}

func missingReference(ref string, err error) *Error {
	return &Error{
		Kind:    MissingReferenceData,
		Field:   "ingredient_ref",
		Message: fmt.Sprintf("oil %q is not in the reference library", ref),
		Err:     err,
	}
}
