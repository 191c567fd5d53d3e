package pipeline

import (
	"errors"
	"fmt"

	"github.com/nerdenough/ai-storytime/internal/book"
	"github.com/nerdenough/ai-storytime/internal/identifier"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrGenerationEmpty      = errors.New("language model returned no text")
	ErrMalformedModelOutput = errors.New("malformed model output")
	ErrStorageWriteFailed   = errors.New("storage write failed")

	ErrAlreadyExists       = book.ErrAlreadyExists
	ErrIdentifierExhausted = identifier.ErrExhausted
	ErrNotFound            = book.ErrNotFound
)

// Error is a failed run. It matches both its Kind and its cause with errors.Is.
type Error struct {
	Kind       error
	Stage      Stage
	Identifier string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Identifier != "" {
		msg = fmt.Sprintf("%s (identifier %q)", msg, e.Identifier)
	}
	if e.Err != nil && e.Err != e.Kind {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Stage == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Stage, msg)
}

func (e *Error) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindName returns a stable machine-readable name for the kind of err,
// or "internal" when err is not one of the pipeline kinds.
func KindName(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrIdentifierExhausted):
		return "identifier_exhausted"
	case errors.Is(err, ErrGenerationEmpty):
		return "generation_empty"
	case errors.Is(err, ErrMalformedModelOutput):
		return "malformed_model_output"
	case errors.Is(err, ErrStorageWriteFailed):
		return "storage_write_failed"
	default:
		return "internal"
	}
}

// IdentifierOf returns the identifier carried by a pipeline error, if any.
func IdentifierOf(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Identifier
	}
	return ""
}
