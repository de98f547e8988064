package common

import (
	"errors"
	"fmt"
)

// Kind is the externally visible failure category. Every error crossing the
// pipeline boundary carries exactly one of these.
type Kind string

const (
	KindClientInput         Kind = "client_input"
	KindProviderUnavailable Kind = "provider_unavailable"
	KindInternal            Kind = "internal"
)

// Sentinel errors for the pipeline stages. Lower layers wrap these with
// fmt.Errorf("...: %w", ...) and Classify flattens them at the boundary.
var (
	ErrImageDecode         = errors.New("image decode failed")
	ErrOCREngine           = errors.New("ocr engine failure")
	ErrStructuringParse    = errors.New("model output is not a JSON object")
	ErrSchemaValidation    = errors.New("extracted fields failed validation")
	ErrProviderUnavailable = errors.New("inference provider unavailable")
	ErrUnsupportedFile     = errors.New("unsupported file type")
)

// Error is the single tagged error type that leaves the pipeline.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func WrapError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Classify maps any failure into the three-category taxonomy. It is the only
// place that interprets stage errors; nothing downstream re-classifies.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	switch {
	case errors.Is(err, ErrImageDecode), errors.Is(err, ErrUnsupportedFile):
		return WrapError(KindClientInput, "invalid input file", err)
	case errors.Is(err, ErrProviderUnavailable):
		return WrapError(KindProviderUnavailable, "provider unavailable", err)
	case errors.Is(err, ErrOCREngine),
		errors.Is(err, ErrStructuringParse),
		errors.Is(err, ErrSchemaValidation):
		return WrapError(KindInternal, "processing failed", err)
	default:
		return WrapError(KindInternal, "unexpected failure", err)
	}
}

// KindOf returns the classified category for err.
func KindOf(err error) Kind {
	if e := Classify(err); e != nil {
		return e.Kind
	}
	return KindInternal
}
