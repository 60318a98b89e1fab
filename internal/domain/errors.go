package domain

import (
	"errors"
	"fmt"
)

// Pipeline error kinds. Every failure surfaced by the service matches
// exactly one of these with errors.Is.
var (
	// ErrInvalidInput indicates a missing or malformed request parameter.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyQuery indicates a chat query that is blank after trimming.
	ErrEmptyQuery = errors.New("message is required")

	// ErrUnsupportedType indicates a source type other than pdf, csv or url.
	ErrUnsupportedType = errors.New("unsupported input type")

	// ErrInvalidURL indicates a url source that is not http(s).
	ErrInvalidURL = errors.New("invalid URL format, must start with http:// or https://")

	// ErrNoContent indicates the loader produced no fragments.
	ErrNoContent = errors.New("no documents loaded, please check your input")

	// ErrNoValidContent indicates nothing survived sanitization.
	ErrNoValidContent = errors.New("no valid documents after sanitization, content may be too short or invalid")

	// ErrEmbeddingValidation indicates the pre-flight embedding probe failed.
	ErrEmbeddingValidation = errors.New("embedding validation failed")

	// ErrEmbedding indicates embedding failed after retries.
	ErrEmbedding = errors.New("embedding failed")

	// ErrGateway indicates a vector store upsert or search failure.
	ErrGateway = errors.New("vector store request failed")

	// ErrGeneration indicates the chat completion call failed.
	ErrGeneration = errors.New("answer generation failed")
)

// Error attaches an error kind and the failing operation to an underlying
// cause. It matches both Kind and Err with errors.Is.
type Error struct {
	Kind error
	Op   string
	Err  error
}

// NewError wraps err with the given kind.
func NewError(kind error, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// IsBadInput reports whether err was caused by the caller's parameters
// rather than by processing.
func IsBadInput(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyQuery) ||
		errors.Is(err, ErrUnsupportedType) ||
		errors.Is(err, ErrInvalidURL)
}
