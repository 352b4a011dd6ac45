package extraction

import (
	"errors"
	"fmt"
)

var (
	// ErrParse matches output that is not a well-formed CV object.
	ErrParse = errors.New("invalid llm output")
	// ErrBackend matches failures of the remote generative call.
	ErrBackend = errors.New("llm backend error")
)

const maxSnippet = 200

// ParseError reports malformed or mis-shaped extraction output.
type ParseError struct {
	Snippet string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("invalid llm output: %v", e.Err)
	}
	return fmt.Sprintf("invalid llm output: %v (got %q)", e.Err, e.Snippet)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// BackendError reports a failed call to the generative backend.
type BackendError struct {
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("llm backend error: %v", e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

func (e *BackendError) Is(target error) bool { return target == ErrBackend }

func newParseError(raw string, err error) *ParseError {
	snippet := raw
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet] + "…"
	}
	return &ParseError{Snippet: snippet, Err: err}
}
