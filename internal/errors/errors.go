package errors

import (
	"errors"
	"fmt"
)

// maxSnippetLen bounds how much offending raw text an error carries.
const maxSnippetLen = 200

// GenerationError is the single error kind raised across the book
// generation pipeline: malformed model output, invalid TOC structure,
// unreadable credentials, or an exhausted-retries provider failure.
// The Stage names where it happened; Snippet, when set, holds a
// truncated piece of the offending raw text for diagnosis.
type GenerationError struct {
	Stage   string
	Message string
	Snippet string
	Err     error
}

func (e *GenerationError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Stage, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Snippet != "" {
		msg = fmt.Sprintf("%s (got: %q)", msg, e.Snippet)
	}
	return msg
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// New creates a GenerationError for the given pipeline stage.
func New(stage, message string) *GenerationError {
	return &GenerationError{Stage: stage, Message: message}
}

// Newf creates a GenerationError with a formatted message.
func Newf(stage, format string, args ...any) *GenerationError {
	return &GenerationError{Stage: stage, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a new GenerationError.
func Wrap(stage, message string, err error) *GenerationError {
	return &GenerationError{Stage: stage, Message: message, Err: err}
}

// WithSnippet returns the error with a truncated copy of the offending text.
func (e *GenerationError) WithSnippet(raw string) *GenerationError {
	if len(raw) > maxSnippetLen {
		raw = raw[:maxSnippetLen] + "..."
	}
	e.Snippet = raw
	return e
}

// IsGenerationError reports whether err is (or wraps) a GenerationError.
func IsGenerationError(err error) bool {
	var ge *GenerationError
	return errors.As(err, &ge)
}
