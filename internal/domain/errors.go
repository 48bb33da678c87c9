package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures for clients polling job status.
type ErrorKind string

const (
	ErrInvalidRequest        ErrorKind = "InvalidRequest"
	ErrUserMediaUnavailable  ErrorKind = "UserMediaUnavailable"
	ErrStockMediaUnavailable ErrorKind = "StockMediaUnavailable"
	ErrGenerationFailed      ErrorKind = "GenerationFailed"
	ErrNarrationFailed       ErrorKind = "NarrationFailed"
	ErrAssemblyFailed        ErrorKind = "AssemblyFailed"
	ErrPublishFailed         ErrorKind = "PublishFailed"
	ErrInternal              ErrorKind = "InternalError"
)

// PipelineError is a classified failure surfaced by a pipeline component.
// The orchestrator maps it onto the FAILED job record; unclassified errors
// are treated as ErrInternal.
type PipelineError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError creates a classified pipeline error wrapping err.
func NewPipelineError(kind ErrorKind, message string, err error) *PipelineError {
	return &PipelineError{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the error kind from err, or ErrInternal if err carries
// no classification.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ErrInternal
}
