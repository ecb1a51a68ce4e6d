package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation             = errors.New("missing required fields")
	ErrInsufficientCredits    = errors.New("insufficient credits")
	ErrLedgerUnavailable      = errors.New("ledger unavailable")
	ErrSettlement             = errors.New("credit settlement failed")
	ErrUpstreamUnavailable    = errors.New("inference service unavailable")
	ErrUpstreamFormat         = errors.New("inference response malformed")
	ErrInferenceNotConfigured = errors.New("inference API key not configured")
	ErrPublish                = errors.New("artifact publish failed")
)

// Error codes returned to callers alongside the message.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeInsufficientCredits = "INSUFFICIENT_CREDITS"
	CodeGeneration          = "GENERATION_ERROR"
	CodePublish             = "PUBLISH_ERROR"
	CodeSettlement          = "SETTLEMENT_ERROR"
	CodeLedgerUnavailable   = "LEDGER_UNAVAILABLE"
)

// WorkflowError is the outcome of a failed workflow run: the taxonomy code,
// the last state reached and the underlying cause.
type WorkflowError struct {
	Code  string
	State State
	Err   error
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("%s after %s: %v", e.Code, e.State, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

// Fail builds a WorkflowError.
func Fail(code string, state State, err error) *WorkflowError {
	return &WorkflowError{Code: code, State: state, Err: err}
}
