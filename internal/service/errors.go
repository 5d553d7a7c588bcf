package service

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownProvider       = errors.New("unknown oauth provider")
	ErrProviderNotConfigured = errors.New("OAuth credentials not configured")
	ErrClientClosed          = errors.New("client is closed")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Message string
}

func (ve ValidationError) Error() string {
	return ve.Message
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ProviderError is an OAuth provider's rejection or an unreachable provider.
// Rejected is false when the provider could not be reached at all.
type ProviderError struct {
	Provider string
	Message  string
	Details  string
	Rejected bool
	Err      error
}

func (pe ProviderError) Error() string {
	if pe.Details != "" {
		return fmt.Sprintf("%s: %s: %s", pe.Provider, pe.Message, pe.Details)
	}
	return fmt.Sprintf("%s: %s", pe.Provider, pe.Message)
}

func (pe ProviderError) Unwrap() error {
	return pe.Err
}

// RunError is a failed orchestrator invocation with its diagnostic output.
type RunError struct {
	Message string
	Output  string
	Err     error
}

func (re RunError) Error() string {
	return re.Message
}

func (re RunError) Unwrap() error {
	return re.Err
}
