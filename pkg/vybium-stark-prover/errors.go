package vybiumstarkprover

import "fmt"

// ErrorCode represents a prover error code
type ErrorCode int

const (
	// ErrUnknown represents an unknown error
	ErrUnknown ErrorCode = iota

	// ErrInvalidConfig represents an invalid configuration error
	ErrInvalidConfig

	// ErrInvalidTrace represents a malformed execution trace error
	ErrInvalidTrace

	// ErrInvalidAIR represents a malformed constraint system error
	ErrInvalidAIR

	// ErrProofGeneration represents a proof generation error
	ErrProofGeneration
)

// ProverError represents a vybium-stark-prover error
type ProverError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error returns the error message
func (e *ProverError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("vybium-stark-prover error [%d]: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("vybium-stark-prover error [%d]: %s", e.Code, e.Message)
}

// Unwrap returns the cause of the error
func (e *ProverError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error
func (e *ProverError) Is(target error) bool {
	t, ok := target.(*ProverError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}
