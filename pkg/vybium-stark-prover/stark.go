package vybiumstarkprover

import (
	"github.com/vybium/vybium-stark-prover/internal/vybium-stark-prover/protocols"
)

// Prover generates zkSTARK proofs for one constraint system
type Prover struct {
	inner *protocols.Prover
}

// NewProver creates a prover for the given constraint system. A nil
// options value selects DefaultProofOptions.
func NewProver(air AIR, options *ProofOptions) (*Prover, error) {
	inner, err := protocols.NewProver(air, options)
	if err != nil {
		return nil, &ProverError{
			Code:    ErrInvalidConfig,
			Message: "invalid prover configuration",
			Cause:   err,
		}
	}
	return &Prover{inner: inner}, nil
}

// Prove generates a proof that the trace satisfies the prover's
// constraint system
func (p *Prover) Prove(trace *Trace) (*Proof, error) {
	proof, err := p.inner.Prove(trace)
	if err != nil {
		return nil, &ProverError{
			Code:    ErrProofGeneration,
			Message: "proof generation failed",
			Cause:   err,
		}
	}
	return proof, nil
}

// DefaultProofOptions returns the standard parameter set: blowup 8,
// 30 queries, 16 grinding bits and one worker per CPU
func DefaultProofOptions() *ProofOptions {
	return protocols.DefaultProofOptions()
}

// NewTrace builds an execution trace from column-major data. Every
// column must have the same power-of-two length of at least 8 rows.
func NewTrace(columns [][]FieldElement) (*Trace, error) {
	trace, err := protocols.NewTrace(columns)
	if err != nil {
		return nil, &ProverError{
			Code:    ErrInvalidTrace,
			Message: "invalid execution trace",
			Cause:   err,
		}
	}
	return trace, nil
}

// NewFibonacciAIR builds the constraint system claiming that a
// two-register trace follows the Fibonacci recurrence from (1, 1) to
// the given output
func NewFibonacciAIR(numRows int, output FieldElement) (*FibonacciAIR, error) {
	air, err := protocols.NewFibonacciAIR(numRows, output)
	if err != nil {
		return nil, &ProverError{
			Code:    ErrInvalidAIR,
			Message: "invalid fibonacci constraint system",
			Cause:   err,
		}
	}
	return air, nil
}
