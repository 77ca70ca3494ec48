package vybiumstarkprover

import (
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"

	"github.com/vybium/vybium-stark-prover/internal/vybium-stark-prover/protocols"
)

// FieldElement represents an element of the prime field all traces and
// constraints are expressed over
type FieldElement = field.Element

// Digest represents a commitment digest
type Digest = hash.Digest

// Trace represents a column-major execution trace
type Trace = protocols.Trace

// AIR is the constraint system interface a computation implements
type AIR = protocols.AIR

// TransitionConstraint couples the current and next trace rows
type TransitionConstraint = protocols.TransitionConstraint

// BoundaryConstraint pins a single trace cell to a public value
type BoundaryConstraint = protocols.BoundaryConstraint

// ProofOptions configures a proving run
type ProofOptions = protocols.ProofOptions

// Proof represents a complete zkSTARK proof
type Proof = protocols.Proof

// OODEvaluations holds the out-of-domain evaluation vector
type OODEvaluations = protocols.OODEvaluations

// QueryOpening holds the authenticated openings for one query position
type QueryOpening = protocols.QueryOpening

// FRIProof represents the low degree sub-proof
type FRIProof = protocols.FRIProof

// FibonacciAIR is the built-in constraint system for the Fibonacci
// sequence
type FibonacciAIR = protocols.FibonacciAIR

// NewFieldElement creates a field element from an unsigned integer
func NewFieldElement(value uint64) FieldElement {
	return field.New(value)
}
