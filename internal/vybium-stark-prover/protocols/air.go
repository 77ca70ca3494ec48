package protocols

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-stark-prover/internal/vybium-stark-prover/utils"
)

// AIR describes the algebraic constraint system of a computation.
//
// Constraints are divided into two kinds:
//  1. Transition: relations between consecutive trace rows, enforced on
//     every row pair except the wrap-around from last to first.
//  2. Boundary: assertions that a single trace cell holds a fixed value.
//
// The prover turns each constraint into a quotient over the extension
// domain and folds all quotients into one composition polynomial, so
// implementations only describe the relations.
type AIR interface {
	// TraceWidth returns the number of trace columns.
	TraceWidth() int

	// TransitionConstraints returns the transition constraints in a
	// fixed order. The order determines which composition coefficient
	// each constraint receives.
	TransitionConstraints() []TransitionConstraint

	// BoundaryConstraints returns the boundary assertions in a fixed
	// order, weighted after the transition constraints.
	BoundaryConstraints() []BoundaryConstraint

	// PeriodicColumns returns repeating helper columns made available
	// to transition evaluators, or nil if the system has none. Each
	// column must have a power-of-two length no longer than the trace.
	PeriodicColumns() [][]field.Element

	// PublicInputs returns the values the proof is bound to. They are
	// absorbed into the transcript seed before any commitment.
	PublicInputs() []field.Element
}

// TransitionConstraint is a relation between two consecutive trace
// rows.
type TransitionConstraint struct {
	// Name for diagnostics
	Name string

	// Degree is the declared algebraic degree of the relation in the
	// trace cells. The declared value must be at least the actual
	// degree or low-degree testing will fail.
	Degree int

	// Evaluate returns the constraint value for a pair of rows. The
	// periodic slice holds one value per periodic column, aligned with
	// the current row. A satisfied constraint evaluates to zero.
	Evaluate func(current, next, periodic []field.Element) field.Element
}

// BoundaryConstraint asserts that one trace cell holds a fixed value.
type BoundaryConstraint struct {
	Column int
	Row    int
	Value  field.Element
}

// ValidateAIR checks that a constraint system is well formed for the
// given trace length.
func ValidateAIR(air AIR, traceLength int) error {
	if air.TraceWidth() < 1 {
		return fmt.Errorf("trace width must be at least 1, got %d", air.TraceWidth())
	}

	transitions := air.TransitionConstraints()
	boundaries := air.BoundaryConstraints()
	if len(transitions)+len(boundaries) == 0 {
		return fmt.Errorf("constraint system is empty")
	}

	for i, constraint := range transitions {
		if constraint.Evaluate == nil {
			return fmt.Errorf("transition constraint %d (%s) has no evaluator", i, constraint.Name)
		}
		if constraint.Degree < 1 {
			return fmt.Errorf("transition constraint %d (%s) declares degree %d, must be at least 1",
				i, constraint.Name, constraint.Degree)
		}
	}

	for i, constraint := range boundaries {
		if constraint.Column < 0 || constraint.Column >= air.TraceWidth() {
			return fmt.Errorf("boundary constraint %d targets column %d outside width %d",
				i, constraint.Column, air.TraceWidth())
		}
		if constraint.Row < 0 || constraint.Row >= traceLength {
			return fmt.Errorf("boundary constraint %d targets row %d outside trace length %d",
				i, constraint.Row, traceLength)
		}
	}

	for i, column := range air.PeriodicColumns() {
		if len(column) == 0 || !utils.IsPowerOfTwo(len(column)) {
			return fmt.Errorf("periodic column %d has length %d, must be a positive power of two",
				i, len(column))
		}
		if len(column) > traceLength {
			return fmt.Errorf("periodic column %d has length %d exceeding trace length %d",
				i, len(column), traceLength)
		}
	}

	return nil
}

// MaxTransitionDegree returns the largest declared transition degree,
// or 1 when the system has no transition constraints.
func MaxTransitionDegree(air AIR) int {
	maxDegree := 1
	for _, constraint := range air.TransitionConstraints() {
		if constraint.Degree > maxDegree {
			maxDegree = constraint.Degree
		}
	}
	return maxDegree
}

// CountConstraints returns the total number of constraints, which is
// also the number of composition coefficients the transcript supplies.
func CountConstraints(air AIR) int {
	return len(air.TransitionConstraints()) + len(air.BoundaryConstraints())
}

// FibonacciAIR constrains a two-column Fibonacci trace. Row i holds
// the pair (a_i, b_i) with a_{i+1} = b_i and b_{i+1} = a_i + b_i,
// starting from (1, 1). The claimed sequence value after numRows steps
// is bound through a boundary assertion on the last row.
type FibonacciAIR struct {
	numRows int
	output  field.Element
}

// NewFibonacciAIR creates the constraint system for a Fibonacci trace
// of the given length with the given claimed output.
func NewFibonacciAIR(numRows int, output field.Element) (*FibonacciAIR, error) {
	if numRows < 2 || !utils.IsPowerOfTwo(numRows) {
		return nil, fmt.Errorf("fibonacci trace length must be a power of two of at least 2, got %d", numRows)
	}
	return &FibonacciAIR{numRows: numRows, output: output}, nil
}

// TraceWidth returns 2: one column per sequence register.
func (f *FibonacciAIR) TraceWidth() int {
	return 2
}

// TransitionConstraints returns the two linear recurrence relations.
func (f *FibonacciAIR) TransitionConstraints() []TransitionConstraint {
	return []TransitionConstraint{
		{
			Name:   "first_register_shifts",
			Degree: 1,
			Evaluate: func(current, next, periodic []field.Element) field.Element {
				return next[0].Sub(current[1])
			},
		},
		{
			Name:   "second_register_sums",
			Degree: 1,
			Evaluate: func(current, next, periodic []field.Element) field.Element {
				return next[1].Sub(current[0]).Sub(current[1])
			},
		},
	}
}

// BoundaryConstraints pins the two starting values and the claimed
// output.
func (f *FibonacciAIR) BoundaryConstraints() []BoundaryConstraint {
	return []BoundaryConstraint{
		{Column: 0, Row: 0, Value: field.One},
		{Column: 1, Row: 0, Value: field.One},
		{Column: 1, Row: f.numRows - 1, Value: f.output},
	}
}

// PeriodicColumns returns nil: the recurrence needs no helper columns.
func (f *FibonacciAIR) PeriodicColumns() [][]field.Element {
	return nil
}

// PublicInputs binds the starting pair and the claimed output.
func (f *FibonacciAIR) PublicInputs() []field.Element {
	return []field.Element{field.One, field.One, f.output}
}
