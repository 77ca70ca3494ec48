package protocols

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/polynomial"

	"github.com/vybium/vybium-stark-prover/internal/vybium-stark-prover/core"
	"github.com/vybium/vybium-stark-prover/internal/vybium-stark-prover/utils"
)

// Composition holds the composition polynomial split into columns.
// The combined quotient codeword has degree up to (d-1)*(n-1) for
// maximum constraint degree d, too high to commit directly against the
// trace degree bound. Splitting coefficient range c*n..(c+1)*n into
// column c yields max(1, d-1) polynomials of degree below n that
// together reassemble the original through powers of X^n.
type Composition struct {
	polynomials [][]field.Element
	columns     [][]field.Element
	length      int
	traceLength int
}

// BuildComposition interpolates the combined quotient codeword, splits
// it into degree-bounded columns and evaluates every column over the
// extension domain. With debug checks enabled, coefficients beyond the
// degree bound are required to vanish; a violation means the trace
// does not satisfy the constraints or a declared degree is understated.
func BuildComposition(combined []field.Element, air AIR, domains *ProverDomains, options *ProofOptions) (*Composition, error) {
	coefficients, err := domains.LDE.Interpolate(combined)
	if err != nil {
		return nil, fmt.Errorf("failed to interpolate quotient codeword: %w", err)
	}

	n := domains.Trace.Length
	numColumns := MaxTransitionDegree(air) - 1
	if numColumns < 1 {
		numColumns = 1
	}

	if options.DebugChecks {
		for k := numColumns * n; k < len(coefficients); k++ {
			if !coefficients[k].IsZero() {
				return nil, fmt.Errorf(
					"composition coefficient %d is nonzero: constraints unsatisfied or a degree understated", k)
			}
		}
	}

	polynomials := make([][]field.Element, numColumns)
	columns := make([][]field.Element, numColumns)
	errors := make(chan error, numColumns)

	utils.Execute(numColumns, options.NumWorkers, func(start, end int) {
		for c := start; c < end; c++ {
			segment := make([]field.Element, n)
			copy(segment, coefficients[c*n:(c+1)*n])
			values, err := domains.LDE.Evaluate(segment)
			if err != nil {
				errors <- fmt.Errorf("failed to evaluate composition column %d: %w", c, err)
				return
			}
			polynomials[c] = segment
			columns[c] = values
		}
	})
	close(errors)

	if err := <-errors; err != nil {
		return nil, err
	}

	return &Composition{
		polynomials: polynomials,
		columns:     columns,
		length:      domains.LDE.Length,
		traceLength: n,
	}, nil
}

// NumColumns returns the number of composition columns.
func (c *Composition) NumColumns() int {
	return len(c.columns)
}

// Column returns the extension-domain evaluations of one column.
func (c *Composition) Column(index int) []field.Element {
	return c.columns[index]
}

// Row assembles the composition row at the given extension index.
func (c *Composition) Row(index int) []field.Element {
	row := make([]field.Element, len(c.columns))
	for j, column := range c.columns {
		row[j] = column[index]
	}
	return row
}

// EvaluateColumnsAt evaluates every column polynomial at the given
// point.
func (c *Composition) EvaluateColumnsAt(point field.Element) []field.Element {
	values := make([]field.Element, len(c.polynomials))
	for j, coefficients := range c.polynomials {
		values[j] = polynomial.New(coefficients).Evaluate(point)
	}
	return values
}

// Commit hashes every composition row into a leaf and builds the
// Merkle tree over the leaves.
func (c *Composition) Commit(workers int) (*core.MerkleTree, error) {
	return commitRowMajor(c.columns, c.length, workers)
}
