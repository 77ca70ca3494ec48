package protocols

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/polynomial"

	"github.com/vybium/vybium-stark-prover/internal/vybium-stark-prover/core"
	"github.com/vybium/vybium-stark-prover/internal/vybium-stark-prover/utils"
)

// minTraceLength keeps the extension domain large enough for at least
// one folding round of the low-degree test.
const minTraceLength = 8

// Trace holds a column-major execution trace. Every column has the
// same power-of-two length and describes one register of the traced
// computation over time.
type Trace struct {
	columns [][]field.Element
	length  int
}

// NewTrace creates a trace from column-major data. The columns are
// copied so later mutation by the caller cannot corrupt the proof.
func NewTrace(columns [][]field.Element) (*Trace, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("trace needs at least one column")
	}

	length := len(columns[0])
	if length < minTraceLength || !utils.IsPowerOfTwo(length) {
		return nil, fmt.Errorf("trace length must be a power of two of at least %d, got %d",
			minTraceLength, length)
	}
	for i, column := range columns {
		if len(column) != length {
			return nil, fmt.Errorf("trace column %d has length %d, expected %d", i, len(column), length)
		}
	}

	copied := make([][]field.Element, len(columns))
	for i, column := range columns {
		copied[i] = append([]field.Element(nil), column...)
	}
	return &Trace{columns: copied, length: length}, nil
}

// Width returns the number of trace columns.
func (t *Trace) Width() int {
	return len(t.columns)
}

// Length returns the number of trace rows.
func (t *Trace) Length() int {
	return t.length
}

// Column returns the trace column at the given index.
func (t *Trace) Column(index int) []field.Element {
	return t.columns[index]
}

// Row assembles the trace row at the given index.
func (t *Trace) Row(index int) []field.Element {
	row := make([]field.Element, len(t.columns))
	for j, column := range t.columns {
		row[j] = column[index]
	}
	return row
}

// LowDegreeExtend interpolates every column over the trace domain and
// evaluates the resulting polynomial over the extension domain.
// Columns are processed concurrently, bounded by the worker count.
func (t *Trace) LowDegreeExtend(domains *ProverDomains, workers int) (*ExtendedTrace, error) {
	if t.length != domains.Trace.Length {
		return nil, fmt.Errorf("trace length %d does not match trace domain length %d",
			t.length, domains.Trace.Length)
	}

	width := len(t.columns)
	polynomials := make([][]field.Element, width)
	extended := make([][]field.Element, width)
	errors := make(chan error, width)

	utils.Execute(width, workers, func(start, end int) {
		for col := start; col < end; col++ {
			coefficients, err := domains.Trace.Interpolate(t.columns[col])
			if err != nil {
				errors <- fmt.Errorf("failed to interpolate column %d: %w", col, err)
				return
			}
			values, err := domains.LDE.Evaluate(coefficients)
			if err != nil {
				errors <- fmt.Errorf("failed to extend column %d: %w", col, err)
				return
			}
			polynomials[col] = coefficients
			extended[col] = values
		}
	})
	close(errors)

	if err := <-errors; err != nil {
		return nil, err
	}

	return &ExtendedTrace{
		polynomials: polynomials,
		columns:     extended,
		length:      domains.LDE.Length,
	}, nil
}

// ExtendedTrace carries the trace polynomials in coefficient form
// together with their evaluations over the extension domain.
type ExtendedTrace struct {
	polynomials [][]field.Element
	columns     [][]field.Element
	length      int
}

// Width returns the number of columns.
func (et *ExtendedTrace) Width() int {
	return len(et.columns)
}

// Length returns the extension domain length.
func (et *ExtendedTrace) Length() int {
	return et.length
}

// Column returns the extended column at the given index.
func (et *ExtendedTrace) Column(index int) []field.Element {
	return et.columns[index]
}

// Row assembles the extended trace row at the given index.
func (et *ExtendedTrace) Row(index int) []field.Element {
	row := make([]field.Element, len(et.columns))
	for j, column := range et.columns {
		row[j] = column[index]
	}
	return row
}

// EvaluateColumnsAt evaluates every trace polynomial at the given
// point, which need not lie on any domain.
func (et *ExtendedTrace) EvaluateColumnsAt(point field.Element) []field.Element {
	values := make([]field.Element, len(et.polynomials))
	for j, coefficients := range et.polynomials {
		values[j] = polynomial.New(coefficients).Evaluate(point)
	}
	return values
}

// Commit hashes every extended trace row into a leaf and builds the
// Merkle tree over the leaves.
func (et *ExtendedTrace) Commit(workers int) (*core.MerkleTree, error) {
	return commitRowMajor(et.columns, et.length, workers)
}

// commitRowMajor hashes each cross-column row into a Tip5 leaf and
// builds the Merkle tree. Row hashing is chunked across the workers;
// chunking never changes the leaf order, so the root does not depend
// on the worker count.
func commitRowMajor(columns [][]field.Element, length, workers int) (*core.MerkleTree, error) {
	leaves := make([]hash.Digest, length)
	utils.Execute(length, workers, func(start, end int) {
		row := make([]field.Element, len(columns))
		for i := start; i < end; i++ {
			for j := range columns {
				row[j] = columns[j][i]
			}
			leaves[i] = hash.HashVarlen(row)
		}
	})
	return core.NewMerkleTree(leaves)
}
