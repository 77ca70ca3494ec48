package protocols

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-stark-prover/internal/vybium-stark-prover/core"
	"github.com/vybium/vybium-stark-prover/internal/vybium-stark-prover/utils"
)

// ldeOffset is the coset shift for the low-degree extension domain.
// Seven generates the full multiplicative group, so the shifted coset
// is disjoint from every power-of-two subgroup the trace lives on.
var ldeOffset = field.New(7)

// ArithmeticDomain is a coset of a multiplicative subgroup:
// {offset * generator^i : i = 0..length-1}. All domains have
// power-of-two lengths so polynomials move between coefficient and
// evaluation form through the number-theoretic transform.
type ArithmeticDomain struct {
	// Offset shifts the domain (field.One for no offset)
	Offset field.Element

	// Generator is a primitive n-th root of unity where n = Length
	Generator field.Element

	// Length is the number of elements in the domain
	Length int

	transform *core.Transform
}

// NewArithmeticDomain creates a domain of the given length with no
// offset.
func NewArithmeticDomain(length int) (*ArithmeticDomain, error) {
	transform, err := core.NewTransform(length)
	if err != nil {
		return nil, fmt.Errorf("domain of length %d: %w", length, err)
	}
	return &ArithmeticDomain{
		Offset:    field.One,
		Generator: transform.Generator(),
		Length:    length,
		transform: transform,
	}, nil
}

// WithOffset returns a copy of the domain shifted by the given offset.
// The underlying transform is shared since it does not depend on the
// offset.
func (d *ArithmeticDomain) WithOffset(offset field.Element) *ArithmeticDomain {
	return &ArithmeticDomain{
		Offset:    offset,
		Generator: d.Generator,
		Length:    d.Length,
		transform: d.transform,
	}
}

// Halve returns the domain of squares: offset and generator are both
// squared and the length is cut in two. This is the domain a folded
// codeword lives on.
func (d *ArithmeticDomain) Halve() (*ArithmeticDomain, error) {
	if d.Length < 2 {
		return nil, fmt.Errorf("cannot halve domain of length %d", d.Length)
	}

	halfGenerator := d.Generator.Mul(d.Generator)
	transform, err := core.NewTransformWithRoot(d.Length/2, halfGenerator)
	if err != nil {
		return nil, fmt.Errorf("halved domain: %w", err)
	}
	return &ArithmeticDomain{
		Offset:    d.Offset.Mul(d.Offset),
		Generator: halfGenerator,
		Length:    d.Length / 2,
		transform: transform,
	}, nil
}

// Elements returns every domain point in order.
func (d *ArithmeticDomain) Elements() []field.Element {
	elements := make([]field.Element, d.Length)
	current := d.Offset
	for i := 0; i < d.Length; i++ {
		elements[i] = current
		current = current.Mul(d.Generator)
	}
	return elements
}

// Element returns the domain point at the given index.
func (d *ArithmeticDomain) Element(index int) field.Element {
	return d.Offset.Mul(core.Pow(d.Generator, uint64(index)))
}

// Evaluate maps polynomial coefficients to evaluations over the whole
// domain.
func (d *ArithmeticDomain) Evaluate(coefficients []field.Element) ([]field.Element, error) {
	return d.transform.Evaluate(coefficients, d.Offset)
}

// Interpolate maps evaluations over the whole domain back to
// polynomial coefficients.
func (d *ArithmeticDomain) Interpolate(values []field.Element) ([]field.Element, error) {
	return d.transform.Interpolate(values, d.Offset)
}

// String returns a human-readable representation
func (d *ArithmeticDomain) String() string {
	return fmt.Sprintf("Domain{length: %d, offset: %d}", d.Length, d.Offset.Value())
}

// ProverDomains bundles the two domains the prover works over: the
// trace domain carrying the execution trace and the shifted
// low-degree extension domain everything is committed on.
type ProverDomains struct {
	Trace *ArithmeticDomain
	LDE   *ArithmeticDomain
}

// DeriveProverDomains computes both prover domains from the trace
// length and the blowup factor. The LDE domain is blowup times larger
// than the trace domain and sits on the coset shifted by the field
// generator.
func DeriveProverDomains(traceLength, blowupFactor int) (*ProverDomains, error) {
	if !utils.IsPowerOfTwo(traceLength) {
		return nil, fmt.Errorf("trace length must be a power of two, got %d", traceLength)
	}
	if blowupFactor < 2 || !utils.IsPowerOfTwo(blowupFactor) {
		return nil, fmt.Errorf("blowup factor must be a power of two of at least 2, got %d", blowupFactor)
	}

	lde, err := NewArithmeticDomain(traceLength * blowupFactor)
	if err != nil {
		return nil, fmt.Errorf("extension domain: %w", err)
	}

	// The trace domain is derived from the extension domain rather than
	// built independently: its generator is the blowup-th power of the
	// extension generator, so stepping blowup slots in the extension
	// domain advances exactly one trace row.
	traceGenerator := core.Pow(lde.Generator, uint64(blowupFactor))
	traceTransform, err := core.NewTransformWithRoot(traceLength, traceGenerator)
	if err != nil {
		return nil, fmt.Errorf("trace domain: %w", err)
	}
	trace := &ArithmeticDomain{
		Offset:    field.One,
		Generator: traceGenerator,
		Length:    traceLength,
		transform: traceTransform,
	}

	return &ProverDomains{
		Trace: trace,
		LDE:   lde.WithOffset(ldeOffset),
	}, nil
}

// String returns a human-readable representation of both domains
func (pd *ProverDomains) String() string {
	return fmt.Sprintf("ProverDomains{trace: %s, lde: %s}", pd.Trace, pd.LDE)
}
