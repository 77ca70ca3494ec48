package core

import (
	"fmt"
	"math/bits"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// Transform performs radix-2 number-theoretic transforms over a
// multiplicative subgroup of the field. A transform of size n maps
// polynomial coefficients to evaluations over the order-n subgroup,
// optionally shifted onto a coset by a nonzero offset.
type Transform struct {
	n        int
	omega    field.Element
	omegaInv field.Element
	nInv     field.Element
}

// NewTransform prepares a transform over the subgroup of order n.
// The size must be a positive power of two that divides the order of
// the field's multiplicative group.
func NewTransform(n int) (*Transform, error) {
	if n <= 0 || n&(n-1) != 0 {
		return nil, fmt.Errorf("transform size must be a positive power of two, got %d", n)
	}
	return NewTransformWithRoot(n, field.PrimitiveRootOfUnity(uint64(n)))
}

// NewTransformWithRoot prepares a transform that uses the given
// primitive n-th root of unity instead of the canonical one. Callers
// that derive half-size domains by squaring a generator use this to
// keep evaluation order aligned with their own enumeration.
func NewTransformWithRoot(n int, omega field.Element) (*Transform, error) {
	if n <= 0 || n&(n-1) != 0 {
		return nil, fmt.Errorf("transform size must be a positive power of two, got %d", n)
	}
	if !Pow(omega, uint64(n)).Sub(field.One).IsZero() {
		return nil, fmt.Errorf("root order does not divide %d", n)
	}
	if n > 1 && Pow(omega, uint64(n/2)).Sub(field.One).IsZero() {
		return nil, fmt.Errorf("root order is below %d", n)
	}
	return &Transform{
		n:        n,
		omega:    omega,
		omegaInv: field.One.Div(omega),
		nInv:     field.One.Div(field.New(uint64(n))),
	}, nil
}

// Size returns the transform size.
func (t *Transform) Size() int {
	return t.n
}

// Generator returns the order-n subgroup generator the transform uses.
func (t *Transform) Generator() field.Element {
	return t.omega
}

// Evaluate maps polynomial coefficients to evaluations over the coset
// offset*H where H is the order-n subgroup. Coefficients beyond the
// transform size are rejected; shorter inputs are zero-padded. The
// result slot i holds the evaluation at offset*omega^i.
func (t *Transform) Evaluate(coefficients []field.Element, offset field.Element) ([]field.Element, error) {
	if len(coefficients) > t.n {
		return nil, fmt.Errorf("cannot evaluate %d coefficients on a size-%d transform", len(coefficients), t.n)
	}
	if offset.IsZero() {
		return nil, fmt.Errorf("coset offset must be nonzero")
	}

	values := make([]field.Element, t.n)
	copy(values, coefficients)

	// Shifting x to offset*x scales coefficient k by offset^k.
	if offset.Value() != field.One.Value() {
		scale := field.One
		for k := range values {
			values[k] = values[k].Mul(scale)
			scale = scale.Mul(offset)
		}
	}

	t.butterfly(values, t.omega)
	return values, nil
}

// Interpolate maps evaluations over the coset offset*H back to
// polynomial coefficients. The input length must equal the transform
// size.
func (t *Transform) Interpolate(evaluations []field.Element, offset field.Element) ([]field.Element, error) {
	if len(evaluations) != t.n {
		return nil, fmt.Errorf("expected %d evaluations, got %d", t.n, len(evaluations))
	}
	if offset.IsZero() {
		return nil, fmt.Errorf("coset offset must be nonzero")
	}

	coefficients := make([]field.Element, t.n)
	copy(coefficients, evaluations)

	t.butterfly(coefficients, t.omegaInv)
	for k := range coefficients {
		coefficients[k] = coefficients[k].Mul(t.nInv)
	}

	// Undo the coset shift by scaling coefficient k by offset^-k.
	if offset.Value() != field.One.Value() {
		offsetInv := field.One.Div(offset)
		scale := field.One
		for k := range coefficients {
			coefficients[k] = coefficients[k].Mul(scale)
			scale = scale.Mul(offsetInv)
		}
	}
	return coefficients, nil
}

// butterfly runs the in-place iterative Cooley-Tukey transform with the
// given principal root. Callers pass omega for the forward direction and
// its inverse for the backward direction.
func (t *Transform) butterfly(values []field.Element, root field.Element) {
	logN := bits.TrailingZeros(uint(t.n))
	for i := 0; i < t.n; i++ {
		j := int(bits.Reverse(uint(i)) >> (bits.UintSize - logN))
		if j > i {
			values[i], values[j] = values[j], values[i]
		}
	}

	for size := 2; size <= t.n; size *= 2 {
		half := size / 2
		step := Pow(root, uint64(t.n/size))
		for start := 0; start < t.n; start += size {
			w := field.One
			for k := 0; k < half; k++ {
				even := values[start+k]
				odd := values[start+k+half].Mul(w)
				values[start+k] = even.Add(odd)
				values[start+k+half] = even.Sub(odd)
				w = w.Mul(step)
			}
		}
	}
}
