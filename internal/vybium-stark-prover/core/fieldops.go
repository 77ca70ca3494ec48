package core

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// Pow raises base to the given exponent by square and multiply.
func Pow(base field.Element, exp uint64) field.Element {
	result := field.One
	acc := base
	for exp > 0 {
		if exp&1 == 1 {
			result = result.Mul(acc)
		}
		acc = acc.Mul(acc)
		exp >>= 1
	}
	return result
}

// Inverse returns the multiplicative inverse of x.
func Inverse(x field.Element) field.Element {
	return field.One.Div(x)
}

// Negate returns the additive inverse of x.
func Negate(x field.Element) field.Element {
	return field.Zero.Sub(x)
}

// Powers returns the first count powers of base, starting at one.
func Powers(base field.Element, count int) []field.Element {
	powers := make([]field.Element, count)
	if count == 0 {
		return powers
	}
	powers[0] = field.One
	for i := 1; i < count; i++ {
		powers[i] = powers[i-1].Mul(base)
	}
	return powers
}

// BatchInverse inverts every element of values using a single division.
// It accumulates prefix products, inverts the total product once, then
// unwinds the prefixes to recover each individual inverse. Fails if any
// input element is zero.
func BatchInverse(values []field.Element) ([]field.Element, error) {
	prefixes := make([]field.Element, len(values))
	acc := field.One
	for i, v := range values {
		if v.IsZero() {
			return nil, fmt.Errorf("batch inverse: element %d is zero", i)
		}
		prefixes[i] = acc
		acc = acc.Mul(v)
	}

	inverses := make([]field.Element, len(values))
	accInv := field.One.Div(acc)
	for i := len(values) - 1; i >= 0; i-- {
		inverses[i] = accInv.Mul(prefixes[i])
		accInv = accInv.Mul(values[i])
	}
	return inverses, nil
}
