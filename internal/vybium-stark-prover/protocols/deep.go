package protocols

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-stark-prover/internal/vybium-stark-prover/core"
)

// maxOODAttempts bounds the retry loop for the out-of-domain point. A
// uniform draw lands on a domain element with probability around
// 2^-32, so more than a couple of retries indicate a broken coin.
const maxOODAttempts = 8

// OODEvaluations holds the out-of-domain evaluations binding the
// committed composition polynomial to the committed trace: one entry
// per trace column and one per composition column, all at the same
// random point.
type OODEvaluations struct {
	Point       field.Element
	Trace       []field.Element
	Composition []field.Element
}

// drawOODPoint draws the out-of-domain point from the coin. Points on
// the trace subgroup or the extension coset are rejected: evaluating
// there would leak a committed value and break the consistency
// argument. Exhausting the retry budget is a fatal internal error.
func drawOODPoint(coin *Coin, domains *ProverDomains) (field.Element, error) {
	n := uint64(domains.Trace.Length)
	ldeLength := uint64(domains.LDE.Length)
	cosetAnchor := core.Pow(domains.LDE.Offset, ldeLength)

	for attempt := 0; attempt < maxOODAttempts; attempt++ {
		z, err := coin.DrawElement()
		if err != nil {
			return field.Zero, fmt.Errorf("out-of-domain draw: %w", err)
		}
		if core.Pow(z, n).Sub(field.One).IsZero() {
			continue
		}
		if core.Pow(z, ldeLength).Sub(cosetAnchor).IsZero() {
			continue
		}
		return z, nil
	}
	return field.Zero, fmt.Errorf("no out-of-domain point after %d attempts", maxOODAttempts)
}

// evaluateOOD evaluates every trace polynomial and every composition
// column at the out-of-domain point. These are true polynomial
// evaluations, not domain lookups.
func evaluateOOD(extended *ExtendedTrace, composition *Composition, point field.Element) *OODEvaluations {
	return &OODEvaluations{
		Point:       point,
		Trace:       extended.EvaluateColumnsAt(point),
		Composition: composition.EvaluateColumnsAt(point),
	}
}

// transcriptBytes returns the canonical transcript encoding of the
// evaluations: trace entries then composition entries, each as eight
// little-endian bytes.
func (o *OODEvaluations) transcriptBytes() []byte {
	buf := make([]byte, 0, 8*(len(o.Trace)+len(o.Composition)))
	buf = append(buf, elementsBytes(o.Trace)...)
	buf = append(buf, elementsBytes(o.Composition)...)
	return buf
}
