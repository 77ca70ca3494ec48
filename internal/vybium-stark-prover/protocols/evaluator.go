package protocols

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-stark-prover/internal/vybium-stark-prover/core"
	"github.com/vybium/vybium-stark-prover/internal/vybium-stark-prover/utils"
)

// ConstraintEvaluator evaluates every constraint quotient over the
// extension domain and folds them into a single codeword.
//
// Transition constraints are divided by the transition zerofier
// (X^n - 1) / (X - g^(n-1)), which vanishes on every trace row except
// the last. Boundary constraints are divided by (X - g^row). All
// divisions happen on the shifted coset where neither zerofier has a
// root, so every division is a field multiplication by a precomputed
// inverse.
type ConstraintEvaluator struct {
	air      AIR
	domains  *ProverDomains
	extended *ExtendedTrace
	blowup   int

	ldeElements []field.Element

	// invVanishing holds 1 / (x^n - 1) per residue class of the
	// extension index modulo the blowup factor. The vanishing
	// polynomial only takes blowup distinct values on the coset.
	invVanishing []field.Element

	// lastPoint is g^(n-1), the excluded row of the transition
	// zerofier.
	lastPoint field.Element

	// periodicLDE holds the periodic columns extended to the full
	// evaluation domain.
	periodicLDE [][]field.Element
}

// NewConstraintEvaluator prepares the zerofier inverses and periodic
// column extensions for the given constraint system and trace.
func NewConstraintEvaluator(air AIR, domains *ProverDomains, extended *ExtendedTrace) (*ConstraintEvaluator, error) {
	if extended.Width() != air.TraceWidth() {
		return nil, fmt.Errorf("constraint system expects width %d, trace has %d",
			air.TraceWidth(), extended.Width())
	}

	n := domains.Trace.Length
	blowup := domains.LDE.Length / n

	// x^n - 1 over the coset, one value per residue class.
	offsetPow := core.Pow(domains.LDE.Offset, uint64(n))
	step := core.Pow(domains.LDE.Generator, uint64(n))
	vanishing := make([]field.Element, blowup)
	value := offsetPow
	for k := 0; k < blowup; k++ {
		vanishing[k] = value.Sub(field.One)
		value = value.Mul(step)
	}
	invVanishing, err := core.BatchInverse(vanishing)
	if err != nil {
		return nil, fmt.Errorf("vanishing polynomial has a root on the coset: %w", err)
	}

	periodicLDE, err := extendPeriodicColumns(air.PeriodicColumns(), domains)
	if err != nil {
		return nil, err
	}

	return &ConstraintEvaluator{
		air:          air,
		domains:      domains,
		extended:     extended,
		blowup:       blowup,
		ldeElements:  domains.LDE.Elements(),
		invVanishing: invVanishing,
		lastPoint:    core.Pow(domains.Trace.Generator, uint64(n-1)),
		periodicLDE:  periodicLDE,
	}, nil
}

// extendPeriodicColumns tiles each periodic column across the trace
// domain and extends it to the evaluation domain, so transition
// evaluators can read periodic values at any extension index.
func extendPeriodicColumns(columns [][]field.Element, domains *ProverDomains) ([][]field.Element, error) {
	if len(columns) == 0 {
		return nil, nil
	}

	extended := make([][]field.Element, len(columns))
	for k, column := range columns {
		tiled := make([]field.Element, domains.Trace.Length)
		for i := range tiled {
			tiled[i] = column[i%len(column)]
		}
		coefficients, err := domains.Trace.Interpolate(tiled)
		if err != nil {
			return nil, fmt.Errorf("failed to interpolate periodic column %d: %w", k, err)
		}
		values, err := domains.LDE.Evaluate(coefficients)
		if err != nil {
			return nil, fmt.Errorf("failed to extend periodic column %d: %w", k, err)
		}
		extended[k] = values
	}
	return extended, nil
}

// EvaluateQuotients computes the weighted sum of every constraint
// quotient over the extension domain. The coefficient slice pairs one
// weight with each constraint: transition constraints first, boundary
// constraints after, both in declaration order.
func (ce *ConstraintEvaluator) EvaluateQuotients(coefficients []field.Element, workers int) ([]field.Element, error) {
	transitions := ce.air.TransitionConstraints()
	boundaries := ce.air.BoundaryConstraints()
	if len(coefficients) != len(transitions)+len(boundaries) {
		return nil, fmt.Errorf("need %d constraint coefficients, got %d",
			len(transitions)+len(boundaries), len(coefficients))
	}

	invBoundary, err := ce.invertBoundaryDenominators(boundaries)
	if err != nil {
		return nil, err
	}

	n := ce.domains.LDE.Length
	width := ce.extended.Width()
	combined := make([]field.Element, n)

	utils.Execute(n, workers, func(start, end int) {
		current := make([]field.Element, width)
		next := make([]field.Element, width)
		periodic := make([]field.Element, len(ce.periodicLDE))

		for i := start; i < end; i++ {
			for j := 0; j < width; j++ {
				current[j] = ce.extended.columns[j][i]
				next[j] = ce.extended.columns[j][(i+ce.blowup)%n]
			}
			for k := range ce.periodicLDE {
				periodic[k] = ce.periodicLDE[k][i]
			}

			// (x - g^(n-1)) / (x^n - 1), the inverse transition
			// zerofier at this point.
			invZerofier := ce.ldeElements[i].Sub(ce.lastPoint).Mul(ce.invVanishing[i%ce.blowup])

			value := field.Zero
			weight := 0
			for _, constraint := range transitions {
				evaluated := constraint.Evaluate(current, next, periodic)
				value = value.Add(coefficients[weight].Mul(evaluated).Mul(invZerofier))
				weight++
			}
			for b, boundary := range boundaries {
				numerator := ce.extended.columns[boundary.Column][i].Sub(boundary.Value)
				value = value.Add(coefficients[weight].Mul(numerator).Mul(invBoundary[b][i]))
				weight++
			}
			combined[i] = value
		}
	})

	return combined, nil
}

// invertBoundaryDenominators precomputes 1 / (x - g^row) over the
// whole extension domain for every boundary constraint.
func (ce *ConstraintEvaluator) invertBoundaryDenominators(boundaries []BoundaryConstraint) ([][]field.Element, error) {
	if len(boundaries) == 0 {
		return nil, nil
	}

	inverted := make([][]field.Element, len(boundaries))
	for b, boundary := range boundaries {
		point := core.Pow(ce.domains.Trace.Generator, uint64(boundary.Row))
		denominators := make([]field.Element, len(ce.ldeElements))
		for i, x := range ce.ldeElements {
			denominators[i] = x.Sub(point)
		}
		inverses, err := core.BatchInverse(denominators)
		if err != nil {
			return nil, fmt.Errorf("boundary zerofier for row %d has a root on the coset: %w",
				boundary.Row, err)
		}
		inverted[b] = inverses
	}
	return inverted, nil
}
