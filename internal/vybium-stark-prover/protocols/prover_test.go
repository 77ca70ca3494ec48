package protocols

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/polynomial"

	"github.com/vybium/vybium-stark-prover/internal/vybium-stark-prover/core"
	"github.com/vybium/vybium-stark-prover/internal/vybium-stark-prover/logger"
)

func TestMain(m *testing.M) {
	logger.Disable()
	os.Exit(m.Run())
}

// testOptions returns fast proof options for the package tests: light
// grinding and a couple of workers.
func testOptions() *ProofOptions {
	return DefaultProofOptions().
		WithBlowupFactor(4).
		WithNumQueries(3).
		WithGrindingBits(4).
		WithNumWorkers(2)
}

func proveFibonacci(t *testing.T, numRows int, options *ProofOptions) (*Prover, *Trace, *Proof) {
	t.Helper()
	trace, err := NewTrace(fibonacciTrace(numRows))
	if err != nil {
		t.Fatalf("new trace: %v", err)
	}
	air, err := NewFibonacciAIR(numRows, fibonacciOutput(numRows))
	if err != nil {
		t.Fatalf("new air: %v", err)
	}
	prover, err := NewProver(air, options)
	if err != nil {
		t.Fatalf("new prover: %v", err)
	}
	proof, err := prover.Prove(trace)
	if err != nil {
		t.Fatalf("prove: %v", err)
	}
	return prover, trace, proof
}

// replayProof is the verifier side of the protocol, reimplemented from
// the proof contents alone: it re-derives the full coin transcript,
// checks the proof of work, authenticates every Merkle opening and
// walks the folding chain down to the terminal polynomial.
func replayProof(prover *Prover, proof *Proof) error {
	domains, err := DeriveProverDomains(proof.TraceLength, proof.BlowupFactor)
	if err != nil {
		return fmt.Errorf("derive domains: %w", err)
	}
	coin := NewCoin(prover.contextSeed(proof.TraceLength))

	coin.Reseed(digestBytes(proof.TraceRoot))
	if _, err := coin.DrawElements(CountConstraints(prover.air)); err != nil {
		return fmt.Errorf("redraw constraint weights: %w", err)
	}
	coin.Reseed(digestBytes(proof.CompositionRoot))

	point, err := drawOODPoint(coin, domains)
	if err != nil {
		return fmt.Errorf("redraw out-of-domain point: %w", err)
	}
	if point.Value() != proof.OOD.Point.Value() {
		return fmt.Errorf("out-of-domain point mismatch: drew %d, proof holds %d", point.Value(), proof.OOD.Point.Value())
	}
	coin.Reseed(proof.OOD.transcriptBytes())

	if !coin.checkNonce(proof.PowNonce, proof.GrindingBits) {
		return fmt.Errorf("nonce %d does not clear %d difficulty bits", proof.PowNonce, proof.GrindingBits)
	}
	var nonce [8]byte
	binary.LittleEndian.PutUint64(nonce[:], proof.PowNonce)
	coin.Reseed(nonce[:])

	positions, err := coin.DrawIntegers(len(proof.Queries), domains.LDE.Length)
	if err != nil {
		return fmt.Errorf("redraw query positions: %w", err)
	}
	sort.Ints(positions)
	for q, query := range proof.Queries {
		if query.Position != positions[q] {
			return fmt.Errorf("query %d: position %d does not match drawn %d", q, query.Position, positions[q])
		}
		if !core.VerifyProof(proof.TraceRoot, hash.HashVarlen(query.TraceRow), query.TracePath, query.Position) {
			return fmt.Errorf("query %d: trace opening rejected", q)
		}
		if !core.VerifyProof(proof.CompositionRoot, hash.HashVarlen(query.CompositionRow), query.CompositionPath, query.Position) {
			return fmt.Errorf("query %d: composition opening rejected", q)
		}
	}

	return replayFRI(proof, domains, coin, positions)
}

// replayFRI checks the folding chain: every layer opening must hash to
// its committed leaf, agree with the value folded so far, and the
// terminal polynomial must reproduce the last folded values.
func replayFRI(proof *Proof, domains *ProverDomains, coin *Coin, positions []int) error {
	numColumns := len(proof.OOD.Composition)
	degreeBound := numColumns * proof.TraceLength
	rounds := 0
	for bound := degreeBound; bound > friTerminalDegree; bound /= 2 {
		rounds++
	}
	if len(proof.FRI.LayerRoots) != rounds || len(proof.FRI.LayerOpenings) != rounds {
		return fmt.Errorf("expected %d folding layers, proof holds %d roots and %d opening sets",
			rounds, len(proof.FRI.LayerRoots), len(proof.FRI.LayerOpenings))
	}

	// Recombine the split composition columns to recover the combined
	// codeword value at each queried position.
	n := uint64(proof.TraceLength)
	expected := make([]field.Element, len(positions))
	for q, position := range positions {
		x := domains.LDE.Element(position)
		value := field.Zero
		for c, columnValue := range proof.Queries[q].CompositionRow {
			value = value.Add(core.Pow(x, uint64(c)*n).Mul(columnValue))
		}
		expected[q] = value
	}

	indices := append([]int(nil), positions...)
	layerDomain := domains.LDE
	invTwo := core.Inverse(field.New(2))
	for round := 0; round < rounds; round++ {
		root := proof.FRI.LayerRoots[round]
		coin.Reseed(digestBytes(root))
		alpha, err := coin.DrawElement()
		if err != nil {
			return fmt.Errorf("redraw folding challenge %d: %w", round, err)
		}

		half := layerDomain.Length / 2
		for q := range indices {
			folded := indices[q] % half
			opening := proof.FRI.LayerOpenings[round][q]
			leaf := hash.HashVarlen([]field.Element{opening.PairValues[0], opening.PairValues[1]})
			if !core.VerifyProof(root, leaf, opening.Path, folded) {
				return fmt.Errorf("layer %d query %d: opening rejected", round, q)
			}
			slot := 0
			if indices[q] >= half {
				slot = 1
			}
			if opening.PairValues[slot].Value() != expected[q].Value() {
				return fmt.Errorf("layer %d query %d: codeword value does not match the folded chain", round, q)
			}

			x := layerDomain.Element(folded)
			even := opening.PairValues[0].Add(opening.PairValues[1]).Mul(invTwo)
			odd := opening.PairValues[0].Sub(opening.PairValues[1]).Mul(invTwo).Mul(core.Inverse(x))
			expected[q] = even.Add(alpha.Mul(odd))
			indices[q] = folded
		}

		layerDomain, err = layerDomain.Halve()
		if err != nil {
			return fmt.Errorf("halve domain after layer %d: %w", round, err)
		}
	}

	finalBound := degreeBound >> uint(rounds)
	if len(proof.FRI.FinalCoefficients) != finalBound {
		return fmt.Errorf("terminal polynomial has %d coefficients, expected %d", len(proof.FRI.FinalCoefficients), finalBound)
	}
	remainder := polynomial.New(proof.FRI.FinalCoefficients)
	for q, index := range indices {
		if remainder.Evaluate(layerDomain.Element(index)).Value() != expected[q].Value() {
			return fmt.Errorf("query %d: terminal polynomial disagrees with the folded chain", q)
		}
	}
	coin.Reseed(elementsBytes(proof.FRI.FinalCoefficients))
	return nil
}

func TestProveFibonacciVerifies(t *testing.T) {
	tests := []struct {
		name    string
		numRows int
		options *ProofOptions
	}{
		{"minimum parameters", 8, testOptions().WithBlowupFactor(2)},
		{"standard parameters", 8, testOptions()},
		{"with folding rounds", 64, testOptions().WithNumQueries(5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prover, _, proof := proveFibonacci(t, tt.numRows, tt.options)
			if err := replayProof(prover, proof); err != nil {
				t.Errorf("proof does not verify: %v", err)
			}
		})
	}
}

func TestProofRecordCounts(t *testing.T) {
	_, _, proof := proveFibonacci(t, 8, testOptions())

	if len(proof.Queries) != 3 {
		t.Errorf("expected exactly 3 query records, got %d", len(proof.Queries))
	}
	if len(proof.OOD.Trace) != 2 {
		t.Errorf("expected one out-of-domain entry per trace column, got %d", len(proof.OOD.Trace))
	}
	if len(proof.OOD.Composition) != 1 {
		t.Errorf("expected one out-of-domain entry per composition column, got %d", len(proof.OOD.Composition))
	}
	for _, query := range proof.Queries {
		if len(query.TraceRow) != 2 {
			t.Errorf("trace opening should hold 2 columns, got %d", len(query.TraceRow))
		}
		if len(query.CompositionRow) != 1 {
			t.Errorf("composition opening should hold 1 column, got %d", len(query.CompositionRow))
		}
	}

	// Degree bound 8 folds to the terminal bound in a single round.
	if len(proof.FRI.LayerRoots) != 1 {
		t.Errorf("expected one folding layer, got %d", len(proof.FRI.LayerRoots))
	}
	if len(proof.FRI.FinalCoefficients) != 4 {
		t.Errorf("expected 4 terminal coefficients, got %d", len(proof.FRI.FinalCoefficients))
	}
}

func TestFoldingLayerCount(t *testing.T) {
	_, _, proof := proveFibonacci(t, 64, testOptions())

	// Bound 64 folds to 4 in four rounds.
	if len(proof.FRI.LayerRoots) != 4 {
		t.Errorf("expected 4 folding layers, got %d", len(proof.FRI.LayerRoots))
	}
	for round, layer := range proof.FRI.LayerOpenings {
		if len(layer) != len(proof.Queries) {
			t.Errorf("layer %d: expected %d openings, got %d", round, len(proof.Queries), len(layer))
		}
	}
}

func TestQueryPositionsSortedAndDistinct(t *testing.T) {
	_, _, proof := proveFibonacci(t, 8, testOptions().WithNumQueries(10))
	for q := 1; q < len(proof.Queries); q++ {
		if proof.Queries[q-1].Position >= proof.Queries[q].Position {
			t.Fatalf("positions not strictly increasing at record %d: %d then %d",
				q, proof.Queries[q-1].Position, proof.Queries[q].Position)
		}
	}
}

func TestProofDeterminism(t *testing.T) {
	_, _, first := proveFibonacci(t, 8, testOptions())
	_, _, second := proveFibonacci(t, 8, testOptions())
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Error("same trace and options should yield byte-identical proofs")
	}
}

func TestSerialParallelProofsIdentical(t *testing.T) {
	_, _, serial := proveFibonacci(t, 64, testOptions().WithNumWorkers(1))
	_, _, parallel := proveFibonacci(t, 64, testOptions().WithNumWorkers(8))

	elements := cmp.Comparer(func(a, b field.Element) bool { return a.Value() == b.Value() })
	if diff := cmp.Diff(serial, parallel, elements); diff != "" {
		t.Errorf("worker count changed the proof (-serial +parallel):\n%s", diff)
	}
	if !bytes.Equal(serial.Bytes(), parallel.Bytes()) {
		t.Error("serialized proofs differ between worker counts")
	}
}

func TestCorruptedTraceRejected(t *testing.T) {
	const numRows = 64
	columns := fibonacciTrace(numRows)
	columns[0][5] = columns[0][5].Add(field.One)
	trace, err := NewTrace(columns)
	if err != nil {
		t.Fatalf("new trace: %v", err)
	}
	air, err := NewFibonacciAIR(numRows, fibonacciOutput(numRows))
	if err != nil {
		t.Fatalf("new air: %v", err)
	}

	t.Run("debug checks catch the quotient degree", func(t *testing.T) {
		prover, err := NewProver(air, testOptions().WithDebugChecks(true))
		if err != nil {
			t.Fatalf("new prover: %v", err)
		}
		if _, err := prover.Prove(trace); err == nil {
			t.Error("expected the degree check to reject the corrupted trace")
		}
	})

	t.Run("replay rejects the assembled proof", func(t *testing.T) {
		prover, err := NewProver(air, testOptions())
		if err != nil {
			t.Fatalf("new prover: %v", err)
		}
		proof, err := prover.Prove(trace)
		if err != nil {
			t.Fatalf("prove: %v", err)
		}
		if err := replayProof(prover, proof); err == nil {
			t.Error("expected verification to reject a proof over a corrupted trace")
		}
	})
}

// A two-column system with a single additive transition constraint and
// one boundary value, proven over a satisfying trace and over the same
// trace with one corrupted cell.
func TestSingleConstraintSystem(t *testing.T) {
	const numRows = 8
	air := &stubAIR{
		width: 2,
		transitions: []TransitionConstraint{{
			Name:   "accumulates_second_column",
			Degree: 1,
			Evaluate: func(current, next, periodic []field.Element) field.Element {
				return next[0].Sub(current[0]).Sub(current[1])
			},
		}},
		boundaries: []BoundaryConstraint{{Column: 0, Row: 0, Value: field.One}},
	}
	columns := [][]field.Element{
		make([]field.Element, numRows),
		make([]field.Element, numRows),
	}
	columns[0][0] = field.One
	for i := 0; i < numRows; i++ {
		columns[1][i] = field.New(uint64(i + 2))
		if i+1 < numRows {
			columns[0][i+1] = columns[0][i].Add(columns[1][i])
		}
	}

	prover, err := NewProver(air, testOptions())
	if err != nil {
		t.Fatalf("new prover: %v", err)
	}

	trace, err := NewTrace(columns)
	if err != nil {
		t.Fatalf("new trace: %v", err)
	}
	proof, err := prover.Prove(trace)
	if err != nil {
		t.Fatalf("prove: %v", err)
	}
	if err := replayProof(prover, proof); err != nil {
		t.Fatalf("proof does not verify: %v", err)
	}

	columns[0][5] = columns[0][5].Add(field.One)
	corrupted, err := NewTrace(columns)
	if err != nil {
		t.Fatalf("new corrupted trace: %v", err)
	}
	badProof, err := prover.Prove(corrupted)
	if err != nil {
		t.Fatalf("prove corrupted: %v", err)
	}
	if err := replayProof(prover, badProof); err == nil {
		t.Error("expected verification to reject the corrupted trace")
	}
}

func TestProveRejectsMismatchedInputs(t *testing.T) {
	air, err := NewFibonacciAIR(8, fibonacciOutput(8))
	if err != nil {
		t.Fatalf("new air: %v", err)
	}

	t.Run("trace width", func(t *testing.T) {
		prover, err := NewProver(air, testOptions())
		if err != nil {
			t.Fatalf("new prover: %v", err)
		}
		narrow, err := NewTrace([][]field.Element{make([]field.Element, 8)})
		if err != nil {
			t.Fatalf("new trace: %v", err)
		}
		if _, err := prover.Prove(narrow); err == nil {
			t.Error("expected a width mismatch error")
		}
	})

	t.Run("too many queries", func(t *testing.T) {
		prover, err := NewProver(air, testOptions().WithBlowupFactor(2).WithNumQueries(1000))
		if err != nil {
			t.Fatalf("new prover: %v", err)
		}
		trace, err := NewTrace(fibonacciTrace(8))
		if err != nil {
			t.Fatalf("new trace: %v", err)
		}
		if _, err := prover.Prove(trace); err == nil {
			t.Error("expected a query count error")
		}
	})

	t.Run("degree exceeds blowup", func(t *testing.T) {
		steep := &stubAIR{width: 1, transitions: []TransitionConstraint{
			{Name: "steep", Degree: 10, Evaluate: passingTransition().Evaluate},
		}}
		if _, err := NewProver(steep, testOptions()); err == nil {
			t.Error("expected a blowup capacity error")
		}
	})
}

func TestContextSeedBindsStatement(t *testing.T) {
	air, err := NewFibonacciAIR(8, fibonacciOutput(8))
	if err != nil {
		t.Fatalf("new air: %v", err)
	}
	base, err := NewProver(air, testOptions())
	if err != nil {
		t.Fatalf("new prover: %v", err)
	}

	ground, err := NewProver(air, testOptions().WithGrindingBits(8))
	if err != nil {
		t.Fatalf("new prover: %v", err)
	}
	if bytes.Equal(base.contextSeed(8), ground.contextSeed(8)) {
		t.Error("different options should change the transcript seed")
	}

	other, err := NewFibonacciAIR(8, fibonacciOutput(8).Add(field.One))
	if err != nil {
		t.Fatalf("new air: %v", err)
	}
	claimed, err := NewProver(other, testOptions())
	if err != nil {
		t.Fatalf("new prover: %v", err)
	}
	if bytes.Equal(base.contextSeed(8), claimed.contextSeed(8)) {
		t.Error("different public inputs should change the transcript seed")
	}

	if bytes.Equal(base.contextSeed(8), base.contextSeed(16)) {
		t.Error("different trace lengths should change the transcript seed")
	}
}
