package protocols

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"

	"github.com/vybium/vybium-stark-prover/internal/vybium-stark-prover/core"
	"github.com/vybium/vybium-stark-prover/internal/vybium-stark-prover/utils"
)

// friTerminalDegree is the degree bound below which folding stops and
// the remaining polynomial ships in the clear. The smallest supported
// claim is degree below 8, so every proof folds at least once and the
// first layer always binds the codeword to its commitment.
const friTerminalDegree = 4

// FRILayerOpening authenticates one folding step for one query: the
// pair of codeword values that fold together, stored in a single leaf,
// plus the Merkle path from that leaf to the layer root.
type FRILayerOpening struct {
	PairValues [2]field.Element
	Path       []hash.Digest
}

// FRIProof carries the output of the low degree test: one Merkle root
// per folded layer, openings into every layer (outer index is the
// layer, inner index follows the query order), and the coefficients of
// the terminal polynomial.
type FRIProof struct {
	LayerRoots        []hash.Digest
	LayerOpenings     [][]FRILayerOpening
	FinalCoefficients []field.Element
}

// ProveLowDegree runs the commit and query phases of FRI over codeword,
// claimed to be the evaluation on domain of a polynomial of degree
// below degreeBound. Each round commits the current layer, reseeds the
// coin with the root, draws a folding challenge and halves both the
// codeword and the domain. Folding stops once the degree bound reaches
// friTerminalDegree; the terminal polynomial is interpolated and its
// coefficients absorbed into the transcript.
//
// The positions are indices into the first layer. They are reduced
// modulo half the layer length on the way down, so every opening chain
// can be checked against the folding challenges alone.
func ProveLowDegree(codeword []field.Element, domain *ArithmeticDomain, degreeBound int, coin *Coin, positions []int, options *ProofOptions) (*FRIProof, error) {
	if len(codeword) != domain.Length {
		return nil, fmt.Errorf("codeword length %d does not match domain length %d", len(codeword), domain.Length)
	}
	if !utils.IsPowerOfTwo(degreeBound) {
		return nil, fmt.Errorf("degree bound %d is not a power of two", degreeBound)
	}
	if degreeBound > len(codeword) {
		return nil, fmt.Errorf("degree bound %d exceeds codeword length %d", degreeBound, len(codeword))
	}
	for _, position := range positions {
		if position < 0 || position >= domain.Length {
			return nil, fmt.Errorf("query position %d outside evaluation domain of length %d", position, domain.Length)
		}
	}

	rounds := 0
	for bound := degreeBound; bound > friTerminalDegree; bound /= 2 {
		rounds++
	}

	proof := &FRIProof{
		LayerRoots:    make([]hash.Digest, 0, rounds),
		LayerOpenings: make([][]FRILayerOpening, 0, rounds),
	}

	current := make([]field.Element, len(codeword))
	copy(current, codeword)
	indices := make([]int, len(positions))
	copy(indices, positions)

	for round := 0; round < rounds; round++ {
		tree, err := commitFRILayer(current, options.NumWorkers)
		if err != nil {
			return nil, fmt.Errorf("commit layer %d: %w", round, err)
		}
		coin.Reseed(digestBytes(tree.Root()))
		alpha, err := coin.DrawElement()
		if err != nil {
			return nil, fmt.Errorf("draw folding challenge %d: %w", round, err)
		}

		half := len(current) / 2
		openings := make([]FRILayerOpening, len(indices))
		for q, index := range indices {
			folded := index % half
			path, err := tree.Proof(folded)
			if err != nil {
				return nil, fmt.Errorf("open layer %d at index %d: %w", round, folded, err)
			}
			openings[q] = FRILayerOpening{
				PairValues: [2]field.Element{current[folded], current[folded+half]},
				Path:       path,
			}
			indices[q] = folded
		}
		proof.LayerRoots = append(proof.LayerRoots, tree.Root())
		proof.LayerOpenings = append(proof.LayerOpenings, openings)

		folded, err := foldCodeword(current, domain, alpha, options.NumWorkers)
		if err != nil {
			return nil, fmt.Errorf("fold layer %d: %w", round, err)
		}
		next, err := domain.Halve()
		if err != nil {
			return nil, fmt.Errorf("halve domain after layer %d: %w", round, err)
		}
		current, domain = folded, next
	}

	coefficients, err := domain.Interpolate(current)
	if err != nil {
		return nil, fmt.Errorf("interpolate terminal layer: %w", err)
	}
	finalBound := degreeBound >> uint(rounds)
	if options.DebugChecks {
		for i := finalBound; i < len(coefficients); i++ {
			if !coefficients[i].IsZero() {
				return nil, fmt.Errorf("terminal polynomial has degree %d, folding should have reduced it below %d", i, finalBound)
			}
		}
	}
	proof.FinalCoefficients = make([]field.Element, finalBound)
	copy(proof.FinalCoefficients, coefficients[:finalBound])
	coin.Reseed(elementsBytes(proof.FinalCoefficients))

	return proof, nil
}

// commitFRILayer hashes the two values that fold together into one
// leaf, so a single Merkle path authenticates a complete folding step.
func commitFRILayer(codeword []field.Element, workers int) (*core.MerkleTree, error) {
	half := len(codeword) / 2
	leaves := make([]hash.Digest, half)
	utils.Execute(half, workers, func(start, end int) {
		for i := start; i < end; i++ {
			leaves[i] = hash.HashVarlen([]field.Element{codeword[i], codeword[i+half]})
		}
	})
	return core.NewMerkleTree(leaves)
}

// foldCodeword combines the evaluations at x and -x into an evaluation
// of the half-length polynomial at x squared, weighting the odd part
// with the folding challenge.
func foldCodeword(codeword []field.Element, domain *ArithmeticDomain, alpha field.Element, workers int) ([]field.Element, error) {
	half := len(codeword) / 2

	xs := make([]field.Element, half)
	x := domain.Offset
	for i := range xs {
		xs[i] = x
		x = x.Mul(domain.Generator)
	}
	invXs, err := core.BatchInverse(xs)
	if err != nil {
		return nil, err
	}

	invTwo := core.Inverse(field.New(2))
	next := make([]field.Element, half)
	utils.Execute(half, workers, func(start, end int) {
		for i := start; i < end; i++ {
			even := codeword[i].Add(codeword[i+half]).Mul(invTwo)
			odd := codeword[i].Sub(codeword[i+half]).Mul(invTwo).Mul(invXs[i])
			next[i] = even.Add(alpha.Mul(odd))
		}
	})
	return next, nil
}
