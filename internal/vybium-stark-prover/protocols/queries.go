package protocols

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"

	"github.com/vybium/vybium-stark-prover/internal/vybium-stark-prover/core"
)

// QueryOpening holds the authenticated openings for one query
// position: the trace row with its Merkle path and the composition
// row with its path.
type QueryOpening struct {
	Position        int
	TraceRow        []field.Element
	TracePath       []hash.Digest
	CompositionRow  []field.Element
	CompositionPath []hash.Digest
}

// openQueries reads the committed rows at every drawn position and
// collects their Merkle paths. A position outside the committed domain
// means query generation is broken, so it is reported as an error
// rather than skipped.
func openQueries(positions []int, extended *ExtendedTrace, traceTree *core.MerkleTree, composition *Composition, compositionTree *core.MerkleTree) ([]QueryOpening, error) {
	openings := make([]QueryOpening, len(positions))
	for q, position := range positions {
		if position < 0 || position >= extended.Length() {
			return nil, fmt.Errorf("query position %d outside committed domain of length %d", position, extended.Length())
		}
		tracePath, err := traceTree.Proof(position)
		if err != nil {
			return nil, fmt.Errorf("open trace row %d: %w", position, err)
		}
		compositionPath, err := compositionTree.Proof(position)
		if err != nil {
			return nil, fmt.Errorf("open composition row %d: %w", position, err)
		}
		openings[q] = QueryOpening{
			Position:        position,
			TraceRow:        extended.Row(position),
			TracePath:       tracePath,
			CompositionRow:  composition.Row(position),
			CompositionPath: compositionPath,
		}
	}
	return openings, nil
}
