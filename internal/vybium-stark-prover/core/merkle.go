package core

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"
)

// MerkleTree commits to a power-of-two number of Tip5 digests. Level
// zero holds the leaves and each parent is the Tip5 compression of its
// two children, so authentication paths stay inside the field-friendly
// hash the rest of the protocol uses.
type MerkleTree struct {
	levels [][]hash.Digest
}

// NewMerkleTree builds a tree over the given leaf digests. The leaf
// count must be a positive power of two.
func NewMerkleTree(leaves []hash.Digest) (*MerkleTree, error) {
	if len(leaves) == 0 {
		return nil, fmt.Errorf("cannot build Merkle tree with no leaves")
	}
	if len(leaves)&(len(leaves)-1) != 0 {
		return nil, fmt.Errorf("leaf count must be a power of two, got %d", len(leaves))
	}

	base := make([]hash.Digest, len(leaves))
	copy(base, leaves)

	levels := [][]hash.Digest{base}
	current := base
	for len(current) > 1 {
		next := make([]hash.Digest, len(current)/2)
		for i := range next {
			next[i] = hashPair(current[2*i], current[2*i+1])
		}
		levels = append(levels, next)
		current = next
	}

	return &MerkleTree{levels: levels}, nil
}

// Root returns the Merkle root.
func (mt *MerkleTree) Root() hash.Digest {
	return mt.levels[len(mt.levels)-1][0]
}

// NumLeaves returns the number of leaves the tree commits to.
func (mt *MerkleTree) NumLeaves() int {
	return len(mt.levels[0])
}

// Proof returns the authentication path for the leaf at the given
// index: the sibling digests from the leaf level up to just below the
// root. The sibling side at each level follows from the index parity.
func (mt *MerkleTree) Proof(index int) ([]hash.Digest, error) {
	if index < 0 || index >= mt.NumLeaves() {
		return nil, fmt.Errorf("leaf index %d out of range [0, %d)", index, mt.NumLeaves())
	}

	proof := make([]hash.Digest, 0, len(mt.levels)-1)
	for level := 0; level < len(mt.levels)-1; level++ {
		proof = append(proof, mt.levels[level][index^1])
		index /= 2
	}
	return proof, nil
}

// VerifyProof recomputes the root from a leaf and its authentication
// path and compares it against the expected root.
func VerifyProof(root hash.Digest, leaf hash.Digest, proof []hash.Digest, index int) bool {
	current := leaf
	for _, sibling := range proof {
		if index%2 == 0 {
			current = hashPair(current, sibling)
		} else {
			current = hashPair(sibling, current)
		}
		index /= 2
	}
	return DigestsEqual(current, root)
}

// DigestsEqual reports whether two digests hold the same field elements.
func DigestsEqual(a, b hash.Digest) bool {
	for i := range a {
		if a[i].Value() != b[i].Value() {
			return false
		}
	}
	return true
}

// hashPair compresses two digests into their parent digest. Two
// five-element digests fill the ten-element Tip5 input exactly.
func hashPair(left, right hash.Digest) hash.Digest {
	var input [10]field.Element
	copy(input[:5], left[:])
	copy(input[5:], right[:])
	return hash.Hash10(input)
}
