// Package merkle provides the merkle tree over transaction identifiers
// used for block commitment and inclusion proofs.
package merkle

import (
	"errors"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/veritascoin/veritas/foundation/blockchain/hashing"
)

// ErrEmptyInput is returned when a tree or root is requested for an
// empty transaction list. A block always carries at least its coinbase.
var ErrEmptyInput = errors.New("cannot build a merkle tree with no leaves")

// ComputeRoot returns the merkle root over the specified transaction
// identifiers. A lone leaf is hashed once more rather than paired with
// itself; at every other level an odd tail is paired with its own copy.
func ComputeRoot(txIDs []hashing.Hash) (hashing.Hash, error) {
	if len(txIDs) == 0 {
		return hashing.Hash{}, ErrEmptyInput
	}

	if len(txIDs) == 1 {
		return hashing.DoubleSum(txIDs[0][:]), nil
	}

	level := txIDs
	for len(level) > 1 {
		level = reduce(level)
	}

	return level[0], nil
}

// reduce hashes one tree level pairwise into the next level up.
func reduce(level []hashing.Hash) []hashing.Hash {
	next := make([]hashing.Hash, 0, (len(level)+1)/2)

	for i := 0; i < len(level); i += 2 {
		left := level[i]
		right := left
		if i+1 < len(level) {
			right = level[i+1]
		}
		next = append(next, hashPair(left, right))
	}

	return next
}

// hashPair produces the parent digest for two child nodes.
func hashPair(left hashing.Hash, right hashing.Hash) hashing.Hash {
	combined := make([]byte, 0, hashing.HashLen*2)
	combined = append(combined, left[:]...)
	combined = append(combined, right[:]...)

	return hashing.DoubleSum(combined)
}

// =============================================================================

// Tree keeps every level of the merkle tree so inclusion proofs can be
// generated after construction. Level 0 holds the transaction ids.
type Tree struct {
	root   hashing.Hash
	levels [][]hashing.Hash
}

// NewTree constructs a tree from the specified transaction identifiers.
func NewTree(txIDs []hashing.Hash) (*Tree, error) {
	if len(txIDs) == 0 {
		return nil, ErrEmptyInput
	}

	levels := [][]hashing.Hash{txIDs}
	current := txIDs

	if len(current) == 1 {
		root := hashing.DoubleSum(current[0][:])
		levels = append(levels, []hashing.Hash{root})
		return &Tree{root: root, levels: levels}, nil
	}

	for len(current) > 1 {
		current = reduce(current)
		levels = append(levels, current)
	}

	return &Tree{root: current[0], levels: levels}, nil
}

// Root returns the merkle root.
func (t *Tree) Root() hashing.Hash {
	return t.root
}

// RootHex converts the merkle root to a hex encoded string.
func (t *Tree) RootHex() string {
	return hexutil.Encode(t.root[:])
}

// Depth returns the number of levels in the tree.
func (t *Tree) Depth() int {
	return len(t.levels)
}

// Proof returns the sibling hashes and concatenation order for proving
// the transaction at the specified index is committed by the root. An
// order of 0 means the proof hash concatenates on the left, 1 on the
// right.
func (t *Tree) Proof(index int) ([]hashing.Hash, []int, error) {
	if index < 0 || index >= len(t.levels[0]) {
		return nil, nil, errors.New("transaction index outside the tree")
	}

	// The single leaf tree proves itself with one extra hash round.
	if len(t.levels[0]) == 1 {
		return nil, nil, nil
	}

	var proof []hashing.Hash
	var order []int

	pos := index
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := pos ^ 1
		if sibling >= len(level) {
			sibling = pos // odd tail pairs with itself
		}

		proof = append(proof, level[sibling])
		if pos%2 == 0 {
			order = append(order, 1)
		} else {
			order = append(order, 0)
		}

		pos /= 2
	}

	return proof, order, nil
}

// VerifyProof replays a proof produced by Proof against a leaf and
// reports whether it reproduces the expected root.
func VerifyProof(txID hashing.Hash, proof []hashing.Hash, order []int, root hashing.Hash) bool {
	if len(proof) != len(order) {
		return false
	}

	// A nil proof is the single transaction case.
	if len(proof) == 0 {
		return hashing.DoubleSum(txID[:]) == root
	}

	current := txID
	for i, sibling := range proof {
		if order[i] == 0 {
			current = hashPair(sibling, current)
		} else {
			current = hashPair(current, sibling)
		}
	}

	return current == root
}
