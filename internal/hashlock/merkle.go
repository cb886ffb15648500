package hashlock

import (
	"bytes"
	"fmt"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// The tree is a complete binary tree stored in a flat slice, root at 0 and
// leaves at the tail in reverse order. Leaves are not sorted, sibling
// pairs are hashed in ascending byte order.

func hashPair(a, b ethcommon.Hash) ethcommon.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return crypto.Keccak256Hash(a[:], b[:])
}

func makeTree(leaves []Leaf) []ethcommon.Hash {
	n := len(leaves)
	tree := make([]ethcommon.Hash, 2*n-1)
	for i, leaf := range leaves {
		tree[len(tree)-1-i] = leaf
	}
	for i := len(tree) - 1 - n; i >= 0; i-- {
		tree[i] = hashPair(tree[2*i+1], tree[2*i+2])
	}
	return tree
}

// Root returns the merkle root of leaves. A single leaf is its own root.
func Root(leaves []Leaf) ethcommon.Hash {
	if len(leaves) == 0 {
		return ethcommon.Hash{}
	}
	return makeTree(leaves)[0]
}

// Proof returns the sibling path from leaf idx up to the root.
func Proof(leaves []Leaf, idx int) ([]ethcommon.Hash, error) {
	if idx < 0 || idx >= len(leaves) {
		return nil, fmt.Errorf("leaf index %d out of range [0, %d)", idx, len(leaves))
	}

	tree := makeTree(leaves)
	proof := make([]ethcommon.Hash, 0)
	for i := len(tree) - 1 - idx; i > 0; i = (i - 1) / 2 {
		sibling := i - 1
		if i%2 == 1 {
			sibling = i + 1
		}
		proof = append(proof, tree[sibling])
	}
	return proof, nil
}

// VerifyProof reports whether proof links leaf to root.
func VerifyProof(root, leaf ethcommon.Hash, proof []ethcommon.Hash) bool {
	computed := leaf
	for _, p := range proof {
		computed = hashPair(computed, p)
	}
	return computed == root
}
