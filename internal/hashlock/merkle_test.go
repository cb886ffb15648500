package hashlock

import (
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootTwoLeaves(t *testing.T) {
	leaves := Leaves(hashes(2))

	a, b := leaves[0], leaves[1]
	var want ethcommon.Hash
	if a.Cmp(b) < 0 {
		want = crypto.Keccak256Hash(a[:], b[:])
	} else {
		want = crypto.Keccak256Hash(b[:], a[:])
	}
	assert.Equal(t, want, Root(leaves))
}

func TestRootSingleLeaf(t *testing.T) {
	leaf := Leaves(hashes(1))
	assert.Equal(t, leaf[0], Root(leaf))
	assert.Equal(t, ethcommon.Hash{}, Root(nil))
}

func TestProofVerifiesEveryLeaf(t *testing.T) {
	for _, n := range []int{2, 3, 5, 8, 11} {
		leaves := Leaves(hashes(n))
		root := Root(leaves)

		for i, leaf := range leaves {
			proof, err := Proof(leaves, i)
			require.NoError(t, err)
			assert.True(t, VerifyProof(root, leaf, proof), "n=%d i=%d", n, i)

			if i > 0 {
				assert.False(t, VerifyProof(root, leaves[i-1], proof), "proof must be bound to its leaf")
			}
		}
	}
}

func TestProofOutOfRange(t *testing.T) {
	leaves := Leaves(hashes(3))

	_, err := Proof(leaves, 3)
	assert.Error(t, err)
	_, err = Proof(leaves, -1)
	assert.Error(t, err)
}

func TestMultipleProof(t *testing.T) {
	lock, err := Build(hashes(4))
	require.NoError(t, err)
	multi := lock.(Multiple)

	proof, err := multi.Proof(2)
	require.NoError(t, err)
	assert.True(t, VerifyProof(Root(multi.Leaves), multi.Leaves[2], proof))
}
