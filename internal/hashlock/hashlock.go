package hashlock

import (
	"encoding/binary"
	"fmt"

	"maker/internal/common"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Leaf is the per-fill commitment of a multi-fill hash-lock.
type Leaf = ethcommon.Hash

// HashLock is either Single or Multiple.
type HashLock interface {
	// Value is the 32-byte commitment embedded in the on-chain order.
	Value() ethcommon.Hash
	// SecretsCount is the number of secrets the lock commits to.
	SecretsCount() int

	isHashLock()
}

// Single commits to exactly one secret.
type Single struct {
	SecretHash ethcommon.Hash
}

func (s Single) Value() ethcommon.Hash { return s.SecretHash }
func (Single) SecretsCount() int       { return 1 }
func (Single) isHashLock()             {}

// Multiple commits to one secret per partial fill. Leaves[i] belongs to
// fill index i.
type Multiple struct {
	Leaves []Leaf
}

// Value is the merkle root of the leaves with len(Leaves)-1 stored in the
// top 16 bits. A Multiple needs at least two leaves, with fewer the value
// is the zero hash, which no escrow accepts.
func (m Multiple) Value() ethcommon.Hash {
	if len(m.Leaves) < 2 {
		return ethcommon.Hash{}
	}
	root := new(uint256.Int).SetBytes32(Root(m.Leaves).Bytes())

	// clear bits 240..255 before writing the parts count
	mask := new(uint256.Int).Lsh(uint256.NewInt(1), 240)
	mask.SubUint64(mask, 1)
	root.And(root, mask)

	parts := new(uint256.Int).Lsh(uint256.NewInt(uint64(len(m.Leaves)-1)), 240)
	root.Or(root, parts)

	return ethcommon.Hash(root.Bytes32())
}

func (m Multiple) SecretsCount() int { return len(m.Leaves) }
func (Multiple) isHashLock()         {}

// Proof returns the merkle proof of leaf idx.
func (m Multiple) Proof(idx int) ([]ethcommon.Hash, error) {
	return Proof(m.Leaves, idx)
}

// Build derives the hash-lock for secretHashes, given in generation order.
// One hash yields Single, more yield Multiple with one leaf per hash.
func Build(secretHashes []ethcommon.Hash) (HashLock, error) {
	switch n := len(secretHashes); {
	case n < 1:
		return nil, fmt.Errorf("%w: %d", common.ErrInvalidSecretCount, n)
	case n == 1:
		return Single{SecretHash: secretHashes[0]}, nil
	default:
		return Multiple{Leaves: Leaves(secretHashes)}, nil
	}
}

// Leaves computes keccak256(uint64(i) || secretHashes[i]) for every i.
func Leaves(secretHashes []ethcommon.Hash) []Leaf {
	leaves := make([]Leaf, len(secretHashes))
	for i, h := range secretHashes {
		leaves[i] = LeafAt(uint64(i), h)
	}
	return leaves
}

// LeafAt is the packed encoding of an 8-byte big-endian index followed by
// the 32-byte secret hash, hashed with keccak256.
func LeafAt(idx uint64, secretHash ethcommon.Hash) Leaf {
	var buf [8 + ethcommon.HashLength]byte
	binary.BigEndian.PutUint64(buf[:8], idx)
	copy(buf[8:], secretHash[:])
	return crypto.Keccak256Hash(buf[:])
}

// PartsCount extracts the parts count stored in the top 16 bits of a
// multi-fill hash-lock value.
func PartsCount(value ethcommon.Hash) uint64 {
	return uint64(binary.BigEndian.Uint16(value[:2]))
}

// Equal compares two hash-locks by their on-chain value.
func Equal(a, b HashLock) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Value() == b.Value()
}
