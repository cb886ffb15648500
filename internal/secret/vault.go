package secret

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"maker/internal/common"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Size is the length of a secret in bytes.
const Size = 32

// Secret is the preimage of a hash-lock. It prints as "Secret(redacted)"
// under every fmt verb so it cannot leak through logging.
type Secret [Size]byte

// Hash is the keccak256 digest of a Secret.
type Hash = ethcommon.Hash

func (s Secret) Format(f fmt.State, _ rune) {
	_, _ = io.WriteString(f, "Secret(redacted)")
}

// Hex returns the 0x-prefixed secret, for the reveal submission only.
func (s Secret) Hex() string {
	return "0x" + hex.EncodeToString(s[:])
}

// Wipe zeroizes the secret in place.
func (s *Secret) Wipe() {
	for i := range s {
		s[i] = 0
	}
}

// WipeAll zeroizes every secret of the slice.
func WipeAll(secrets []Secret) {
	for i := range secrets {
		secrets[i].Wipe()
	}
}

// Vault generates secrets from a cryptographically secure source.
type Vault struct {
	source io.Reader
}

// NewVault returns a Vault reading from r, or from crypto/rand when r is nil.
// r must be safe for concurrent use if the vault is shared.
func NewVault(r io.Reader) *Vault {
	if r == nil {
		r = rand.Reader
	}
	return &Vault{source: r}
}

// Generate returns count fresh secrets in generation order. The order is
// the leaf index assignment of the resulting hash-lock.
func (v *Vault) Generate(count int) ([]Secret, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: %d", common.ErrInvalidSecretCount, count)
	}

	secrets := make([]Secret, count)
	for i := range secrets {
		if _, err := io.ReadFull(v.source, secrets[i][:]); err != nil {
			WipeAll(secrets[:i+1])
			return nil, fmt.Errorf("%w: %v", common.ErrInsufficientEntropy, err)
		}
	}

	return secrets, nil
}

// Hash is keccak256 over the secret bytes.
func (v *Vault) Hash(s Secret) Hash {
	return HashSecret(s)
}

// HashAll hashes secrets preserving their order.
func (v *Vault) HashAll(secrets []Secret) []Hash {
	hashes := make([]Hash, len(secrets))
	for i, s := range secrets {
		hashes[i] = HashSecret(s)
	}
	return hashes
}

func HashSecret(s Secret) Hash {
	return crypto.Keccak256Hash(s[:])
}
