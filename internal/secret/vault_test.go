package secret

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"testing"

	"maker/internal/common"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("source closed") }

func TestVaultGenerate(t *testing.T) {
	v := NewVault(nil)

	secrets, err := v.Generate(1000)
	require.NoError(t, err)
	require.Len(t, secrets, 1000)

	seen := make(map[Secret]struct{}, len(secrets))
	for _, s := range secrets {
		_, dup := seen[s]
		require.False(t, dup, "duplicate secret generated")
		seen[s] = struct{}{}
	}
}

func TestVaultGenerateInvalidCount(t *testing.T) {
	v := NewVault(nil)

	for _, n := range []int{0, -1} {
		_, err := v.Generate(n)
		assert.ErrorIs(t, err, common.ErrInvalidSecretCount)
	}
}

func TestVaultGenerateInsufficientEntropy(t *testing.T) {
	tests := []struct {
		name   string
		source io.Reader
	}{
		{name: "read error", source: failingReader{}},
		{name: "short read", source: bytes.NewReader(make([]byte, Size+10))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewVault(tt.source).Generate(2)
			require.ErrorIs(t, err, common.ErrInsufficientEntropy)
		})
	}
}

func TestVaultGenerationOrder(t *testing.T) {
	src := make([]byte, 3*Size)
	for i := range src {
		src[i] = byte(i / Size)
	}

	secrets, err := NewVault(bytes.NewReader(src)).Generate(3)
	require.NoError(t, err)
	for i, s := range secrets {
		assert.Equal(t, byte(i), s[0])
		assert.Equal(t, byte(i), s[Size-1])
	}
}

func TestHash(t *testing.T) {
	v := NewVault(nil)
	s := Secret{1, 2, 3}

	h := v.Hash(s)
	assert.Equal(t, crypto.Keccak256Hash(s[:]), h)
	assert.Equal(t, h, v.Hash(s))

	hashes := v.HashAll([]Secret{{1}, {2}, {3}})
	require.Len(t, hashes, 3)
	assert.Equal(t, v.Hash(Secret{2}), hashes[1])
}

func TestSecretRedacted(t *testing.T) {
	s := Secret{0xaa, 0xbb}

	for _, verb := range []string{"%v", "%+v", "%s", "%x", "%#v"} {
		out := fmt.Sprintf(verb, s)
		assert.Equal(t, "Secret(redacted)", out, verb)
	}
	assert.Equal(t, "0xaabb", s.Hex()[:6])
}

func TestWipe(t *testing.T) {
	secrets := []Secret{{1}, {2}}
	WipeAll(secrets)
	for _, s := range secrets {
		assert.Equal(t, Secret{}, s)
	}
}
