package secret

import (
	"testing"
	"time"

	"maker/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStoreKeepAndReveal(t *testing.T) {
	store := NewStore(time.Minute, zap.NewNop())
	defer store.Close()

	secrets := []Secret{{1}, {2}, {3}}
	require.NoError(t, store.Keep("0xABC", secrets))

	// the store holds its own copy
	WipeAll(secrets)

	count, err := store.Count("0xabc")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	s, err := store.Secret("0xabc", 1)
	require.NoError(t, err)
	assert.Equal(t, Secret{2}, s)

	_, err = store.Secret("0xabc", 3)
	assert.ErrorIs(t, err, common.ErrSecretUnknown)

	for idx := 0; idx < 2; idx++ {
		done, err := store.MarkRevealed("0xabc", idx)
		require.NoError(t, err)
		assert.False(t, done)
		assert.True(t, store.Revealed("0xabc", idx))
	}

	done, err := store.MarkRevealed("0xabc", 2)
	require.NoError(t, err)
	assert.True(t, done)

	_, err = store.Secret("0xabc", 0)
	assert.ErrorIs(t, err, common.ErrSecretUnknown)
}

func TestStoreUnknownOrder(t *testing.T) {
	store := NewStore(time.Minute, zap.NewNop())
	defer store.Close()

	_, err := store.Secret("0xmissing", 0)
	assert.ErrorIs(t, err, common.ErrSecretUnknown)

	_, err = store.MarkRevealed("0xmissing", 0)
	assert.ErrorIs(t, err, common.ErrSecretUnknown)

	assert.False(t, store.Revealed("0xmissing", 0))
}

func TestStoreMarkRevealedOutOfRange(t *testing.T) {
	store := NewStore(time.Minute, zap.NewNop())
	defer store.Close()

	require.NoError(t, store.Keep("0xabc", []Secret{{1}, {2}, {3}}))

	done, err := store.MarkRevealed("0xabc", 0)
	require.NoError(t, err)
	assert.False(t, done)

	for _, idx := range []int{-1, 3, 7, 9} {
		done, err := store.MarkRevealed("0xabc", idx)
		assert.ErrorIs(t, err, common.ErrSecretUnknown, "idx %d", idx)
		assert.False(t, done)
	}

	s, err := store.Secret("0xabc", 1)
	require.NoError(t, err)
	assert.Equal(t, Secret{2}, s)
	assert.False(t, store.Revealed("0xabc", 1))
}

func TestStoreRejectsEmpty(t *testing.T) {
	store := NewStore(time.Minute, zap.NewNop())
	defer store.Close()

	assert.ErrorIs(t, store.Keep("0x1", nil), common.ErrInvalidSecretCount)
}

func TestStoreForget(t *testing.T) {
	store := NewStore(time.Minute, zap.NewNop())
	defer store.Close()

	require.NoError(t, store.Keep("0x1", []Secret{{9}}))
	store.Forget("0x1")

	_, err := store.Count("0x1")
	assert.ErrorIs(t, err, common.ErrSecretUnknown)
}
