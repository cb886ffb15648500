package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBroadcastReachesSubscribers(t *testing.T) {
	b := NewBroadcaster(zap.NewNop())
	first, second := b.Subscribe(1), b.Subscribe(1)
	require.Equal(t, 2, b.Subscribers())

	b.Broadcast([]byte("BROADC 0x01 {}"))
	assert.Equal(t, "BROADC 0x01 {}", string(<-first.C))
	assert.Equal(t, "BROADC 0x01 {}", string(<-second.C))
}

func TestBroadcastDropsForLaggingSubscriber(t *testing.T) {
	b := NewBroadcaster(zap.NewNop())
	sub := b.Subscribe(1)

	b.Broadcast([]byte("one"))
	b.Broadcast([]byte("two"))

	assert.Equal(t, "one", string(<-sub.C))
	assert.Empty(t, sub.C)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster(zap.NewNop())
	sub := b.Subscribe(1)
	b.Unsubscribe(sub.ID)
	b.Unsubscribe(sub.ID)

	_, ok := <-sub.C
	assert.False(t, ok)
	assert.Zero(t, b.Subscribers())
}

func TestCloseEndsSubscriptions(t *testing.T) {
	b := NewBroadcaster(zap.NewNop())
	sub := b.Subscribe(1)
	b.Close()

	_, ok := <-sub.C
	assert.False(t, ok)

	late := b.Subscribe(1)
	_, ok = <-late.C
	assert.False(t, ok)
}
