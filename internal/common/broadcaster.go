package common

import (
	"sync"

	"go.uber.org/zap"
)

// Subscription is one receiver of broadcast events. C is closed when the
// subscription ends, either through Unsubscribe or Broadcaster.Close.
type Subscription struct {
	ID uint64
	C  <-chan []byte
}

// Broadcaster fans relayer events out to every connected resolver. A
// subscriber that is not keeping up misses the message.
type Broadcaster struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]chan []byte
	closed bool
	logger *zap.Logger
}

func NewBroadcaster(logger *zap.Logger) *Broadcaster {
	return &Broadcaster{
		subs:   make(map[uint64]chan []byte),
		logger: logger.With(zap.String("module", "broadcaster")),
	}
}

// Subscribe registers a receiver queueing up to buffer events. After Close
// the returned channel is already closed.
func (b *Broadcaster) Subscribe(buffer int) Subscription {
	ch := make(chan []byte, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	if b.closed {
		close(ch)
		return Subscription{ID: id, C: ch}
	}
	b.subs[id] = ch
	return Subscription{ID: id, C: ch}
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Broadcast never blocks.
func (b *Broadcaster) Broadcast(message []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		select {
		case ch <- message:
		default:
			b.logger.Warn("subscriber lagging, event dropped", zap.Uint64("subscriber", id))
		}
	}
}

func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close ends every subscription. Later subscriptions start closed.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
	b.closed = true
}
