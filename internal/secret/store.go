package secret

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"maker/internal/common"

	"github.com/imkira/go-ttlmap"
	"go.uber.org/zap"
)

// DefaultTTL bounds how long secrets of an unrevealed order are retained.
const DefaultTTL = 24 * time.Hour

type entry struct {
	mu       sync.Mutex
	secrets  []Secret
	revealed map[int]bool
}

// Store keeps the secrets of submitted orders for the component that
// reveals them. Entries are wiped when forgotten or when their TTL lapses.
type Store struct {
	entries *ttlmap.Map
	ttl     time.Duration
	logger  *zap.Logger
}

func NewStore(ttl time.Duration, logger *zap.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	logger = logger.With(zap.String("module", "secret-store"))

	wipe := func(key string, item ttlmap.Item) {
		e, ok := item.Value().(*entry)
		if !ok {
			return
		}
		e.mu.Lock()
		WipeAll(e.secrets)
		e.mu.Unlock()
		logger.Debug("secrets dropped", zap.String("order_hash", key))
	}

	options := &ttlmap.Options{
		InitialCapacity: 32,
		OnWillExpire:    wipe,
		OnWillEvict:     wipe,
	}

	return &Store{
		entries: ttlmap.New(options),
		ttl:     ttl,
		logger:  logger,
	}
}

func normalize(orderHash string) string {
	return strings.ToLower(orderHash)
}

// Keep stores a copy of secrets under orderHash. The caller stays
// responsible for wiping its own slice.
func (s *Store) Keep(orderHash string, secrets []Secret) error {
	if len(secrets) == 0 {
		return fmt.Errorf("%w: 0", common.ErrInvalidSecretCount)
	}

	e := &entry{
		secrets:  make([]Secret, len(secrets)),
		revealed: make(map[int]bool, len(secrets)),
	}
	copy(e.secrets, secrets)

	if err := s.entries.Set(normalize(orderHash), ttlmap.NewItem(e, ttlmap.WithTTL(s.ttl)), nil); err != nil {
		WipeAll(e.secrets)
		return fmt.Errorf("failed to store secrets: %w", err)
	}

	s.logger.Debug("secrets stored", zap.String("order_hash", orderHash), zap.Int("count", len(secrets)))
	return nil
}

func (s *Store) get(orderHash string) (*entry, error) {
	item, err := s.entries.Get(normalize(orderHash))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrSecretUnknown, orderHash)
	}
	e, ok := item.Value().(*entry)
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrSecretUnknown, orderHash)
	}
	return e, nil
}

// Count returns how many secrets the order was committed to.
func (s *Store) Count(orderHash string) (int, error) {
	e, err := s.get(orderHash)
	if err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.secrets), nil
}

// Secret returns a copy of secret idx of the order.
func (s *Store) Secret(orderHash string, idx int) (Secret, error) {
	e, err := s.get(orderHash)
	if err != nil {
		return Secret{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if idx < 0 || idx >= len(e.secrets) {
		return Secret{}, fmt.Errorf("%w: index %d out of %d", common.ErrSecretUnknown, idx, len(e.secrets))
	}
	return e.secrets[idx], nil
}

// Revealed reports whether secret idx was already handed out.
func (s *Store) Revealed(orderHash string, idx int) bool {
	e, err := s.get(orderHash)
	if err != nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.revealed[idx]
}

// MarkRevealed records secret idx as revealed. Once every secret of the
// order has been revealed the entry is forgotten and done is true.
func (s *Store) MarkRevealed(orderHash string, idx int) (done bool, err error) {
	e, err := s.get(orderHash)
	if err != nil {
		return false, err
	}

	e.mu.Lock()
	if idx < 0 || idx >= len(e.secrets) {
		n := len(e.secrets)
		e.mu.Unlock()
		return false, fmt.Errorf("%w: index %d out of %d", common.ErrSecretUnknown, idx, n)
	}
	e.revealed[idx] = true
	done = len(e.revealed) == len(e.secrets)
	e.mu.Unlock()

	if done {
		s.Forget(orderHash)
	}
	return done, nil
}

// Forget wipes and drops the order's secrets.
func (s *Store) Forget(orderHash string) {
	item, err := s.entries.Delete(normalize(orderHash))
	if err != nil {
		return
	}
	if e, ok := item.Value().(*entry); ok {
		e.mu.Lock()
		WipeAll(e.secrets)
		e.mu.Unlock()
	}
}

// Close wipes every stored secret.
func (s *Store) Close() {
	s.entries.Drain()
}
