package order

import (
	"context"
	"fmt"
	"time"

	"maker/internal/common"
	"maker/internal/secret"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

const DefaultWatchInterval = 5 * time.Second

// FillsSource exposes fills awaiting a secret and accepts revealed secrets.
type FillsSource interface {
	GetReadyToAcceptSecretFills(ctx context.Context, orderHash string) (*common.ReadyToAcceptSecretFills, error)
	SubmitSecret(ctx context.Context, orderHash, secret string) error
	GetOrderStatus(ctx context.Context, orderHash string) (*common.OrderStatus, error)
}

// SecretSource holds the secrets of placed orders.
type SecretSource interface {
	Secret(orderHash string, idx int) (secret.Secret, error)
	Revealed(orderHash string, idx int) bool
	MarkRevealed(orderHash string, idx int) (bool, error)
}

// FillVerifier checks a fill's escrows before its secret is released.
type FillVerifier interface {
	VerifyFill(ctx context.Context, fill common.ReadyToAcceptSecretFill, secretHash ethcommon.Hash) error
}

type Revealer struct {
	fills    FillsSource
	secrets  SecretSource
	verifier FillVerifier
	logger   *zap.Logger
}

type RevealerOption func(*Revealer)

func WithVerifier(v FillVerifier) RevealerOption {
	return func(r *Revealer) { r.verifier = v }
}

func WithRevealerLogger(logger *zap.Logger) RevealerOption {
	return func(r *Revealer) { r.logger = logger }
}

func NewRevealer(fills FillsSource, secrets SecretSource, opts ...RevealerOption) *Revealer {
	r := &Revealer{
		fills:   fills,
		secrets: secrets,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(zap.String("module", "revealer"))
	return r
}

// RevealReady submits the secret of every fill that is ready to accept one
// and has not been revealed yet. It returns how many secrets it revealed.
func (r *Revealer) RevealReady(ctx context.Context, orderHash string) (int, error) {
	n, _, err := r.revealReady(ctx, orderHash)
	return n, err
}

func (r *Revealer) revealReady(ctx context.Context, orderHash string) (revealed int, done bool, err error) {
	ready, err := r.fills.GetReadyToAcceptSecretFills(ctx, orderHash)
	if err != nil {
		return 0, false, err
	}

	for _, fill := range ready.Fills {
		if r.secrets.Revealed(orderHash, fill.Idx) {
			continue
		}

		s, err := r.secrets.Secret(orderHash, fill.Idx)
		if err != nil {
			return revealed, false, err
		}

		if r.verifier != nil {
			if err := r.verifier.VerifyFill(ctx, fill, secret.HashSecret(s)); err != nil {
				s.Wipe()
				r.logger.Warn("fill failed verification", zap.String("order_hash", orderHash), zap.Int("idx", fill.Idx), zap.Error(err))
				return revealed, false, err
			}
		}

		err = r.fills.SubmitSecret(ctx, orderHash, s.Hex())
		s.Wipe()
		if err != nil {
			return revealed, false, fmt.Errorf("failed to reveal secret %d: %w", fill.Idx, err)
		}

		done, err = r.secrets.MarkRevealed(orderHash, fill.Idx)
		if err != nil {
			return revealed, false, err
		}
		revealed++
		r.logger.Info("secret revealed", zap.String("order_hash", orderHash), zap.Int("idx", fill.Idx))

		if done {
			return revealed, true, nil
		}
	}

	return revealed, false, nil
}

// Watch reveals secrets as fills become ready until every secret is out,
// the order reaches a final status or ctx is done.
func (r *Revealer) Watch(ctx context.Context, orderHash string, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		_, done, err := r.revealReady(ctx, orderHash)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		status, err := r.fills.GetOrderStatus(ctx, orderHash)
		if err != nil {
			return err
		}
		if s := MapStatus(status); s.Final() {
			r.logger.Info("order finished", zap.String("order_hash", orderHash), zap.Stringer("status", s))
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
