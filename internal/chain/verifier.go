package chain

import (
	"context"
	"errors"
	"fmt"

	"maker/internal/common"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// ErrHashlockMismatch means an escrow was deployed for a different secret.
var ErrHashlockMismatch = errors.New("escrow hashlock mismatch")

// HashlockSource resolves the hashlock an escrow deployment committed to.
type HashlockSource interface {
	Hashlock(ctx context.Context, txHash string) (ethcommon.Hash, error)
}

// Verifier checks that both escrows of a fill lock funds behind the
// expected secret hash before the secret is handed out. A nil side is not
// checked.
type Verifier struct {
	Src HashlockSource
	Dst HashlockSource
}

func (v Verifier) VerifyFill(ctx context.Context, fill common.ReadyToAcceptSecretFill, secretHash ethcommon.Hash) error {
	if v.Src != nil {
		if err := check(ctx, v.Src, fill.SrcEscrowDeployTxHash, secretHash); err != nil {
			return fmt.Errorf("src escrow of fill %d: %w", fill.Idx, err)
		}
	}
	if v.Dst != nil {
		if err := check(ctx, v.Dst, fill.DstEscrowDeployTxHash, secretHash); err != nil {
			return fmt.Errorf("dst escrow of fill %d: %w", fill.Idx, err)
		}
	}
	return nil
}

func check(ctx context.Context, source HashlockSource, txHash string, want ethcommon.Hash) error {
	if txHash == "" {
		return errors.New("escrow deploy tx hash missing")
	}
	got, err := source.Hashlock(ctx, txHash)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%w: %s != %s", ErrHashlockMismatch, got.Hex(), want.Hex())
	}
	return nil
}
