package manager

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"maker/internal/common"
	"maker/internal/hashlock"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

var (
	ErrSecretMismatch = errors.New("secret matches no hash of the order")
	ErrFillNotReady   = errors.New("fill is not ready to accept its secret")
	ErrBadEvent       = errors.New("malformed event")
)

func (m *Manager) HandleOrderEvent(entry *OrderEntry) error {
	orderBytes, err := json.Marshal(entry.Order)
	if err != nil {
		return err
	}

	msg := []byte(ORDER_EVENT + " " + entry.OrderHash + " ")
	m.Broadcast(append(msg, orderBytes...))
	return nil
}

// HandleSecretEvent publishes a revealed secret once it unlocks a fill that
// is ready for it. It returns the index of that fill.
func (m *Manager) HandleSecretEvent(submission common.SecretSubmission) (int, error) {
	entry, err := m.GetOrder(submission.OrderHash)
	if err != nil {
		return 0, err
	}

	raw, err := hexutil.Decode(submission.Secret)
	if err != nil || len(raw) != 32 {
		return 0, fmt.Errorf("%w: secret must be 32 bytes of hex", ErrSecretMismatch)
	}
	secretHash := crypto.Keccak256Hash(raw).Hex()

	idx := -1
	for i, h := range entry.Order.SecretHashes {
		if strings.EqualFold(h, secretHash) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, ErrSecretMismatch
	}

	msg := fmt.Sprintf("%s %s %d %s", SECRET_EVENT, entry.OrderHash, idx, submission.Secret)
	if len(entry.Order.SecretHashes) > 1 {
		proof, err := secretProof(entry.Order.SecretHashes, idx)
		if err != nil {
			return idx, err
		}
		msg += " " + proof
	}

	entry.OrderMutMutex.Lock()
	fill, ok := entry.ready[idx]
	if !ok {
		entry.OrderMutMutex.Unlock()
		return idx, fmt.Errorf("%w: index %d", ErrFillNotReady, idx)
	}
	delete(entry.ready, idx)
	entry.executed[idx] = common.Fill{
		Idx:    idx,
		Status: common.Executed,
		TxHash: fill.DstEscrowDeployTxHash,
	}
	if len(entry.executed) == len(entry.Order.SecretHashes) {
		entry.OrderStatus.Status = common.OrderStatusExecuted
	}
	entry.OrderMutMutex.Unlock()

	m.logger.Info("secret accepted", zap.String("order_hash", entry.OrderHash), zap.Int("idx", idx))
	m.Broadcast([]byte(msg))
	return idx, nil
}

// secretProof is the comma separated merkle proof of leaf idx, which a
// resolver presents when it fills part of a multi-fill order.
func secretProof(secretHashes []string, idx int) (string, error) {
	hashes := make([]ethcommon.Hash, len(secretHashes))
	for i, h := range secretHashes {
		hashes[i] = ethcommon.HexToHash(h)
	}
	lock := hashlock.Multiple{Leaves: hashlock.Leaves(hashes)}
	proof, err := lock.Proof(idx)
	if err != nil {
		return "", err
	}
	if !hashlock.VerifyProof(hashlock.Root(lock.Leaves), lock.Leaves[idx], proof) {
		return "", fmt.Errorf("proof of leaf %d does not verify", idx)
	}

	out := make([]string, len(proof))
	for i, p := range proof {
		out[i] = p.Hex()
	}
	return strings.Join(out, ","), nil
}

// HandleReceiveEvent processes a message sent by a resolver.
func (m *Manager) HandleReceiveEvent(event []byte) error {
	msg := strings.TrimSpace(string(event))
	m.logger.Debug("received event", zap.String("event", msg))

	parts := strings.Fields(msg)
	if len(parts) == 0 {
		return fmt.Errorf("%w: empty", ErrBadEvent)
	}
	switch parts[0] {
	case TXHASH_EVENT:
		return m.handleTxHashEvent(parts[1:])
	default:
		return fmt.Errorf("%w: unknown event type: %s", ErrBadEvent, parts[0])
	}
}

func (m *Manager) handleTxHashEvent(parts []string) error {
	var (
		orderHash, srcTxHash, dstTxHash string
		hashIdx                         int
	)
	switch len(parts) {
	case 3:
		orderHash, srcTxHash, dstTxHash = parts[0], parts[1], parts[2]
	case 4:
		idx, err := strconv.Atoi(parts[1])
		if err != nil {
			return fmt.Errorf("%w: index %q", ErrBadEvent, parts[1])
		}
		orderHash, hashIdx, srcTxHash, dstTxHash = parts[0], idx, parts[2], parts[3]
	default:
		return fmt.Errorf("%w: tx hash event expects 3 or 4 parts, got %d", ErrBadEvent, len(parts))
	}

	return m.allowSecretRelease(orderHash, hashIdx, srcTxHash, dstTxHash)
}

func (m *Manager) allowSecretRelease(orderHash string, hashIdx int, srcTxHash string, dstTxHash string) error {
	orderEntry, err := m.GetOrder(orderHash)
	if err != nil {
		return err
	}

	orderEntry.OrderMutMutex.Lock()
	defer orderEntry.OrderMutMutex.Unlock()

	if hashIdx < 0 || hashIdx >= len(orderEntry.Order.SecretHashes) {
		return fmt.Errorf("%w: index %d out of %d", ErrBadEvent, hashIdx, len(orderEntry.Order.SecretHashes))
	}
	if _, done := orderEntry.executed[hashIdx]; done {
		return nil
	}

	orderEntry.ready[hashIdx] = common.ReadyToAcceptSecretFill{
		Idx:                   hashIdx,
		SrcEscrowDeployTxHash: srcTxHash,
		DstEscrowDeployTxHash: dstTxHash,
	}

	m.logger.Info("secret release allowed",
		zap.String("order_hash", orderHash),
		zap.Int("idx", hashIdx),
		zap.String("src_tx", srcTxHash),
		zap.String("dst_tx", dstTxHash),
	)
	return nil
}
