package signer

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Tx is a contract call or transaction to send from the signer's account.
type Tx struct {
	To    ethcommon.Address
	Data  []byte
	Value *big.Int
}

// Signer is the wallet capability set used by the order flow. Any wallet
// backend implementing it can be substituted.
type Signer interface {
	GetChainID(ctx context.Context) (*big.Int, error)
	GetAccounts(ctx context.Context) ([]ethcommon.Address, error)
	// Sign returns a 65-byte [R || S || V] signature over keccak256(message),
	// V being 27 or 28.
	Sign(ctx context.Context, message []byte) ([]byte, error)
	SendTransaction(ctx context.Context, tx Tx) (ethcommon.Hash, error)
	Call(ctx context.Context, tx Tx) ([]byte, error)
}

// Backend is the subset of *ethclient.Client the private key signer needs.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account ethcommon.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

var ErrNoBackend = errors.New("signer has no node backend")

// PrivateKeySigner signs with a local key and talks to a node for chain
// state and broadcasting.
type PrivateKeySigner struct {
	key     *ecdsa.PrivateKey
	address ethcommon.Address
	backend Backend
}

// NewPrivateKeySigner parses a hex private key, with or without 0x. backend
// may be nil when only signing is needed.
func NewPrivateKeySigner(hexKey string, backend Backend) (*PrivateKeySigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return &PrivateKeySigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		backend: backend,
	}, nil
}

func (s *PrivateKeySigner) Address() ethcommon.Address {
	return s.address
}

func (s *PrivateKeySigner) GetChainID(ctx context.Context) (*big.Int, error) {
	if s.backend == nil {
		return nil, ErrNoBackend
	}
	return s.backend.ChainID(ctx)
}

func (s *PrivateKeySigner) GetAccounts(_ context.Context) ([]ethcommon.Address, error) {
	return []ethcommon.Address{s.address}, nil
}

func (s *PrivateKeySigner) Sign(_ context.Context, message []byte) ([]byte, error) {
	sig, err := crypto.Sign(crypto.Keccak256(message), s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

func (s *PrivateKeySigner) callMsg(tx Tx) ethereum.CallMsg {
	to := tx.To
	return ethereum.CallMsg{
		From:  s.address,
		To:    &to,
		Value: tx.Value,
		Data:  tx.Data,
	}
}

func (s *PrivateKeySigner) Call(ctx context.Context, tx Tx) ([]byte, error) {
	if s.backend == nil {
		return nil, ErrNoBackend
	}
	return s.backend.CallContract(ctx, s.callMsg(tx), nil)
}

// SendTransaction builds, signs and broadcasts an EIP-1559 transaction.
func (s *PrivateKeySigner) SendTransaction(ctx context.Context, tx Tx) (ethcommon.Hash, error) {
	if s.backend == nil {
		return ethcommon.Hash{}, ErrNoBackend
	}

	chainID, err := s.backend.ChainID(ctx)
	if err != nil {
		return ethcommon.Hash{}, fmt.Errorf("failed to get chain id: %w", err)
	}
	nonce, err := s.backend.PendingNonceAt(ctx, s.address)
	if err != nil {
		return ethcommon.Hash{}, fmt.Errorf("failed to get nonce: %w", err)
	}
	tip, err := s.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return ethcommon.Hash{}, fmt.Errorf("failed to suggest gas tip: %w", err)
	}
	head, err := s.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return ethcommon.Hash{}, fmt.Errorf("failed to get head: %w", err)
	}
	gas, err := s.backend.EstimateGas(ctx, s.callMsg(tx))
	if err != nil {
		return ethcommon.Hash{}, fmt.Errorf("failed to estimate gas: %w", err)
	}

	baseFee := head.BaseFee
	if baseFee == nil {
		baseFee = new(big.Int)
	}
	// 2x base fee leaves room for a few full blocks
	feeCap := new(big.Int).Add(tip, new(big.Int).Mul(baseFee, big.NewInt(2)))

	value := tx.Value
	if value == nil {
		value = new(big.Int)
	}
	to := tx.To

	signed, err := types.SignTx(types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &to,
		Value:     value,
		Data:      tx.Data,
	}), types.LatestSignerForChainID(chainID), s.key)
	if err != nil {
		return ethcommon.Hash{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := s.backend.SendTransaction(ctx, signed); err != nil {
		return ethcommon.Hash{}, fmt.Errorf("failed to send transaction: %w", err)
	}

	return signed.Hash(), nil
}

// Recover returns the address that produced sig over keccak256(message).
func Recover(message, sig []byte) (ethcommon.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return ethcommon.Address{}, fmt.Errorf("invalid signature length %d", len(sig))
	}
	normalized := make([]byte, len(sig))
	copy(normalized, sig)
	if normalized[crypto.RecoveryIDOffset] >= 27 {
		normalized[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(crypto.Keccak256(message), normalized)
	if err != nil {
		return ethcommon.Address{}, err
	}
	return crypto.PubkeyToAddress(*pub), nil
}
