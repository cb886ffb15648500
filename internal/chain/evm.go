package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Escrow factory events carrying the hashlock of a fill.
const escrowABI = `[
	{
        "anonymous": false,
        "inputs": [
            {
                "components": [
                    {"internalType": "bytes32", "name": "orderHash", "type": "bytes32"},
                    {"internalType": "bytes32", "name": "hashlock", "type": "bytes32"},
                    {"internalType": "Address", "name": "maker", "type": "uint256"},
                    {"internalType": "Address", "name": "taker", "type": "uint256"},
                    {"internalType": "Address", "name": "token", "type": "uint256"},
                    {"internalType": "uint256", "name": "amount", "type": "uint256"},
                    {"internalType": "uint256", "name": "safetyDeposit", "type": "uint256"},
                    {"internalType": "Timelocks", "name": "timelocks", "type": "uint256"}
                ],
                "indexed": false,
                "internalType": "struct IBaseEscrow.Immutables",
                "name": "srcImmutables",
                "type": "tuple"
            },
            {
                "components": [
                    {"internalType": "Address", "name": "maker", "type": "uint256"},
                    {"internalType": "uint256", "name": "amount", "type": "uint256"},
                    {"internalType": "Address", "name": "token", "type": "uint256"},
                    {"internalType": "uint256", "name": "safetyDeposit", "type": "uint256"},
                    {"internalType": "uint256", "name": "chainId", "type": "uint256"}
                ],
                "indexed": false,
                "internalType": "struct IEscrowFactory.DstImmutablesComplement",
                "name": "dstImmutablesComplement",
                "type": "tuple"
            }
        ],
        "name": "SrcEscrowCreated",
        "type": "event"
    },
    {
        "anonymous": false,
        "inputs": [
            {"indexed": false, "internalType": "address", "name": "escrow", "type": "address"},
            {"indexed": false, "internalType": "bytes32", "name": "hashlock", "type": "bytes32"},
            {"indexed": false, "internalType": "Address", "name": "taker", "type": "uint256"}
        ],
        "name": "DstEscrowCreated",
        "type": "event"
    }
]`

var parsedEscrow = mustParseABI(escrowABI)

// Immutables mirrors IBaseEscrow.Immutables as emitted on chain, addresses
// being packed into uint256.
type Immutables struct {
	OrderHash     [32]byte `abi:"orderHash"`
	Hashlock      [32]byte `abi:"hashlock"`
	Maker         *big.Int `abi:"maker"`
	Taker         *big.Int `abi:"taker"`
	Token         *big.Int `abi:"token"`
	Amount        *big.Int `abi:"amount"`
	SafetyDeposit *big.Int `abi:"safetyDeposit"`
	Timelocks     *big.Int `abi:"timelocks"`
}

type DstImmutablesComplement struct {
	Maker         *big.Int `abi:"maker"`
	Amount        *big.Int `abi:"amount"`
	Token         *big.Int `abi:"token"`
	SafetyDeposit *big.Int `abi:"safetyDeposit"`
	ChainId       *big.Int `abi:"chainId"`
}

type EvmSrcEscrowCreatedEvent struct {
	SrcImmutables           Immutables              `abi:"srcImmutables"`
	DstImmutablesComplement DstImmutablesComplement `abi:"dstImmutablesComplement"`
}

type EvmDstEscrowCreatedEvent struct {
	Escrow   common.Address `abi:"escrow"`
	Hashlock [32]byte       `abi:"hashlock"`
	Taker    *big.Int       `abi:"taker"`
}

// ReceiptFetcher is satisfied by *ethclient.Client.
type ReceiptFetcher interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

var errEventNotFound = errors.New("event not found in transaction logs")

func unpackEvent(receipt *types.Receipt, name string, out any) error {
	sigHash := parsedEscrow.Events[name].ID
	for _, vLog := range receipt.Logs {
		if len(vLog.Topics) == 0 || vLog.Topics[0] != sigHash {
			continue
		}
		if err := parsedEscrow.UnpackIntoInterface(out, name, vLog.Data); err != nil {
			return fmt.Errorf("failed to unpack %s: %w", name, err)
		}
		return nil
	}
	return fmt.Errorf("%s: %w", name, errEventNotFound)
}

// FetchEvmSrcEscrowEvent pulls the SrcEscrowCreated event from txHash and parses it.
func FetchEvmSrcEscrowEvent(ctx context.Context, client ReceiptFetcher, txHash common.Hash) (*EvmSrcEscrowCreatedEvent, error) {
	receipt, err := client.TransactionReceipt(ctx, txHash)
	if err != nil {
		return nil, err
	}

	var evt EvmSrcEscrowCreatedEvent
	if err := unpackEvent(receipt, "SrcEscrowCreated", &evt); err != nil {
		return nil, err
	}
	return &evt, nil
}

// FetchEvmDstEscrowEvent retrieves and parses the DstEscrowCreated event
// emitted by txHash.
func FetchEvmDstEscrowEvent(ctx context.Context, client ReceiptFetcher, txHash common.Hash) (*EvmDstEscrowCreatedEvent, error) {
	receipt, err := client.TransactionReceipt(ctx, txHash)
	if err != nil {
		return nil, err
	}

	var evt EvmDstEscrowCreatedEvent
	if err := unpackEvent(receipt, "DstEscrowCreated", &evt); err != nil {
		return nil, err
	}
	return &evt, nil
}

// EvmSrcEscrows reads hashlocks from source chain escrow deployments.
type EvmSrcEscrows struct {
	Client ReceiptFetcher
}

func (e EvmSrcEscrows) Hashlock(ctx context.Context, txHash string) (common.Hash, error) {
	evt, err := FetchEvmSrcEscrowEvent(ctx, e.Client, common.HexToHash(txHash))
	if err != nil {
		return common.Hash{}, err
	}
	return common.Hash(evt.SrcImmutables.Hashlock), nil
}

// EvmDstEscrows reads hashlocks from destination chain escrow deployments.
type EvmDstEscrows struct {
	Client ReceiptFetcher
}

func (e EvmDstEscrows) Hashlock(ctx context.Context, txHash string) (common.Hash, error) {
	evt, err := FetchEvmDstEscrowEvent(ctx, e.Client, common.HexToHash(txHash))
	if err != nil {
		return common.Hash{}, err
	}
	return common.Hash(evt.Hashlock), nil
}
