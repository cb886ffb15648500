package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"maker/internal/signer"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc20ABI = `[
	{
		"constant": true,
		"inputs": [
			{"name": "owner", "type": "address"},
			{"name": "spender", "type": "address"}
		],
		"name": "allowance",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"constant": false,
		"inputs": [
			{"name": "spender", "type": "address"},
			{"name": "amount", "type": "uint256"}
		],
		"name": "approve",
		"outputs": [{"name": "", "type": "bool"}],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [{"name": "account", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

var parsedERC20 = mustParseABI(erc20ABI)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("invalid abi: %v", err))
	}
	return parsed
}

// Caller performs read-only contract calls.
type Caller interface {
	Call(ctx context.Context, tx signer.Tx) ([]byte, error)
}

// Sender broadcasts transactions.
type Sender interface {
	SendTransaction(ctx context.Context, tx signer.Tx) (common.Hash, error)
}

func callUint256(ctx context.Context, caller Caller, token common.Address, method string, args ...any) (*big.Int, error) {
	data, err := parsedERC20.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	out, err := caller.Call(ctx, signer.Tx{To: token, Data: data})
	if err != nil {
		return nil, fmt.Errorf("%s call failed: %w", method, err)
	}

	values, err := parsedERC20.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected %s result type %T", method, values[0])
	}
	return v, nil
}

// Allowance returns how much of token spender may move on behalf of owner.
func Allowance(ctx context.Context, caller Caller, token, owner, spender common.Address) (*big.Int, error) {
	return callUint256(ctx, caller, token, "allowance", owner, spender)
}

// BalanceOf returns the token balance of account.
func BalanceOf(ctx context.Context, caller Caller, token, account common.Address) (*big.Int, error) {
	return callUint256(ctx, caller, token, "balanceOf", account)
}

// Approve lets spender move amount of token from the sender's account.
func Approve(ctx context.Context, sender Sender, token, spender common.Address, amount *big.Int) (common.Hash, error) {
	data, err := parsedERC20.Pack("approve", spender, amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack approve: %w", err)
	}
	return sender.SendTransaction(ctx, signer.Tx{To: token, Data: data})
}
