package hash

import (
	"fmt"

	"maker/internal/common"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// EIP712 constants for 1inch Aggregation Router V6
const (
	LimitOrderV4TypeDataName    = "1inch Aggregation Router"
	LimitOrderV4TypeDataVersion = "6"
)

// Aggregation Router V6 is deployed at the same address on every supported EVM chain.
const aggregationRouterV6 = "0x111111125421cA6dc452d289314280a0f8842A65"

var limitOrderContracts = map[common.ChainID]string{
	common.EthereumMainnet: aggregationRouterV6,
	common.ArbitrumOne:     aggregationRouterV6,
	common.Polygon:         aggregationRouterV6,
	common.BSC:             aggregationRouterV6,
	common.Optimism:        aggregationRouterV6,
	common.Base:            aggregationRouterV6,
}

// GetLimitOrderContract returns the limit order protocol contract for the given chain ID
func GetLimitOrderContract(chainID common.ChainID) (ethcommon.Address, error) {
	contractAddress, exists := limitOrderContracts[chainID]
	if !exists {
		return ethcommon.Address{}, fmt.Errorf("unsupported chain ID: %d", chainID)
	}

	return ethcommon.HexToAddress(contractAddress), nil
}
