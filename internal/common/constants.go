package common

import "strconv"

// ChainID represents supported network chain IDs as an enum type
type ChainID uint64

const (
	EthereumMainnet ChainID = 1
	ArbitrumOne     ChainID = 42161
	Polygon         ChainID = 137
	BSC             ChainID = 56
	Optimism        ChainID = 10
	Base            ChainID = 8453

	// Sui has no EVM chain id, 784 is its SLIP-44 coin type.
	Sui ChainID = 784
)

// ZeroAddress is the explicit "no designated receiver" fee receiver.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

var chainNames = map[ChainID]string{
	EthereumMainnet: "ethereum",
	ArbitrumOne:     "arbitrum",
	Polygon:         "polygon",
	BSC:             "bsc",
	Optimism:        "optimism",
	Base:            "base",
	Sui:             "sui",
}

func (c ChainID) String() string {
	if name, ok := chainNames[c]; ok {
		return name
	}
	return strconv.FormatUint(uint64(c), 10)
}

// IsEVM reports whether orders on this chain are hashed with EIP-712.
func (c ChainID) IsEVM() bool {
	return c != Sui
}
