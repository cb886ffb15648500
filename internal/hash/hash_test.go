package hash

import (
	"testing"

	"maker/internal/common"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrder() common.LimitOrder {
	return common.LimitOrder{
		Salt:         "9445680530224363546219629213342930137627063908120498599302155453213356736512",
		Maker:        "0x00000000219ab540356cbb839cbe05303d7705fa",
		Receiver:     common.ZeroAddress,
		MakerAsset:   "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2",
		TakerAsset:   "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
		MakingAmount: "1000000000000000000",
		TakingAmount: "1420000000",
		MakerTraits:  "62419173104490761595518734106643312524177918888344010093236686688879363751936",
	}
}

func TestSigningPayloadEVM(t *testing.T) {
	payload, err := GetSigningPayload(common.EthereumMainnet, testOrder())
	require.NoError(t, err)

	assert.Equal(t, crypto.Keccak256Hash(payload.RawData), payload.Hash)
	assert.Equal(t, []byte{0x19, 0x01}, payload.RawData[:2])

	again, err := GetSigningPayload(common.EthereumMainnet, testOrder())
	require.NoError(t, err)
	assert.Equal(t, payload.Hash, again.Hash)
}

func TestOrderHashDependsOnChainAndSalt(t *testing.T) {
	orderHash := func(chainID common.ChainID, o common.LimitOrder) ethcommon.Hash {
		payload, err := GetSigningPayload(chainID, o)
		require.NoError(t, err)
		return payload.Hash
	}
	base := orderHash(common.EthereumMainnet, testOrder())
	assert.NotEqual(t, base, orderHash(common.Base, testOrder()))

	o := testOrder()
	o.Salt = "1"
	assert.NotEqual(t, base, orderHash(common.EthereumMainnet, o))
}

func TestUnsupportedChain(t *testing.T) {
	_, err := GetSigningPayload(common.ChainID(999999), testOrder())
	assert.Error(t, err)

	_, err = OrderDomain(common.ChainID(999999))
	assert.Error(t, err)
}

func TestSigningPayloadSui(t *testing.T) {
	o := testOrder()
	o.Salt = "12345"
	o.Maker = "0x5f3c1a9b8e2d7c6f4a3b2c1d0e9f8a7b6c5d4e3f2a1b0c9d8e7f6a5b4c3d2e1f"

	payload, err := GetSigningPayload(common.Sui, o)
	require.NoError(t, err)
	assert.Equal(t, crypto.Keccak256Hash(payload.RawData), payload.Hash)

	again, err := GetSigningPayload(common.Sui, o)
	require.NoError(t, err)
	assert.Equal(t, payload.Hash, again.Hash)
}

func TestSigningPayloadSuiInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*common.LimitOrder)
	}{
		{"salt", func(o *common.LimitOrder) { o.Salt = "not-a-number" }},
		{"maker", func(o *common.LimitOrder) { o.Maker = "0xzz" }},
		{"making amount overflow", func(o *common.LimitOrder) { o.MakingAmount = "18446744073709551616" }},
		{"taking amount", func(o *common.LimitOrder) { o.TakingAmount = "-1" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := testOrder()
			tt.mutate(&o)
			_, err := GetSigningPayload(common.Sui, o)
			assert.Error(t, err)
		})
	}
}

func TestHexToBytes32Strict(t *testing.T) {
	h := crypto.Keccak256Hash([]byte("x"))

	out, err := HexToBytes32Strict(h.Hex())
	require.NoError(t, err)
	assert.Equal(t, [32]byte(h), out)

	_, err = HexToBytes32Strict("0xabc")
	assert.Error(t, err)
	_, err = HexToBytes32Strict("0xabcd")
	assert.Error(t, err)
}
