package hash

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"maker/internal/common"

	"github.com/block-vision/sui-go-sdk/mystenbcs"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/holiman/uint256"
)

// SigningPayload is what a maker signs for an order: Hash identifies the
// order, RawData is the message handed to the signer, whose keccak256 is
// Hash.
type SigningPayload struct {
	Hash    ethcommon.Hash
	RawData []byte
}

func chainIDToHex(chainID common.ChainID) *math.HexOrDecimal256 {
	return (*math.HexOrDecimal256)(uint256.NewInt(uint64(chainID)).ToBig())
}

// OrderDomain is the limit order protocol v4 domain on chainID.
func OrderDomain(chainID common.ChainID) (apitypes.TypedDataDomain, error) {
	contract, err := GetLimitOrderContract(chainID)
	if err != nil {
		return apitypes.TypedDataDomain{}, fmt.Errorf("failed to get contract address: %w", err)
	}
	return apitypes.TypedDataDomain{
		Name:              LimitOrderV4TypeDataName,
		Version:           LimitOrderV4TypeDataVersion,
		ChainId:           chainIDToHex(chainID),
		VerifyingContract: contract.Hex(),
	}, nil
}

func orderTypedData(domain apitypes.TypedDataDomain, order common.LimitOrder) apitypes.TypedData {
	return apitypes.TypedData{
		Types:       apitypes.Types{"EIP712Domain": EIP712Domain, "Order": Order},
		PrimaryType: "Order",
		Domain:      domain,
		Message: apitypes.TypedDataMessage{
			"salt":         order.Salt,
			"maker":        order.Maker,
			"receiver":     order.Receiver,
			"makerAsset":   order.MakerAsset,
			"takerAsset":   order.TakerAsset,
			"makingAmount": order.MakingAmount,
			"takingAmount": order.TakingAmount,
			"makerTraits":  order.MakerTraits,
		},
	}
}

// GetSigningPayload returns the order hash together with the bytes the maker
// signs. EVM chains use EIP712, Sui uses the BCS encoded order.
func GetSigningPayload(chainID common.ChainID, order common.LimitOrder) (SigningPayload, error) {
	if !chainID.IsEVM() {
		encoded, err := encodeMoveOrder(order)
		if err != nil {
			return SigningPayload{}, err
		}
		return SigningPayload{Hash: crypto.Keccak256Hash(encoded), RawData: encoded}, nil
	}

	domain, err := OrderDomain(chainID)
	if err != nil {
		return SigningPayload{}, err
	}
	digest, rawData, err := apitypes.TypedDataAndHash(orderTypedData(domain, order))
	if err != nil {
		return SigningPayload{}, fmt.Errorf("failed to compute EIP712 hash: %w", err)
	}
	return SigningPayload{Hash: ethcommon.BytesToHash(digest), RawData: []byte(rawData)}, nil
}

func encodeMoveOrder(order common.LimitOrder) ([]byte, error) {
	salt, ok := new(big.Int).SetString(order.Salt, 10)
	if !ok {
		return nil, fmt.Errorf("invalid salt value: %v", order.Salt)
	}

	makerBytes, err := hex.DecodeString(strings.TrimPrefix(order.Maker, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid maker address %q: %w", order.Maker, err)
	}
	receiver := ethcommon.HexToAddress(order.Receiver)

	makingAmount, err := parseUint64(order.MakingAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid makingAmount value: %w", err)
	}
	takingAmount, err := parseUint64(order.TakingAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid takingAmount value: %w", err)
	}

	var buf bytes.Buffer
	if err := mystenbcs.NewEncoder(&buf).Encode(OrderHashType{
		Salt:         salt.Bytes(),
		Maker:        makerBytes,
		Receiver:     receiver.Bytes(),
		MakingAmount: makingAmount,
		TakingAmount: takingAmount,
	}); err != nil {
		return nil, fmt.Errorf("failed to encode order: %w", err)
	}

	return buf.Bytes(), nil
}

// Move amounts are u64.
func parseUint64(s string) (uint64, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 || !v.IsUint64() {
		return 0, fmt.Errorf("%q is not a u64", s)
	}
	return v.Uint64(), nil
}

// HexToBytes32Strict decodes exactly 32 bytes of hex, with or without 0x.
func HexToBytes32Strict(s string) ([32]byte, error) {
	var out [32]byte
	s = strings.TrimPrefix(s, "0x")
	if len(s) != 2*len(out) {
		return out, fmt.Errorf("expected %d hex chars, got %d", 2*len(out), len(s))
	}
	if _, err := hex.Decode(out[:], []byte(s)); err != nil {
		return out, err
	}
	return out, nil
}
