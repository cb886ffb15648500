package order

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"time"

	"maker/internal/common"
	"maker/internal/hashlock"

	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Request is the assembled order payload: who places it, what it is
// locked with and which fee terms apply.
type Request struct {
	WalletAddress string
	HashLock      hashlock.HashLock
	SecretHashes  []ethcommon.Hash
	Fee           common.TakingFee
}

// SecretHashesHex returns the secret hashes in their original order.
func (r Request) SecretHashesHex() []string {
	out := make([]string, len(r.SecretHashes))
	for i, h := range r.SecretHashes {
		out[i] = h.Hex()
	}
	return out
}

// maker traits flags
const (
	noPartialFillsFlag     = 255
	allowMultipleFillsFlag = 254
	postInteractionFlag    = 251
	hasExtensionFlag       = 249

	expirationOffset = 80
	saltRandomOffset = 160
)

var (
	bytes32Type, _ = abi.NewType("bytes32", "", nil)
	uint256Type, _ = abi.NewType("uint256", "", nil)
	bytesType, _   = abi.NewType("bytes", "", nil)

	// hashLock, dstChainId, dstToken, deposits, timeLocks
	escrowExtensionArgs = abi.Arguments{
		{Name: "hashLock", Type: bytes32Type},
		{Name: "dstChainId", Type: uint256Type},
		{Name: "dstToken", Type: bytesType},
		{Name: "deposits", Type: uint256Type},
		{Name: "timeLocks", Type: uint256Type},
	}
)

func bit(n uint) *uint256.Int {
	return new(uint256.Int).Lsh(uint256.NewInt(1), n)
}

func parseAmount(name, s string) (*uint256.Int, error) {
	if s == "" {
		return new(uint256.Int), nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q: %v", common.ErrMalformedQuote, name, s, err)
	}
	return v, nil
}

// EncodeTimeLocks packs the seven stage offsets as uint32 words, srcWithdrawal
// in the lowest 32 bits.
func EncodeTimeLocks(t common.TimeLocksRaw) *uint256.Int {
	stages := []int64{
		t.SrcWithdrawal,
		t.SrcPublicWithdrawal,
		t.SrcCancellation,
		t.SrcPublicCancellation,
		t.DstWithdrawal,
		t.DstPublicWithdrawal,
		t.DstCancellation,
	}

	out := new(uint256.Int)
	for i, stage := range stages {
		word := uint256.NewInt(uint64(uint32(stage)))
		out.Or(out, word.Lsh(word, uint(32*i)))
	}
	return out
}

func encodeDeposits(quote *common.Quote) (*uint256.Int, error) {
	src, err := parseAmount("srcSafetyDeposit", quote.SrcSafetyDeposit)
	if err != nil {
		return nil, err
	}
	dst, err := parseAmount("dstSafetyDeposit", quote.DstSafetyDeposit)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).Or(new(uint256.Int).Lsh(src, 128), dst), nil
}

// EncodeExtension ABI-encodes the escrow parameters resolvers need to
// deploy both escrows of the order.
func EncodeExtension(lock hashlock.HashLock, dstChainID common.ChainID, dstToken string, quote *common.Quote) ([]byte, error) {
	deposits, err := encodeDeposits(quote)
	if err != nil {
		return nil, err
	}

	return escrowExtensionArgs.Pack(
		[32]byte(lock.Value()),
		new(big.Int).SetUint64(uint64(dstChainID)),
		[]byte(dstToken),
		deposits.ToBig(),
		EncodeTimeLocks(quote.TimeLocks).ToBig(),
	)
}

// ExtensionHashLock returns the hash-lock value an escrow extension carries.
func ExtensionHashLock(extension []byte) (ethcommon.Hash, error) {
	values, err := escrowExtensionArgs.Unpack(extension)
	if err != nil {
		return ethcommon.Hash{}, fmt.Errorf("invalid escrow extension: %w", err)
	}
	lock, ok := values[0].([32]byte)
	if !ok {
		return ethcommon.Hash{}, fmt.Errorf("invalid escrow extension: hashLock is %T", values[0])
	}
	return ethcommon.Hash(lock), nil
}

// SaltCommitsTo reports whether the low 160 bits of salt are those of the
// extension hash, as BuildSalt sets them.
func SaltCommitsTo(salt *uint256.Int, extension []byte) bool {
	b := salt.Bytes32()
	return bytes.Equal(crypto.Keccak256(extension)[12:], b[12:])
}

// BuildMakerTraits sets the fill policy flags and the expiration.
func BuildMakerTraits(preset common.PresetData, secretsCount int, expiration time.Time) *uint256.Int {
	traits := new(uint256.Int)
	traits.Or(traits, bit(hasExtensionFlag))
	traits.Or(traits, bit(postInteractionFlag))

	if !preset.AllowPartialFills && secretsCount == 1 {
		traits.Or(traits, bit(noPartialFillsFlag))
	}
	if secretsCount > 1 {
		traits.Or(traits, bit(allowMultipleFillsFlag))
	}

	exp := uint256.NewInt(uint64(expiration.Unix()) & (1<<40 - 1))
	traits.Or(traits, exp.Lsh(exp, expirationOffset))
	return traits
}

// BuildSalt puts 96 random bits above the low 160 bits of the extension hash.
func BuildSalt(r io.Reader, extension []byte) (*uint256.Int, error) {
	var random [12]byte
	if _, err := io.ReadFull(r, random[:]); err != nil {
		return nil, fmt.Errorf("%w: salt: %v", common.ErrInsufficientEntropy, err)
	}

	salt := new(uint256.Int).SetBytes(random[:])
	salt.Lsh(salt, saltRandomOffset)

	extHash := crypto.Keccak256(extension)
	low := new(uint256.Int).SetBytes(extHash[len(extHash)-20:])
	return salt.Or(salt, low), nil
}

func addressOrZero(s string) string {
	if ethcommon.IsHexAddress(s) {
		return s
	}
	return common.ZeroAddress
}

// buildLimitOrder derives the limit order and its extension from the quote
// and the assembled request.
func buildLimitOrder(
	params PlaceOrderParams,
	quote *common.Quote,
	preset common.PresetData,
	req Request,
	saltSource io.Reader,
	now time.Time,
) (common.LimitOrder, []byte, error) {
	extension, err := EncodeExtension(req.HashLock, params.DstChainID, params.DstTokenAddress, quote)
	if err != nil {
		return common.LimitOrder{}, nil, err
	}

	salt, err := BuildSalt(saltSource, extension)
	if err != nil {
		return common.LimitOrder{}, nil, err
	}

	makingAmount := quote.SrcTokenAmount
	if makingAmount == "" {
		makingAmount = params.Amount
	}
	making, err := parseAmount("srcTokenAmount", makingAmount)
	if err != nil {
		return common.LimitOrder{}, nil, err
	}
	taking, err := parseAmount("auctionEndAmount", preset.AuctionEndAmount)
	if err != nil {
		return common.LimitOrder{}, nil, err
	}
	if making.IsZero() || taking.IsZero() {
		return common.LimitOrder{}, nil, fmt.Errorf("%w: zero order amount", common.ErrMalformedQuote)
	}

	expiration := now.Add(time.Duration(preset.StartAuctionIn+preset.AuctionDuration) * time.Second)
	traits := BuildMakerTraits(preset, req.HashLock.SecretsCount(), expiration)

	return common.LimitOrder{
		Salt:         salt.Dec(),
		Maker:        req.WalletAddress,
		Receiver:     common.ZeroAddress,
		MakerAsset:   params.SrcTokenAddress,
		TakerAsset:   addressOrZero(params.DstTokenAddress),
		MakingAmount: making.Dec(),
		TakingAmount: taking.Dec(),
		MakerTraits:  traits.Dec(),
	}, extension, nil
}

func hexBytes(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}
