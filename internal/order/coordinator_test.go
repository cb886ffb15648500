package order

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"maker/internal/common"
	"maker/internal/hash"
	"maker/internal/hashlock"
	"maker/internal/secret"
	"maker/internal/signer"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey   = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	testToken = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
	dstToken  = "0xaf88d065e77c8cC2239327C5EDb3A432268e5831"
)

// seqReader yields 0,1,2,... and counts what was read.
type seqReader struct {
	next byte
	read int
}

func (r *seqReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r.next
		r.next++
	}
	r.read += len(p)
	return len(p), nil
}

type fakeQuotes struct {
	quote *common.Quote
	err   error
	calls int
}

func (f *fakeQuotes) GetQuote(context.Context, common.QuoteRequestParams) (*common.Quote, error) {
	f.calls++
	return f.quote, f.err
}

type fakeSubmitter struct {
	submitted []common.SubmitOrderRequest
	err       error
}

func (f *fakeSubmitter) SubmitOrder(_ context.Context, order common.SubmitOrderRequest) error {
	f.submitted = append(f.submitted, order)
	return f.err
}

type fakeKeeper struct {
	kept      map[string][]secret.Secret
	forgotten []string
	err       error
}

func (f *fakeKeeper) Keep(orderHash string, secrets []secret.Secret) error {
	if f.err != nil {
		return f.err
	}
	if f.kept == nil {
		f.kept = map[string][]secret.Secret{}
	}
	f.kept[orderHash] = append([]secret.Secret(nil), secrets...)
	return nil
}

func (f *fakeKeeper) Forget(orderHash string) {
	delete(f.kept, orderHash)
	f.forgotten = append(f.forgotten, orderHash)
}

func testQuote(secretsCount int) *common.Quote {
	return &common.Quote{
		QuoteID:           uuid.New(),
		SrcTokenAmount:    "1000000",
		DstTokenAmount:    "990000",
		RecommendedPreset: common.PresetFast,
		Presets: common.QuoterPresets{
			common.PresetFast: {
				AuctionDuration:   180,
				StartAuctionIn:    12,
				AuctionEndAmount:  "985000",
				AllowPartialFills: secretsCount > 1,
				SecretsCount:      secretsCount,
			},
		},
		TimeLocks: common.TimeLocksRaw{
			SrcWithdrawal:         10,
			SrcPublicWithdrawal:   120,
			SrcCancellation:       121,
			SrcPublicCancellation: 122,
			DstWithdrawal:         10,
			DstPublicWithdrawal:   100,
			DstCancellation:       101,
		},
		SrcSafetyDeposit: "1000",
		DstSafetyDeposit: "2000",
	}
}

func testSigner(t *testing.T) *signer.PrivateKeySigner {
	t.Helper()
	s, err := signer.NewPrivateKeySigner(testKey, nil)
	require.NoError(t, err)
	return s
}

func testParams(s *signer.PrivateKeySigner) PlaceOrderParams {
	return PlaceOrderParams{
		SrcChainID:      common.EthereumMainnet,
		DstChainID:      common.ArbitrumOne,
		SrcTokenAddress: testToken,
		DstTokenAddress: dstToken,
		Amount:          "1000000",
		WalletAddress:   s.Address().Hex(),
	}
}

type fixture struct {
	quotes    *fakeQuotes
	submitter *fakeSubmitter
	keeper    *fakeKeeper
	entropy   *seqReader
	coord     *Coordinator
}

func newFixture(quote *common.Quote, opts ...Option) *fixture {
	f := &fixture{
		quotes:    &fakeQuotes{quote: quote},
		submitter: &fakeSubmitter{},
		keeper:    &fakeKeeper{},
		entropy:   &seqReader{},
	}
	now := time.Unix(1_700_000_000, 0)
	opts = append([]Option{
		WithVault(secret.NewVault(f.entropy)),
		WithSaltSource(bytes.NewReader(make([]byte, 64))),
		WithClock(func() time.Time { return now }),
	}, opts...)
	f.coord = NewCoordinator(f.quotes, f.submitter, f.keeper, opts...)
	return f
}

func TestPlaceOrderMultipleFills(t *testing.T) {
	s := testSigner(t)
	f := newFixture(testQuote(3))

	ack, err := f.coord.PlaceOrder(context.Background(), testParams(s), s)
	require.NoError(t, err)

	assert.Equal(t, 1, f.quotes.calls)
	assert.Equal(t, 3*secret.Size, f.entropy.read)
	require.Len(t, f.submitter.submitted, 1)

	sub := f.submitter.submitted[0]
	require.Len(t, sub.SecretHashes, 3)

	kept := f.keeper.kept[ack.OrderHash]
	require.Len(t, kept, 3)
	for i, sec := range kept {
		assert.Equal(t, secret.HashSecret(sec).Hex(), sub.SecretHashes[i], "hash %d out of order", i)
	}

	hashes := make([]ethcommon.Hash, len(sub.SecretHashes))
	for i, h := range sub.SecretHashes {
		hashes[i] = ethcommon.HexToHash(h)
	}
	lock, err := hashlock.Build(hashes)
	require.NoError(t, err)
	assert.Equal(t, lock.Value().Hex(), sub.HashLock)
	assert.Equal(t, uint64(2), hashlock.PartsCount(lock.Value()))

	assert.Equal(t, sub.HashLock, ack.HashLock)
	assert.Equal(t, sub.SecretHashes, ack.SecretHashes)
	assert.Equal(t, f.quotes.quote.QuoteID, ack.QuoteID)
	assert.Equal(t, common.OrderStatusPending, ack.Status)
}

func TestPlaceOrderSignatureMatchesOrderHash(t *testing.T) {
	s := testSigner(t)
	f := newFixture(testQuote(1))

	ack, err := f.coord.PlaceOrder(context.Background(), testParams(s), s)
	require.NoError(t, err)
	sub := f.submitter.submitted[0]

	payload, err := hash.GetSigningPayload(common.EthereumMainnet, sub.LimitOrder)
	require.NoError(t, err)
	assert.Equal(t, payload.Hash.Hex(), ack.OrderHash)

	sig, err := hexutil.Decode(sub.Signature)
	require.NoError(t, err)
	addr, err := signer.Recover(payload.RawData, sig)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), addr)

	assert.Equal(t, s.Address().Hex(), sub.LimitOrder.Maker)
	assert.Equal(t, common.ZeroAddress, sub.LimitOrder.Receiver)
	assert.Equal(t, "1000000", sub.LimitOrder.MakingAmount)
	assert.Equal(t, "985000", sub.LimitOrder.TakingAmount)
}

func TestPlaceOrderSingleSecret(t *testing.T) {
	s := testSigner(t)
	f := newFixture(testQuote(1))

	ack, err := f.coord.PlaceOrder(context.Background(), testParams(s), s)
	require.NoError(t, err)

	kept := f.keeper.kept[ack.OrderHash]
	require.Len(t, kept, 1)
	assert.Equal(t, secret.HashSecret(kept[0]).Hex(), ack.HashLock)
	assert.Equal(t, []string{ack.HashLock}, ack.SecretHashes)
}

func TestPlaceOrderFeeSerializedVerbatim(t *testing.T) {
	s := testSigner(t)
	f := newFixture(testQuote(1))

	params := testParams(s)
	params.Fee = &common.TakingFee{Bps: 100, Receiver: common.ZeroAddress}
	_, err := f.coord.PlaceOrder(context.Background(), params, s)
	require.NoError(t, err)

	raw, err := json.Marshal(f.submitter.submitted[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"takingFeeBps":100`)
	assert.Contains(t, string(raw), `"takingFeeReceiver":"0x0000000000000000000000000000000000000000"`)
}

func TestPlaceOrderDefaultFee(t *testing.T) {
	s := testSigner(t)
	receiver := "0x1111111111111111111111111111111111111111"
	f := newFixture(testQuote(1), WithDefaultFee(common.TakingFee{Bps: 50, Receiver: receiver}))

	_, err := f.coord.PlaceOrder(context.Background(), testParams(s), s)
	require.NoError(t, err)
	assert.Equal(t, common.TakingFee{Bps: 50, Receiver: receiver}, f.submitter.submitted[0].Fee)
}

func TestPlaceOrderQuoteUnavailable(t *testing.T) {
	s := testSigner(t)
	f := newFixture(nil)
	f.quotes.err = fmt.Errorf("get quote: %w", common.ErrQuoteUnavailable)

	ack, err := f.coord.PlaceOrder(context.Background(), testParams(s), s)
	require.ErrorIs(t, err, common.ErrQuoteUnavailable)
	assert.Nil(t, ack)
	assert.Zero(t, f.entropy.read)
	assert.Empty(t, f.submitter.submitted)
	assert.Empty(t, f.keeper.kept)
}

func TestPlaceOrderMalformedQuote(t *testing.T) {
	s := testSigner(t)

	cases := map[string]*common.Quote{
		"missing preset": func() *common.Quote {
			q := testQuote(2)
			q.RecommendedPreset = common.PresetSlow
			return q
		}(),
		"zero secrets": testQuote(0),
		"empty quote":  nil,
		"bad amount": func() *common.Quote {
			q := testQuote(1)
			q.SrcTokenAmount = "12abc"
			return q
		}(),
	}

	for name, quote := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(quote)
			_, err := f.coord.PlaceOrder(context.Background(), testParams(s), s)
			require.ErrorIs(t, err, common.ErrMalformedQuote)
			assert.Empty(t, f.submitter.submitted)
			assert.Empty(t, f.keeper.kept)
		})
	}
}

func TestPlaceOrderSubmissionRejected(t *testing.T) {
	s := testSigner(t)
	f := newFixture(testQuote(2))
	f.submitter.err = fmt.Errorf("submit order: %w", common.ErrSubmissionRejected)

	ack, err := f.coord.PlaceOrder(context.Background(), testParams(s), s)
	require.ErrorIs(t, err, common.ErrSubmissionRejected)
	assert.Nil(t, ack)
	assert.Len(t, f.submitter.submitted, 1)
	assert.Empty(t, f.keeper.kept)
	assert.Len(t, f.keeper.forgotten, 1)
}

func TestPlaceOrderKeeperFailureSubmitsNothing(t *testing.T) {
	s := testSigner(t)
	f := newFixture(testQuote(2))
	f.keeper.err = errors.New("store closed")

	ack, err := f.coord.PlaceOrder(context.Background(), testParams(s), s)
	require.ErrorContains(t, err, "store closed")
	assert.Nil(t, ack)
	assert.Empty(t, f.submitter.submitted)
}

func TestPlaceOrderInvalidParams(t *testing.T) {
	s := testSigner(t)
	other, err := signer.NewPrivateKeySigner("0x8da4ef21b864d2cc526dbdb2a120bd2874c36c9d0a1fb7f8c63d7f7a8b41de8f", nil)
	require.NoError(t, err)

	cases := map[string]func(*PlaceOrderParams){
		"bad wallet":      func(p *PlaceOrderParams) { p.WalletAddress = "0x1234" },
		"same chain":      func(p *PlaceOrderParams) { p.DstChainID = p.SrcChainID },
		"no amount":       func(p *PlaceOrderParams) { p.Amount = "" },
		"bps over 100%":   func(p *PlaceOrderParams) { p.Fee = &common.TakingFee{Bps: 10001, Receiver: common.ZeroAddress} },
		"negative bps":    func(p *PlaceOrderParams) { p.Fee = &common.TakingFee{Bps: -1, Receiver: common.ZeroAddress} },
		"bad receiver":    func(p *PlaceOrderParams) { p.Fee = &common.TakingFee{Bps: 1, Receiver: "nobody"} },
		"foreign wallet":  func(p *PlaceOrderParams) { p.WalletAddress = other.Address().Hex() },
		"bad src token":   func(p *PlaceOrderParams) { p.SrcTokenAddress = "usdc" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(testQuote(1))
			params := testParams(s)
			mutate(&params)

			_, err := f.coord.PlaceOrder(context.Background(), params, s)
			require.True(t, errors.Is(err, common.ErrInvalidParams), "got %v", err)
			assert.Zero(t, f.quotes.calls)
			assert.Zero(t, f.entropy.read)
		})
	}
}
