package order

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"time"

	"maker/internal/common"
	"maker/internal/hash"
	"maker/internal/hashlock"
	"maker/internal/secret"
	"maker/internal/signer"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

const maxFeeBps = 10000

// QuoteClient fetches quotes from the quoting service.
type QuoteClient interface {
	GetQuote(ctx context.Context, params common.QuoteRequestParams) (*common.Quote, error)
}

// Submitter delivers a signed order to the relayer.
type Submitter interface {
	SubmitOrder(ctx context.Context, order common.SubmitOrderRequest) error
}

// SecretKeeper takes over the secrets of an order until they are revealed.
// Forget drops them again when the order is never accepted.
type SecretKeeper interface {
	Keep(orderHash string, secrets []secret.Secret) error
	Forget(orderHash string)
}

// PlaceOrderParams describes the swap the maker wants to place.
type PlaceOrderParams struct {
	SrcChainID      common.ChainID
	DstChainID      common.ChainID
	SrcTokenAddress string
	DstTokenAddress string
	Amount          string
	WalletAddress   string
	// Preset selects the auction preset; empty means the recommended one.
	Preset common.PresetEnum
	// Fee overrides the coordinator default when set.
	Fee *common.TakingFee
}

func (p PlaceOrderParams) QuoteParams() common.QuoteRequestParams {
	return common.QuoteRequestParams{
		SrcChain:        p.SrcChainID,
		DstChain:        p.DstChainID,
		SrcTokenAddress: p.SrcTokenAddress,
		DstTokenAddress: p.DstTokenAddress,
		Amount:          p.Amount,
		WalletAddress:   p.WalletAddress,
		EnableEstimate:  true,
	}
}

type Coordinator struct {
	quotes     QuoteClient
	submitter  Submitter
	keeper     SecretKeeper
	vault      *secret.Vault
	saltSource io.Reader
	now        func() time.Time
	defaultFee common.TakingFee
	logger     *zap.Logger
}

type Option func(*Coordinator)

func WithVault(v *secret.Vault) Option {
	return func(c *Coordinator) { c.vault = v }
}

// WithSaltSource sets the randomness used for order salts. It is kept
// apart from the vault source.
func WithSaltSource(r io.Reader) Option {
	return func(c *Coordinator) { c.saltSource = r }
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

func WithDefaultFee(fee common.TakingFee) Option {
	return func(c *Coordinator) { c.defaultFee = fee }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

func NewCoordinator(quotes QuoteClient, submitter Submitter, keeper SecretKeeper, opts ...Option) *Coordinator {
	c := &Coordinator{
		quotes:     quotes,
		submitter:  submitter,
		keeper:     keeper,
		vault:      secret.NewVault(nil),
		saltSource: rand.Reader,
		now:        time.Now,
		defaultFee: common.TakingFee{Receiver: common.ZeroAddress},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("module", "order-coordinator"))
	return c
}

func (c *Coordinator) fee(params PlaceOrderParams) (common.TakingFee, error) {
	fee := c.defaultFee
	if params.Fee != nil {
		fee = *params.Fee
	}
	if fee.Receiver == "" {
		fee.Receiver = common.ZeroAddress
	}
	if !ethcommon.IsHexAddress(fee.Receiver) {
		return common.TakingFee{}, fmt.Errorf("%w: fee receiver %q", common.ErrInvalidParams, fee.Receiver)
	}
	if fee.Bps < 0 || fee.Bps > maxFeeBps {
		return common.TakingFee{}, fmt.Errorf("%w: fee bps %d", common.ErrInvalidParams, fee.Bps)
	}
	return fee, nil
}

func validate(params PlaceOrderParams) error {
	if !isWalletAddress(params.SrcChainID, params.WalletAddress) {
		return fmt.Errorf("%w: wallet address %q", common.ErrInvalidParams, params.WalletAddress)
	}
	if params.SrcChainID == params.DstChainID {
		return fmt.Errorf("%w: source and destination chain are both %s", common.ErrInvalidParams, params.SrcChainID)
	}
	if params.SrcTokenAddress == "" || params.DstTokenAddress == "" {
		return fmt.Errorf("%w: token address missing", common.ErrInvalidParams)
	}
	if params.SrcChainID.IsEVM() && !ethcommon.IsHexAddress(params.SrcTokenAddress) {
		return fmt.Errorf("%w: source token %q", common.ErrInvalidParams, params.SrcTokenAddress)
	}
	if params.Amount == "" {
		return fmt.Errorf("%w: amount missing", common.ErrInvalidParams)
	}
	return nil
}

// checkAccount makes sure the signer controls the maker wallet.
func checkAccount(ctx context.Context, s signer.Signer, wallet string) error {
	accounts, err := s.GetAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list signer accounts: %w", err)
	}
	want := ethcommon.HexToAddress(wallet)
	for _, a := range accounts {
		if a == want {
			return nil
		}
	}
	return fmt.Errorf("%w: signer does not control wallet %s", common.ErrInvalidParams, wallet)
}

// PlaceOrder fetches a quote, commits to freshly generated secrets, signs
// the resulting order and submits it once. On success the secrets are
// handed to the keeper and only public material is returned.
func (c *Coordinator) PlaceOrder(ctx context.Context, params PlaceOrderParams, s signer.Signer) (*common.OrderAck, error) {
	if err := validate(params); err != nil {
		return nil, err
	}
	fee, err := c.fee(params)
	if err != nil {
		return nil, err
	}
	if params.SrcChainID.IsEVM() {
		if err := checkAccount(ctx, s, params.WalletAddress); err != nil {
			return nil, err
		}
	}

	quote, err := c.quotes.GetQuote(ctx, params.QuoteParams())
	if err != nil {
		return nil, err
	}
	if quote == nil {
		return nil, fmt.Errorf("%w: empty quote", common.ErrMalformedQuote)
	}

	preset, err := quote.Preset(params.Preset)
	if err != nil {
		return nil, err
	}
	if preset.SecretsCount < 1 {
		return nil, fmt.Errorf("%w: secretsCount %d", common.ErrMalformedQuote, preset.SecretsCount)
	}

	secrets, err := c.vault.Generate(preset.SecretsCount)
	if err != nil {
		return nil, err
	}
	// Cleared on every path; the keeper holds its own copy.
	defer secret.WipeAll(secrets)

	hashes := c.vault.HashAll(secrets)
	lock, err := hashlock.Build(hashes)
	if err != nil {
		return nil, err
	}

	req := Request{
		WalletAddress: params.WalletAddress,
		HashLock:      lock,
		SecretHashes:  hashes,
		Fee:           fee,
	}

	limitOrder, extension, err := buildLimitOrder(params, quote, preset, req, c.saltSource, c.now())
	if err != nil {
		return nil, err
	}

	payload, err := hash.GetSigningPayload(params.SrcChainID, limitOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to hash order: %w", err)
	}

	signature, err := s.Sign(ctx, payload.RawData)
	if err != nil {
		return nil, err
	}

	submission := common.SubmitOrderRequest{
		SrcChainID:   params.SrcChainID,
		LimitOrder:   limitOrder,
		Signature:    hexBytes(signature),
		QuoteID:      quote.QuoteID,
		Extension:    hexBytes(extension),
		HashLock:     lock.Value().Hex(),
		SecretHashes: req.SecretHashesHex(),
		Fee:          req.Fee,
	}

	// The keeper must hold the secrets before the relayer can hand out fills.
	orderHash := payload.Hash.Hex()
	if err := c.keeper.Keep(orderHash, secrets); err != nil {
		return nil, fmt.Errorf("failed to retain secrets of order %s: %w", orderHash, err)
	}
	if err := c.submitter.SubmitOrder(ctx, submission); err != nil {
		c.keeper.Forget(orderHash)
		c.logger.Warn("order submission failed", zap.String("order_hash", orderHash), zap.Error(err))
		return nil, err
	}

	c.logger.Info("order placed",
		zap.String("order_hash", orderHash),
		zap.String("quote_id", quote.QuoteID.String()),
		zap.Int("secrets_count", len(hashes)),
	)

	return &common.OrderAck{
		OrderHash:    orderHash,
		QuoteID:      quote.QuoteID,
		SrcChainID:   params.SrcChainID,
		HashLock:     submission.HashLock,
		SecretHashes: submission.SecretHashes,
		Status:       common.OrderStatusPending,
	}, nil
}

func isWalletAddress(chainID common.ChainID, s string) bool {
	if chainID.IsEVM() {
		return ethcommon.IsHexAddress(s)
	}
	_, err := hash.HexToBytes32Strict(s)
	return err == nil
}
