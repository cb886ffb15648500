package common

import (
	"fmt"

	"github.com/google/uuid"
)

// QuoteRequestParams is the query of GET /quoter/v1.0/quote/receive.
type QuoteRequestParams struct {
	SrcChain        ChainID `schema:"srcChain"`
	DstChain        ChainID `schema:"dstChain"`
	SrcTokenAddress string  `schema:"srcTokenAddress"`
	DstTokenAddress string  `schema:"dstTokenAddress"`
	Amount          string  `schema:"amount"`
	WalletAddress   string  `schema:"walletAddress"`
	EnableEstimate  bool    `schema:"enableEstimate,omitempty"`
}

// Quote is the quoter response. It is time bounded and may back at most one
// submitted order.
type Quote struct {
	QuoteID           uuid.UUID     `json:"quoteId"`
	SrcTokenAmount    string        `json:"srcTokenAmount"`
	DstTokenAmount    string        `json:"dstTokenAmount"`
	Presets           QuoterPresets `json:"presets"`
	SrcEscrowFactory  string        `json:"srcEscrowFactory"`
	DstEscrowFactory  string        `json:"dstEscrowFactory"`
	RecommendedPreset PresetEnum    `json:"recommendedPreset"`
	Prices            Cost          `json:"prices"`
	Whitelist         []string      `json:"whitelist"`
	TimeLocks         TimeLocksRaw  `json:"timeLocks"`
	SrcSafetyDeposit  string        `json:"srcSafetyDeposit"`
	DstSafetyDeposit  string        `json:"dstSafetyDeposit"`
}

// Preset returns the named preset, or the recommended one when name is empty.
func (q *Quote) Preset(name PresetEnum) (PresetData, error) {
	if name == "" {
		name = q.RecommendedPreset
	}
	preset, ok := q.Presets[name]
	if !ok {
		return PresetData{}, fmt.Errorf("%w: preset %q not present", ErrMalformedQuote, name)
	}
	return preset, nil
}

type QuoterPresets = map[PresetEnum]PresetData

// PresetData is one auction configuration of a quote. SecretsCount is the
// number of secrets an order placed with it must commit to.
type PresetData struct {
	SecretsCount       int            `json:"secretsCount"`
	AllowPartialFills  bool           `json:"allowPartialFills"`
	AllowMultipleFills bool           `json:"allowMultipleFills"`
	StartAuctionIn     int64          `json:"startAuctionIn"`
	AuctionDuration    int64          `json:"auctionDuration"`
	InitialRateBump    float64        `json:"initialRateBump"`
	AuctionStartAmount string         `json:"auctionStartAmount"`
	AuctionEndAmount   string         `json:"auctionEndAmount"`
	Points             []AuctionPoint `json:"points"`
}

type AuctionPoint struct {
	Delay       int64   `json:"delay"`
	Coefficient float64 `json:"coefficient"`
}

type PresetEnum string

const (
	PresetFast   PresetEnum = "fast"
	PresetMedium PresetEnum = "medium"
	PresetSlow   PresetEnum = "slow"
)

type Cost struct {
	USD struct {
		SrcToken string `json:"srcToken"`
		DstToken string `json:"dstToken"`
	} `json:"usd"`
}

// TimeLocksRaw holds escrow stage offsets in seconds.
type TimeLocksRaw struct {
	SrcWithdrawal         int64 `json:"srcWithdrawal"`
	SrcPublicWithdrawal   int64 `json:"srcPublicWithdrawal"`
	SrcCancellation       int64 `json:"srcCancellation"`
	SrcPublicCancellation int64 `json:"srcPublicCancellation"`
	DstWithdrawal         int64 `json:"dstWithdrawal"`
	DstPublicWithdrawal   int64 `json:"dstPublicWithdrawal"`
	DstCancellation       int64 `json:"dstCancellation"`
}

// TakingFee is transmitted as-is. A zero-address receiver is an explicit
// value and is never dropped from the payload.
type TakingFee struct {
	Bps      int    `json:"takingFeeBps"`
	Receiver string `json:"takingFeeReceiver"`
}

// SubmitOrderRequest is the body of POST /relayer/v1.0/submit.
type SubmitOrderRequest struct {
	SrcChainID   ChainID    `json:"srcChainId"`
	LimitOrder   LimitOrder `json:"order"`
	Signature    string     `json:"signature"`
	QuoteID      uuid.UUID  `json:"quoteId"`
	Extension    string     `json:"extension"`
	HashLock     string     `json:"hashLock"`
	SecretHashes []string   `json:"secretHashes"`
	Fee          TakingFee  `json:"fee"`
}

// OrderAck is the acknowledged result of a submission. It deliberately
// carries no secret material.
type OrderAck struct {
	OrderHash    string          `json:"orderHash"`
	QuoteID      uuid.UUID       `json:"quoteId"`
	SrcChainID   ChainID         `json:"srcChainId"`
	HashLock     string          `json:"hashLock"`
	SecretHashes []string        `json:"secretHashes"`
	Status       OrderStatusMode `json:"status"`
}

type LimitOrder struct {
	Salt         string `json:"salt"`
	Maker        string `json:"maker"`
	Receiver     string `json:"receiver"`
	MakerAsset   string `json:"makerAsset"`
	TakerAsset   string `json:"takerAsset"`
	MakingAmount string `json:"makingAmount"`
	TakingAmount string `json:"takingAmount"`
	// MakerTraits is a uint256 of flags and the expiration, see order.BuildMakerTraits.
	MakerTraits  string `json:"makerTraits"`
}

// SecretSubmission is the body of POST /relayer/v1.0/submit/secret.
type SecretSubmission struct {
	OrderHash string `json:"orderHash"`
	Secret    string `json:"secret"`
}

type OrderStatus struct {
	OrderHash           string          `json:"orderHash"`
	Status              OrderStatusMode `json:"status"`
	Order               *LimitOrder     `json:"order"`
	Extension           string          `json:"extension"`
	Points              []AuctionPoint  `json:"points"`
	Fills               []Fill          `json:"fills"`
	CreatedAt           string          `json:"createdAt"`
	AuctionStartDate    int64           `json:"auctionStartDate"`
	AuctionDuration     int64           `json:"auctionDuration"`
	InitialRateBump     float64         `json:"initialRateBump"`
	FromTokenToUsdPrice string          `json:"fromTokenToUsdPrice"`
	ToTokenToUsdPrice   string          `json:"toTokenToUsdPrice"`
}

type OrderStatusMode string

const (
	OrderStatusPending   OrderStatusMode = "pending"
	OrderStatusExecuted  OrderStatusMode = "executed"
	OrderStatusExpired   OrderStatusMode = "expired"
	OrderStatusCancelled OrderStatusMode = "cancelled"
	OrderStatusRefunding OrderStatusMode = "refunding"
	OrderStatusRefunded  OrderStatusMode = "refunded"
)

// Fill is one taker fill of an order, identified by the index of the secret
// that unlocks it.
type Fill struct {
	Idx               int        `json:"idx"`
	Status            FillStatus `json:"status"`
	TxHash            string     `json:"txHash"`
	FilledMakerAmount string     `json:"filledMakerAmount"`
}

type FillStatus string

const (
	Pending  FillStatus = "pending"
	Executed FillStatus = "executed"
)

// ActiveOrdersParams is the query of GET /orders/v1.0/order/active.
type ActiveOrdersParams struct {
	Page  int `schema:"page"`
	Limit int `schema:"limit"`
}

type ActiveOrdersResponse struct {
	Meta  PaginationMeta `json:"meta"`
	Items []ActiveOrder  `json:"items"`
}

type PaginationMeta struct {
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
	TotalPages   int `json:"totalPages"`
	CurrentPage  int `json:"currentPage"`
}

type ActiveOrder struct {
	OrderHash            string     `json:"orderHash"`
	QuoteID              uuid.UUID  `json:"quoteId"`
	SrcChainID           ChainID    `json:"srcChainId"`
	DstChainID           ChainID    `json:"dstChainId"`
	Signature            string     `json:"signature"`
	Order                LimitOrder `json:"order"`
	Extension            string     `json:"extension"`
	SecretHashes         []string   `json:"secretHashes,omitempty"`
	RemainingMakerAmount string     `json:"remainingMakerAmount"`
	AuctionStartDate     int64      `json:"auctionStartDate"`
	AuctionEndDate       int64      `json:"auctionEndDate"`
	Deadline             int64      `json:"deadline"`
}

type ReadyToAcceptSecretFills struct {
	Fills []ReadyToAcceptSecretFill `json:"fills"`
}

type ReadyToAcceptSecretFill struct {
	Idx                   int    `json:"idx"`
	SrcEscrowDeployTxHash string `json:"srcEscrowDeployTxHash"`
	DstEscrowDeployTxHash string `json:"dstEscrowDeployTxHash"`
}
