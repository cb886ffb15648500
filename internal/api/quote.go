package api

import (
	"maker/internal/common"
)

// DefaultQuote is served in dev mode. Amounts are echoed from the request.
// The fast preset commits to a single secret, medium to three.
func DefaultQuote() *common.Quote {
	return &common.Quote{
		RecommendedPreset: common.PresetFast,
		Presets: common.QuoterPresets{
			common.PresetFast: {
				AuctionDuration:   180,
				StartAuctionIn:    24,
				InitialRateBump:   84909,
				Points:            []common.AuctionPoint{{Delay: 120, Coefficient: 63932}},
				AllowPartialFills: false,
				SecretsCount:      1,
			},
			common.PresetMedium: {
				AuctionDuration:    360,
				StartAuctionIn:     24,
				InitialRateBump:    84909,
				AllowPartialFills:  true,
				AllowMultipleFills: true,
				SecretsCount:       3,
			},
		},
		TimeLocks: common.TimeLocksRaw{
			SrcWithdrawal:         36,
			SrcPublicWithdrawal:   372,
			SrcCancellation:       528,
			SrcPublicCancellation: 648,
			DstWithdrawal:         60,
			DstPublicWithdrawal:   336,
			DstCancellation:       456,
		},
		SrcSafetyDeposit: "80800000000000",
		DstSafetyDeposit: "80800000000000",
		Whitelist:        []string{},
	}
}

// devQuote copies the template and fills in the requested amounts.
func devQuote(template *common.Quote, params common.QuoteRequestParams) common.Quote {
	quote := *template
	quote.SrcTokenAmount = params.Amount
	quote.DstTokenAmount = params.Amount

	presets := make(common.QuoterPresets, len(template.Presets))
	for name, preset := range template.Presets {
		if preset.AuctionStartAmount == "" {
			preset.AuctionStartAmount = params.Amount
		}
		if preset.AuctionEndAmount == "" {
			preset.AuctionEndAmount = params.Amount
		}
		presets[name] = preset
	}
	quote.Presets = presets
	return quote
}
