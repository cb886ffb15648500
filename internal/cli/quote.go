package cli

import (
	"fmt"

	"maker/internal/chain"
	"maker/internal/common"
	"maker/internal/hash"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

type swapFlags struct {
	srcChain uint64
	dstChain uint64
	srcToken string
	dstToken string
	amount   string
	wallet   string
}

func (f *swapFlags) register(cmd *cobra.Command) {
	cmd.Flags().Uint64Var(&f.srcChain, "src-chain", uint64(common.EthereumMainnet), "source chain id")
	cmd.Flags().Uint64Var(&f.dstChain, "dst-chain", uint64(common.ArbitrumOne), "destination chain id")
	cmd.Flags().StringVar(&f.srcToken, "src-token", "", "source token address")
	cmd.Flags().StringVar(&f.dstToken, "dst-token", "", "destination token address")
	cmd.Flags().StringVar(&f.amount, "amount", "", "amount of source token in base units")
	cmd.Flags().StringVar(&f.wallet, "wallet", "", "maker wallet (default WALLET_ADDRESS)")
	_ = cmd.MarkFlagRequired("src-token")
	_ = cmd.MarkFlagRequired("dst-token")
	_ = cmd.MarkFlagRequired("amount")
}

func (f *swapFlags) walletOr(fallback string) string {
	if f.wallet != "" {
		return f.wallet
	}
	return fallback
}

func newQuoteCmd(a *app) *cobra.Command {
	var (
		swap           swapFlags
		checkAllowance bool
	)

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Request a quote for a cross-chain swap",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			params := common.QuoteRequestParams{
				SrcChain:        common.ChainID(swap.srcChain),
				DstChain:        common.ChainID(swap.dstChain),
				SrcTokenAddress: swap.srcToken,
				DstTokenAddress: swap.dstToken,
				Amount:          swap.amount,
				WalletAddress:   swap.walletOr(a.cfg.WalletAddress),
				EnableEstimate:  true,
			}

			quote, err := a.client().GetQuote(ctx, params)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), quote); err != nil {
				return err
			}

			if !checkAllowance {
				return nil
			}
			s, rpc, err := a.signer()
			if err != nil {
				return err
			}
			defer rpc.Close()

			spender, err := hash.GetLimitOrderContract(params.SrcChain)
			if err != nil {
				return err
			}
			allowance, err := chain.Allowance(ctx, s, ethcommon.HexToAddress(swap.srcToken), s.Address(), spender)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "allowance for %s: %s\n", spender.Hex(), allowance)
			return err
		},
	}

	swap.register(cmd)
	cmd.Flags().BoolVar(&checkAllowance, "check-allowance", false, "also print the router allowance of the source token")
	return cmd
}
