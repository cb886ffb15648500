package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"maker/internal/chain"
	"maker/internal/common"
	"maker/internal/order"
	"maker/internal/secret"

	"github.com/block-vision/sui-go-sdk/sui"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type revealFlags struct {
	interval time.Duration
	dstRPC   string
	noVerify bool
}

func (f *revealFlags) register(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&f.interval, "interval", order.DefaultWatchInterval, "poll interval for fills awaiting a secret")
	cmd.Flags().StringVar(&f.dstRPC, "dst-rpc", "", "destination EVM chain rpc, enables dst escrow checks")
	cmd.Flags().BoolVar(&f.noVerify, "no-verify", false, "reveal without checking escrow deployments")
}

// verifier checks the source escrow through RPC_URL and the destination
// escrow through --dst-rpc or SUI_RPC_URL, whichever applies.
func (a *app) verifier(src *ethclient.Client, dstChain common.ChainID, f revealFlags) (order.FillVerifier, func(), error) {
	v := chain.Verifier{}
	cleanup := func() {}
	if src != nil {
		v.Src = chain.EvmSrcEscrows{Client: src}
	}

	switch {
	case !dstChain.IsEVM() && a.cfg.SuiRPCURL != "":
		v.Dst = chain.MoveDstEscrows{Client: sui.NewSuiClient(a.cfg.SuiRPCURL)}
	case dstChain.IsEVM() && f.dstRPC != "":
		dst, err := ethclient.Dial(f.dstRPC)
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to dial dst rpc: %w", err)
		}
		v.Dst = chain.EvmDstEscrows{Client: dst}
		cleanup = dst.Close
	}
	return v, cleanup, nil
}

func (a *app) watch(ctx context.Context, store *secret.Store, orderHash string, dstChain common.ChainID, src *ethclient.Client, f revealFlags) error {
	opts := []order.RevealerOption{order.WithRevealerLogger(a.logger)}
	if !f.noVerify {
		v, cleanup, err := a.verifier(src, dstChain, f)
		if err != nil {
			return err
		}
		defer cleanup()
		opts = append(opts, order.WithVerifier(v))
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return order.NewRevealer(a.client(), store, opts...).Watch(ctx, orderHash, f.interval)
}

func newPlaceCmd(a *app) *cobra.Command {
	var (
		swap          swapFlags
		reveal        revealFlags
		preset        string
		feeBps        int
		feeReceiver   string
		exportSecrets string
		noWatch       bool
	)

	cmd := &cobra.Command{
		Use:   "place",
		Short: "Place a hash-locked cross-chain order and reveal its secrets as fills land",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, rpc, err := a.signer()
			if err != nil {
				return err
			}
			defer rpc.Close()

			store := secret.NewStore(secret.DefaultTTL, a.logger)
			defer store.Close()

			api := a.client()
			coord := order.NewCoordinator(api, api, store,
				order.WithDefaultFee(a.cfg.Fee()),
				order.WithLogger(a.logger),
			)

			params := order.PlaceOrderParams{
				SrcChainID:      common.ChainID(swap.srcChain),
				DstChainID:      common.ChainID(swap.dstChain),
				SrcTokenAddress: swap.srcToken,
				DstTokenAddress: swap.dstToken,
				Amount:          swap.amount,
				WalletAddress:   swap.walletOr(a.cfg.WalletAddress),
				Preset:          common.PresetEnum(preset),
			}
			if cmd.Flags().Changed("fee-bps") || cmd.Flags().Changed("fee-receiver") {
				fee := a.cfg.Fee()
				if cmd.Flags().Changed("fee-bps") {
					fee.Bps = feeBps
				}
				if cmd.Flags().Changed("fee-receiver") {
					fee.Receiver = feeReceiver
				}
				params.Fee = &fee
			}

			ack, err := coord.PlaceOrder(ctx, params, s)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), ack); err != nil {
				return err
			}

			if exportSecrets != "" {
				if err := writeSecretsFile(exportSecrets, store, ack); err != nil {
					return err
				}
			}
			if noWatch {
				if exportSecrets == "" {
					a.logger.Warn("not watching and no export, secrets are discarded on exit", zap.String("order_hash", ack.OrderHash))
				}
				return nil
			}

			return a.watch(ctx, store, ack.OrderHash, params.DstChainID, rpc, reveal)
		},
	}

	swap.register(cmd)
	reveal.register(cmd)
	cmd.Flags().StringVar(&preset, "preset", "", "auction preset (default: recommended)")
	cmd.Flags().IntVar(&feeBps, "fee-bps", 0, "taking fee in basis points (default TAKING_FEE_BPS)")
	cmd.Flags().StringVar(&feeReceiver, "fee-receiver", "", "taking fee receiver (default TAKING_FEE_RECEIVER)")
	cmd.Flags().StringVar(&exportSecrets, "export-secrets", "", "write the order secrets to this file (0600)")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "exit after submission instead of revealing secrets")
	return cmd
}
