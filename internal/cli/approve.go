package cli

import (
	"fmt"
	"math/big"

	"maker/internal/chain"
	"maker/internal/common"
	"maker/internal/hash"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/spf13/cobra"
)

func newApproveCmd(a *app) *cobra.Command {
	var (
		token   string
		amount  string
		chainID uint64
	)

	cmd := &cobra.Command{
		Use:   "approve",
		Short: "Approve the limit order router to spend a token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			value := math.MaxBig256
			if amount != "" {
				v, ok := new(big.Int).SetString(amount, 10)
				if !ok || v.Sign() < 0 {
					return fmt.Errorf("%w: amount %q", common.ErrInvalidParams, amount)
				}
				value = v
			}
			if !ethcommon.IsHexAddress(token) {
				return fmt.Errorf("%w: token %q", common.ErrInvalidParams, token)
			}

			s, rpc, err := a.signer()
			if err != nil {
				return err
			}
			defer rpc.Close()

			spender, err := hash.GetLimitOrderContract(common.ChainID(chainID))
			if err != nil {
				return err
			}

			txHash, err := chain.Approve(cmd.Context(), s, ethcommon.HexToAddress(token), spender, value)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "approval sent: %s\n", txHash.Hex())
			return err
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "token to approve")
	cmd.Flags().StringVar(&amount, "amount", "", "allowance in base units (default unlimited)")
	cmd.Flags().Uint64Var(&chainID, "chain", uint64(common.EthereumMainnet), "chain id of the token")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}
