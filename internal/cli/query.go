package cli

import (
	"fmt"

	"maker/internal/common"
	"maker/internal/order"

	"github.com/spf13/cobra"
)

func newOrdersCmd(a *app) *cobra.Command {
	var params common.ActiveOrdersParams

	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List active orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := order.NewQuery(a.client()).GetActiveOrders(cmd.Context(), params)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().IntVar(&params.Page, "page", order.DefaultPage, "page number")
	cmd.Flags().IntVar(&params.Limit, "limit", order.DefaultLimit, "orders per page")
	return cmd
}

func newStatusCmd(a *app) *cobra.Command {
	var detail bool

	cmd := &cobra.Command{
		Use:   "status <order-hash>",
		Short: "Show the status of an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := order.NewQuery(a.client())
			if detail {
				res, err := q.GetOrderStatusDetail(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			}

			status, err := q.GetOrderStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), status)
			return err
		},
	}

	cmd.Flags().BoolVar(&detail, "detail", false, "print the full status document")
	return cmd
}
