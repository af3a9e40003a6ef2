package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// ResetTimeout is the maximum duration for reset operations.
const ResetTimeout = 30 * time.Second

func newResetCmd(a *app) *cobra.Command {
	var ordersOnly bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete uploaded files and saved orders",
		Long:  "Delete every uploaded file and all saved orders. With --orders-only the files are kept.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReset(cmd, a, ordersOnly)
		},
	}
	cmd.Flags().BoolVar(&ordersOnly, "orders-only", false, "only delete saved orders")
	return cmd
}

func runReset(cmd *cobra.Command, a *app, ordersOnly bool) error {
	ctx, cancel := context.WithTimeout(ctxOf(cmd), ResetTimeout)
	defer cancel()

	reset, what := a.svc.ResetAll, "Files and orders"
	if ordersOnly {
		reset, what = a.svc.ResetOrders, "Orders"
	}
	if err := reset(ctx); err != nil {
		return userError(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s reset.\n", what)
	return nil
}
