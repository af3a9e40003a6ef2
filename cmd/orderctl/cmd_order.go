package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MuhammadJuraij/OrderEase/internal/core"
)

type orderFlags struct {
	customer string
	query    string
	pick     int
	quantity string
	amount   string
	note     string
}

func newOrderCmd(a *app) *cobra.Command {
	var f orderFlags
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Add one item to a customer's order",
		Long: `Search the uploaded files and add the chosen row to the customer's order.

The query must match exactly one row unless --pick selects one of the numbered
results printed by "search".`,
		Example: `  orderctl order --customer Acme --query "hex bolt" --quantity 10 --amount 2.50
  orderctl order --customer Acme --query bolt --pick 3 --quantity 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrder(cmd, a, f)
		},
	}
	cmd.Flags().StringVar(&f.customer, "customer", "", "customer name")
	cmd.Flags().StringVar(&f.query, "query", "", "text identifying the item")
	cmd.Flags().IntVar(&f.pick, "pick", 0, "1-based result number when the query matches several rows")
	cmd.Flags().StringVar(&f.quantity, "quantity", "", "quantity to order")
	cmd.Flags().StringVar(&f.amount, "amount", "", "amount (free text)")
	cmd.Flags().StringVar(&f.note, "note", "", "note for the item")
	return cmd
}

func runOrder(cmd *cobra.Command, a *app, f orderFlags) error {
	ctx := ctxOf(cmd)
	if strings.TrimSpace(f.query) == "" {
		return userError(&core.ValidationError{Fields: []string{"item"}})
	}

	results, err := a.svc.Search(ctx, f.query)
	if err != nil {
		return userError(err)
	}
	row, err := pickRow(results, f.pick)
	if err != nil {
		return userError(err)
	}

	entry, err := a.svc.PlaceOrder(ctx, f.customer, []core.LineItem{{
		Row:      row,
		Quantity: f.quantity,
		Amount:   f.amount,
		Note:     f.note,
	}})
	if err != nil {
		return userError(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s to %s (%d items in total).\n",
		core.ItemName(row), entry.CustomerName, len(entry.Items))
	return nil
}

// pickRow returns the pick-th row (1-based) across results, or the only row
// when pick is zero.
func pickRow(results []core.FileRecord, pick int) (core.Row, error) {
	total := core.CountRows(results)
	if pick == 0 {
		switch total {
		case 0:
			return nil, &core.ValidationError{Message: "no items match the query"}
		case 1:
			pick = 1
		default:
			return nil, &core.ValidationError{Message: fmt.Sprintf("%d items match the query; choose one with --pick", total)}
		}
	}
	if pick < 1 || pick > total {
		return nil, fmt.Errorf("pick %d of %d results: %w", pick, total, core.ErrIndex)
	}

	n := pick - 1
	for fi, f := range results {
		if n < len(f.Rows) {
			return core.RowAt(results, fi, n)
		}
		n -= len(f.Rows)
	}
	return nil, core.ErrIndex
}

func newLedgerCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Show the saved orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLedger(cmd, a, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func runLedger(cmd *cobra.Command, a *app, asJSON bool) error {
	ledger, err := a.svc.Ledger(ctxOf(cmd))
	if err != nil {
		return userError(err)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		if ledger == nil {
			ledger = core.Ledger{}
		}
		return writeJSON(out, ledger)
	}
	if len(ledger) == 0 {
		fmt.Fprintln(out, "No orders yet.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CUSTOMER\tITEM\tQUANTITY\tAMOUNT\tNOTE")
	for _, e := range ledger {
		for i, item := range e.Items {
			customer := ""
			if i == 0 {
				customer = e.CustomerName
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", customer, item.ItemName, item.Quantity, item.Amount, item.Note)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	for _, t := range ledger.Totals() {
		line := fmt.Sprintf("%s: %s", t.CustomerName, t.Amount.StringFixed(2))
		if t.Unpriced > 0 {
			line += fmt.Sprintf(" (%d without amount)", t.Unpriced)
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
