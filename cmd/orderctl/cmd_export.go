package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MuhammadJuraij/OrderEase/internal/export"
)

func newExportCmd(a *app) *cobra.Command {
	var note, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the saved orders to a PDF file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, a, note, out)
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "text printed below the table")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: the configured export file name)")
	return cmd
}

func runExport(cmd *cobra.Command, a *app, note, out string) error {
	ledger, err := a.svc.Ledger(ctxOf(cmd))
	if err != nil {
		return userError(err)
	}
	if out == "" {
		out = a.cfg.Export.FileName
	}

	var buf bytes.Buffer
	if err := export.WritePDF(&buf, export.Format(ledger, note), export.Options{
		Title:    a.cfg.Export.Title,
		PageSize: a.cfg.Export.PageSize,
		Optimize: a.cfg.Export.Optimize,
	}); err != nil {
		return err
	}
	pages, err := export.PageCount(buf.Bytes())
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d items, %d pages)\n", out, ledger.ItemCount(), pages)
	return nil
}
