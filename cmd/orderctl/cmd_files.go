package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MuhammadJuraij/OrderEase/internal/core"
)

func newFilesCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "files",
		Short: "List uploaded files and their row counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFiles(cmd, a, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func runFiles(cmd *cobra.Command, a *app, asJSON bool) error {
	ctx := ctxOf(cmd)
	names, err := a.svc.FileNames(ctx)
	if err != nil {
		return userError(err)
	}
	files, err := a.svc.Files(ctx)
	if err != nil {
		return userError(err)
	}

	rows := make(map[string]int, len(files))
	for _, f := range files {
		rows[f.Name] += len(f.Rows)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		type entry struct {
			Name string `json:"fileName"`
			Rows int    `json:"rows"`
		}
		list := make([]entry, 0, len(names))
		for _, n := range names {
			list = append(list, entry{Name: n, Rows: rows[n]})
		}
		return writeJSON(out, list)
	}

	if len(names) == 0 {
		fmt.Fprintln(out, "No files uploaded yet.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tROWS")
	for _, n := range names {
		fmt.Fprintf(tw, "%s\t%d\n", n, rows[n])
	}
	return tw.Flush()
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove NAME",
		Short: "Remove an uploaded file and its rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.svc.RemoveFile(ctxOf(cmd), args[0]); err != nil {
				return userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}

func newSearchCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Find rows containing QUERY in any column",
		Long: `Print every uploaded row with a value containing QUERY, ignoring case.

Results are numbered; pass a number to "order --pick" to order that row.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, a, strings.Join(args, " "), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func runSearch(cmd *cobra.Command, a *app, query string, asJSON bool) error {
	results, err := a.svc.Search(ctxOf(cmd), query)
	if err != nil {
		return userError(err)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		if results == nil {
			results = []core.FileRecord{}
		}
		return writeJSON(out, results)
	}

	if core.CountRows(results) == 0 {
		fmt.Fprintln(out, "No items match.")
		return nil
	}
	n := 0
	for _, f := range results {
		fmt.Fprintf(out, "%s\n", f.Name)
		for _, row := range f.Rows {
			n++
			fmt.Fprintf(out, "  %3d  %s\n", n, row.Summary())
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
