// Command orderctl manages OrderEase data from the terminal: import
// spreadsheets, search items, place orders and export the ledger to PDF. It
// reads the same configuration and store as the web server.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// run executes one command line. The store is closed even when the command
// fails.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	a := &app{}
	defer func() {
		if cerr := a.close(); err == nil {
			err = cerr
		}
	}()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}
