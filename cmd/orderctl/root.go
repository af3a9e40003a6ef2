package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/MuhammadJuraij/OrderEase/internal/config"
	"github.com/MuhammadJuraij/OrderEase/internal/core"
	"github.com/MuhammadJuraij/OrderEase/internal/logging"
	"github.com/MuhammadJuraij/OrderEase/internal/sheet"
	"github.com/MuhammadJuraij/OrderEase/internal/store"
)

// app is what every subcommand works with once the root command has loaded
// the configuration and opened the store.
type app struct {
	cfg   *config.Config
	store store.Store
	svc   *core.Service
}

type rootFlags struct {
	configFile string
	envFile    string
	verbose    bool
}

func newRootCmd(a *app) *cobra.Command {
	var flags rootFlags

	root := &cobra.Command{
		Use:           "orderctl",
		Short:         "Manage OrderEase files, orders and exports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd, flags)
		},
	}
	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "YAML file with configuration variables")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", "", "dotenv file to load (default: .env if present)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		newImportCmd(a),
		newFilesCmd(a),
		newRemoveCmd(a),
		newSearchCmd(a),
		newOrderCmd(a),
		newLedgerCmd(a),
		newExportCmd(a),
		newResetCmd(a),
	)

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w\n\n%s", err, cmd.UsageString())
	})
	return root
}

func (a *app) open(cmd *cobra.Command, flags rootFlags) error {
	if err := loadEnv(flags.envFile); err != nil {
		return err
	}

	var (
		cfg *config.Config
		err error
	)
	if flags.configFile != "" {
		cfg, err = config.LoadFile(flags.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	level := cfg.Logging.Level
	if flags.verbose {
		level = "debug"
	}
	logging.SetupWriter(cmd.ErrOrStderr(), level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())

	st, err := store.Open(ctxOf(cmd), cfg.Store)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.store = st
	a.svc = core.NewService(st, sheet.Parser{MaxRows: cfg.Upload.MaxRows}, core.Options{
		MaxConcurrentUploads: cfg.Upload.MaxConcurrent,
		MaxUploadWait:        cfg.Upload.MaxWaitTime,
		ParseTimeout:         cfg.Upload.Timeout,
	})
	return nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// loadEnv loads path, or .env when path is empty. A missing default .env is
// not an error; environment variables already set are never overwritten.
func loadEnv(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// userError turns err into the message shown to the user, keeping the
// support code.
func userError(err error) error {
	if err == nil {
		return nil
	}
	if !core.IsUserFacing(err) {
		return err
	}
	return fmt.Errorf("%s\n%w", core.FormatUserError(err), err)
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
