package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rpattn/logstack/internal/config"
	"github.com/rpattn/logstack/internal/logger"
)

// app carries the state shared by every subcommand.
type app struct {
	root       *cobra.Command
	stdout     io.Writer
	configPath string
	logLevel   string
	cfg        config.Config
}

func newApp(stdout io.Writer) *app {
	a := &app{stdout: stdout}

	a.root = &cobra.Command{
		Use:   "logstack",
		Short: "Error-count analytics over prefix hierarchies",
		Long: `logstack ingests per-prefix error counts (folded stacks, CSV or XLSX)
and serves statistics, trends, upload diffs, comparisons and prefix
autocomplete over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadConfig()
		},
	}
	a.root.SetOut(stdout)

	a.root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to config.yaml or a directory containing it")
	a.root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (overrides config)")

	a.root.AddCommand(
		a.newServeCmd(),
		a.newMigrateCmd(),
		a.newIngestCmd(),
	)
	return a
}

func (a *app) loadConfig() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}

	lg, err := logger.New(os.Stderr, cfg.Log.Level, cfg.Log.Pretty)
	if err != nil {
		return err
	}
	logger.SetGlobal(lg)

	a.cfg = cfg
	return nil
}

func (a *app) execute(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.root.ExecuteContext(ctx)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newApp(os.Stdout).execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
