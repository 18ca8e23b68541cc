package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jing2uo/b3hist/cmd"
	"github.com/jing2uo/b3hist/store"
	"github.com/jing2uo/b3hist/workflow"
)

const dbPathInfo = "database directory (env B3HIST_DBPATH, default ~/.b3hist/db)"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg *cmd.Config
	var configFile string

	var rootCmd = &cobra.Command{
		Use:           "b3hist",
		Short:         "Maintain a local database of B3 (Bovespa) daily stock quotes",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			var err error
			cfg, err = cmd.LoadConfig(c.Flags(), configFile)
			return err
		},
		PersistentPostRun: func(c *cobra.Command, args []string) {
			if cfg != nil {
				cfg.Log.Sync()
			}
		},
	}
	rootCmd.PersistentFlags().String("dbpath", "", dbPathInfo)
	rootCmd.PersistentFlags().String("log-level", "", "debug, info, warn or error (env B3HIST_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./b3hist.yaml or ~/.b3hist/b3hist.yaml)")

	var file string
	var importCmd = &cobra.Command{
		Use:   "import",
		Short: "Import a COTAHIST or BDIN extract (plain or zipped) into the database",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.Import(ctx, cfg, file)
		},
	}
	importCmd.Flags().StringVarP(&file, "file", "f", "", "extract to import (default stdin)")

	var listCmd = &cobra.Command{
		Use:   "list",
		Short: "List the stocks of the database",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.List(cfg, os.Stdout)
		},
	}

	var exportOpts workflow.ExportOptions
	var format, output string
	var historyCmd = &cobra.Command{
		Use:   "history STOCK",
		Short: "Export the daily quotes of a stock since its last inplit / split",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			f, err := workflow.ParseExportFormat(format)
			if err != nil {
				return err
			}
			if f == workflow.FormatParquet && output == "" {
				return fmt.Errorf("--output is required for parquet exports")
			}
			exportOpts.Format = f
			return cmd.History(cfg, args[0], exportOpts, output, os.Stdout)
		},
	}
	historyCmd.Flags().BoolVarP(&exportOpts.All, "all", "a", false, "export the whole series")
	historyCmd.Flags().BoolVar(&exportOpts.Header, "header", false, "write a csv header row")
	historyCmd.Flags().BoolVar(&exportOpts.Units, "units", false, "prices and volume in currency units")
	historyCmd.Flags().StringVar(&format, "format", "csv", "csv or parquet")
	historyCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	var force bool
	var initCmd = &cobra.Command{
		Use:   "init",
		Short: "Wipe the database directory and stamp it for this build",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.Init(cfg, force, os.Stdin, os.Stdout)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "do not ask for confirmation")

	var infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Show build information and database status",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.Info(cfg, os.Stdout)
		},
	}

	var duckdbPath string
	var mirrorCmd = &cobra.Command{
		Use:   "mirror",
		Short: "Reload a DuckDB file with every stock history",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.Mirror(ctx, cfg, duckdbPath)
		},
	}
	mirrorCmd.Flags().StringVar(&duckdbPath, "duckdb", "", "DuckDB file path (required)")
	mirrorCmd.MarkFlagRequired("duckdb")

	var years string
	var keep bool
	var syncCmd = &cobra.Command{
		Use:   "sync",
		Short: "Download yearly COTAHIST archives from the exchange and import them",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.Sync(ctx, cfg, years, duckdbPath, keep)
		},
	}
	syncCmd.Flags().StringVar(&years, "years", "", "years to fetch, e.g. 2019-2021,2024 (required)")
	syncCmd.Flags().StringVar(&duckdbPath, "duckdb", "", "reload this DuckDB mirror afterwards")
	syncCmd.Flags().BoolVar(&keep, "keep", false, "keep downloaded archives in the cache directory")
	syncCmd.MarkFlagRequired("years")

	rootCmd.AddCommand(importCmd, listCmd, historyCmd, initCmd, infoCmd, mirrorCmd, syncCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "🛑 error: %v\n", err)
		if errors.Is(err, store.ErrStaleDatabase) {
			fmt.Fprintln(os.Stderr, "💡 run 'b3hist init' to initialize the database for this build")
		}
		os.Exit(1)
	}
}
