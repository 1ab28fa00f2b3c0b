package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/salesdw/internal/admin"
	"github.com/JonMunkholm/salesdw/internal/application"
	"github.com/JonMunkholm/salesdw/internal/config"
	"github.com/JonMunkholm/salesdw/internal/core"
	"github.com/JonMunkholm/salesdw/internal/logging"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "etl",
	Short: "Clean raw sales extracts and load them into the warehouse",
	Long: `etl cleans the raw customers, products and sales CSVs into prepared CSVs
and loads the prepared CSVs into the warehouse in a single transaction.

Configuration is read from the environment and an optional .env file:
  DATA_DIR, RAW_DIR, PREPARED_DIR
  WAREHOUSE_DRIVER (sqlite3 or pgx), WAREHOUSE_DSN
  WAREHOUSE_BATCH_SIZE, WAREHOUSE_TIMEOUT
  LOG_LEVEL, LOG_FORMAT`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := application.Bootstrap()
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "configuration:", err)
			return err
		}
		cfg = c
		return nil
	},
}

var prepareCmd = &cobra.Command{
	Use:       "prepare [table...]",
	Short:     "Clean raw CSVs into prepared CSVs",
	Long:      "Clean the named tables, or all of them when none are given.",
	ValidArgs: core.Keys(),
	Args:      cobra.OnlyValidArgs,
	RunE: stage("prepare", func(ctx context.Context, args []string) error {
		_, err := application.PrepareAll(ctx, cfg, args...)
		return err
	}),
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Replace the warehouse contents with the prepared CSVs",
	Args:  cobra.NoArgs,
	RunE: stage("warehouse load", func(ctx context.Context, _ []string) error {
		_, err := application.Load(ctx, cfg)
		return err
	}),
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Prepare every table, then load the warehouse",
	Args:  cobra.NoArgs,
	RunE: stage("etl run", func(ctx context.Context, _ []string) error {
		_, err := application.Run(ctx, cfg)
		return err
	}),
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the most recent warehouse load",
	Args:  cobra.NoArgs,
	RunE: stage("status", func(ctx context.Context, _ []string) error {
		run, err := application.LastRun(ctx, cfg)
		if err != nil {
			return err
		}
		if run == nil {
			fmt.Println("warehouse has not been loaded")
			return nil
		}
		fmt.Printf("run %s finished %s: %d customers, %d products, %d sales\n",
			run.RunID, run.FinishedAt.Format("2006-01-02 15:04:05 MST"), run.Customers, run.Products, run.Sales)
		return nil
	}),
}

var resetFlags struct {
	yes bool
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Empty every warehouse table and the load history",
	Args:  cobra.NoArgs,
	RunE: stage("reset", func(ctx context.Context, _ []string) error {
		if !resetFlags.yes {
			return fmt.Errorf("reset deletes all warehouse rows; pass --yes to confirm")
		}
		db, err := application.OpenWarehouse(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		return admin.ResetAll(ctx, db)
	}),
}

func init() {
	resetCmd.Flags().BoolVar(&resetFlags.yes, "yes", false, "Confirm deleting all warehouse rows")

	rootCmd.AddCommand(prepareCmd, loadCmd, runCmd, statusCmd, resetCmd)
}

// stage adapts fn to a cobra RunE that tags the run with a fresh run ID and
// logs a failure with its error code.
func stage(name string, fn func(ctx context.Context, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := logging.ContextWithRunID(cmd.Context())
		logging.FromContext(ctx).Info("etl "+cmd.Name(), "args", strings.Join(args, ","))

		if err := fn(ctx, args); err != nil {
			application.LogFailure(ctx, name, err)
			return err
		}
		return nil
	}
}
