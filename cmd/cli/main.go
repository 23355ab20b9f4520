package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/parishworks/parish-ledger/internal/app"
	"github.com/parishworks/parish-ledger/internal/config"
	"github.com/parishworks/parish-ledger/pkg/pg"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var envPath string

	rootCmd := &cobra.Command{
		Use:     "parish-ledger",
		Short:   "Maintenance commands for the parish ledger",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envPath == "" {
				if _, err := os.Stat(".env"); err == nil {
					envPath = ".env"
				}
			}
			return config.Load(envPath)
		},
	}
	rootCmd.PersistentFlags().StringVar(&envPath, "env", "", "path of a .env file")

	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newImportCommand())
	rootCmd.AddCommand(newBackfillCommand())
	rootCmd.AddCommand(newDrainCommand())

	return rootCmd
}

func newMigrateCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, write := app.PostgresConfigs(config.Get())
			return pg.Migrate(write, dir)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "./migrations", "migration directory")
	return cmd
}

func newImportCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a bank statement CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading statement: %w", err)
			}
			return withContainer(cmd.Context(), func(ct *app.Container) error {
				summary, err := ct.Import.Upload(cmd.Context(), filepath.Base(file), data)
				if err != nil {
					return err
				}
				return printJSON(cmd, summary)
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "statement CSV (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newBackfillCommand() *cobra.Command {
	var batch int

	cmd := &cobra.Command{
		Use:   "backfill-ledger",
		Short: "Create ledger entries for transactions that lack one",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), func(ct *app.Container) error {
				summary, err := ct.Posting.Backfill(cmd.Context(), batch)
				if err != nil {
					return err
				}
				return printJSON(cmd, summary)
			})
		},
	}
	cmd.Flags().IntVar(&batch, "batch-size", 200, "transactions per batch")
	return cmd
}

func newDrainCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "drain-outbox",
		Short: "Post pending ledger outbox rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), func(ct *app.Container) error {
				summary, err := ct.Posting.DrainOutbox(cmd.Context(), limit)
				if err != nil {
					return err
				}
				return printJSON(cmd, summary)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum rows to post")
	return cmd
}

// withContainer runs fn against the database only; the cli never needs redis.
func withContainer(ctx context.Context, fn func(ct *app.Container) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.Get()
	db, err := app.OpenDB(cfg)
	if err != nil {
		return err
	}
	ct, err := app.Build(ctx, cfg, db, nil)
	if err != nil {
		return err
	}
	defer ct.Close()
	return fn(ct)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
