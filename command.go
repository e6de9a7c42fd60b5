package main

import (
	"github.com/spf13/cobra"

	"villa-importer/config"
	"villa-importer/models"
	"villa-importer/services"
	"villa-importer/storage"
	"villa-importer/utils"
)

// newRootCommand builds the CLI. Flag defaults come from cfg, so flags
// override environment and .env values.
func newRootCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "villa-importer",
		Short: "Bulk upsert a JSON file of listings into a document store",
		Long: `Load a JSON array of listing objects and upsert each one into a
document store collection, keyed by its "id" field, one atomic batch at a time.

Examples:
  # Seed Firestore using Application Default Credentials
  GOOGLE_CLOUD_PROJECT=my-project villa-importer --file villa_collection.json

  # Validate and count without writing anything
  villa-importer --file villa_collection.json --dry-run

  # Import into MongoDB, keep going past failed batches
  villa-importer --store mongo --file villas.json --continue-on-error
`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfg.InputPath, "file", "f", cfg.InputPath, "Path to the JSON listing file")
	flags.StringVarP(&cfg.Collection, "collection", "c", cfg.Collection, "Target collection (table for dynamodb)")
	flags.StringVar(&cfg.Store, "store", cfg.Store, "Store backend: firestore, mongo, dynamodb, postgres, memory")
	flags.IntVar(&cfg.MaxBatchSize, "batch-size", cfg.MaxBatchSize, "Maximum writes per atomic batch")
	flags.BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "Validate and report without writing")
	flags.BoolVar(&cfg.ContinueOnBatchError, "continue-on-error", cfg.ContinueOnBatchError, "Keep committing after a batch fails")
	flags.StringVar(&cfg.DuplicatePolicy, "duplicates", cfg.DuplicatePolicy, "Duplicate id policy: reject or last-wins")
	flags.DurationVar(&cfg.BatchTimeout, "timeout", cfg.BatchTimeout, "Per-batch commit timeout (0 = none)")
	flags.StringVar(&cfg.ReportCSVPath, "report-csv", cfg.ReportCSVPath, "Write a per-batch CSV report to this path")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")

	return cmd
}

func runImport(cmd *cobra.Command, cfg *config.Config) error {
	logger := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)
	defer logger.Sync()

	warnings, err := cfg.Validate()
	if err != nil {
		logger.Error("Invalid configuration: %v", err)
		return err
	}
	for _, w := range warnings {
		logger.Warn("[config] %s", w)
	}

	logger.Info("=== Listing import starting ===")
	logger.Info("Config: file %s | collection %s | store %s | batch size %d | dry run %t",
		cfg.InputPath, cfg.Collection, cfg.Store, cfg.MaxBatchSize, cfg.DryRun)

	var store storage.DocumentStore
	if !cfg.DryRun {
		store, err = storage.Open(cmd.Context(), cfg, logger)
		if err != nil {
			logger.Error("Failed to open %s store: %v", cfg.Store, err)
			return err
		}
	}

	importer := services.NewImporter(store, logger)
	summary, runErr := importer.Run(cmd.Context(), cfg.InputPath, cfg.Collection, services.Options{
		MaxBatchSize:         cfg.MaxBatchSize,
		DryRun:               cfg.DryRun,
		ContinueOnBatchError: cfg.ContinueOnBatchError,
		DuplicatePolicy:      cfg.DuplicatePolicy,
		Timeout:              cfg.BatchTimeout,
	})

	services.PrintSummary(cmd.OutOrStdout(), summary)

	if cfg.ReportCSVPath != "" {
		if err := writeReport(cfg.ReportCSVPath, summary); err != nil {
			logger.Error("CSV report failed: %v", err)
		} else {
			logger.Info("Batch report saved to %s", cfg.ReportCSVPath)
		}
	}

	if runErr != nil {
		logger.Error("Import failed: %v", runErr)
		return runErr
	}

	logger.Info("Import complete: %d documents written to %q", summary.DocumentsWritten, cfg.Collection)
	return nil
}

func writeReport(path string, summary *models.ImportSummary) error {
	w, err := storage.NewCSVReportWriter(path)
	if err != nil {
		return err
	}
	if err := w.WriteSummary(summary); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
