package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/claimstats/internal/db"
	"github.com/gyeh/claimstats/internal/exitcode"
	"github.com/gyeh/claimstats/internal/importer"
	"github.com/gyeh/claimstats/internal/logging"
	"github.com/gyeh/claimstats/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import claims and details from pipe-delimited files",
	RunE:  runImport,
}

func init() {
	f := importCmd.Flags()
	f.StringVar(&cfg.ClaimsFile, "claims-file", "", "Path to the claims file (required)")
	f.StringVar(&cfg.DetailsFile, "details-file", "", "Path to the claim details file (required)")
	f.BoolVar(&cfg.Clear, "clear", false, "Clear existing data before import")
	_ = importCmd.MarkFlagRequired("claims-file")
	_ = importCmd.MarkFlagRequired("details-file")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	if err := cfg.ValidateImport(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	if err := cfg.ValidateDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	summary, err := importer.Run(ctx, store.NewPG(pool), log, importer.Options{
		ClaimsFile:  cfg.ClaimsFile,
		DetailsFile: cfg.DetailsFile,
		Clear:       cfg.Clear,
	})
	if err != nil {
		var vf *importer.ValidationFailed
		if errors.As(err, &vf) {
			for _, ve := range vf.Errors {
				fmt.Fprintln(os.Stderr, ve.Error())
			}
			log.Error().Int("errors", len(vf.Errors)).Msg("pre-flight validation failed")
			os.Exit(exitcode.ValidationError)
		}
		log.Error().Err(err).Msg("import failed")
		os.Exit(exitcode.LoadError)
	}

	fmt.Printf("Imported %d claims (%d skipped) and %d details (%d skipped, %d orphans) in %.1fs\n",
		summary.ClaimsLoaded, summary.ClaimsSkipped,
		summary.DetailsLoaded, summary.DetailsSkipped, summary.OrphansSkipped,
		summary.DurationTotal.Seconds())
	return nil
}
