package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/claimstats/internal/db"
	"github.com/gyeh/claimstats/internal/exitcode"
	"github.com/gyeh/claimstats/internal/export"
	"github.com/gyeh/claimstats/internal/logging"
	"github.com/gyeh/claimstats/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored claims or details to the exchange format",
	RunE:  runExport,
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&cfg.ExportType, "type", "claims", "What to export: claims or details")
	f.StringVar(&cfg.OutPath, "out", "", "Output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	if err := cfg.ValidateExport(); err != nil {
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
	st := store.NewPG(pool)

	var out io.Writer = os.Stdout
	if cfg.OutPath != "" {
		f, err := os.Create(cfg.OutPath)
		if err != nil {
			log.Error().Err(err).Msg("cannot create output file")
			os.Exit(exitcode.ExportError)
		}
		defer f.Close()
		out = f
	}

	var stream *export.LineStream
	if cfg.ExportType == "claims" {
		cur, err := st.ClaimRows(ctx)
		if err != nil {
			log.Error().Err(err).Msg("export query failed")
			os.Exit(exitcode.ExportError)
		}
		stream = export.Claims(cur)
	} else {
		cur, err := st.DetailRows(ctx)
		if err != nil {
			log.Error().Err(err).Msg("export query failed")
			os.Exit(exitcode.ExportError)
		}
		stream = export.Details(cur)
	}

	if _, err := stream.WriteTo(out); err != nil {
		log.Error().Err(err).Msg("export failed")
		os.Exit(exitcode.ExportError)
	}
	return nil
}
