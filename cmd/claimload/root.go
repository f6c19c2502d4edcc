package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gyeh/claimstats/internal/config"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "claimload",
	Short: "Insurance claim CSV → Postgres bulk loader and reporter",
	Long:  "Imports pipe-delimited claim and claim-detail files into Postgres, exports them back out, and reports dashboard statistics.",
}

func init() {
	// .env is optional; flags and real env always win.
	_ = godotenv.Load()

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DSN, "dsn", os.Getenv("DATABASE_URL"), "Postgres connection string (or set DATABASE_URL)")
	pf.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
}
