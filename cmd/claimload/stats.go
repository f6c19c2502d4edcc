package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/claimstats/internal/db"
	"github.com/gyeh/claimstats/internal/exitcode"
	"github.com/gyeh/claimstats/internal/logging"
	"github.com/gyeh/claimstats/internal/model"
	"github.com/gyeh/claimstats/internal/stats"
	"github.com/gyeh/claimstats/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the dashboard summary for the current store",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

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

	s, err := stats.New(store.NewPG(pool)).Summarize(ctx)
	if err != nil {
		log.Error().Err(err).Msg("summarize failed")
		os.Exit(exitcode.StatsError)
	}

	fmt.Println("=== claim dashboard ===")
	fmt.Printf("Total claims:       %d (%d flagged)\n", s.TotalClaims, s.FlaggedClaims)
	fmt.Printf("Total billed:       %s\n", s.TotalBilled.StringFixed(2))
	fmt.Printf("Total paid:         %s\n", s.TotalPaid.StringFixed(2))
	fmt.Printf("Total underpayment: %s\n", s.TotalUnderpayment.StringFixed(2))
	fmt.Printf("Avg underpayment:   %s\n", s.AvgUnderpayment.StringFixed(2))
	fmt.Printf("Underpaid claims:   %d (billed > 2x paid)\n", s.UnderpaidClaims)
	fmt.Println()
	fmt.Println("Status breakdown:")
	for _, status := range model.AllStatuses {
		fmt.Printf("  %-12s %d\n", status.Label(), s.StatusCounts[status])
	}
	fmt.Println()
	fmt.Println("Top insurers:")
	for _, ins := range s.TopInsurers {
		fmt.Printf("  %-30s %6d claims  billed %s  paid %s\n",
			ins.InsurerName, ins.ClaimCount,
			ins.TotalBilled.StringFixed(2), ins.TotalPaid.StringFixed(2))
	}
	fmt.Println()
	fmt.Println("Monthly trend:")
	for _, m := range s.MonthlyStats {
		fmt.Printf("  %s  %6d claims  billed %s  paid %s\n",
			m.Month, m.ClaimCount, m.TotalBilled.StringFixed(2), m.TotalPaid.StringFixed(2))
	}
	fmt.Println()
	fmt.Printf("Denied claims: %d (billed %s)\n", s.DenialStats.Count, s.DenialStats.TotalAmount.StringFixed(2))
	for _, dr := range s.TopDenialReasons {
		fmt.Printf("  %-40s %d\n", dr.Reason, dr.Count)
	}
	return nil
}
