// Package stats computes the read-only dashboard summary over the
// current store state. It may run concurrently with imports and can
// observe a partially imported store; no snapshot isolation is assumed.
package stats

import (
	"context"
	"fmt"

	"github.com/gyeh/claimstats/internal/model"
	"github.com/gyeh/claimstats/internal/store"
)

const (
	topInsurerLimit   = 5
	recentLimit       = 5
	monthlyTrendLimit = 6
	denialReasonLimit = 5
)

// Aggregator computes DashboardStats from a record store.
type Aggregator struct {
	store store.Store
}

// New creates an Aggregator over st.
func New(st store.Store) *Aggregator {
	return &Aggregator{store: st}
}

// Summarize computes the full dashboard summary. An empty store yields
// zero counts, zero sums, and empty collections, never an error.
func (a *Aggregator) Summarize(ctx context.Context) (*model.DashboardStats, error) {
	totals, err := a.store.FinancialTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}

	s := &model.DashboardStats{
		TotalClaims:   totals.TotalClaims,
		FlaggedClaims: totals.FlaggedClaims,
		TotalBilled:   totals.TotalBilled,
		TotalPaid:     totals.TotalPaid,
		AvgBilled:     totals.AvgBilled,
		AvgPaid:       totals.AvgPaid,

		TotalUnderpayment: totals.TotalBilled.Sub(totals.TotalPaid),
		// Difference of the two averages, not an average of per-claim
		// differences. Both averages come from the same row set so the
		// formulations agree numerically, but this is the defined one.
		AvgUnderpayment: totals.AvgBilled.Sub(totals.AvgPaid),
	}

	if s.UnderpaidClaims, err = a.store.UnderpaidCount(ctx); err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}

	counts, err := a.store.StatusCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	s.StatusCounts = make(map[model.Status]int64, len(model.AllStatuses))
	for _, status := range model.AllStatuses {
		s.StatusCounts[status] = counts[status]
	}

	if s.TopInsurers, err = a.store.TopInsurers(ctx, topInsurerLimit); err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	if s.RecentClaims, err = a.store.RecentClaims(ctx, recentLimit); err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	if s.RecentNotes, err = a.store.RecentNotes(ctx, recentLimit); err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	if s.RecentFlags, err = a.store.RecentFlags(ctx, recentLimit); err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	if s.MonthlyStats, err = a.store.MonthlyStats(ctx, monthlyTrendLimit); err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}

	denial, err := a.store.DenialStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	s.DenialStats = *denial

	if s.TopDenialReasons, err = a.store.TopDenialReasons(ctx, denialReasonLimit); err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}

	return s, nil
}
