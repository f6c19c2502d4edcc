package web

import (
	"net/http"

	"github.com/gyeh/claimstats/internal/model"
)

type insurerJSON struct {
	InsurerName string `json:"insurer_name"`
	ClaimCount  int64  `json:"claim_count"`
	TotalBilled string `json:"total_billed"`
	TotalPaid   string `json:"total_paid"`
}

type monthJSON struct {
	Month       string `json:"month"`
	ClaimCount  int64  `json:"claim_count"`
	TotalBilled string `json:"total_billed"`
	TotalPaid   string `json:"total_paid"`
}

type denialReasonJSON struct {
	Reason string `json:"reason"`
	Count  int64  `json:"count"`
}

type dashboardJSON struct {
	TotalClaims       int64              `json:"total_claims"`
	FlaggedClaims     int64              `json:"flagged_claims"`
	TotalBilled       string             `json:"total_billed"`
	TotalPaid         string             `json:"total_paid"`
	AvgBilled         string             `json:"avg_billed"`
	AvgPaid           string             `json:"avg_paid"`
	TotalUnderpayment string             `json:"total_underpayment"`
	AvgUnderpayment   string             `json:"avg_underpayment"`
	UnderpaidClaims   int64              `json:"underpaid_claims"`
	StatusCounts      map[string]int64   `json:"status_counts"`
	TopInsurers       []insurerJSON      `json:"top_insurers"`
	MonthlyStats      []monthJSON        `json:"monthly_stats"`
	DenialCount       int64              `json:"denial_count"`
	DenialTotalAmount string             `json:"denial_total_amount"`
	TopDenialReasons  []denialReasonJSON `json:"top_denial_reasons"`
	RecentClaimIDs    []int64            `json:"recent_claim_ids"`
	RecentNoteIDs     []int64            `json:"recent_note_ids"`
	RecentFlagIDs     []int64            `json:"recent_flag_ids"`
}

// handleDashboard returns the aggregated dashboard summary. Amounts are
// rendered as fixed two-place decimal strings.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := s.aggr.Summarize(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("dashboard summarize failed")
		writeError(w, http.StatusInternalServerError, "summarize failed")
		return
	}
	writeJSON(w, http.StatusOK, toDashboardJSON(stats))
}

func toDashboardJSON(st *model.DashboardStats) dashboardJSON {
	out := dashboardJSON{
		TotalClaims:       st.TotalClaims,
		FlaggedClaims:     st.FlaggedClaims,
		TotalBilled:       st.TotalBilled.StringFixed(2),
		TotalPaid:         st.TotalPaid.StringFixed(2),
		AvgBilled:         st.AvgBilled.StringFixed(2),
		AvgPaid:           st.AvgPaid.StringFixed(2),
		TotalUnderpayment: st.TotalUnderpayment.StringFixed(2),
		AvgUnderpayment:   st.AvgUnderpayment.StringFixed(2),
		UnderpaidClaims:   st.UnderpaidClaims,
		StatusCounts:      make(map[string]int64, len(st.StatusCounts)),
		DenialCount:       st.DenialStats.Count,
		DenialTotalAmount: st.DenialStats.TotalAmount.StringFixed(2),
		TopInsurers:       []insurerJSON{},
		MonthlyStats:      []monthJSON{},
		TopDenialReasons:  []denialReasonJSON{},
		RecentClaimIDs:    []int64{},
		RecentNoteIDs:     []int64{},
		RecentFlagIDs:     []int64{},
	}
	for status, n := range st.StatusCounts {
		out.StatusCounts[string(status)] = n
	}
	for _, ins := range st.TopInsurers {
		out.TopInsurers = append(out.TopInsurers, insurerJSON{
			InsurerName: ins.InsurerName,
			ClaimCount:  ins.ClaimCount,
			TotalBilled: ins.TotalBilled.StringFixed(2),
			TotalPaid:   ins.TotalPaid.StringFixed(2),
		})
	}
	for _, m := range st.MonthlyStats {
		out.MonthlyStats = append(out.MonthlyStats, monthJSON{
			Month:       m.Month,
			ClaimCount:  m.ClaimCount,
			TotalBilled: m.TotalBilled.StringFixed(2),
			TotalPaid:   m.TotalPaid.StringFixed(2),
		})
	}
	for _, dr := range st.TopDenialReasons {
		out.TopDenialReasons = append(out.TopDenialReasons, denialReasonJSON{Reason: dr.Reason, Count: dr.Count})
	}
	for _, c := range st.RecentClaims {
		out.RecentClaimIDs = append(out.RecentClaimIDs, c.ID)
	}
	for _, n := range st.RecentNotes {
		out.RecentNoteIDs = append(out.RecentNoteIDs, n.ID)
	}
	for _, f := range st.RecentFlags {
		out.RecentFlagIDs = append(out.RecentFlagIDs, f.ID)
	}
	return out
}
