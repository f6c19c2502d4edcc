// Package storetest provides an in-memory Store for tests that do not
// need a real database. Semantics mirror the Postgres implementation:
// conflict-ignoring inserts, zero-valued empty aggregates.
package storetest

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gyeh/claimstats/internal/model"
	"github.com/gyeh/claimstats/internal/store"
)

// Mem is an in-memory Store.
type Mem struct {
	Claims  map[int64]model.Claim
	Details map[int64]model.ClaimDetail
	Notes   []model.ClaimNote
	Flags   []model.ClaimFlag
	Runs    map[string]model.ImportRun

	// InsertBatches records the size of every claim batch submitted,
	// for asserting batching behavior.
	InsertBatches []int
}

// New returns an empty in-memory store.
func New() *Mem {
	return &Mem{
		Claims:  make(map[int64]model.Claim),
		Details: make(map[int64]model.ClaimDetail),
		Runs:    make(map[string]model.ImportRun),
	}
}

var _ store.Store = (*Mem)(nil)

func (m *Mem) BulkInsertClaims(ctx context.Context, claims []model.Claim) error {
	m.InsertBatches = append(m.InsertBatches, len(claims))
	now := time.Now()
	for _, c := range claims {
		if _, exists := m.Claims[c.ID]; exists {
			continue
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
			c.UpdatedAt = now
		}
		m.Claims[c.ID] = c
	}
	return nil
}

func (m *Mem) BulkInsertDetails(ctx context.Context, details []model.ClaimDetail) error {
	now := time.Now()
	for _, d := range details {
		if _, exists := m.Details[d.ClaimID]; exists {
			continue
		}
		if d.CreatedAt.IsZero() {
			d.CreatedAt = now
			d.UpdatedAt = now
		}
		m.Details[d.ClaimID] = d
	}
	return nil
}

func (m *Mem) ClaimIDSet(ctx context.Context) (map[int64]struct{}, error) {
	ids := make(map[int64]struct{}, len(m.Claims))
	for id := range m.Claims {
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (m *Mem) ClearAll(ctx context.Context) error {
	m.Details = make(map[int64]model.ClaimDetail)
	m.Claims = make(map[int64]model.Claim)
	return nil
}

func (m *Mem) CountClaims(ctx context.Context) (int64, error) {
	return int64(len(m.Claims)), nil
}

func (m *Mem) CountDetails(ctx context.Context) (int64, error) {
	return int64(len(m.Details)), nil
}

func (m *Mem) CreateImportRun(ctx context.Context, run *model.ImportRun) error {
	r := *run
	r.Status = "running"
	r.StartedAt = time.Now()
	m.Runs[run.RunID] = r
	return nil
}

func (m *Mem) FinishImportRun(ctx context.Context, run *model.ImportRun) error {
	r := *run
	now := time.Now()
	r.FinishedAt = &now
	m.Runs[run.RunID] = r
	return nil
}

func (m *Mem) sortedClaims() []model.Claim {
	out := make([]model.Claim, 0, len(m.Claims))
	for _, c := range m.Claims {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Mem) FinancialTotals(ctx context.Context) (*store.Totals, error) {
	t := &store.Totals{
		TotalBilled: decimal.Zero,
		TotalPaid:   decimal.Zero,
		AvgBilled:   decimal.Zero,
		AvgPaid:     decimal.Zero,
	}
	for _, c := range m.Claims {
		t.TotalClaims++
		if c.IsFlagged {
			t.FlaggedClaims++
		}
		t.TotalBilled = t.TotalBilled.Add(c.BilledAmount)
		t.TotalPaid = t.TotalPaid.Add(c.PaidAmount)
	}
	if t.TotalClaims > 0 {
		n := decimal.NewFromInt(t.TotalClaims)
		t.AvgBilled = t.TotalBilled.DivRound(n, 16)
		t.AvgPaid = t.TotalPaid.DivRound(n, 16)
	}
	return t, nil
}

func (m *Mem) UnderpaidCount(ctx context.Context) (int64, error) {
	var n int64
	two := decimal.NewFromInt(2)
	for _, c := range m.Claims {
		if c.BilledAmount.GreaterThan(c.PaidAmount.Mul(two)) {
			n++
		}
	}
	return n, nil
}

func (m *Mem) StatusCounts(ctx context.Context) (map[model.Status]int64, error) {
	counts := make(map[model.Status]int64)
	for _, c := range m.Claims {
		counts[c.Status]++
	}
	return counts, nil
}

func (m *Mem) TopInsurers(ctx context.Context, limit int) ([]model.InsurerStats, error) {
	byName := make(map[string]*model.InsurerStats)
	for _, c := range m.Claims {
		ins, ok := byName[c.InsurerName]
		if !ok {
			ins = &model.InsurerStats{
				InsurerName: c.InsurerName,
				TotalBilled: decimal.Zero,
				TotalPaid:   decimal.Zero,
			}
			byName[c.InsurerName] = ins
		}
		ins.ClaimCount++
		ins.TotalBilled = ins.TotalBilled.Add(c.BilledAmount)
		ins.TotalPaid = ins.TotalPaid.Add(c.PaidAmount)
	}
	out := []model.InsurerStats{}
	for _, ins := range byName {
		out = append(out, *ins)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClaimCount > out[j].ClaimCount })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Mem) MonthlyStats(ctx context.Context, limit int) ([]model.MonthStats, error) {
	byMonth := make(map[string]*model.MonthStats)
	for _, c := range m.Claims {
		month := c.CreatedAt.Format("2006-01")
		ms, ok := byMonth[month]
		if !ok {
			ms = &model.MonthStats{Month: month, TotalBilled: decimal.Zero, TotalPaid: decimal.Zero}
			byMonth[month] = ms
		}
		ms.ClaimCount++
		ms.TotalBilled = ms.TotalBilled.Add(c.BilledAmount)
		ms.TotalPaid = ms.TotalPaid.Add(c.PaidAmount)
	}
	out := []model.MonthStats{}
	for _, ms := range byMonth {
		out = append(out, *ms)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month > out[j].Month })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Mem) DenialStats(ctx context.Context) (*model.DenialStats, error) {
	d := &model.DenialStats{TotalAmount: decimal.Zero}
	for _, c := range m.Claims {
		if c.Status == model.StatusDenied {
			d.Count++
			d.TotalAmount = d.TotalAmount.Add(c.BilledAmount)
		}
	}
	return d, nil
}

func (m *Mem) TopDenialReasons(ctx context.Context, limit int) ([]model.DenialReasonCount, error) {
	counts := make(map[string]int64)
	for id, d := range m.Details {
		c, ok := m.Claims[id]
		if !ok || c.Status != model.StatusDenied {
			continue
		}
		if d.DenialReason == nil || *d.DenialReason == "" {
			continue
		}
		counts[*d.DenialReason]++
	}
	out := []model.DenialReasonCount{}
	for reason, n := range counts {
		out = append(out, model.DenialReasonCount{Reason: reason, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Mem) RecentClaims(ctx context.Context, limit int) ([]model.Claim, error) {
	out := m.sortedClaims()
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Mem) RecentNotes(ctx context.Context, limit int) ([]model.ClaimNote, error) {
	out := append([]model.ClaimNote{}, m.Notes...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Mem) RecentFlags(ctx context.Context, limit int) ([]model.ClaimFlag, error) {
	out := append([]model.ClaimFlag{}, m.Flags...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memClaimCursor struct {
	claims []model.Claim
	pos    int
}

func (c *memClaimCursor) Next() bool {
	if c.pos >= len(c.claims) {
		return false
	}
	c.pos++
	return true
}

func (c *memClaimCursor) Claim() model.Claim { return c.claims[c.pos-1] }
func (c *memClaimCursor) Err() error         { return nil }
func (c *memClaimCursor) Close()             {}

func (m *Mem) ClaimRows(ctx context.Context) (store.ClaimCursor, error) {
	return &memClaimCursor{claims: m.sortedClaims()}, nil
}

type memDetailCursor struct {
	details []model.ClaimDetail
	pos     int
}

func (c *memDetailCursor) Next() bool {
	if c.pos >= len(c.details) {
		return false
	}
	c.pos++
	return true
}

func (c *memDetailCursor) Detail() model.ClaimDetail { return c.details[c.pos-1] }
func (c *memDetailCursor) Err() error                { return nil }
func (c *memDetailCursor) Close()                    {}

func (m *Mem) DetailRows(ctx context.Context) (store.DetailCursor, error) {
	out := make([]model.ClaimDetail, 0, len(m.Details))
	for _, d := range m.Details {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClaimID < out[j].ClaimID })
	return &memDetailCursor{details: out}, nil
}
