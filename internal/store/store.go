// Package store provides the persistent record store for claims and
// their annotations. The Store interface is the only seam the loader,
// aggregator, and exporter see; it is constructed once per process and
// passed explicitly.
package store

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/gyeh/claimstats/internal/model"
)

// Totals holds the scalar financial aggregates over all claims.
// Missing aggregates on an empty store come back as zero, not null.
type Totals struct {
	TotalClaims   int64
	FlaggedClaims int64
	TotalBilled   decimal.Decimal
	TotalPaid     decimal.Decimal
	AvgBilled     decimal.Decimal
	AvgPaid       decimal.Decimal
}

// ClaimCursor is a forward-only stream of stored claims. Not restartable;
// callers must Close it on every path.
type ClaimCursor interface {
	Next() bool
	Claim() model.Claim
	Err() error
	Close()
}

// DetailCursor is a forward-only stream of stored claim details.
type DetailCursor interface {
	Next() bool
	Detail() model.ClaimDetail
	Err() error
	Close()
}

// Store is the persistent record store capability consumed by the bulk
// loader, the aggregator, and the exporter.
type Store interface {
	// Bulk loading. Inserts are conflict-ignoring on the primary key:
	// re-inserting an existing id is a silent no-op, never an overwrite.
	BulkInsertClaims(ctx context.Context, claims []model.Claim) error
	BulkInsertDetails(ctx context.Context, details []model.ClaimDetail) error
	ClaimIDSet(ctx context.Context) (map[int64]struct{}, error)

	// ClearAll deletes details then claims in a single transaction.
	ClearAll(ctx context.Context) error

	CountClaims(ctx context.Context) (int64, error)
	CountDetails(ctx context.Context) (int64, error)

	// Import run ledger.
	CreateImportRun(ctx context.Context, run *model.ImportRun) error
	FinishImportRun(ctx context.Context, run *model.ImportRun) error

	// Aggregates for the dashboard. All tolerate an empty store.
	FinancialTotals(ctx context.Context) (*Totals, error)
	UnderpaidCount(ctx context.Context) (int64, error)
	StatusCounts(ctx context.Context) (map[model.Status]int64, error)
	TopInsurers(ctx context.Context, limit int) ([]model.InsurerStats, error)
	MonthlyStats(ctx context.Context, limit int) ([]model.MonthStats, error)
	DenialStats(ctx context.Context) (*model.DenialStats, error)
	TopDenialReasons(ctx context.Context, limit int) ([]model.DenialReasonCount, error)
	RecentClaims(ctx context.Context, limit int) ([]model.Claim, error)
	RecentNotes(ctx context.Context, limit int) ([]model.ClaimNote, error)
	RecentFlags(ctx context.Context, limit int) ([]model.ClaimFlag, error)

	// Streaming reads for the exporter, ordered by id.
	ClaimRows(ctx context.Context) (ClaimCursor, error)
	DetailRows(ctx context.Context) (DetailCursor, error)
}
