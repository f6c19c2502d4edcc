package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gyeh/claimstats/internal/model"
)

// PG is the Postgres-backed Store. Amounts travel as fixed-point text on
// the wire (explicit ::numeric / ::text casts) so no binary float ever
// touches an amount.
type PG struct {
	pool *pgxpool.Pool
}

// NewPG wraps a connection pool as a Store.
func NewPG(pool *pgxpool.Pool) *PG {
	return &PG{pool: pool}
}

var _ Store = (*PG)(nil)

const insertClaimSQL = `
INSERT INTO claims (id, patient_name, billed_amount, paid_amount, status, insurer_name, discharge_date)
VALUES ($1, $2, $3::numeric(12,2), $4::numeric(12,2), $5, $6, $7)
ON CONFLICT (id) DO NOTHING`

const insertDetailSQL = `
INSERT INTO claim_details (claim_id, cpt_codes, denial_reason)
VALUES ($1, $2, $3)
ON CONFLICT (claim_id) DO NOTHING`

// BulkInsertClaims inserts one batch of claims with insert-or-ignore
// semantics. Each batch is its own commit unit.
func (s *PG) BulkInsertClaims(ctx context.Context, claims []model.Claim) error {
	if len(claims) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, c := range claims {
		b.Queue(insertClaimSQL,
			c.ID,
			c.PatientName,
			c.BilledAmount.StringFixed(2),
			c.PaidAmount.StringFixed(2),
			string(c.Status),
			c.InsurerName,
			c.DischargeDate,
		)
	}
	br := s.pool.SendBatch(ctx, b)
	defer br.Close()
	for range claims {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert claims batch: %w", err)
		}
	}
	return nil
}

// BulkInsertDetails inserts one batch of claim details, same semantics
// as BulkInsertClaims.
func (s *PG) BulkInsertDetails(ctx context.Context, details []model.ClaimDetail) error {
	if len(details) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, d := range details {
		b.Queue(insertDetailSQL, d.ClaimID, d.CPTCodes, d.DenialReason)
	}
	br := s.pool.SendBatch(ctx, b)
	defer br.Close()
	for range details {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert details batch: %w", err)
		}
	}
	return nil
}

// ClaimIDSet loads every stored claim id into a set, used by the detail
// loader to drop orphan rows without a per-row round trip.
func (s *PG) ClaimIDSet(ctx context.Context) (map[int64]struct{}, error) {
	rows, err := s.pool.Query(ctx, "SELECT id FROM claims")
	if err != nil {
		return nil, fmt.Errorf("query claim ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan claim id: %w", err)
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read claim ids: %w", err)
	}
	return ids, nil
}

// ClearAll deletes all claim details, then all claims, in one
// transaction. Detail-before-claim ordering follows the foreign key.
func (s *PG) ClearAll(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM claim_details"); err != nil {
		return fmt.Errorf("clear details: %w", err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM claims"); err != nil {
		return fmt.Errorf("clear claims: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit clear: %w", err)
	}
	return nil
}

func (s *PG) CountClaims(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, "SELECT count(*) FROM claims").Scan(&n)
	return n, err
}

func (s *PG) CountDetails(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, "SELECT count(*) FROM claim_details").Scan(&n)
	return n, err
}

// CreateImportRun registers a new import run with status "running".
func (s *PG) CreateImportRun(ctx context.Context, run *model.ImportRun) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO import_runs (run_id, mode, claims_file, details_file, status)
		VALUES ($1, $2, $3, $4, 'running')`,
		run.RunID, run.Mode, run.ClaimsFile, run.DetailsFile,
	)
	if err != nil {
		return fmt.Errorf("create import run: %w", err)
	}
	return nil
}

// FinishImportRun records final counts and terminal status for a run.
func (s *PG) FinishImportRun(ctx context.Context, run *model.ImportRun) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE import_runs
		SET claims_loaded = $2, claims_skipped = $3,
		    details_loaded = $4, details_skipped = $5,
		    orphans_skipped = $6, status = $7, finished_at = now()
		WHERE run_id = $1`,
		run.RunID,
		run.ClaimsLoaded, run.ClaimsSkipped,
		run.DetailsLoaded, run.DetailsSkipped,
		run.OrphansSkipped, run.Status,
	)
	if err != nil {
		return fmt.Errorf("finish import run: %w", err)
	}
	return nil
}

// FinancialTotals computes the scalar aggregates in a single query.
func (s *PG) FinancialTotals(ctx context.Context) (*Totals, error) {
	var t Totals
	var totalBilled, totalPaid, avgBilled, avgPaid string
	err := s.pool.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE is_flagged),
		       COALESCE(sum(billed_amount), 0)::text,
		       COALESCE(sum(paid_amount), 0)::text,
		       COALESCE(avg(billed_amount), 0)::text,
		       COALESCE(avg(paid_amount), 0)::text
		FROM claims`,
	).Scan(&t.TotalClaims, &t.FlaggedClaims, &totalBilled, &totalPaid, &avgBilled, &avgPaid)
	if err != nil {
		return nil, fmt.Errorf("financial totals: %w", err)
	}
	if t.TotalBilled, err = decimal.NewFromString(totalBilled); err != nil {
		return nil, fmt.Errorf("parse total billed: %w", err)
	}
	if t.TotalPaid, err = decimal.NewFromString(totalPaid); err != nil {
		return nil, fmt.Errorf("parse total paid: %w", err)
	}
	if t.AvgBilled, err = decimal.NewFromString(avgBilled); err != nil {
		return nil, fmt.Errorf("parse avg billed: %w", err)
	}
	if t.AvgPaid, err = decimal.NewFromString(avgPaid); err != nil {
		return nil, fmt.Errorf("parse avg paid: %w", err)
	}
	return &t, nil
}

// UnderpaidCount counts claims where billed exceeds twice the paid amount.
func (s *PG) UnderpaidCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		"SELECT count(*) FROM claims WHERE billed_amount > paid_amount * 2",
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("underpaid count: %w", err)
	}
	return n, nil
}

// StatusCounts returns per-status counts for statuses present in the
// store; the aggregator fills in zeroes for the rest.
func (s *PG) StatusCounts(ctx context.Context) (map[model.Status]int64, error) {
	rows, err := s.pool.Query(ctx, "SELECT status, count(*) FROM claims GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.Status]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[model.Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read status counts: %w", err)
	}
	return counts, nil
}

// TopInsurers groups claims by insurer, ordered by claim count
// descending. Ties in count come back in unspecified order.
func (s *PG) TopInsurers(ctx context.Context, limit int) ([]model.InsurerStats, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT insurer_name,
		       count(*),
		       COALESCE(sum(billed_amount), 0)::text,
		       COALESCE(sum(paid_amount), 0)::text
		FROM claims
		GROUP BY insurer_name
		ORDER BY count(*) DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("top insurers: %w", err)
	}
	defer rows.Close()

	out := []model.InsurerStats{}
	for rows.Next() {
		var ins model.InsurerStats
		var billed, paid string
		if err := rows.Scan(&ins.InsurerName, &ins.ClaimCount, &billed, &paid); err != nil {
			return nil, fmt.Errorf("scan insurer row: %w", err)
		}
		if ins.TotalBilled, err = decimal.NewFromString(billed); err != nil {
			return nil, fmt.Errorf("parse insurer billed: %w", err)
		}
		if ins.TotalPaid, err = decimal.NewFromString(paid); err != nil {
			return nil, fmt.Errorf("parse insurer paid: %w", err)
		}
		out = append(out, ins)
	}
	return out, rows.Err()
}

// MonthlyStats groups claims by creation year-month, most recent first.
func (s *PG) MonthlyStats(ctx context.Context, limit int) ([]model.MonthStats, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT to_char(created_at, 'YYYY-MM') AS month,
		       count(*),
		       COALESCE(sum(billed_amount), 0)::text,
		       COALESCE(sum(paid_amount), 0)::text
		FROM claims
		GROUP BY month
		ORDER BY month DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("monthly stats: %w", err)
	}
	defer rows.Close()

	out := []model.MonthStats{}
	for rows.Next() {
		var m model.MonthStats
		var billed, paid string
		if err := rows.Scan(&m.Month, &m.ClaimCount, &billed, &paid); err != nil {
			return nil, fmt.Errorf("scan month row: %w", err)
		}
		if m.TotalBilled, err = decimal.NewFromString(billed); err != nil {
			return nil, fmt.Errorf("parse month billed: %w", err)
		}
		if m.TotalPaid, err = decimal.NewFromString(paid); err != nil {
			return nil, fmt.Errorf("parse month paid: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// DenialStats counts denied-status claims and their total billed amount.
func (s *PG) DenialStats(ctx context.Context) (*model.DenialStats, error) {
	var d model.DenialStats
	var total string
	err := s.pool.QueryRow(ctx, `
		SELECT count(*), COALESCE(sum(billed_amount), 0)::text
		FROM claims WHERE status = 'denied'`,
	).Scan(&d.Count, &total)
	if err != nil {
		return nil, fmt.Errorf("denial stats: %w", err)
	}
	if d.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("parse denial total: %w", err)
	}
	return &d, nil
}

// TopDenialReasons counts non-empty denial reasons among details of
// denied claims, most frequent first.
func (s *PG) TopDenialReasons(ctx context.Context, limit int) ([]model.DenialReasonCount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT d.denial_reason, count(*)
		FROM claim_details d
		JOIN claims c ON c.id = d.claim_id
		WHERE c.status = 'denied'
		  AND d.denial_reason IS NOT NULL
		  AND d.denial_reason <> ''
		GROUP BY d.denial_reason
		ORDER BY count(*) DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("top denial reasons: %w", err)
	}
	defer rows.Close()

	out := []model.DenialReasonCount{}
	for rows.Next() {
		var r model.DenialReasonCount
		if err := rows.Scan(&r.Reason, &r.Count); err != nil {
			return nil, fmt.Errorf("scan denial reason: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const claimColumns = `id, patient_name, billed_amount::text, paid_amount::text,
       status, insurer_name, discharge_date, is_flagged,
       created_at, updated_at, created_by, updated_by`

func scanClaim(rows pgx.Rows) (model.Claim, error) {
	var c model.Claim
	var billed, paid, status string
	err := rows.Scan(&c.ID, &c.PatientName, &billed, &paid, &status,
		&c.InsurerName, &c.DischargeDate, &c.IsFlagged,
		&c.CreatedAt, &c.UpdatedAt, &c.CreatedBy, &c.UpdatedBy)
	if err != nil {
		return model.Claim{}, fmt.Errorf("scan claim: %w", err)
	}
	c.Status = model.Status(status)
	if c.BilledAmount, err = decimal.NewFromString(billed); err != nil {
		return model.Claim{}, fmt.Errorf("parse billed amount: %w", err)
	}
	if c.PaidAmount, err = decimal.NewFromString(paid); err != nil {
		return model.Claim{}, fmt.Errorf("parse paid amount: %w", err)
	}
	return c, nil
}

// RecentClaims returns the most recently created claims, newest first.
func (s *PG) RecentClaims(ctx context.Context, limit int) ([]model.Claim, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+claimColumns+" FROM claims ORDER BY created_at DESC LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("recent claims: %w", err)
	}
	defer rows.Close()

	out := []model.Claim{}
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// RecentNotes returns the most recently added notes, newest first.
func (s *PG) RecentNotes(ctx context.Context, limit int) ([]model.ClaimNote, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT note_id, claim_id, content, created_by, created_at
		FROM claim_notes ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent notes: %w", err)
	}
	defer rows.Close()

	out := []model.ClaimNote{}
	for rows.Next() {
		var n model.ClaimNote
		if err := rows.Scan(&n.ID, &n.ClaimID, &n.Content, &n.CreatedBy, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// RecentFlags returns the most recently raised flags, newest first.
func (s *PG) RecentFlags(ctx context.Context, limit int) ([]model.ClaimFlag, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT flag_id, claim_id, reason, description, is_resolved,
		       flagged_by, resolved_by, created_at, resolved_at
		FROM claim_flags ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent flags: %w", err)
	}
	defer rows.Close()

	out := []model.ClaimFlag{}
	for rows.Next() {
		var f model.ClaimFlag
		if err := rows.Scan(&f.ID, &f.ClaimID, &f.Reason, &f.Description,
			&f.IsResolved, &f.FlaggedBy, &f.ResolvedBy, &f.CreatedAt, &f.ResolvedAt); err != nil {
			return nil, fmt.Errorf("scan flag: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

type pgClaimCursor struct {
	rows    pgx.Rows
	current model.Claim
	err     error
}

func (c *pgClaimCursor) Next() bool {
	if !c.rows.Next() {
		c.err = c.rows.Err()
		return false
	}
	claim, err := scanClaim(c.rows)
	if err != nil {
		c.err = err
		return false
	}
	c.current = claim
	return true
}

func (c *pgClaimCursor) Claim() model.Claim { return c.current }
func (c *pgClaimCursor) Err() error         { return c.err }
func (c *pgClaimCursor) Close()             { c.rows.Close() }

// ClaimRows streams all claims ordered by id.
func (s *PG) ClaimRows(ctx context.Context) (ClaimCursor, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+claimColumns+" FROM claims ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("claim rows: %w", err)
	}
	return &pgClaimCursor{rows: rows}, nil
}

type pgDetailCursor struct {
	rows    pgx.Rows
	current model.ClaimDetail
	err     error
}

func (c *pgDetailCursor) Next() bool {
	if !c.rows.Next() {
		c.err = c.rows.Err()
		return false
	}
	var d model.ClaimDetail
	if err := c.rows.Scan(&d.ClaimID, &d.CPTCodes, &d.DenialReason, &d.CreatedAt, &d.UpdatedAt); err != nil {
		c.err = fmt.Errorf("scan detail: %w", err)
		return false
	}
	c.current = d
	return true
}

func (c *pgDetailCursor) Detail() model.ClaimDetail { return c.current }
func (c *pgDetailCursor) Err() error                { return c.err }
func (c *pgDetailCursor) Close()                    { c.rows.Close() }

// DetailRows streams all claim details ordered by claim id.
func (s *PG) DetailRows(ctx context.Context) (DetailCursor, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT claim_id, cpt_codes, denial_reason, created_at, updated_at
		FROM claim_details ORDER BY claim_id`)
	if err != nil {
		return nil, fmt.Errorf("detail rows: %w", err)
	}
	return &pgDetailCursor{rows: rows}, nil
}
