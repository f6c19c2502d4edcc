package importer_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gyeh/claimstats/internal/db"
	"github.com/gyeh/claimstats/internal/export"
	"github.com/gyeh/claimstats/internal/importer"
	"github.com/gyeh/claimstats/internal/logging"
	"github.com/gyeh/claimstats/internal/model"
	"github.com/gyeh/claimstats/internal/stats"
	"github.com/gyeh/claimstats/internal/store"
)

const (
	testPort     = 15433
	testDB       = "claimstest"
	testUser     = "postgres"
	testPassword = "postgres"
)

var (
	testDSN string
	pg      *embeddedpostgres.EmbeddedPostgres
)

func TestMain(m *testing.M) {
	testDSN = fmt.Sprintf("postgresql://%s:%s@localhost:%d/%s?sslmode=disable",
		testUser, testPassword, testPort, testDB)

	pg = embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(uint32(testPort)).
			Database(testDB).
			Username(testUser).
			Password(testPassword).
			Version(embeddedpostgres.V16).
			StartTimeout(30*time.Second),
	)

	if err := pg.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start embedded postgres: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if err := pg.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to stop embedded postgres: %v\n", err)
	}

	os.Exit(code)
}

// setupDB creates a connection pool with a clean schema. Returns the pool
// with cleanup registered.
func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, testDSN)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	for _, table := range []string{"claim_details", "claim_notes", "claim_flags", "claims", "import_runs"} {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			t.Fatalf("drop table %s: %v", table, err)
		}
	}

	log := logging.Setup("text")
	if err := db.ApplyMigrations(ctx, pool, log); err != nil {
		pool.Close()
		t.Fatalf("migrations: %v", err)
	}

	t.Cleanup(func() { pool.Close() })
	return pool
}

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const fixtureClaims = "id|patient_name|billed_amount|paid_amount|status|insurer_name|discharge_date\n" +
	"1|John Smith|100.00|80.00|Paid|Aetna|2024-01-15\n" +
	"2|Maria Garcia|50.00|0.00|Denied|Cigna|2024-02-01\n" +
	"3|Wei Chen|250.00|100.00|Under Review|United Health|2024-02-20\n"

const fixtureDetails = "id|claim_id|denial_reason|cpt_codes\n" +
	"1|1|N/A|99213, 85025\n" +
	"2|2|Policy expired|99214\n" +
	"3|999|N/A|99215\n"

func runImport(t *testing.T, pool *pgxpool.Pool, claims, details string, clear bool) *model.ImportSummary {
	t.Helper()
	dir := t.TempDir()
	opts := importer.Options{
		ClaimsFile:  writeFixture(t, dir, "claims.csv", claims),
		DetailsFile: writeFixture(t, dir, "details.csv", details),
		Clear:       clear,
	}
	sum, err := importer.Run(context.Background(), store.NewPG(pool), logging.Setup("text"), opts)
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	return sum
}

func TestImport_EndToEnd(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	st := store.NewPG(pool)

	sum := runImport(t, pool, fixtureClaims, fixtureDetails, false)
	if sum.ClaimsLoaded != 3 || sum.ClaimsSkipped != 0 {
		t.Errorf("claims loaded=%d skipped=%d", sum.ClaimsLoaded, sum.ClaimsSkipped)
	}
	if sum.DetailsLoaded != 2 || sum.OrphansSkipped != 1 {
		t.Errorf("details loaded=%d orphans=%d", sum.DetailsLoaded, sum.OrphansSkipped)
	}

	n, err := st.CountClaims(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("claims in db = %d", n)
	}
	n, err = st.CountDetails(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("details in db = %d", n)
	}

	var status, reason string
	err = pool.QueryRow(ctx,
		"SELECT c.status, d.denial_reason FROM claims c JOIN claim_details d ON d.claim_id = c.id WHERE c.id = 2").
		Scan(&status, &reason)
	if err != nil {
		t.Fatal(err)
	}
	if status != "denied" || reason != "Policy expired" {
		t.Errorf("claim 2: status=%q reason=%q", status, reason)
	}

	var nullReasons int64
	err = pool.QueryRow(ctx,
		"SELECT count(*) FROM claim_details WHERE denial_reason IS NULL").Scan(&nullReasons)
	if err != nil {
		t.Fatal(err)
	}
	if nullReasons != 1 {
		t.Errorf("null denial reasons = %d, want 1", nullReasons)
	}
}

func TestImport_ReimportIsIdempotent(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	st := store.NewPG(pool)

	runImport(t, pool, fixtureClaims, fixtureDetails, false)
	runImport(t, pool, fixtureClaims, fixtureDetails, false)

	n, err := st.CountClaims(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("claims after re-import = %d, want 3", n)
	}
	n, err = st.CountDetails(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("details after re-import = %d, want 2", n)
	}

	// The first import's values survive; the duplicate rows were ignored.
	var patient string
	if err := pool.QueryRow(ctx, "SELECT patient_name FROM claims WHERE id = 1").Scan(&patient); err != nil {
		t.Fatal(err)
	}
	if patient != "John Smith" {
		t.Errorf("patient = %q", patient)
	}
}

func TestImport_ClearReplacesData(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	st := store.NewPG(pool)

	runImport(t, pool, fixtureClaims, fixtureDetails, false)

	replacement := "id|patient_name|billed_amount|paid_amount|status|insurer_name|discharge_date\n" +
		"10|New Patient|75.00|75.00|Paid|Aetna|2024-03-01\n"
	noDetails := "id|claim_id|denial_reason|cpt_codes\n"
	sum := runImport(t, pool, replacement, noDetails, true)
	if !sum.Cleared {
		t.Error("summary not marked cleared")
	}

	n, err := st.CountClaims(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("claims after overwrite = %d, want 1", n)
	}
	n, err = st.CountDetails(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("details after overwrite = %d, want 0", n)
	}
}

func TestImport_ValidationBlocksLoad(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	st := store.NewPG(pool)

	badClaims := "id|patient_name|billed_amount\n1|x|1.00\n"
	dir := t.TempDir()
	_, err := importer.Run(ctx, st, logging.Setup("text"), importer.Options{
		ClaimsFile:  writeFixture(t, dir, "claims.csv", badClaims),
		DetailsFile: writeFixture(t, dir, "details.csv", fixtureDetails),
	})
	var vf *importer.ValidationFailed
	if !errors.As(err, &vf) {
		t.Fatalf("err = %v, want ValidationFailed", err)
	}

	n, err := st.CountClaims(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("claims loaded despite validation failure: %d", n)
	}

	var runStatus string
	if err := pool.QueryRow(ctx, "SELECT status FROM import_runs ORDER BY started_at DESC LIMIT 1").Scan(&runStatus); err != nil {
		t.Fatal(err)
	}
	if runStatus != "failed" {
		t.Errorf("run status = %q, want failed", runStatus)
	}
}

func TestImport_RunLedgerRecorded(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()

	sum := runImport(t, pool, fixtureClaims, fixtureDetails, false)

	var status, mode string
	var claimsLoaded, orphans int64
	err := pool.QueryRow(ctx,
		"SELECT status, mode, claims_loaded, orphans_skipped FROM import_runs WHERE run_id = $1", sum.RunID).
		Scan(&status, &mode, &claimsLoaded, &orphans)
	if err != nil {
		t.Fatal(err)
	}
	if status != "completed" || mode != "append" {
		t.Errorf("run status=%q mode=%q", status, mode)
	}
	if claimsLoaded != 3 || orphans != 1 {
		t.Errorf("run counts: claims=%d orphans=%d", claimsLoaded, orphans)
	}
}

func TestAggregates_AgainstDatabase(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	st := store.NewPG(pool)

	runImport(t, pool, fixtureClaims, fixtureDetails, false)

	s, err := stats.New(st).Summarize(ctx)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.TotalClaims != 3 {
		t.Errorf("total claims = %d", s.TotalClaims)
	}
	if s.TotalBilled.StringFixed(2) != "400.00" || s.TotalPaid.StringFixed(2) != "180.00" {
		t.Errorf("totals: billed=%s paid=%s", s.TotalBilled.StringFixed(2), s.TotalPaid.StringFixed(2))
	}
	if s.TotalUnderpayment.StringFixed(2) != "220.00" {
		t.Errorf("underpayment = %s", s.TotalUnderpayment.StringFixed(2))
	}
	// Claims 2 (50 > 0) and 3 (250 > 200) are underpaid; claim 1 is not.
	if s.UnderpaidClaims != 2 {
		t.Errorf("underpaid = %d", s.UnderpaidClaims)
	}
	if s.StatusCounts[model.StatusApproved] != 1 ||
		s.StatusCounts[model.StatusDenied] != 1 ||
		s.StatusCounts[model.StatusReview] != 1 {
		t.Errorf("status counts: %v", s.StatusCounts)
	}
	if s.DenialStats.Count != 1 || s.DenialStats.TotalAmount.StringFixed(2) != "50.00" {
		t.Errorf("denial stats: %+v", s.DenialStats)
	}
	if len(s.TopDenialReasons) != 1 || s.TopDenialReasons[0].Reason != "Policy expired" {
		t.Errorf("denial reasons: %+v", s.TopDenialReasons)
	}
	if len(s.TopInsurers) != 3 {
		t.Errorf("insurers: %+v", s.TopInsurers)
	}
}

func TestExport_RoundTrip(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	st := store.NewPG(pool)

	runImport(t, pool, fixtureClaims, fixtureDetails, false)

	cur, err := st.ClaimRows(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var claimsOut strings.Builder
	if _, err := export.Claims(cur).WriteTo(&claimsOut); err != nil {
		t.Fatalf("export claims: %v", err)
	}

	dcur, err := st.DetailRows(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var detailsOut strings.Builder
	if _, err := export.Details(dcur).WriteTo(&detailsOut); err != nil {
		t.Fatalf("export details: %v", err)
	}

	lines := strings.Split(strings.TrimRight(claimsOut.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("claims export lines = %d: %q", len(lines), claimsOut.String())
	}
	if lines[1] != "1|John Smith|100.00|80.00|Paid|Aetna|2024-01-15" {
		t.Errorf("claim row = %q", lines[1])
	}
	if lines[3] != "3|Wei Chen|250.00|100.00|Under Review|United Health|2024-02-20" {
		t.Errorf("claim row = %q", lines[3])
	}

	// Re-import the exported files into a cleared store; counts must match.
	sum := runImport(t, pool, claimsOut.String(), detailsOut.String(), true)
	if sum.ClaimsLoaded != 3 || sum.ClaimsSkipped != 0 {
		t.Errorf("round trip claims loaded=%d skipped=%d", sum.ClaimsLoaded, sum.ClaimsSkipped)
	}
	if sum.DetailsLoaded != 2 || sum.OrphansSkipped != 0 {
		t.Errorf("round trip details loaded=%d orphans=%d", sum.DetailsLoaded, sum.OrphansSkipped)
	}
}
