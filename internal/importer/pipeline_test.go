package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gyeh/claimstats/internal/store/storetest"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_FullPipeline(t *testing.T) {
	claims := writeTemp(t, "claims.csv", claimsHeader+
		"1|John Smith|100.00|80.00|Paid|Aetna|2024-01-15\n"+
		"2|Maria Garcia|50.00|0.00|Denied|Cigna|2024-02-01\n")
	details := writeTemp(t, "details.csv", detailsHeader+
		"1|2|Policy expired|99213\n"+
		"2|999|N/A|99214\n")

	st := storetest.New()
	sum, err := Run(context.Background(), st, zerolog.Nop(), Options{
		ClaimsFile:  claims,
		DetailsFile: details,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.ClaimsLoaded != 2 || sum.ClaimsSkipped != 0 {
		t.Errorf("claims loaded=%d skipped=%d", sum.ClaimsLoaded, sum.ClaimsSkipped)
	}
	if sum.DetailsLoaded != 1 || sum.OrphansSkipped != 1 {
		t.Errorf("details loaded=%d orphans=%d", sum.DetailsLoaded, sum.OrphansSkipped)
	}
	if sum.RunID == "" {
		t.Error("summary has no run id")
	}

	run, ok := st.Runs[sum.RunID]
	if !ok {
		t.Fatal("import run not recorded")
	}
	if run.Status != "completed" || run.Mode != "append" {
		t.Errorf("run status=%q mode=%q", run.Status, run.Mode)
	}
	if run.ClaimsLoaded != 2 || run.OrphansSkipped != 1 {
		t.Errorf("run counts: %+v", run)
	}
}

func TestRun_MissingFileIsFatal(t *testing.T) {
	claims := writeTemp(t, "claims.csv", claimsHeader)
	st := storetest.New()
	_, err := Run(context.Background(), st, zerolog.Nop(), Options{
		ClaimsFile:  claims,
		DetailsFile: filepath.Join(t.TempDir(), "nope.csv"),
	})
	var perr *PipelineError
	if !errors.As(err, &perr) || perr.Phase != "preflight" {
		t.Fatalf("err = %v, want preflight PipelineError", err)
	}
	if len(st.Runs) != 0 {
		t.Error("preflight failure should not record a run")
	}
}

func TestRun_ValidationBlocksLoad(t *testing.T) {
	claims := writeTemp(t, "claims.csv",
		"id|patient_name|billed_amount\n"+
			"1|x|1.00\n")
	details := writeTemp(t, "details.csv", detailsHeader+"1|1|N/A|99213\n")

	st := storetest.New()
	_, err := Run(context.Background(), st, zerolog.Nop(), Options{
		ClaimsFile:  claims,
		DetailsFile: details,
	})
	var vf *ValidationFailed
	if !errors.As(err, &vf) {
		t.Fatalf("err = %v, want ValidationFailed", err)
	}
	if len(vf.Errors) == 0 {
		t.Fatal("no validation errors reported")
	}
	if len(st.Claims) != 0 || len(st.Details) != 0 {
		t.Error("validation failure must not load anything")
	}
	for _, run := range st.Runs {
		if run.Status != "failed" {
			t.Errorf("run status = %q, want failed", run.Status)
		}
	}
}

func TestRun_ClearWipesExistingData(t *testing.T) {
	st := storetest.New()
	ctx := context.Background()

	first := writeTemp(t, "first.csv", claimsHeader+"1|old|1.00|1.00|Paid|A|2024-01-01\n")
	empty := writeTemp(t, "empty.csv", detailsHeader)
	if _, err := Run(ctx, st, zerolog.Nop(), Options{ClaimsFile: first, DetailsFile: empty}); err != nil {
		t.Fatalf("first run: %v", err)
	}

	second := writeTemp(t, "second.csv", claimsHeader+"2|new|2.00|2.00|Paid|B|2024-02-01\n")
	sum, err := Run(ctx, st, zerolog.Nop(), Options{ClaimsFile: second, DetailsFile: empty, Clear: true})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !sum.Cleared {
		t.Error("summary should mark the run as cleared")
	}
	if _, exists := st.Claims[1]; exists {
		t.Error("clear did not remove prior claims")
	}
	if _, exists := st.Claims[2]; !exists {
		t.Error("new claim missing after clear")
	}
	if st.Runs[sum.RunID].Mode != "overwrite" {
		t.Errorf("run mode = %q, want overwrite", st.Runs[sum.RunID].Mode)
	}
}

func TestRun_AppendIsIdempotent(t *testing.T) {
	st := storetest.New()
	ctx := context.Background()

	claims := writeTemp(t, "claims.csv", claimsHeader+"1|p|1.00|1.00|Paid|A|2024-01-01\n")
	details := writeTemp(t, "details.csv", detailsHeader+"1|1|N/A|99213\n")
	opts := Options{ClaimsFile: claims, DetailsFile: details}

	if _, err := Run(ctx, st, zerolog.Nop(), opts); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := Run(ctx, st, zerolog.Nop(), opts); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(st.Claims) != 1 || len(st.Details) != 1 {
		t.Errorf("re-import duplicated rows: claims=%d details=%d", len(st.Claims), len(st.Details))
	}
}
