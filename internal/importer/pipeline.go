package importer

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimstats/internal/claimcsv"
	"github.com/gyeh/claimstats/internal/model"
	"github.com/gyeh/claimstats/internal/store"
)

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// ValidationFailed carries the pre-flight error list when structural
// validation blocks the load.
type ValidationFailed struct {
	Errors []*claimcsv.ValidationError
}

func (e *ValidationFailed) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Options configures one import run.
type Options struct {
	ClaimsFile  string
	DetailsFile string
	// Clear wipes existing claims and details before loading.
	Clear bool
}

// Run executes the full import pipeline:
// preflight → validate → (clear) → claims → details → finalize.
// Claims load before details so every detail can resolve its claim.
func Run(ctx context.Context, st store.Store, log zerolog.Logger, opts Options) (*model.ImportSummary, error) {
	totalStart := time.Now()

	// Phase 1: Preflight. Missing input paths are fatal before any
	// processing or mutation happens.
	for _, path := range []string{opts.ClaimsFile, opts.DetailsFile} {
		if _, err := os.Stat(path); err != nil {
			return nil, &PipelineError{Phase: "preflight", Err: err}
		}
	}

	mode := "append"
	if opts.Clear {
		mode = "overwrite"
	}
	run := &model.ImportRun{
		RunID:       uuid.NewString(),
		Mode:        mode,
		ClaimsFile:  opts.ClaimsFile,
		DetailsFile: opts.DetailsFile,
	}
	if err := st.CreateImportRun(ctx, run); err != nil {
		return nil, &PipelineError{Phase: "preflight", Err: err}
	}

	fail := func(phase string, err error) (*model.ImportSummary, error) {
		run.Status = "failed"
		if ferr := st.FinishImportRun(ctx, run); ferr != nil {
			log.Warn().Err(ferr).Msg("could not record failed import run")
		}
		return nil, &PipelineError{Phase: phase, Err: err}
	}

	// Phase 2: Validate. Structural errors block the load entirely.
	log.Info().
		Str("claims_file", opts.ClaimsFile).
		Str("details_file", opts.DetailsFile).
		Str("run_id", run.RunID).
		Msg("starting validation")
	if errs := claimcsv.Validate(opts.ClaimsFile, opts.DetailsFile); len(errs) > 0 {
		return fail("validate", &ValidationFailed{Errors: errs})
	}

	loader := NewLoader(st, log)

	// Phase 3: optional clear. Failure here is fatal and reported
	// verbatim; a non-atomic partial clear would leave the store
	// inconsistent, which is why ClearAll runs in one transaction.
	if opts.Clear {
		log.Info().Msg("clearing existing data")
		if err := loader.ClearAll(ctx); err != nil {
			return fail("clear", err)
		}
	}

	// Phase 4: claims.
	log.Info().Msg("starting claims load")
	claimsStart := time.Now()
	claimsFile, err := os.Open(opts.ClaimsFile)
	if err != nil {
		return fail("claims", err)
	}
	claimsRes, err := loader.LoadClaims(ctx, claimsFile)
	claimsFile.Close()
	if err != nil {
		return fail("claims", err)
	}
	claimsDur := time.Since(claimsStart)

	// Phase 5: details.
	log.Info().Msg("starting details load")
	detailsStart := time.Now()
	detailsFile, err := os.Open(opts.DetailsFile)
	if err != nil {
		return fail("details", err)
	}
	detailsRes, err := loader.LoadDetails(ctx, detailsFile)
	detailsFile.Close()
	if err != nil {
		return fail("details", err)
	}
	detailsDur := time.Since(detailsStart)

	// Phase 6: finalize the run ledger.
	run.ClaimsLoaded = claimsRes.Loaded
	run.ClaimsSkipped = claimsRes.Skipped
	run.DetailsLoaded = detailsRes.Loaded
	run.DetailsSkipped = detailsRes.Skipped
	run.OrphansSkipped = detailsRes.Orphans
	run.Status = "completed"
	if err := st.FinishImportRun(ctx, run); err != nil {
		return nil, &PipelineError{Phase: "finalize", Err: err}
	}

	summary := &model.ImportSummary{
		RunID:           run.RunID,
		ClaimsFile:      opts.ClaimsFile,
		DetailsFile:     opts.DetailsFile,
		Cleared:         opts.Clear,
		ClaimsLoaded:    claimsRes.Loaded,
		ClaimsSkipped:   claimsRes.Skipped,
		DetailsLoaded:   detailsRes.Loaded,
		DetailsSkipped:  detailsRes.Skipped,
		OrphansSkipped:  detailsRes.Orphans,
		DurationClaims:  claimsDur,
		DurationDetails: detailsDur,
		DurationTotal:   time.Since(totalStart),
	}

	log.Info().
		Int64("claims_loaded", summary.ClaimsLoaded).
		Int64("claims_skipped", summary.ClaimsSkipped).
		Int64("details_loaded", summary.DetailsLoaded).
		Int64("details_skipped", summary.DetailsSkipped).
		Int64("orphans_skipped", summary.OrphansSkipped).
		Str("total_duration", summary.DurationTotal.String()).
		Msg("import pipeline complete")

	return summary, nil
}
