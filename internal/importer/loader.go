// Package importer implements the bulk claim import pipeline: pre-flight
// validation, field mapping, and batched insert-or-ignore loading.
package importer

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/gyeh/claimstats/internal/claimcsv"
	"github.com/gyeh/claimstats/internal/model"
	"github.com/gyeh/claimstats/internal/store"
)

// BatchSize is the target number of rows per insert batch.
const BatchSize = 1000

// Loader streams exchange-format rows into the record store.
type Loader struct {
	store     store.Store
	log       zerolog.Logger
	batchSize int
}

// NewLoader creates a Loader with the default batch size.
func NewLoader(st store.Store, log zerolog.Logger) *Loader {
	return &Loader{store: st, log: log, batchSize: BatchSize}
}

// ClaimsResult holds counts from one LoadClaims call. Loaded counts rows
// submitted in batches; duplicates silently dropped by the store still
// count, so Loaded is not a post-insert verification.
type ClaimsResult struct {
	Loaded  int64
	Skipped int64
}

// DetailsResult holds counts from one LoadDetails call.
type DetailsResult struct {
	Loaded  int64
	Skipped int64
	Orphans int64
}

// ClearAll removes every stored detail and claim as one atomic unit.
func (l *Loader) ClearAll(ctx context.Context) error {
	return l.store.ClearAll(ctx)
}

// parseClaimRecord maps one raw record to a Claim. Any missing field or
// unparseable value is a per-row error.
func parseClaimRecord(rec claimcsv.Record) (model.Claim, error) {
	var c model.Claim

	rawID, err := rec.Get("id")
	if err != nil {
		return c, err
	}
	if c.ID, err = strconv.ParseInt(rawID, 10, 64); err != nil {
		return c, &claimcsv.RowFormatError{Field: "id", Raw: rawID, Err: err}
	}

	if c.PatientName, err = rec.Get("patient_name"); err != nil {
		return c, err
	}

	rawBilled, err := rec.Get("billed_amount")
	if err != nil {
		return c, err
	}
	if c.BilledAmount, err = claimcsv.ParseAmount("billed_amount", rawBilled); err != nil {
		return c, err
	}

	rawPaid, err := rec.Get("paid_amount")
	if err != nil {
		return c, err
	}
	if c.PaidAmount, err = claimcsv.ParseAmount("paid_amount", rawPaid); err != nil {
		return c, err
	}

	rawStatus, err := rec.Get("status")
	if err != nil {
		return c, err
	}
	c.Status = claimcsv.MapStatus(rawStatus)

	if c.InsurerName, err = rec.Get("insurer_name"); err != nil {
		return c, err
	}

	rawDate, err := rec.Get("discharge_date")
	if err != nil {
		return c, err
	}
	if c.DischargeDate, err = claimcsv.ParseDischargeDate(rawDate); err != nil {
		return c, err
	}

	return c, nil
}

// LoadClaims streams claim rows from r into the store. Rows that fail
// mapping are skipped with a warning and never abort the load. Valid
// rows accumulate into batches of BatchSize; a trailing partial batch is
// flushed at end of input. Each batch is an independent commit unit.
func (l *Loader) LoadClaims(ctx context.Context, r io.Reader) (*ClaimsResult, error) {
	reader, err := claimcsv.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("load claims: %w", err)
	}

	res := &ClaimsResult{}
	batch := make([]model.Claim, 0, l.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := l.store.BulkInsertClaims(ctx, batch); err != nil {
			return fmt.Errorf("load claims: %w", err)
		}
		res.Loaded += int64(len(batch))
		batch = batch[:0]
		return nil
	}

	for reader.Next() {
		claim, err := parseClaimRecord(reader.Record())
		if err != nil {
			res.Skipped++
			l.log.Warn().Err(err).Int64("row", reader.Row()).Msg("skipping invalid claim row")
			continue
		}
		batch = append(batch, claim)
		if len(batch) >= l.batchSize {
			if err := flush(); err != nil {
				return res, err
			}
			l.log.Info().Int64("loaded", res.Loaded).Msg("claims progress")
		}
	}
	if err := reader.Err(); err != nil {
		return res, fmt.Errorf("load claims: read: %w", err)
	}
	if err := flush(); err != nil {
		return res, err
	}

	l.log.Info().
		Int64("loaded", res.Loaded).
		Int64("skipped", res.Skipped).
		Msg("claims load complete")
	return res, nil
}

// LoadDetails streams detail rows from r into the store. The stored
// claim-id set is snapshotted once up front; rows referencing unknown
// claims are dropped as orphans with a warning, never an error. Callers
// must run LoadClaims first in any append workflow.
func (l *Loader) LoadDetails(ctx context.Context, r io.Reader) (*DetailsResult, error) {
	reader, err := claimcsv.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("load details: %w", err)
	}

	ids, err := l.store.ClaimIDSet(ctx)
	if err != nil {
		return nil, fmt.Errorf("load details: %w", err)
	}

	res := &DetailsResult{}
	batch := make([]model.ClaimDetail, 0, l.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := l.store.BulkInsertDetails(ctx, batch); err != nil {
			return fmt.Errorf("load details: %w", err)
		}
		res.Loaded += int64(len(batch))
		batch = batch[:0]
		return nil
	}

	for reader.Next() {
		rec := reader.Record()

		rawID, err := rec.Get("claim_id")
		if err != nil {
			res.Skipped++
			l.log.Warn().Err(err).Int64("row", reader.Row()).Msg("skipping invalid detail row")
			continue
		}
		claimID, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			res.Skipped++
			l.log.Warn().Err(err).Int64("row", reader.Row()).Msg("skipping invalid detail row")
			continue
		}
		if _, ok := ids[claimID]; !ok {
			res.Orphans++
			l.log.Warn().Int64("claim_id", claimID).Int64("row", reader.Row()).Msg("claim not found for detail row")
			continue
		}

		rawReason, err := rec.Get("denial_reason")
		if err != nil {
			res.Skipped++
			l.log.Warn().Err(err).Int64("row", reader.Row()).Msg("skipping invalid detail row")
			continue
		}
		cptCodes, err := rec.Get("cpt_codes")
		if err != nil {
			res.Skipped++
			l.log.Warn().Err(err).Int64("row", reader.Row()).Msg("skipping invalid detail row")
			continue
		}

		batch = append(batch, model.ClaimDetail{
			ClaimID:      claimID,
			CPTCodes:     cptCodes,
			DenialReason: claimcsv.MapDenialReason(rawReason),
		})
		if len(batch) >= l.batchSize {
			if err := flush(); err != nil {
				return res, err
			}
			l.log.Info().Int64("loaded", res.Loaded).Msg("details progress")
		}
	}
	if err := reader.Err(); err != nil {
		return res, fmt.Errorf("load details: read: %w", err)
	}
	if err := flush(); err != nil {
		return res, err
	}

	l.log.Info().
		Int64("loaded", res.Loaded).
		Int64("skipped", res.Skipped).
		Int64("orphans", res.Orphans).
		Msg("details load complete")
	return res, nil
}
