// Package export serializes stored claims and details back to the
// pipe-delimited exchange format, as the round-trip partner of the
// importer. Lines are produced lazily from a store cursor; nothing is
// materialized, so unbounded record counts stream in constant memory.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gyeh/claimstats/internal/claimcsv"
	"github.com/gyeh/claimstats/internal/model"
)

// LineStream is a finite, forward-only sequence of exchange-format
// lines: the header first, then one line per record. Each call to the
// package constructors re-reads from the store; a stream itself is not
// restartable. Close must be called on every path.
type LineStream struct {
	header     string
	sentHeader bool
	next       func() (string, bool)
	errFn      func() error
	closeFn    func()
	line       string
}

// Next advances to the next line. Returns false at end of data or on a
// cursor error (see Err).
func (s *LineStream) Next() bool {
	if !s.sentHeader {
		s.sentHeader = true
		s.line = s.header
		return true
	}
	line, ok := s.next()
	if !ok {
		return false
	}
	s.line = line
	return true
}

// Line returns the current line, without a trailing newline.
func (s *LineStream) Line() string { return s.line }

// Err returns the first cursor error encountered, if any.
func (s *LineStream) Err() error { return s.errFn() }

// Close releases the underlying cursor.
func (s *LineStream) Close() { s.closeFn() }

// WriteTo streams every remaining line to w, newline-terminated, and
// closes the stream.
func (s *LineStream) WriteTo(w io.Writer) (int64, error) {
	defer s.Close()
	bw := bufio.NewWriter(w)
	var written int64
	for s.Next() {
		n, err := bw.WriteString(s.line)
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("write export line: %w", err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return written, fmt.Errorf("write export line: %w", err)
		}
		written++
	}
	if err := s.Err(); err != nil {
		return written, fmt.Errorf("read export rows: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return written, fmt.Errorf("flush export: %w", err)
	}
	return written, nil
}

// ClaimLine renders one claim in exchange-format field order, with the
// status rendered as its human label so the file re-imports cleanly.
func ClaimLine(c model.Claim) string {
	return strings.Join([]string{
		strconv.FormatInt(c.ID, 10),
		c.PatientName,
		c.BilledAmount.StringFixed(2),
		c.PaidAmount.StringFixed(2),
		c.Status.Label(),
		c.InsurerName,
		c.DischargeDate.Format("2006-01-02"),
	}, claimcsv.Delimiter)
}

// DetailLine renders one claim detail. Details are keyed by claim id in
// the store, so the claim id fills both the id and claim_id columns. A
// nil denial reason comes back as the "N/A" sentinel.
func DetailLine(d model.ClaimDetail) string {
	id := strconv.FormatInt(d.ClaimID, 10)
	return strings.Join([]string{
		id,
		id,
		claimcsv.DenialReasonField(d.DenialReason),
		d.CPTCodes,
	}, claimcsv.Delimiter)
}

// claimSource is the minimal cursor surface Claims needs.
type claimSource interface {
	Next() bool
	Claim() model.Claim
	Err() error
	Close()
}

// detailSource is the minimal cursor surface Details needs.
type detailSource interface {
	Next() bool
	Detail() model.ClaimDetail
	Err() error
	Close()
}

// Claims wraps a claim cursor into an exchange-format line stream.
func Claims(cur claimSource) *LineStream {
	return &LineStream{
		header: strings.Join(claimcsv.ClaimsHeader, claimcsv.Delimiter),
		next: func() (string, bool) {
			if !cur.Next() {
				return "", false
			}
			return ClaimLine(cur.Claim()), true
		},
		errFn:   cur.Err,
		closeFn: cur.Close,
	}
}

// Details wraps a detail cursor into an exchange-format line stream.
func Details(cur detailSource) *LineStream {
	return &LineStream{
		header: strings.Join(claimcsv.DetailsHeader, claimcsv.Delimiter),
		next: func() (string, bool) {
			if !cur.Next() {
				return "", false
			}
			return DetailLine(cur.Detail()), true
		},
		errFn:   cur.Err,
		closeFn: cur.Close,
	}
}
