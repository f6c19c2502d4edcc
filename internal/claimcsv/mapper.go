package claimcsv

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gyeh/claimstats/internal/model"
)

// dischargeDateLayout is the only accepted date format in the exchange files.
const dischargeDateLayout = "2006-01-02"

// DenialSentinel is the exchange-format stand-in for an absent denial reason.
const DenialSentinel = "N/A"

var errNonCanonicalDate = errors.New("date is not in YYYY-MM-DD form")

// MapStatus converts an exchange-format status label to the internal
// status token. Total: unrecognized labels map to pending.
func MapStatus(raw string) model.Status {
	return model.StatusFromLabel(raw)
}

// ParseDischargeDate parses a strict YYYY-MM-DD date. time.Parse
// tolerates missing leading zeros, so the canonical form is enforced by
// re-rendering the parsed value.
func ParseDischargeDate(raw string) (time.Time, error) {
	t, err := time.Parse(dischargeDateLayout, raw)
	if err != nil {
		return time.Time{}, &RowFormatError{Field: "discharge_date", Raw: raw, Err: err}
	}
	if t.Format(dischargeDateLayout) != raw {
		return time.Time{}, &RowFormatError{Field: "discharge_date", Raw: raw, Err: errNonCanonicalDate}
	}
	return t, nil
}

// ParseAmount parses a base-10 decimal amount. The source does not
// enforce non-negative values, so neither does this.
func ParseAmount(field, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, &RowFormatError{Field: field, Raw: raw, Err: err}
	}
	return d, nil
}

// MapDenialReason normalizes the denial reason: the literal "N/A"
// sentinel becomes nil, everything else (empty string included) passes
// through unchanged.
func MapDenialReason(raw string) *string {
	if raw == DenialSentinel {
		return nil
	}
	return &raw
}

// DenialReasonField renders an internal denial reason back to the
// exchange format, restoring the "N/A" sentinel for nil.
func DenialReasonField(reason *string) string {
	if reason == nil {
		return DenialSentinel
	}
	return *reason
}

// ParseCPTCodes splits a comma-separated CPT code list and trims each
// segment. Read-side presentation only; storage keeps the raw text.
func ParseCPTCodes(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	codes := make([]string, 0, len(parts))
	for _, p := range parts {
		codes = append(codes, strings.TrimSpace(p))
	}
	return codes
}
