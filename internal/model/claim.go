package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Claim is one insurance claim row. The id is externally supplied and
// globally unique. Amounts are exact decimals with two places; binary
// floating point is never used on amount paths.
type Claim struct {
	ID            int64
	PatientName   string
	BilledAmount  decimal.Decimal
	PaidAmount    decimal.Decimal
	Status        Status
	InsurerName   string
	DischargeDate time.Time
	IsFlagged     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CreatedBy     *string
	UpdatedBy     *string
}

// ClaimDetail is the one-to-one detail record for a claim. CPT codes are
// stored as the raw comma-separated text; DenialReason is nil when the
// exchange format carried the "N/A" sentinel.
type ClaimDetail struct {
	ClaimID      int64
	CPTCodes     string
	DenialReason *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CPTCodeList returns the CPT codes as a trimmed list. Storage keeps the
// raw text; this is read-side presentation only.
func (d *ClaimDetail) CPTCodeList() []string {
	if strings.TrimSpace(d.CPTCodes) == "" {
		return nil
	}
	parts := strings.Split(d.CPTCodes, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

// ClaimNote is an append-only user annotation on a claim.
type ClaimNote struct {
	ID        int64
	ClaimID   int64
	Content   string
	CreatedBy string
	CreatedAt time.Time
}

// ClaimFlag records one flagging event on a claim, with resolution state.
type ClaimFlag struct {
	ID          int64
	ClaimID     int64
	Reason      string
	Description *string
	IsResolved  bool
	FlaggedBy   *string
	ResolvedBy  *string
	CreatedAt   time.Time
	ResolvedAt  *time.Time
}
