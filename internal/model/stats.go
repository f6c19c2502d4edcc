package model

import "github.com/shopspring/decimal"

// InsurerStats is one row of the top-insurers breakdown.
type InsurerStats struct {
	InsurerName string
	ClaimCount  int64
	TotalBilled decimal.Decimal
	TotalPaid   decimal.Decimal
}

// MonthStats aggregates claims created in one calendar month (YYYY-MM).
type MonthStats struct {
	Month       string
	ClaimCount  int64
	TotalBilled decimal.Decimal
	TotalPaid   decimal.Decimal
}

// DenialStats summarizes denied-status claims.
type DenialStats struct {
	Count       int64
	TotalAmount decimal.Decimal
}

// DenialReasonCount is one row of the top denial reasons breakdown,
// restricted to details joined against denied claims.
type DenialReasonCount struct {
	Reason string
	Count  int64
}

// DashboardStats is the full read-only dashboard summary. On an empty
// store every count and sum is zero and every slice is empty; no field
// is ever left as a null aggregate.
type DashboardStats struct {
	TotalClaims   int64
	FlaggedClaims int64

	TotalBilled decimal.Decimal
	TotalPaid   decimal.Decimal
	AvgBilled   decimal.Decimal
	AvgPaid     decimal.Decimal

	// TotalUnderpayment = TotalBilled - TotalPaid.
	// AvgUnderpayment = AvgBilled - AvgPaid (difference of the two
	// averages, not an average of per-claim differences).
	TotalUnderpayment decimal.Decimal
	AvgUnderpayment   decimal.Decimal

	// UnderpaidClaims counts claims with billed > 2 * paid (strict).
	UnderpaidClaims int64

	// StatusCounts has an entry for every defined status, zero included.
	StatusCounts map[Status]int64

	// TopInsurers is ordered by claim count descending, at most five
	// rows. Tie order between equal counts is unspecified.
	TopInsurers []InsurerStats

	RecentClaims []Claim
	RecentNotes  []ClaimNote
	RecentFlags  []ClaimFlag

	// MonthlyStats holds the six most recent creation months, descending.
	MonthlyStats []MonthStats

	DenialStats      DenialStats
	TopDenialReasons []DenialReasonCount
}
