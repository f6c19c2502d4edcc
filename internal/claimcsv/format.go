// Package claimcsv implements the pipe-delimited claim exchange format:
// pre-flight structural validation, streaming record reading, and the
// field mappings between raw text and typed domain values.
//
// The format is UTF-8 text, one header line then data lines, fields
// separated by "|" with no quoting or escaping. Values containing the
// delimiter are unsupported.
package claimcsv

// Delimiter separates fields in the exchange format.
const Delimiter = "|"

// ClaimsHeader is the required header sequence of the claims file.
var ClaimsHeader = []string{
	"id",
	"patient_name",
	"billed_amount",
	"paid_amount",
	"status",
	"insurer_name",
	"discharge_date",
}

// DetailsHeader is the required header sequence of the details file.
var DetailsHeader = []string{
	"id",
	"claim_id",
	"denial_reason",
	"cpt_codes",
}
