package model

// Status is the internal claim status token stored in the database.
type Status string

// Claim statuses in canonical order.
const (
	StatusPending    Status = "pending"
	StatusApproved   Status = "approved"
	StatusDenied     Status = "denied"
	StatusProcessing Status = "processing"
	StatusReview     Status = "review"
)

// AllStatuses lists every claim status in canonical order.
var AllStatuses = []Status{
	StatusPending,
	StatusApproved,
	StatusDenied,
	StatusProcessing,
	StatusReview,
}

// labelToStatus maps exchange-format human labels to internal tokens.
var labelToStatus = map[string]Status{
	"Paid":         StatusApproved,
	"Denied":       StatusDenied,
	"Under Review": StatusReview,
	"Processing":   StatusProcessing,
	"Pending":      StatusPending,
}

// statusToLabel is the inverse mapping, used on export.
var statusToLabel = map[Status]string{
	StatusApproved:   "Paid",
	StatusDenied:     "Denied",
	StatusReview:     "Under Review",
	StatusProcessing: "Processing",
	StatusPending:    "Pending",
}

// StatusFromLabel maps an exchange-format label to its internal status.
// Unrecognized labels map to StatusPending rather than failing; whether
// that should instead reject the row is an open question in the source
// format, so the permissive behavior is kept.
func StatusFromLabel(raw string) Status {
	if s, ok := labelToStatus[raw]; ok {
		return s
	}
	return StatusPending
}

// Label returns the exchange-format human label for s.
func (s Status) Label() string {
	if l, ok := statusToLabel[s]; ok {
		return l
	}
	return statusToLabel[StatusPending]
}

// Valid reports whether s is one of the defined status tokens.
func (s Status) Valid() bool {
	_, ok := statusToLabel[s]
	return ok
}
