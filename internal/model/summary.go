package model

import "time"

// ImportSummary captures metrics from a single import run.
type ImportSummary struct {
	RunID       string
	ClaimsFile  string
	DetailsFile string
	Cleared     bool

	ClaimsLoaded   int64
	ClaimsSkipped  int64
	DetailsLoaded  int64
	DetailsSkipped int64
	OrphansSkipped int64

	DurationClaims  time.Duration
	DurationDetails time.Duration
	DurationTotal   time.Duration
}

// ImportRun is the persisted audit record for one import invocation.
// Status moves pending → running → completed or failed.
type ImportRun struct {
	RunID          string
	Mode           string // "append" or "overwrite"
	ClaimsFile     string
	DetailsFile    string
	ClaimsLoaded   int64
	ClaimsSkipped  int64
	DetailsLoaded  int64
	DetailsSkipped int64
	OrphansSkipped int64
	Status         string
	StartedAt      time.Time
	FinishedAt     *time.Time
}
