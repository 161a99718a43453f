package domain

import "time"

// LookupOutcome tells whether a tracking lookup produced a result.
type LookupOutcome string

const (
	LookupOK     LookupOutcome = "ok"
	LookupFailed LookupOutcome = "error"
)

// LookupRecord is the audit entry written for every tracking lookup.
type LookupRecord struct {
	ID            string
	SkybillNumber string
	Method        string // empty when no remote operation could be resolved
	Outcome       LookupOutcome
	Status        string
	StatusCode    string
	EventCount    int
	Duration      time.Duration
	Error         string
	RequestedAt   time.Time
}
