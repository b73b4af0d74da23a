package models

import "time"

const (
	StateIdle     = "idle"
	StateFetching = "fetching"
	StateSuccess  = "success"
	StateError    = "error"
)

// FetchStatus is the outcome of the most recent fetch cycle. LastFetch is
// the timestamp of the last successful run and survives failed runs.
type FetchStatus struct {
	State       string     `json:"state"`
	LastFetch   *time.Time `json:"last_fetch"`
	PapersFound int        `json:"papers_found"`
	NewPapers   int        `json:"new_papers"`
	Message     string     `json:"message,omitempty"`
}
