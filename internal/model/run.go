package model

import "time"

// RunStatus represents the current state of a matching run.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusSearching RunStatus = "searching"
	RunStatusMatching  RunStatus = "matching"
	RunStatusCleaning  RunStatus = "cleaning"
	RunStatusComplete  RunStatus = "complete"
	RunStatusFailed    RunStatus = "failed"
)

// Terminal reports whether no further transitions are expected.
func (s RunStatus) Terminal() bool {
	return s == RunStatusComplete || s == RunStatusFailed
}

// RunSummary reports the outcome of a completed run.
type RunSummary struct {
	CatalogRows      int           `json:"catalog_rows"`
	CandidateRecords int           `json:"candidate_records"`
	Matched          int           `json:"matched"`
	RetriedTerms     int           `json:"retried_terms"`
	Unmatched        []string      `json:"unmatched,omitempty"`
	IntermediatePath string        `json:"intermediate_path,omitempty"`
	FinalPath        string        `json:"final_path,omitempty"`
	Duration         time.Duration `json:"duration_ns"`
}

// Run is one catalog submission tracked by the server.
type Run struct {
	ID        string      `json:"id"`
	Filename  string      `json:"filename"`
	Status    RunStatus   `json:"status"`
	Error     string      `json:"error,omitempty"`
	Summary   *RunSummary `json:"summary,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
