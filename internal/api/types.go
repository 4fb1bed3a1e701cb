package api

import (
	"encoding/json"

	"orrery/internal/catalog"
)

// Candidate describes a catalog record in a transport-friendly format.
type Candidate struct {
	ID                     int64            `json:"id"`
	Identity               string           `json:"identity"`
	Status                 string           `json:"status"`
	AssignedName           string           `json:"assignedName,omitempty"`
	Category               string           `json:"category,omitempty"`
	ClassifiedByAutomation bool             `json:"classifiedByAutomation"`
	Verdict                *catalog.Verdict `json:"verdict,omitempty"`
	Fields                 json.RawMessage  `json:"fields,omitempty"`
	Source                 string           `json:"source,omitempty"`
	SyncedAt               string           `json:"syncedAt,omitempty"`
	CreatedAt              string           `json:"createdAt,omitempty"`
}

// CandidateListResponse wraps a candidate listing.
type CandidateListResponse struct {
	Candidates []Candidate `json:"candidates"`
}

// CandidateResponse wraps a single candidate.
type CandidateResponse struct {
	Candidate Candidate `json:"candidate"`
}

// Pass describes one synchronization pass.
type Pass struct {
	ID              string              `json:"id"`
	StartedAt       string              `json:"startedAt"`
	FinishedAt      string              `json:"finishedAt"`
	DurationSeconds float64             `json:"durationSeconds"`
	Success         bool                `json:"success"`
	Message         string              `json:"message,omitempty"`
	Counts          catalog.PassCounts  `json:"counts"`
	Details         []catalog.PassError `json:"details,omitempty"`
}

// PassListResponse wraps the pass history.
type PassListResponse struct {
	Passes []Pass `json:"passes"`
}

// SyncResponse is returned by a manual sync trigger.
type SyncResponse struct {
	Pass Pass `json:"pass"`
}

// SchedulerStatus mirrors the scheduler state over the wire.
type SchedulerStatus struct {
	Active    bool   `json:"active"`
	Pattern   string `json:"pattern"`
	Timezone  string `json:"timezone"`
	LastRunAt string `json:"lastRunAt,omitempty"`
	NextRunAt string `json:"nextRunAt,omitempty"`
}

// StatusResponse summarizes daemon runtime state.
type StatusResponse struct {
	Running      bool            `json:"running"`
	PassRunning  bool            `json:"passRunning"`
	Scheduler    SchedulerStatus `json:"scheduler"`
	DatabasePath string          `json:"databasePath,omitempty"`
	LastPass     *Pass           `json:"lastPass,omitempty"`
}

// PassTotals aggregates counters over recent passes.
type PassTotals struct {
	Total      int    `json:"total"`
	Succeeded  int    `json:"succeeded"`
	Failed     int    `json:"failed"`
	Fetched    int    `json:"fetched"`
	New        int    `json:"new"`
	Confirmed  int    `json:"confirmed"`
	Dispatched int    `json:"dispatched"`
	Errors     int    `json:"errors"`
	LastPassID string `json:"lastPassId,omitempty"`
}

// StatsResponse combines store-wide counts with pass aggregates.
type StatsResponse struct {
	Candidates map[string]int `json:"candidates"`
	Passes     PassTotals     `json:"passes"`
}

// ConfigureRequest carries a new scheduler pattern and timezone.
type ConfigureRequest struct {
	Pattern  string `json:"pattern"`
	Timezone string `json:"timezone"`
}

// AssistantRequest asks a question about one record.
type AssistantRequest struct {
	Identity string `json:"identity"`
	Question string `json:"question"`
}

// AssistantResponse carries the assistant's answer.
type AssistantResponse struct {
	Answer string `json:"answer"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}
