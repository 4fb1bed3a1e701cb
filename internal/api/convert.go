package api

import (
	"encoding/json"
	"time"

	"orrery/internal/catalog"
	"orrery/internal/engine"
	"orrery/internal/scheduler"
	"orrery/internal/taxonomy"
)

const dateTimeFormat = time.RFC3339

// FromCandidate converts a stored candidate into its wire form.
func FromCandidate(candidate *catalog.Candidate) Candidate {
	view := Candidate{
		ID:                     candidate.ID,
		Identity:               candidate.Identity,
		Status:                 string(candidate.Status),
		AssignedName:           candidate.AssignedName,
		ClassifiedByAutomation: candidate.ClassifiedByAutomation,
		Verdict:                candidate.Verdict,
		Source:                 candidate.Source,
	}
	if candidate.Status == catalog.StatusConfirmed {
		if category := taxonomy.CategorizeCandidate(candidate); category != taxonomy.CategoryUnknown {
			view.Category = string(category)
		}
	}
	if candidate.FieldsJSON != "" && json.Valid([]byte(candidate.FieldsJSON)) {
		view.Fields = json.RawMessage(candidate.FieldsJSON)
	}
	if !candidate.SyncedAt.IsZero() {
		view.SyncedAt = candidate.SyncedAt.UTC().Format(dateTimeFormat)
	}
	if !candidate.CreatedAt.IsZero() {
		view.CreatedAt = candidate.CreatedAt.UTC().Format(dateTimeFormat)
	}
	return view
}

// FromCandidates converts a candidate slice, preserving order.
func FromCandidates(candidates []*catalog.Candidate) []Candidate {
	views := make([]Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		views = append(views, FromCandidate(candidate))
	}
	return views
}

// FromPass converts a pass record into its wire form.
func FromPass(record *catalog.PassRecord) Pass {
	return Pass{
		ID:              record.ID,
		StartedAt:       record.StartedAt.UTC().Format(dateTimeFormat),
		FinishedAt:      record.FinishedAt.UTC().Format(dateTimeFormat),
		DurationSeconds: record.Duration().Seconds(),
		Success:         record.Success,
		Message:         record.Message,
		Counts:          record.Counts,
		Details:         record.Details,
	}
}

// FromPasses converts a pass slice, preserving order.
func FromPasses(records []*catalog.PassRecord) []Pass {
	views := make([]Pass, 0, len(records))
	for _, record := range records {
		views = append(views, FromPass(record))
	}
	return views
}

// FromSchedulerStatus converts the scheduler state into its wire form.
func FromSchedulerStatus(status scheduler.Status) SchedulerStatus {
	view := SchedulerStatus{
		Active:   status.Active,
		Pattern:  status.Pattern,
		Timezone: status.Timezone,
	}
	if status.LastRunAt != nil {
		view.LastRunAt = status.LastRunAt.UTC().Format(dateTimeFormat)
	}
	if status.NextRunAt != nil {
		view.NextRunAt = status.NextRunAt.UTC().Format(dateTimeFormat)
	}
	return view
}

// FromStats converts engine statistics into their wire form.
func FromStats(stats *engine.Stats) StatsResponse {
	response := StatsResponse{
		Candidates: make(map[string]int, len(stats.Candidates)),
		Passes: PassTotals{
			Total:      stats.Passes.Total,
			Succeeded:  stats.Passes.Succeeded,
			Failed:     stats.Passes.Failed,
			Fetched:    stats.Passes.Fetched,
			New:        stats.Passes.New,
			Confirmed:  stats.Passes.Confirmed,
			Dispatched: stats.Passes.Dispatched,
			Errors:     stats.Passes.Errors,
			LastPassID: stats.Passes.LastPassID,
		},
	}
	for status, count := range stats.Candidates {
		response.Candidates[string(status)] = count
	}
	return response
}
