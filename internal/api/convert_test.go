package api_test

import (
	"testing"
	"time"

	"orrery/internal/api"
	"orrery/internal/catalog"
	"orrery/internal/scheduler"
)

func TestFromCandidateIncludesCategoryForConfirmed(t *testing.T) {
	candidate := &catalog.Candidate{
		ID:           7,
		Identity:     "K00007.01",
		Status:       catalog.StatusConfirmed,
		AssignedName: "ORR-7 b",
		FieldsJSON:   `{"planet_radius":13.0,"orbital_period":4.9,"equilibrium_temp":1540}`,
		SyncedAt:     time.Date(2026, 8, 1, 3, 0, 0, 0, time.UTC),
	}

	view := api.FromCandidate(candidate)
	if view.Identity != "K00007.01" || view.Status != "confirmed" {
		t.Fatalf("unexpected view: %+v", view)
	}
	if view.Category != "hot-jupiter" {
		t.Fatalf("expected category, got %q", view.Category)
	}
	if len(view.Fields) == 0 {
		t.Fatal("expected fields passthrough")
	}
	if view.SyncedAt == "" {
		t.Fatal("expected synced timestamp")
	}
}

func TestFromCandidateOmitsCategoryForUndecided(t *testing.T) {
	view := api.FromCandidate(&catalog.Candidate{
		Identity:   "K00008.01",
		Status:     catalog.StatusCandidate,
		FieldsJSON: `{"planet_radius":13.0}`,
	})
	if view.Category != "" {
		t.Fatalf("category only applies to confirmed records, got %q", view.Category)
	}
}

func TestFromPassComputesDuration(t *testing.T) {
	started := time.Date(2026, 8, 1, 3, 0, 0, 0, time.UTC)
	view := api.FromPass(&catalog.PassRecord{
		ID:         "pass-1",
		StartedAt:  started,
		FinishedAt: started.Add(90 * time.Second),
		Success:    true,
		Counts:     catalog.PassCounts{Fetched: 10},
	})
	if view.DurationSeconds != 90 {
		t.Fatalf("unexpected duration: %v", view.DurationSeconds)
	}
	if view.Counts.Fetched != 10 {
		t.Fatalf("unexpected counts: %+v", view.Counts)
	}
}

func TestFromSchedulerStatus(t *testing.T) {
	next := time.Date(2026, 8, 2, 3, 0, 0, 0, time.UTC)
	view := api.FromSchedulerStatus(scheduler.Status{
		Active:    true,
		Pattern:   "0 3 * * *",
		Timezone:  "UTC",
		NextRunAt: &next,
	})
	if !view.Active || view.NextRunAt == "" || view.LastRunAt != "" {
		t.Fatalf("unexpected view: %+v", view)
	}
}
