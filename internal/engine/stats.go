package engine

import (
	"context"
	"fmt"

	"orrery/internal/catalog"
)

// PassStats aggregates counters over recent pass records.
type PassStats struct {
	Total      int    `json:"total"`
	Succeeded  int    `json:"succeeded"`
	Failed     int    `json:"failed"`
	Fetched    int    `json:"fetched"`
	New        int    `json:"new"`
	Confirmed  int    `json:"confirmed"`
	Dispatched int    `json:"dispatched"`
	Errors     int    `json:"errors"`
	LastPassID string `json:"last_pass_id,omitempty"`
}

// Stats combines store-wide candidate counts with recent pass aggregates.
type Stats struct {
	Candidates map[catalog.Status]int `json:"candidates"`
	Passes     PassStats              `json:"passes"`
}

// Stats aggregates candidate counts and the counters of up to recentLimit
// recent passes (non-positive means all).
func (e *Engine) Stats(ctx context.Context, recentLimit int) (*Stats, error) {
	candidates, err := e.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("candidate stats: %w", err)
	}

	passes, err := e.store.RecentPasses(ctx, recentLimit)
	if err != nil {
		return nil, fmt.Errorf("recent passes: %w", err)
	}

	stats := &Stats{Candidates: candidates}
	for i, pass := range passes {
		if i == 0 {
			stats.Passes.LastPassID = pass.ID
		}
		stats.Passes.Total++
		if pass.Success {
			stats.Passes.Succeeded++
		} else {
			stats.Passes.Failed++
		}
		stats.Passes.Fetched += pass.Counts.Fetched
		stats.Passes.New += pass.Counts.New
		stats.Passes.Confirmed += pass.Counts.Confirmed
		stats.Passes.Dispatched += pass.Counts.Dispatched
		stats.Passes.Errors += pass.Counts.Errors
	}
	return stats, nil
}
