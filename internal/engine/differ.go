package engine

import (
	"context"
	"fmt"
	"log/slog"

	"orrery/internal/archive"
	"orrery/internal/catalog"
	"orrery/internal/logging"
)

// Diff is the result of comparing the remote snapshot against local state.
type Diff struct {
	// Fetched is the total number of rows in the remote snapshot.
	Fetched int
	// New holds the rows absent from the local store, in remote order.
	New []archive.Row
}

// Differ finds remote rows that have not been persisted yet.
type Differ struct {
	source archive.Source
	store  *catalog.Store
	logger *slog.Logger
}

// NewDiffer creates a differ over the given archive source and local store.
func NewDiffer(source archive.Source, store *catalog.Store, logger *slog.Logger) *Differ {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Differ{
		source: source,
		store:  store,
		logger: logging.WithComponent(logger, "differ"),
	}
}

// ComputeNewRecords fetches the remote identity+disposition projection and
// returns the entries whose identity is absent locally. Any fetch or query
// failure aborts with no partial result; a truncated snapshot must never be
// mistaken for a smaller catalog.
func (d *Differ) ComputeNewRecords(ctx context.Context) (*Diff, error) {
	rows, err := d.source.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: snapshot: %w", ErrFetch, err)
	}

	known, err := d.store.Identities(ctx)
	if err != nil {
		return nil, fmt.Errorf("load local identities: %w", err)
	}

	diff := &Diff{Fetched: len(rows)}
	for _, row := range rows {
		if _, exists := known[row.Identity]; exists {
			continue
		}
		diff.New = append(diff.New, row)
	}

	d.logger.Info("diff computed",
		logging.Int("fetched", diff.Fetched),
		logging.Int("known", len(known)),
		logging.Int("new", len(diff.New)))
	return diff, nil
}
