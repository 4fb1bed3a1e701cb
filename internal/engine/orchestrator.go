package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"orrery/internal/archive"
	"orrery/internal/catalog"
	"orrery/internal/classifier"
	"orrery/internal/logging"
	"orrery/internal/naming"
)

// Gateway is the classification call the engine dispatches undecided rows
// through.
type Gateway interface {
	Classify(ctx context.Context, identity string) classifier.Result
}

// Engine drives synchronization passes: diff the remote catalog against local
// state, dispatch each new row, persist the results, and append a pass record.
type Engine struct {
	store     *catalog.Store
	source    archive.Source
	gateway   Gateway
	allocator *naming.Allocator
	differ    *Differ
	sourceTag string
	logger    *slog.Logger

	mu      sync.Mutex
	running bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a logger to the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logging.WithComponent(logger, "engine")
			e.differ = NewDiffer(e.source, e.store, logger)
		}
	}
}

// New creates a synchronization engine. A nil gateway disables classification
// dispatch; undecided rows are then left for future passes.
func New(store *catalog.Store, source archive.Source, gateway Gateway, allocator *naming.Allocator, sourceTag string, opts ...Option) *Engine {
	engine := &Engine{
		store:     store,
		source:    source,
		gateway:   gateway,
		allocator: allocator,
		differ:    NewDiffer(source, store, nil),
		sourceTag: sourceTag,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Running reports whether a pass is currently executing.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

func (e *Engine) tryAcquire() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return false
	}
	e.running = true
	return true
}

func (e *Engine) release() {
	e.mu.Lock()
	e.running = false
	e.mu.Unlock()
}

// RunPass executes one full synchronization pass. At most one pass runs at a
// time; a second caller gets ErrPassInProgress immediately rather than being
// queued. The returned error is non-nil only for pass-fatal failures (the
// diff or a full-record fetch); per-record classification failures are
// reported through the pass record instead.
func (e *Engine) RunPass(ctx context.Context) (*catalog.PassRecord, error) {
	if !e.tryAcquire() {
		return nil, ErrPassInProgress
	}
	defer e.release()

	pass := &catalog.PassRecord{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	e.logger.Info("pass started", logging.String(logging.FieldPassID, pass.ID))

	diff, err := e.differ.ComputeNewRecords(ctx)
	if err != nil {
		return pass, e.finishFailed(ctx, pass, err)
	}
	pass.Counts.Fetched = diff.Fetched
	pass.Counts.New = len(diff.New)

	// Sequential on purpose: one in-flight classifier call at a time, and
	// name allocation stays race-free without record locks.
	for _, row := range diff.New {
		outcome, err := e.process(ctx, row)
		if err != nil {
			return pass, e.finishFailed(ctx, pass, err)
		}
		e.apply(ctx, pass, outcome)
	}

	pass.Success = true
	pass.FinishedAt = time.Now().UTC()
	if err := e.store.AppendPass(ctx, pass); err != nil {
		e.logger.Error("append pass record", logging.Error(err))
	}
	e.logger.Info("pass complete",
		logging.String(logging.FieldPassID, pass.ID),
		logging.Int("fetched", pass.Counts.Fetched),
		logging.Int("new", pass.Counts.New),
		logging.Int("confirmed", pass.Counts.Confirmed),
		logging.Int("errors", pass.Counts.Errors),
		logging.Duration("duration", pass.Duration()))
	return pass, nil
}

// process turns one new remote row into an outcome. The only errors returned
// are pass-fatal full-record fetch failures.
func (e *Engine) process(ctx context.Context, row archive.Row) (outcome, error) {
	status, ok := catalog.ParseDisposition(row.Disposition)
	if !ok {
		return unknownStatusOutcome(row.Identity, row.Disposition), nil
	}

	if status == catalog.StatusCandidate {
		if e.gateway == nil {
			return undispatchedOutcome(row.Identity), nil
		}
		return fromGatewayResult(row.Identity, e.gateway.Classify(ctx, row.Identity)), nil
	}

	record, err := e.source.Fetch(ctx, row.Identity)
	if err != nil {
		return outcome{}, fmt.Errorf("%w: record %s: %w", ErrFetch, row.Identity, err)
	}
	return directOutcome(row.Identity, status, record), nil
}

// apply folds one outcome into the store and the pass counters.
func (e *Engine) apply(ctx context.Context, pass *catalog.PassRecord, out outcome) {
	if out.remote == catalog.StatusCandidate {
		pass.Counts.Candidates++
	}
	if out.dispatched {
		pass.Counts.Dispatched++
	}

	switch out.kind {
	case outcomePersist:
		e.persist(ctx, pass, out)
	case outcomeSkipUnsupported:
		pass.Counts.Unsupported++
		e.logger.Warn("unsupported verdict, record left for a future pass",
			logging.String(logging.FieldIdentity, out.identity),
			logging.String("label", out.reason))
	case outcomeSkipUndispatched:
		e.logger.Debug("classifier disabled, undecided record skipped",
			logging.String(logging.FieldIdentity, out.identity))
	case outcomeFailed:
		e.recordError(pass, out.identity, out.reason)
	case outcomeUnknownStatus:
		e.recordError(pass, out.identity, out.reason)
	}
}

func (e *Engine) persist(ctx context.Context, pass *catalog.PassRecord, out outcome) {
	candidate := &catalog.Candidate{
		Identity:               out.identity,
		Status:                 out.status,
		ClassifiedByAutomation: out.automated,
		Verdict:                out.verdict,
		Source:                 e.sourceTag,
		SyncedAt:               time.Now().UTC(),
	}
	if out.record != nil {
		candidate.FieldsJSON = out.record.Raw
	}

	if out.status == catalog.StatusConfirmed {
		allocation := e.allocator.Allocate(ctx, out.identity)
		candidate.AssignedName = allocation.Name
		if allocation.Fallback {
			e.logger.Warn("fallback designation assigned",
				logging.String(logging.FieldIdentity, out.identity),
				logging.String("name", allocation.Name))
		}
	}

	if _, err := e.store.Insert(ctx, candidate); err != nil {
		e.recordError(pass, out.identity, fmt.Sprintf("persist: %v", err))
		return
	}

	switch out.status {
	case catalog.StatusConfirmed:
		pass.Counts.Confirmed++
		if out.dispatched {
			pass.Counts.GatewayConfirmed++
		}
	case catalog.StatusFalsePositive:
		pass.Counts.FalsePositives++
		if out.dispatched {
			pass.Counts.GatewayFalsePositives++
		}
	}

	e.logger.Info("record persisted",
		logging.String(logging.FieldIdentity, out.identity),
		logging.String("status", string(out.status)),
		logging.String("name", candidate.AssignedName),
		logging.Bool("automated", out.automated))
}

func (e *Engine) recordError(pass *catalog.PassRecord, identity, reason string) {
	pass.Counts.Errors++
	pass.Details = append(pass.Details, catalog.PassError{Identity: identity, Reason: reason})
	e.logger.Error("record failed",
		logging.String(logging.FieldIdentity, identity),
		logging.String("reason", reason))
}

// finishFailed closes out a pass that hit a fatal failure. The pass record is
// still appended so the history shows the attempt.
func (e *Engine) finishFailed(ctx context.Context, pass *catalog.PassRecord, cause error) error {
	pass.Success = false
	pass.Message = cause.Error()
	pass.FinishedAt = time.Now().UTC()
	if err := e.store.AppendPass(ctx, pass); err != nil {
		e.logger.Error("append pass record", logging.Error(err))
	}
	e.logger.Error("pass failed",
		logging.String(logging.FieldPassID, pass.ID),
		logging.Error(cause))
	return cause
}
