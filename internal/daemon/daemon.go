package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gofrs/flock"

	"orrery/internal/archive"
	"orrery/internal/assistant"
	"orrery/internal/catalog"
	"orrery/internal/classifier"
	"orrery/internal/config"
	"orrery/internal/engine"
	"orrery/internal/logging"
	"orrery/internal/naming"
	"orrery/internal/scheduler"
)

// Daemon wires the synchronization engine, scheduler, and control API
// together and enforces single-instance execution through a lock file.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *catalog.Store
	engine    *engine.Engine
	scheduler *scheduler.Scheduler
	assistant *assistant.Client
	api       *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PassRunning  bool
	Scheduler    scheduler.Status
	DatabasePath string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies. The store stays
// owned by the caller; everything else is built here.
func New(cfg *config.Config, store *catalog.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	source, err := archive.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("archive client: %w", err)
	}

	var gateway engine.Gateway
	if cfg.Classifier.Enabled {
		gw, err := classifier.New(cfg, source, classifier.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("classification gateway: %w", err)
		}
		gateway = gw
	}

	allocator := naming.New(store, cfg.Naming.CatalogPrefix, naming.WithLogger(logger))
	eng := engine.New(store, source, gateway, allocator, cfg.Archive.Table, engine.WithLogger(logger))

	sched, err := scheduler.New(eng, cfg.Scheduler.Pattern, cfg.Scheduler.Timezone, scheduler.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}

	daemon := &Daemon{
		cfg:       cfg,
		logger:    logging.WithComponent(logger, "daemon"),
		store:     store,
		engine:    eng,
		scheduler: sched,
		assistant: assistant.New(cfg.Assistant),
		lockPath:  cfg.LockFilePath(),
		lock:      flock.New(cfg.LockFilePath()),
	}
	daemon.api = newAPIServer(cfg, daemon, logger)
	return daemon, nil
}

// Start acquires the instance lock, arms the scheduler when enabled, and
// launches the control API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another orrery daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if d.cfg.Scheduler.Enabled {
		if err := d.scheduler.Start(); err != nil {
			d.releaseStart()
			return fmt.Errorf("start scheduler: %w", err)
		}
	}

	if err := d.api.start(runCtx); err != nil {
		d.scheduler.Stop()
		d.releaseStart()
		return err
	}

	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String("lock", d.lockPath),
		logging.Bool("scheduler", d.cfg.Scheduler.Enabled))
	return nil
}

func (d *Daemon) releaseStart() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	_ = d.lock.Unlock()
}

// Stop disarms the scheduler, shuts the API down, and releases the lock. A
// pass already in flight is not interrupted.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.scheduler.Stop()
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Status reports daemon runtime information.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		PassRunning:  d.engine.Running(),
		Scheduler:    d.scheduler.Status(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
	}
}

// APIAddr returns the control API listen address, empty until started.
func (d *Daemon) APIAddr() string {
	return d.api.addr()
}
