package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"backlog/internal/config"
	"backlog/internal/features"
	"backlog/internal/logging"
	"backlog/internal/scheduler"
)

// Daemon coordinates the store, scheduler, and process-level state, and
// enforces single-instance execution via a lock file in the data directory.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *features.Store
	sched  *scheduler.Scheduler

	runID     string
	startedAt time.Time

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	RunID         string
	StartedAt     time.Time
	DBPath        string
	LockPath      string
	SocketPath    string
	StopRequested bool
	Stats         scheduler.StatsResult
	Database      features.DatabaseHealth
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *features.Store, sched *scheduler.Scheduler, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || sched == nil {
		return nil, errors.New("daemon requires config, store, and scheduler")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "backlogd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logger.With(logging.String("component", "daemon")),
		store:    store,
		sched:    sched,
		runID:    uuid.NewString(),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and marks the daemon running.
func (d *Daemon) Start(_ context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another backlog daemon instance is already running")
	}

	d.startedAt = time.Now().UTC()
	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.String("run_id", d.runID),
		logging.String("db_path", d.store.Path()))
	return nil
}

// Stop releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Swap(false) {
		return
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release lock", logging.Error(err))
	}
	d.logger.Info("daemon stopped",
		logging.String(logging.FieldEventType, "daemon_stop"))
}

// Close stops the daemon if running. The store is owned by the caller and
// closed separately.
func (d *Daemon) Close() {
	d.Stop()
}

// Scheduler returns the scheduler the IPC surface delegates to.
func (d *Daemon) Scheduler() *scheduler.Scheduler {
	return d.sched
}

// Store returns the underlying feature store.
func (d *Daemon) Store() *features.Store {
	return d.store
}

// RunID identifies this daemon process instance.
func (d *Daemon) RunID() string {
	return d.runID
}

// Status aggregates runtime and backlog state for diagnostics.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		RunID:         d.runID,
		StartedAt:     d.startedAt,
		DBPath:        d.store.Path(),
		LockPath:      d.lockPath,
		SocketPath:    d.cfg.Paths.SocketPath,
		StopRequested: d.StopRequested(),
	}

	if stats, err := d.sched.Stats(ctx); err == nil {
		status.Stats = stats
	}
	health, err := d.store.CheckHealth(ctx)
	if err != nil && health.Error == "" {
		health.Error = err.Error()
	}
	status.Database = health
	return status
}
