package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"clipper/internal/config"
	"clipper/internal/deps"
	"clipper/internal/logging"
	"clipper/internal/pipeline"
	"clipper/internal/registry"
	"clipper/internal/status"
)

const resetPacing = 500 * time.Millisecond

// UserRegistry lists known users.
type UserRegistry interface {
	ListActive(ctx context.Context) ([]registry.User, error)
	List(ctx context.Context) ([]registry.User, error)
}

// StatusReporter shows status text to a user.
type StatusReporter interface {
	Report(ctx context.Context, user int64, text string, opts ...status.Option) bool
}

// JobTracker reports running jobs.
type JobTracker interface {
	Snapshot() map[int64]pipeline.State
}

// Daemon owns process lifecycle and reporting.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	users    UserRegistry
	status   StatusReporter
	jobs     JobTracker
	lockPath string
	lock     *flock.Flock
	api      *apiServer
	sleep    func(ctx context.Context, d time.Duration) error

	running atomic.Bool
	started time.Time
}

// Status is a runtime snapshot.
type Status struct {
	Running      bool
	PID          int
	StartedAt    time.Time
	LockFilePath string
	DatabasePath string
	ActiveUsers  int
	Jobs         []JobStatus
	Dependencies []deps.Status
}

// JobStatus describes one running job.
type JobStatus struct {
	UserID int64
	State  string
}

// New constructs a daemon.
func New(cfg *config.Config, users UserRegistry, reporter StatusReporter, jobs JobTracker, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || users == nil || reporter == nil || jobs == nil {
		return nil, errors.New("daemon requires config, registry, status reporter, and job tracker")
	}
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		users:    users,
		status:   reporter,
		jobs:     jobs,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
		sleep:    sleepContext,
	}
	d.api = newAPIServer(cfg, d, d.logger)
	return d, nil
}

// Start acquires the instance lock, starts the HTTP listener and resets the
// status message of every active user.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another clipper instance is already running")
	}

	if err := d.api.start(ctx); err != nil {
		_ = d.lock.Unlock()
		return err
	}

	d.started = time.Now()
	d.running.Store(true)
	d.logger.Info("clipper daemon started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.String("lock", d.lockPath),
	)

	reset, err := d.ResetStatuses(ctx)
	if err != nil {
		logging.WarnWithContext(d.logger, "status reset failed", "status_reset_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale progress may stay visible until the next job"),
			logging.String(logging.FieldErrorHint, "check registry database access"),
		)
	} else {
		d.logger.Info("status messages reset", logging.Int("users", reset))
	}
	return nil
}

// Stop releases the lock and shuts down the HTTP listener.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("clipper daemon stopped")
}

// ResetStatuses shows the idle text to every active user that has a status
// message on record, pacing requests to stay under transport limits.
func (d *Daemon) ResetStatuses(ctx context.Context) (int, error) {
	users, err := d.users.ListActive(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, user := range users {
		if user.StatusMessageID == 0 {
			continue
		}
		if count > 0 {
			if err := d.sleep(ctx, resetPacing); err != nil {
				return count, err
			}
		}
		d.status.Report(ctx, user.ID, status.IdleText, status.Force(), status.WithoutPin())
		count++
	}
	return count, nil
}

// Status reports the daemon's runtime state.
func (d *Daemon) Status(ctx context.Context) Status {
	st := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		StartedAt:    d.started,
		LockFilePath: d.lockPath,
		DatabasePath: d.cfg.DatabasePath(),
		Dependencies: deps.CheckBinaries(deps.ToolRequirements(d.cfg)),
	}
	if users, err := d.users.ListActive(ctx); err == nil {
		st.ActiveUsers = len(users)
	} else {
		d.logger.Debug("list active users failed", logging.Error(err))
	}
	for user, state := range d.jobs.Snapshot() {
		st.Jobs = append(st.Jobs, JobStatus{UserID: user, State: state.String()})
	}
	sort.Slice(st.Jobs, func(i, j int) bool { return st.Jobs[i].UserID < st.Jobs[j].UserID })
	return st
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
