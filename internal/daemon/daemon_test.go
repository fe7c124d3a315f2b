package daemon

import (
	"context"
	"sync"
	"testing"
	"time"

	"clipper/internal/logging"
	"clipper/internal/pipeline"
	"clipper/internal/status"
	"clipper/internal/testsupport"
)

type recordingReporter struct {
	mu    sync.Mutex
	users []int64
	texts []string
}

func (r *recordingReporter) Report(_ context.Context, user int64, text string, _ ...status.Option) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, user)
	r.texts = append(r.texts, text)
	return true
}

type staticJobs map[int64]pipeline.State

func (s staticJobs) Snapshot() map[int64]pipeline.State { return s }

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.API.Bind = ""
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	store := testsupport.MustOpenRegistry(t, cfg)

	d, err := New(cfg, store, &recordingReporter{}, staticJobs{}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !d.Status(ctx).Running {
		t.Fatal("expected daemon to report running")
	}
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	other, err := New(cfg, store, &recordingReporter{}, staticJobs{}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := other.Start(ctx); err == nil {
		other.Stop()
		t.Fatal("expected lock contention to block a second instance")
	}

	d.Stop()
	if d.Status(ctx).Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestResetStatusesPacesActiveUsers(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenRegistry(t, cfg)
	ctx := context.Background()

	seed := []struct {
		user      int64
		messageID int
		active    bool
	}{
		{1, 10, true},
		{2, 0, true},
		{3, 30, false},
		{4, 40, true},
	}
	for _, s := range seed {
		if err := store.Ensure(ctx, s.user); err != nil {
			t.Fatalf("Ensure: %v", err)
		}
		if s.messageID > 0 {
			if err := store.SetStatusMessageID(ctx, s.user, s.messageID); err != nil {
				t.Fatalf("SetStatusMessageID: %v", err)
			}
		}
		if !s.active {
			if err := store.Deactivate(ctx, s.user); err != nil {
				t.Fatalf("Deactivate: %v", err)
			}
		}
	}

	reporter := &recordingReporter{}
	d, err := New(cfg, store, reporter, staticJobs{}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var pauses []time.Duration
	d.sleep = func(_ context.Context, dur time.Duration) error {
		pauses = append(pauses, dur)
		return nil
	}

	count, err := d.ResetStatuses(ctx)
	if err != nil {
		t.Fatalf("ResetStatuses: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
	if len(reporter.users) != 2 || reporter.users[0] != 1 || reporter.users[1] != 4 {
		t.Fatalf("reset users = %v", reporter.users)
	}
	for _, text := range reporter.texts {
		if text != status.IdleText {
			t.Fatalf("reset text = %q", text)
		}
	}
	if len(pauses) != 1 || pauses[0] != resetPacing {
		t.Fatalf("pauses = %v", pauses)
	}
}

func TestStatusListsJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenRegistry(t, cfg)
	jobs := staticJobs{9: pipeline.StateUploading, 3: pipeline.StateAcquiring}

	d, err := New(cfg, store, &recordingReporter{}, jobs, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	st := d.Status(context.Background())
	if len(st.Jobs) != 2 || st.Jobs[0].UserID != 3 || st.Jobs[1].State != "uploading" {
		t.Fatalf("jobs = %+v", st.Jobs)
	}
	if st.DatabasePath != cfg.DatabasePath() {
		t.Fatalf("database path = %q", st.DatabasePath)
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(nil, nil, nil, nil, logging.NewNop()); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
}
