package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"clipper/internal/config"
	"clipper/internal/logging"
	"clipper/internal/media"
	"clipper/internal/media/tags"
	"clipper/internal/metrics"
	"clipper/internal/segmenter"
	"clipper/internal/services"
	"clipper/internal/session"
	"clipper/internal/status"
	"clipper/internal/transport"
)

// Resolver turns a source reference into a descriptor.
type Resolver interface {
	Resolve(ctx context.Context, sourceRef string) (media.Descriptor, error)
}

// Downloader acquires the media file for a job.
type Downloader interface {
	Download(ctx context.Context, sourceRef, title string, kind media.Kind, dir string, progress chan<- float64) (media.Acquired, error)
}

// Splitter cuts an acquired file into segments.
type Splitter interface {
	Split(ctx context.Context, src media.Acquired, entries []media.TimestampEntry, kind media.Kind, opts segmenter.SplitOptions, progress func(percent int)) ([]media.Segment, error)
}

// ThumbnailFetcher writes normalized cover art into dir.
type ThumbnailFetcher interface {
	Fetch(ctx context.Context, desc media.Descriptor, dir string) (string, error)
}

// Tagger writes metadata into a whole-file audio delivery.
type Tagger interface {
	Tag(path string, fields tags.Fields) error
}

// StatusReporter shows status text to a user.
type StatusReporter interface {
	Report(ctx context.Context, user int64, text string, opts ...status.Option) bool
}

// UserRegistry records users that can no longer be reached.
type UserRegistry interface {
	Deactivate(ctx context.Context, user int64) error
}

// Dependencies are the collaborators a Pipeline drives. Thumbnails and
// Tagger may be nil.
type Dependencies struct {
	Sessions   *session.Store
	Gate       *session.Gate
	Resolver   Resolver
	Downloader Downloader
	Segmenter  Splitter
	Thumbnails ThumbnailFetcher
	Tagger     Tagger
	Status     StatusReporter
	Messenger  transport.Messenger
	Registry   UserRegistry
}

// Options tunes pacing and limits.
type Options struct {
	WorkDir        string
	MaxUploadBytes int64
	UploadPause    time.Duration
	FailureDwell   time.Duration
	NoticeDwell    time.Duration
}

// OptionsFromConfig derives Options from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		WorkDir:        cfg.Paths.WorkDir,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		UploadPause:    cfg.UploadPause(),
		FailureDwell:   cfg.FailureDwell(),
		NoticeDwell:    cfg.NoticeDwell(),
	}
}

// Observer receives every state transition. A failed job reports Failed when
// the error occurs and again once CleaningUp has finished.
type Observer func(user int64, state State)

// Pipeline runs delivery jobs.
type Pipeline struct {
	deps   Dependencies
	opts   Options
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error

	mu       sync.RWMutex
	observer Observer
	states   map[int64]State
}

// New constructs a Pipeline.
func New(deps Dependencies, opts Options, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		deps:   deps,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "pipeline"),
		sleep:  sleepContext,
		states: make(map[int64]State),
	}
}

// WithObserver registers fn to receive state transitions.
func (p *Pipeline) WithObserver(fn Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observer = fn
}

// State returns the current state of user's job, or StateIdle.
func (p *Pipeline) State(user int64) State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if state, ok := p.states[user]; ok {
		return state
	}
	return StateIdle
}

// Snapshot returns the state of every running job.
func (p *Pipeline) Snapshot() map[int64]State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[int64]State, len(p.states))
	for user, state := range p.states {
		out[user] = state
	}
	return out
}

// Submit runs the user's pending session to completion. It returns
// services.ErrValidation when no source is pending and services.ErrBusy when
// a job is already running; in both cases nothing changes. Otherwise it
// returns the job error after cleanup has run. Callers typically invoke
// Submit in its own goroutine.
func (p *Pipeline) Submit(ctx context.Context, user int64) error {
	snap, ok := p.deps.Sessions.Get(user)
	if !ok || strings.TrimSpace(snap.SourceRef) == "" {
		return services.Wrap(services.ErrValidation, "submit", "snapshot session", "no pending link", nil)
	}
	release, admitted := p.deps.Gate.TryBegin(user)
	if !admitted {
		metrics.JobsRejectedTotal.Inc()
		return services.Wrap(services.ErrBusy, "submit", "admit job", "a download is already running", nil)
	}
	return p.run(ctx, user, snap, release)
}

func (p *Pipeline) transition(j *job, state State) {
	p.mu.Lock()
	if state.Terminal() {
		delete(p.states, j.user)
	} else {
		p.states[j.user] = state
	}
	observer := p.observer
	p.mu.Unlock()

	j.state = state
	j.logger.Debug("pipeline state", logging.String(logging.FieldStage, state.String()))
	if observer != nil {
		observer(j.user, state)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
