package status

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"clipper/internal/logging"
	"clipper/internal/metrics"
	"clipper/internal/transport"
)

// Registry stores the status message id and reachability of each user.
type Registry interface {
	StatusMessageID(ctx context.Context, user int64) (int, bool, error)
	SetStatusMessageID(ctx context.Context, user int64, messageID int) error
	Deactivate(ctx context.Context, user int64) error
}

// Options configures coalescing and pinning.
type Options struct {
	MinInterval     time.Duration
	MinPercentDelta int
	Pin             bool
}

// Option adjusts a single Report call.
type Option func(*reportOptions)

type reportOptions struct {
	force bool
	noPin bool
}

// Force bypasses the interval and delta checks.
func Force() Option {
	return func(o *reportOptions) { o.force = true }
}

// WithoutPin skips pinning the status message for this report.
func WithoutPin() Option {
	return func(o *reportOptions) { o.noPin = true }
}

type userState struct {
	mu          sync.Mutex
	lastText    string
	lastEmit    time.Time
	lastPercent int
	hasPercent  bool
}

// Reporter owns the status message of every user.
type Reporter struct {
	messenger transport.StatusMessenger
	registry  Registry
	opts      Options
	logger    *slog.Logger
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error

	mu     sync.Mutex
	states map[int64]*userState
}

// NewReporter constructs a Reporter.
func NewReporter(messenger transport.StatusMessenger, registry Registry, opts Options, logger *slog.Logger) *Reporter {
	return &Reporter{
		messenger: messenger,
		registry:  registry,
		opts:      opts,
		logger:    logging.NewComponentLogger(logger, "status"),
		now:       time.Now,
		sleep:     sleepContext,
		states:    make(map[int64]*userState),
	}
}

// Report shows text as the user's status. It returns true when the message
// was actually emitted.
func (r *Reporter) Report(ctx context.Context, user int64, text string, opts ...Option) bool {
	var ro reportOptions
	for _, opt := range opts {
		opt(&ro)
	}

	state := r.stateFor(user)
	state.mu.Lock()
	defer state.mu.Unlock()

	percent, isProgress := ParseProgress(text)
	if !ro.force && r.suppress(state, text, percent, isProgress) {
		metrics.StatusUpdatesTotal.WithLabelValues("suppressed").Inc()
		return false
	}

	logger := logging.WithContext(ctx, r.logger).With(logging.UserID(user))
	err := r.withRetry(ctx, func() error {
		return r.emit(ctx, user, text, !ro.noPin && r.opts.Pin)
	})
	if err != nil {
		metrics.StatusUpdatesTotal.WithLabelValues("failed").Inc()
		if errors.Is(err, transport.ErrUnreachable) {
			r.deactivate(ctx, logger, user)
			return false
		}
		logger.Warn("status update failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "status_update_failed"),
		)
		return false
	}

	state.lastText = text
	state.lastEmit = r.now()
	state.lastPercent = percent
	state.hasPercent = isProgress
	metrics.StatusUpdatesTotal.WithLabelValues("emitted").Inc()
	return true
}

// Reset forgets coalescing state for user so the next report is emitted.
func (r *Reporter) Reset(user int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, user)
}

func (r *Reporter) suppress(state *userState, text string, percent int, isProgress bool) bool {
	if state.lastEmit.IsZero() {
		return false
	}
	if text == state.lastText {
		return true
	}
	if r.now().Sub(state.lastEmit) < r.opts.MinInterval {
		return true
	}
	if isProgress && state.hasPercent {
		delta := percent - state.lastPercent
		if delta < 0 {
			delta = -delta
		}
		if delta < r.opts.MinPercentDelta {
			return true
		}
	}
	return false
}

func (r *Reporter) emit(ctx context.Context, user int64, text string, pin bool) error {
	messageID, ok, err := r.registry.StatusMessageID(ctx, user)
	if err != nil {
		return err
	}
	if ok {
		err := r.messenger.EditText(ctx, user, messageID, text)
		switch {
		case err == nil, errors.Is(err, transport.ErrNotModified):
			if pin {
				r.pin(ctx, user, messageID)
			}
			return nil
		case errors.Is(err, transport.ErrMessageNotFound):
			// fall through to a fresh message
		default:
			return err
		}
	}

	messageID, err = r.messenger.SendText(ctx, user, text)
	if err != nil {
		return err
	}
	if err := r.registry.SetStatusMessageID(ctx, user, messageID); err != nil {
		return err
	}
	if pin {
		r.pin(ctx, user, messageID)
	}
	return nil
}

func (r *Reporter) pin(ctx context.Context, user int64, messageID int) {
	err := r.messenger.Pin(ctx, user, messageID)
	if err == nil || errors.Is(err, transport.ErrAlreadyPinned) || errors.Is(err, transport.ErrChatNotModified) {
		return
	}
	r.logger.Debug("status pin failed",
		logging.UserID(user),
		logging.Error(err),
	)
}

// withRetry runs op, honouring one transport-mandated wait.
func (r *Reporter) withRetry(ctx context.Context, op func() error) error {
	err := op()
	wait, throttled := transport.RetryAfter(err)
	if !throttled {
		return err
	}
	metrics.StatusRetryAfterTotal.Inc()
	if sleepErr := r.sleep(ctx, wait); sleepErr != nil {
		return sleepErr
	}
	return op()
}

func (r *Reporter) deactivate(ctx context.Context, logger *slog.Logger, user int64) {
	metrics.UsersDeactivatedTotal.Inc()
	if err := r.registry.Deactivate(ctx, user); err != nil {
		logger.Warn("deactivate user failed", logging.Error(err))
		return
	}
	logger.Info("user unreachable; deactivated",
		logging.String(logging.FieldEventType, "user_deactivated"),
	)
}

func (r *Reporter) stateFor(user int64) *userState {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.states[user]
	if !ok {
		state = &userState{}
		r.states[user] = state
	}
	return state
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
