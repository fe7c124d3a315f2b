package bot

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"clipper/internal/logging"
	"clipper/internal/media"
	"clipper/internal/metrics"
	"clipper/internal/services"
	"clipper/internal/session"
	"clipper/internal/status"
	"clipper/internal/transport"
)

const welcomeLifetime = 15 * time.Second

// Chat is the messaging surface the bot drives.
type Chat interface {
	SendText(ctx context.Context, chatID int64, text string) (int, error)
	SendReply(ctx context.Context, chatID int64, replyTo int, text string) (int, error)
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	SendMenu(ctx context.Context, chatID int64, replyTo int, text string, markup tgbotapi.InlineKeyboardMarkup) (int, error)
	EditMenu(ctx context.Context, chatID int64, messageID int, text string, markup tgbotapi.InlineKeyboardMarkup) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// Resolver fetches metadata for the menu.
type Resolver interface {
	Resolve(ctx context.Context, sourceRef string) (media.Descriptor, error)
}

// Submitter runs a user's pending session.
type Submitter interface {
	Submit(ctx context.Context, user int64) error
}

// Registry tracks known users.
type Registry interface {
	Ensure(ctx context.Context, user int64) error
	ClearStatusMessageID(ctx context.Context, user int64) error
	Deactivate(ctx context.Context, user int64) error
}

// StatusReporter owns the pinned status message.
type StatusReporter interface {
	Report(ctx context.Context, user int64, text string, opts ...status.Option) bool
	Reset(user int64)
}

// Dependencies are the collaborators of a Bot.
type Dependencies struct {
	Chat     Chat
	Sessions *session.Store
	Gate     *session.Gate
	Resolver Resolver
	Pipeline Submitter
	Registry Registry
	Status   StatusReporter
}

// Bot dispatches chat updates.
type Bot struct {
	deps   Dependencies
	logger *slog.Logger
	after  func(d time.Duration, fn func())

	jobs sync.WaitGroup

	laneMu sync.Mutex
	lanes  map[int64][]tgbotapi.Update
}

// New constructs a Bot.
func New(deps Dependencies, logger *slog.Logger) *Bot {
	return &Bot{
		deps:   deps,
		logger: logging.NewComponentLogger(logger, "bot"),
		lanes:  make(map[int64][]tgbotapi.Update),
		after: func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		},
	}
}

// Run handles updates until the channel closes or ctx is cancelled, then
// waits for running jobs to finish. Updates of one user are handled in
// arrival order; different users are served concurrently.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	defer b.jobs.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.dispatch(ctx, update)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	user, ok := updateUser(update)
	if !ok {
		b.Handle(ctx, update)
		return
	}
	b.laneMu.Lock()
	queue, running := b.lanes[user]
	b.lanes[user] = append(queue, update)
	b.laneMu.Unlock()
	if running {
		return
	}
	b.jobs.Add(1)
	go func() {
		defer b.jobs.Done()
		b.drain(ctx, user)
	}()
}

// drain handles the user's queued updates until the lane is empty.
func (b *Bot) drain(ctx context.Context, user int64) {
	for {
		b.laneMu.Lock()
		queue := b.lanes[user]
		if len(queue) == 0 {
			delete(b.lanes, user)
			b.laneMu.Unlock()
			return
		}
		next := queue[0]
		b.lanes[user] = queue[1:]
		b.laneMu.Unlock()
		b.Handle(ctx, next)
	}
}

func updateUser(update tgbotapi.Update) (int64, bool) {
	switch {
	case update.CallbackQuery != nil:
		if msg := update.CallbackQuery.Message; msg != nil && msg.Chat != nil {
			return msg.Chat.ID, true
		}
	case update.Message != nil && update.Message.Chat != nil:
		return update.Message.Chat.ID, true
	}
	return 0, false
}

// Handle processes a single update.
func (b *Bot) Handle(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		metrics.UpdatesHandledTotal.WithLabelValues("callback").Inc()
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.Chat != nil:
		msg := update.Message
		if msg.IsCommand() {
			metrics.UpdatesHandledTotal.WithLabelValues("command").Inc()
			b.handleCommand(ctx, msg)
			return
		}
		metrics.UpdatesHandledTotal.WithLabelValues("text").Inc()
		b.handleText(ctx, msg)
	default:
		metrics.UpdatesHandledTotal.WithLabelValues("ignored").Inc()
	}
}

// Wait blocks until every job launched by the bot has finished.
func (b *Bot) Wait() {
	b.jobs.Wait()
}

func (b *Bot) launch(ctx context.Context, user int64) {
	b.jobs.Add(1)
	go func() {
		defer b.jobs.Done()
		err := b.deps.Pipeline.Submit(ctx, user)
		switch {
		case err == nil:
		case errors.Is(err, services.ErrBusy):
			b.reply(ctx, user, 0, textBusy)
		case errors.Is(err, services.ErrValidation):
			b.reply(ctx, user, 0, textExpired)
		default:
			b.logger.Debug("job ended with error",
				logging.UserID(user),
				logging.ErrorKind(err),
			)
		}
	}()
}

// reply sends text, threading it under replyTo when set.
func (b *Bot) reply(ctx context.Context, chatID int64, replyTo int, text string) int {
	var (
		id  int
		err error
	)
	if replyTo > 0 {
		id, err = b.deps.Chat.SendReply(ctx, chatID, replyTo, text)
	} else {
		id, err = b.deps.Chat.SendText(ctx, chatID, text)
	}
	if err != nil {
		b.handleSendError(ctx, chatID, "send message", err)
		return 0
	}
	return id
}

func (b *Bot) deleteQuietly(ctx context.Context, chatID int64, messageID int) {
	if messageID <= 0 {
		return
	}
	if err := b.deps.Chat.DeleteMessage(ctx, chatID, messageID); err != nil && !errors.Is(err, transport.ErrMessageNotFound) {
		b.handleSendError(ctx, chatID, "delete message", err)
	}
}

func (b *Bot) handleSendError(ctx context.Context, chatID int64, op string, err error) {
	if errors.Is(err, transport.ErrUnreachable) {
		metrics.UsersDeactivatedTotal.Inc()
		if deErr := b.deps.Registry.Deactivate(ctx, chatID); deErr != nil {
			b.logger.Warn("deactivate user failed",
				logging.UserID(chatID),
				logging.Error(deErr),
			)
		}
		return
	}
	b.logger.Debug("chat request failed",
		logging.UserID(chatID),
		logging.String("operation", op),
		logging.Error(err),
	)
}
