package bot

import (
	"context"
	"regexp"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"clipper/internal/logging"
	"clipper/internal/services"
	"clipper/internal/session"
	"clipper/internal/status"
)

const (
	textWelcome   = "🎬 Send me a link to a video to download it!"
	textBusy      = "⏳ Please wait, your previous download is still running."
	textExpired   = "⌛ This menu has expired, send the link again."
	textHint      = "🔗 Send a link starting with http:// or https://"
	textLinkError = "❌ Error: could not process this link."
)

var linkPattern = regexp.MustCompile(`https?://[^\s<>"]+`)

// FindLink returns the first http(s) link in text.
func FindLink(text string) (string, bool) {
	link := linkPattern.FindString(text)
	return link, link != ""
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.handleStart(ctx, msg)
	default:
		b.reply(ctx, msg.Chat.ID, msg.MessageID, textHint)
	}
}

// handleStart registers the user, replaces their status message and shows a
// short-lived welcome.
func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	user := msg.Chat.ID
	logger := logging.WithContext(services.WithUserID(ctx, user), b.logger)

	b.deleteQuietly(ctx, user, msg.MessageID)
	if err := b.deps.Registry.Ensure(ctx, user); err != nil {
		logger.Warn("register user failed", logging.Error(err))
	}

	if !b.deps.Gate.Busy(user) {
		if err := b.deps.Registry.ClearStatusMessageID(ctx, user); err != nil {
			logger.Warn("reset status message failed", logging.Error(err))
		}
		b.deps.Status.Reset(user)
		b.deps.Status.Report(ctx, user, status.IdleText, status.Force())
	}

	welcomeID := b.reply(ctx, user, 0, textWelcome)
	if welcomeID > 0 {
		deleteCtx := context.WithoutCancel(ctx)
		b.after(welcomeLifetime, func() {
			b.deleteQuietly(deleteCtx, user, welcomeID)
		})
	}
	logger.Info("user started bot", logging.String(logging.FieldEventType, "user_start"))
}

func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	user := msg.Chat.ID
	link, ok := FindLink(msg.Text)
	if !ok {
		b.reply(ctx, user, msg.MessageID, textHint)
		return
	}
	if b.deps.Gate.Busy(user) {
		b.reply(ctx, user, msg.MessageID, textBusy)
		return
	}

	ctx = services.WithUserID(ctx, user)
	logger := logging.WithContext(ctx, b.logger)
	if err := b.deps.Registry.Ensure(ctx, user); err != nil {
		logger.Warn("register user failed", logging.Error(err))
	}

	if prev, exists := b.deps.Sessions.Get(user); exists {
		b.deleteQuietly(ctx, user, prev.MenuMessageID)
	}

	desc, err := b.deps.Resolver.Resolve(ctx, link)
	if err != nil {
		logger.Info("link rejected",
			logging.String(logging.FieldEventType, "link_rejected"),
			logging.String("link", link),
			logging.Error(err),
		)
		b.deps.Sessions.Clear(user)
		b.reply(ctx, user, msg.MessageID, textLinkError)
		return
	}

	sess := b.deps.Sessions.Update(user, func(s *session.Session) {
		s.SourceRef = link
		s.Title = strings.TrimSpace(desc.Title)
		s.Duration = desc.Duration
		s.SourceMessageID = msg.MessageID
		s.MenuMessageID = 0
	})
	menuID, err := b.deps.Chat.SendMenu(ctx, user, msg.MessageID, MenuText(sess), MenuMarkup(sess))
	if err != nil {
		b.handleSendError(ctx, user, "send menu", err)
		b.deps.Sessions.Clear(user)
		return
	}
	b.deps.Sessions.Update(user, func(s *session.Session) {
		s.MenuMessageID = menuID
	})
}

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.Message == nil || query.Message.Chat == nil {
		b.answer(ctx, query.ID, "")
		return
	}
	user := query.Message.Chat.ID
	menuID := query.Message.MessageID

	sess, ok := b.deps.Sessions.Get(user)
	if !ok || sess.SourceRef == "" || sess.MenuMessageID != menuID {
		b.answer(ctx, query.ID, textExpired)
		b.deleteQuietly(ctx, user, menuID)
		return
	}

	switch query.Data {
	case actionToggleKind, actionToggleMode:
		if b.deps.Gate.Busy(user) {
			b.answer(ctx, query.ID, textBusy)
			return
		}
		if query.Data == actionToggleKind {
			sess = b.deps.Sessions.ToggleKind(user)
		} else {
			sess = b.deps.Sessions.ToggleMode(user)
		}
		b.answer(ctx, query.ID, "")
		if err := b.deps.Chat.EditMenu(ctx, user, menuID, MenuText(sess), MenuMarkup(sess)); err != nil {
			b.handleSendError(ctx, user, "edit menu", err)
		}
	case actionCancel:
		b.answer(ctx, query.ID, "")
		b.deleteQuietly(ctx, user, menuID)
		b.deps.Sessions.Clear(user)
	case actionDownload:
		if b.deps.Gate.Busy(user) {
			b.answer(ctx, query.ID, textBusy)
			return
		}
		b.answer(ctx, query.ID, "")
		b.deleteQuietly(ctx, user, menuID)
		b.deps.Sessions.Update(user, func(s *session.Session) {
			s.MenuMessageID = 0
		})
		b.launch(ctx, user)
	default:
		b.answer(ctx, query.ID, "")
	}
}

func (b *Bot) answer(ctx context.Context, callbackID, text string) {
	if callbackID == "" {
		return
	}
	if err := b.deps.Chat.AnswerCallback(ctx, callbackID, text); err != nil {
		b.logger.Debug("answer callback failed", logging.Error(err))
	}
}
