package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"clipper/internal/logging"
	"clipper/internal/media"
	"clipper/internal/transport"
)

// Options configures the client.
type Options struct {
	Token             string
	Endpoint          string
	RequestTimeout    time.Duration
	MessagesPerSecond float64
	PollTimeout       time.Duration
}

// Client wraps a Bot API connection.
type Client struct {
	bot         *tgbotapi.BotAPI
	limiter     *rate.Limiter
	pollTimeout time.Duration
	logger      *slog.Logger
}

// New connects to the Bot API and validates the token.
func New(opts Options, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, errors.New("telegram: token is required")
	}
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	pollTimeout := opts.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 30 * time.Second
	}
	// Long polling holds the request open for pollTimeout.
	httpClient := &http.Client{Timeout: timeout + pollTimeout}

	bot, err := tgbotapi.NewBotAPIWithClient(opts.Token, endpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect: %w", classify(err))
	}

	perSecond := opts.MessagesPerSecond
	if perSecond <= 0 {
		perSecond = 25
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}

	client := &Client{
		bot:         bot,
		limiter:     rate.NewLimiter(rate.Limit(perSecond), burst),
		pollTimeout: pollTimeout,
		logger:      logging.NewComponentLogger(logger, "telegram"),
	}
	client.logger.Info("connected to bot api", logging.String("username", bot.Self.UserName))
	return client, nil
}

// Username returns the bot's handle.
func (c *Client) Username() string {
	return c.bot.Self.UserName
}

// SendText sends a plain text message and returns its id.
func (c *Client) SendText(ctx context.Context, chatID int64, text string) (int, error) {
	return c.send(ctx, tgbotapi.NewMessage(chatID, text))
}

// SendReply sends text as a reply to messageID.
func (c *Client) SendReply(ctx context.Context, chatID int64, replyTo int, text string) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyTo
	msg.AllowSendingWithoutReply = true
	return c.send(ctx, msg)
}

// EditText replaces the text of an existing message.
func (c *Client) EditText(ctx context.Context, chatID int64, messageID int, text string) error {
	return c.request(ctx, tgbotapi.NewEditMessageText(chatID, messageID, text))
}

// DeleteMessage removes a message.
func (c *Client) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	return c.request(ctx, tgbotapi.NewDeleteMessage(chatID, messageID))
}

// Pin pins messageID without notifying the user.
func (c *Client) Pin(ctx context.Context, chatID int64, messageID int) error {
	return c.request(ctx, tgbotapi.PinChatMessageConfig{
		ChatID:              chatID,
		MessageID:           messageID,
		DisableNotification: true,
	})
}

// SendFile uploads an audio or video file.
func (c *Client) SendFile(ctx context.Context, chatID int64, upload transport.Upload) (int, error) {
	if upload.Kind == media.KindVideo {
		video := tgbotapi.NewVideo(chatID, tgbotapi.FilePath(upload.Path))
		video.Caption = upload.Caption
		video.Duration = upload.Duration
		video.SupportsStreaming = true
		video.ReplyToMessageID = upload.ReplyTo
		video.AllowSendingWithoutReply = true
		if upload.ThumbPath != "" {
			video.Thumb = tgbotapi.FilePath(upload.ThumbPath)
		}
		return c.send(ctx, video)
	}

	audio := tgbotapi.NewAudio(chatID, tgbotapi.FilePath(upload.Path))
	audio.Caption = upload.Caption
	audio.Duration = upload.Duration
	audio.Title = upload.Title
	audio.Performer = upload.Performer
	audio.ReplyToMessageID = upload.ReplyTo
	audio.AllowSendingWithoutReply = true
	if upload.ThumbPath != "" {
		audio.Thumb = tgbotapi.FilePath(upload.ThumbPath)
	}
	return c.send(ctx, audio)
}

// SendMenu sends text with an inline keyboard.
func (c *Client) SendMenu(ctx context.Context, chatID int64, replyTo int, text string, markup tgbotapi.InlineKeyboardMarkup) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	msg.ReplyToMessageID = replyTo
	msg.AllowSendingWithoutReply = true
	return c.send(ctx, msg)
}

// EditMenu replaces the text and keyboard of a menu message.
func (c *Client) EditMenu(ctx context.Context, chatID int64, messageID int, text string, markup tgbotapi.InlineKeyboardMarkup) error {
	return c.request(ctx, tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup))
}

// AnswerCallback acknowledges a button press, optionally with a toast.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	return c.request(ctx, tgbotapi.NewCallback(callbackID, text))
}

// Updates starts long polling. The channel closes after ctx is cancelled.
func (c *Client) Updates(ctx context.Context) <-chan tgbotapi.Update {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = int(c.pollTimeout / time.Second)
	cfg.AllowedUpdates = []string{"message", "callback_query"}
	updates := c.bot.GetUpdatesChan(cfg)

	out := make(chan tgbotapi.Update)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				c.bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case out <- update:
				case <-ctx.Done():
					c.bot.StopReceivingUpdates()
					return
				}
			}
		}
	}()
	return out
}

func (c *Client) send(ctx context.Context, msg tgbotapi.Chattable) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	sent, err := c.bot.Send(msg)
	if err != nil {
		return 0, classify(err)
	}
	return sent.MessageID, nil
}

func (c *Client) request(ctx context.Context, msg tgbotapi.Chattable) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if _, err := c.bot.Request(msg); err != nil {
		return classify(err)
	}
	return nil
}
