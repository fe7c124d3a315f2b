// Package transport defines the messaging capability the pipeline and status
// reporter consume, and the classified errors adapters translate their
// failures into.
package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clipper/internal/media"
)

var (
	// ErrMessageNotFound means the target message no longer exists or can no
	// longer be edited.
	ErrMessageNotFound = errors.New("message not found")
	// ErrNotModified means an edit carried the same content as the message.
	ErrNotModified = errors.New("message not modified")
	// ErrAlreadyPinned means the message was already the pinned one.
	ErrAlreadyPinned = errors.New("message already pinned")
	// ErrChatNotModified means a chat-level change was a no-op.
	ErrChatNotModified = errors.New("chat not modified")
	// ErrUnreachable means the user blocked the bot or the chat is gone.
	ErrUnreachable = errors.New("user unreachable")
	// ErrTooLarge means the transport refused the upload size.
	ErrTooLarge = errors.New("file too large")
)

// RetryAfterError reports that the transport throttled a request.
type RetryAfterError struct {
	Wait time.Duration
	Err  error
}

func (e *RetryAfterError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("rate limited; retry after %s", e.Wait)
	}
	return fmt.Sprintf("rate limited; retry after %s: %v", e.Wait, e.Err)
}

func (e *RetryAfterError) Unwrap() error { return e.Err }

// RetryAfter returns the mandated wait when err is a throttling error.
func RetryAfter(err error) (time.Duration, bool) {
	var retry *RetryAfterError
	if errors.As(err, &retry) {
		return retry.Wait, true
	}
	return 0, false
}

// Upload describes one file delivery.
type Upload struct {
	Path      string
	Kind      media.Kind
	Title     string
	Performer string
	Caption   string
	Duration  int
	ThumbPath string
	ReplyTo   int
}

// StatusMessenger is the subset used for the per-user status message.
type StatusMessenger interface {
	SendText(ctx context.Context, chatID int64, text string) (int, error)
	EditText(ctx context.Context, chatID int64, messageID int, text string) error
	Pin(ctx context.Context, chatID int64, messageID int) error
}

// Messenger is the full capability the pipeline needs.
type Messenger interface {
	StatusMessenger
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	SendFile(ctx context.Context, chatID int64, upload Upload) (int, error)
}
