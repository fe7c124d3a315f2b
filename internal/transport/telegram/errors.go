package telegram

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"clipper/internal/transport"
)

// classify maps Bot API failures onto transport sentinels. Unknown errors are
// returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	apiErr, ok := asAPIError(err)
	if !ok {
		return err
	}

	message := strings.ToLower(apiErr.Message)
	switch {
	case apiErr.Code == http.StatusTooManyRequests || apiErr.RetryAfter > 0:
		wait := time.Duration(apiErr.RetryAfter) * time.Second
		if wait <= 0 {
			wait = time.Second
		}
		return &transport.RetryAfterError{Wait: wait, Err: err}
	case strings.Contains(message, "message is not modified"):
		return fmt.Errorf("%w: %v", transport.ErrNotModified, err)
	case strings.Contains(message, "chat_not_modified"):
		return fmt.Errorf("%w: %v", transport.ErrChatNotModified, err)
	case strings.Contains(message, "already pinned"):
		return fmt.Errorf("%w: %v", transport.ErrAlreadyPinned, err)
	case strings.Contains(message, "message to edit not found"),
		strings.Contains(message, "message to delete not found"),
		strings.Contains(message, "message can't be edited"),
		strings.Contains(message, "message_id_invalid"),
		strings.Contains(message, "message to pin not found"):
		return fmt.Errorf("%w: %v", transport.ErrMessageNotFound, err)
	case apiErr.Code == http.StatusForbidden,
		strings.Contains(message, "bot was blocked"),
		strings.Contains(message, "user is deactivated"),
		strings.Contains(message, "chat not found"):
		return fmt.Errorf("%w: %v", transport.ErrUnreachable, err)
	case apiErr.Code == http.StatusRequestEntityTooLarge,
		strings.Contains(message, "too big"),
		strings.Contains(message, "too large"):
		return fmt.Errorf("%w: %v", transport.ErrTooLarge, err)
	default:
		return err
	}
}

func asAPIError(err error) (tgbotapi.Error, bool) {
	var ptr *tgbotapi.Error
	if errors.As(err, &ptr) && ptr != nil {
		return *ptr, true
	}
	var val tgbotapi.Error
	if errors.As(err, &val) {
		return val, true
	}
	return tgbotapi.Error{}, false
}
