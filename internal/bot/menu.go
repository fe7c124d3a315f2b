package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"clipper/internal/media"
	"clipper/internal/session"
	"clipper/internal/textutil"
	"clipper/internal/timestamps"
)

const (
	actionToggleKind = "toggle_kind"
	actionToggleMode = "toggle_mode"
	actionDownload   = "download"
	actionCancel     = "cancel"

	menuTitleRunes = 50
)

// MenuText renders the menu body for sess.
func MenuText(sess session.Session) string {
	title := textutil.TruncateRunes(sess.Title, menuTitleRunes)
	if title == "" {
		title = "Unknown video"
	}
	duration := "unknown"
	if sess.Duration > 0 {
		duration = timestamps.FormatOffset(sess.Duration)
	}
	return fmt.Sprintf("🎬 %s\n⏱️ Duration: %s\n\nChoose download options:", title, duration)
}

// MenuMarkup renders the option buttons for sess.
func MenuMarkup(sess session.Session) tgbotapi.InlineKeyboardMarkup {
	kind := "🎵 Audio"
	if sess.Kind == media.KindVideo {
		kind = "🎥 Video"
	}
	mode := "⏱️ By timestamps"
	if sess.Mode == media.ModeWhole {
		mode = "📁 Whole file"
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(kind, actionToggleKind)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(mode, actionToggleMode)),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬇️ Download", actionDownload),
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", actionCancel),
		),
	)
}
