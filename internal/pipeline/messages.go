package pipeline

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"clipper/internal/services"
	"clipper/internal/status"
)

const (
	errorMessageLimit = 100

	textResolving        = "🔎 Fetching media info..."
	textTimestamps       = "🕑 Looking for timestamps..."
	textNoTimestamps     = "ℹ️ No timestamps found, sending the whole file."
	textVideoWhole       = "ℹ️ Splitting is only available for audio, sending the whole video."
	textDownloading      = "⬇️ Downloading..."
	textSplitting        = "✂️ Splitting into tracks..."
	textUploading        = "📤 Uploading..."
	errorPrefix          = "❌ Error: "
	skippedTooLargeTitle = "⚠️ Skipped"
)

func progressText(label string, percent int) string {
	return label + "\n" + status.ProgressBar(percent)
}

// uploadingText is reported forced: every counter holds the bar at 99%.
func uploadingText(current, total int) string {
	return fmt.Sprintf("%s %d/%d\n%s", textUploading, current, total, status.ProgressBar(99))
}

func errorText(err error) string {
	return errorPrefix + services.UserMessage(err, errorMessageLimit)
}

func tooLargeText(label string, size, limit int64) string {
	return fmt.Sprintf("%s %q: %s exceeds the %s upload limit",
		skippedTooLargeTitle, label,
		humanize.Bytes(uint64(size)), humanize.Bytes(uint64(limit)))
}

// downloadPercent maps acquisition progress onto the 5-80 band.
func downloadPercent(p float64) int {
	return 5 + int(p*0.75)
}

// splitPercent maps segmentation progress onto the 80-98 band.
func splitPercent(p int) int {
	return 80 + int(float64(p)*0.18)
}
