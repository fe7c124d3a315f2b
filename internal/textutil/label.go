package textutil

import (
	"regexp"
	"strings"
)

// MaxLabelRunes bounds track labels shown in captions and tags.
const MaxLabelRunes = 100

var (
	labelIllegalPattern = regexp.MustCompile(`[<>:"/\\|?*]`)
	leadingOrdinal      = regexp.MustCompile(`^\d+[.\s]*`)
)

// CleanTrackLabel strips characters that cannot appear in file names and any
// leading track ordinal ("03. ", "7 ") from a chapter or description label.
// The result is trimmed and bounded to MaxLabelRunes. It may be empty; callers
// choose their own fallback.
func CleanTrackLabel(label string) string {
	label = labelIllegalPattern.ReplaceAllString(label, "")
	label = strings.TrimSpace(label)
	label = leadingOrdinal.ReplaceAllString(label, "")
	label = strings.Join(strings.Fields(label), " ")
	return strings.TrimSpace(TruncateRunes(label, MaxLabelRunes))
}
