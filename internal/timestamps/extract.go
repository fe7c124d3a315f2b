package timestamps

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"clipper/internal/media"
	"clipper/internal/textutil"
)

// UnnamedLabel replaces description labels that are empty after cleaning.
const UnnamedLabel = "Unnamed Track"

const timeToken = `((?:\d{1,2}:)?\d{1,2}:\d{2})`

// Patterns are tried most specific first; the first with any match wins for
// the whole description.
var descriptionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^[ \t]*\[` + timeToken + `\][ \t]*(.*?)[ \t]*$`),
	regexp.MustCompile(`(?m)^[ \t]*` + timeToken + `[ \t]*[-–—][ \t]*(.*?)[ \t]*$`),
	regexp.MustCompile(`(?m)^[ \t]*` + timeToken + `[ \t]+(.*?)[ \t]*$`),
}

// Extract returns the timestamp list for a source. Non-empty chapters win over
// the description.
func Extract(chapters []media.TimestampEntry, description string) []media.TimestampEntry {
	if len(chapters) > 0 {
		return fromChapters(chapters)
	}
	return FromDescription(description)
}

func fromChapters(chapters []media.TimestampEntry) []media.TimestampEntry {
	entries := make([]media.TimestampEntry, 0, len(chapters))
	for i, chapter := range chapters {
		if chapter.Offset < 0 {
			continue
		}
		label := textutil.CleanTrackLabel(chapter.Label)
		if label == "" {
			label = fmt.Sprintf("Part %d", i+1)
		}
		entries = append(entries, media.TimestampEntry{Offset: chapter.Offset, Label: label})
	}
	return normalize(entries)
}

// FromDescription scans free text for time markers.
func FromDescription(description string) []media.TimestampEntry {
	description = strings.ReplaceAll(description, "\r\n", "\n")
	for _, pattern := range descriptionPatterns {
		matches := pattern.FindAllStringSubmatch(description, -1)
		if len(matches) == 0 {
			continue
		}
		entries := make([]media.TimestampEntry, 0, len(matches))
		for _, match := range matches {
			offset, ok := ParseTime(match[1])
			if !ok {
				continue
			}
			label := textutil.CleanTrackLabel(match[2])
			if label == "" {
				label = UnnamedLabel
			}
			entries = append(entries, media.TimestampEntry{Offset: offset, Label: label})
		}
		return normalize(entries)
	}
	return []media.TimestampEntry{}
}

// normalize drops repeated offsets (first occurrence wins) and sorts ascending.
func normalize(entries []media.TimestampEntry) []media.TimestampEntry {
	seen := make(map[int]struct{}, len(entries))
	out := make([]media.TimestampEntry, 0, len(entries))
	for _, entry := range entries {
		if _, ok := seen[entry.Offset]; ok {
			continue
		}
		seen[entry.Offset] = struct{}{}
		out = append(out, entry)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}

// ParseTime converts "SS", "MM:SS", or "H:MM:SS" to seconds.
func ParseTime(token string) (int, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, false
	}
	parts := strings.Split(token, ":")
	if len(parts) > 3 {
		return 0, false
	}
	total := 0
	for _, part := range parts {
		value, err := strconv.Atoi(part)
		if err != nil || value < 0 {
			return 0, false
		}
		total = total*60 + value
	}
	return total, true
}

// FormatOffset renders seconds as M:SS, or H:MM:SS from one hour up.
func FormatOffset(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}
