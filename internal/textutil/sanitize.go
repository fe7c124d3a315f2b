package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	// MaxFileNameBytes bounds sanitized names so the extension and the
	// "NN. " segment prefix still fit within common filesystem limits.
	MaxFileNameBytes = 200

	// FallbackFileName is used when nothing printable survives sanitizing.
	FallbackFileName = "downloaded_track"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName converts a title into a safe file name.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters and control characters are removed. Whitespace runs collapse to
// one space and the result is bounded to MaxFileNameBytes on a rune boundary.
// Returns FallbackFileName when the result would be empty.
func SanitizeFileName(name string) string {
	name = norm.NFC.String(name)
	name = fileNameReplacer.Replace(name)
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, name)
	name = strings.Join(strings.Fields(name), " ")
	name = TruncateBytes(name, MaxFileNameBytes)
	name = strings.Trim(name, " .")
	if name == "" {
		return FallbackFileName
	}
	return name
}

// TruncateBytes shortens value to at most limit bytes without splitting a rune.
func TruncateBytes(value string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(value) <= limit {
		return value
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut]
}

// TruncateRunes shortens value to at most limit runes.
func TruncateRunes(value string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	runes := []rune(value)
	return string(runes[:limit])
}
