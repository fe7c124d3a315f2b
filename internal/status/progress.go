package status

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	barLength = 10
	barFilled = "█"
	barEmpty  = "░"

	// IdleText is shown whenever no job is running.
	IdleText = "⏱️ Waiting..."
)

var progressPattern = regexp.MustCompile(`\[[█░]+\]\s*(\d{1,3})%`)

// ProgressBar renders percent as "[██████░░░░] 60%".
func ProgressBar(percent int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * barLength / 100
	return "[" + strings.Repeat(barFilled, filled) + strings.Repeat(barEmpty, barLength-filled) + "] " + strconv.Itoa(percent) + "%"
}

// ParseProgress extracts the percentage from text containing a progress bar.
func ParseProgress(text string) (int, bool) {
	match := progressPattern.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}
	value, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return value, true
}
