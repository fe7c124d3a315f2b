package services

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	// ErrResolution marks a source that is unreachable or has no playable media.
	ErrResolution = errors.New("resolution error")
	// ErrAcquisition marks a download that finished without a usable file.
	ErrAcquisition = errors.New("acquisition error")
	// ErrSegmentTranscode marks a single segment cut that exited non-zero.
	ErrSegmentTranscode = errors.New("segment transcode failure")
	// ErrTagging marks a metadata write failure on one segment.
	ErrTagging = errors.New("tagging failure")
	// ErrThumbnail marks any failure while fetching or normalizing cover art.
	ErrThumbnail = errors.New("thumbnail failure")
	// ErrNotImplemented marks capabilities that are intentionally unsupported.
	ErrNotImplemented = errors.New("not implemented")
	// ErrBusy marks a rejected admission because the user already has a job running.
	ErrBusy = errors.New("job already running")
	// ErrDelivery marks an upload that could not be completed.
	ErrDelivery = errors.New("delivery error")

	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrTimeout       = errors.New("timeout")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a short, stable label for the marker carried by err. It is used
// for metrics labels and log fields.
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrResolution):
		return "resolution"
	case errors.Is(err, ErrAcquisition):
		return "acquisition"
	case errors.Is(err, ErrSegmentTranscode):
		return "segment_transcode"
	case errors.Is(err, ErrTagging):
		return "tagging"
	case errors.Is(err, ErrThumbnail):
		return "thumbnail"
	case errors.Is(err, ErrNotImplemented):
		return "not_implemented"
	case errors.Is(err, ErrBusy):
		return "busy"
	case errors.Is(err, ErrDelivery):
		return "delivery"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrExternalTool):
		return "external_tool"
	default:
		return "unknown"
	}
}

// UserMessage renders err for end users, truncated to limit runes.
func UserMessage(err error, limit int) string {
	if err == nil {
		return ""
	}
	msg := strings.TrimSpace(err.Error())
	if limit <= 0 || utf8.RuneCountInString(msg) <= limit {
		return msg
	}
	runes := []rune(msg)
	return string(runes[:limit])
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
