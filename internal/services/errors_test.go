package services_test

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"clipper/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "segmenting", "cut", "ffmpeg failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"segmenting", "cut", "ffmpeg failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "none"},
		{services.Wrap(services.ErrResolution, "resolve", "", "", nil), "resolution"},
		{services.Wrap(services.ErrAcquisition, "download", "", "", nil), "acquisition"},
		{services.Wrap(services.ErrNotImplemented, "split", "", "", nil), "not_implemented"},
		{services.ErrBusy, "busy"},
		{errors.New("plain"), "unknown"},
	}
	for _, tt := range tests {
		if got := services.Kind(tt.err); got != tt.want {
			t.Errorf("Kind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestUserMessageTruncatesRunes(t *testing.T) {
	err := errors.New(strings.Repeat("ж", 150))
	msg := services.UserMessage(err, 100)
	if utf8.RuneCountInString(msg) != 100 {
		t.Fatalf("expected 100 runes, got %d", utf8.RuneCountInString(msg))
	}
	if !utf8.ValidString(msg) {
		t.Fatal("truncated message is not valid utf-8")
	}
	if services.UserMessage(nil, 10) != "" {
		t.Fatal("expected empty message for nil error")
	}
	if got := services.UserMessage(errors.New(" short "), 100); got != "short" {
		t.Fatalf("unexpected message %q", got)
	}
}
