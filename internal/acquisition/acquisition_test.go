package acquisition

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"clipper/internal/logging"
	"clipper/internal/media"
	"clipper/internal/services"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestDownloadAudioBuildsRequestAndLocatesFile(t *testing.T) {
	dir := t.TempDir()
	d := New(Options{}, logging.NewNop())
	var got FetchRequest
	d.WithFetchFunc(func(_ context.Context, req FetchRequest, progress func(float64)) error {
		got = req
		for _, p := range []float64{10, 50, 100} {
			progress(p)
		}
		touch(t, filepath.Join(dir, "Live Set- 2024.mp3"))
		return nil
	})

	progress := make(chan float64, 1)
	acquired, err := d.Download(context.Background(), "https://example.com/v", "Live Set: 2024", media.KindAudio, dir, progress)
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if acquired.Ext != "mp3" || filepath.Base(acquired.Path) != "Live Set- 2024.mp3" {
		t.Fatalf("unexpected acquired file: %+v", acquired)
	}
	if !got.ExtractAudio || got.AudioFormat != "mp3" || got.AudioQuality != "192K" {
		t.Fatalf("unexpected audio options: %+v", got)
	}
	if got.Format != audioFormat {
		t.Fatalf("unexpected format %q", got.Format)
	}
	if got.OutputTemplate != filepath.Join(dir, "Live Set- 2024.%(ext)s") {
		t.Fatalf("unexpected output template %q", got.OutputTemplate)
	}
	if len(progress) != 1 || <-progress != 10 {
		t.Fatal("expected the first update to be buffered and later ones dropped")
	}
}

func TestDownloadVideoFormat(t *testing.T) {
	dir := t.TempDir()
	d := New(Options{}, logging.NewNop())
	d.WithFetchFunc(func(_ context.Context, req FetchRequest, _ func(float64)) error {
		if req.ExtractAudio {
			t.Fatal("video downloads must not extract audio")
		}
		if req.Format != videoFormat {
			t.Fatalf("unexpected format %q", req.Format)
		}
		touch(t, filepath.Join(dir, "clip.webm"))
		return nil
	})
	acquired, err := d.Download(context.Background(), "https://example.com/v", "clip", media.KindVideo, dir, nil)
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if acquired.Ext != "webm" {
		t.Fatalf("unexpected ext %q", acquired.Ext)
	}
}

func TestDownloadFailureIsAcquisitionError(t *testing.T) {
	d := New(Options{}, logging.NewNop())
	d.WithFetchFunc(func(context.Context, FetchRequest, func(float64)) error {
		return errors.New("HTTP Error 403")
	})
	_, err := d.Download(context.Background(), "https://example.com/v", "x", media.KindAudio, t.TempDir(), nil)
	if !errors.Is(err, services.ErrAcquisition) {
		t.Fatalf("expected ErrAcquisition, got %v", err)
	}
}

func TestLocate(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		kind  media.Kind
		want  string
		ok    bool
	}{
		{name: "exact audio", files: []string{"song.m4a", "song.mp3"}, kind: media.KindAudio, want: "song.mp3", ok: true},
		{name: "glob audio", files: []string{"song.opus", "song.part"}, kind: media.KindAudio, want: "song.opus", ok: true},
		{name: "exact video", files: []string{"song.mkv", "song.mp4"}, kind: media.KindVideo, want: "song.mp4", ok: true},
		{name: "glob video", files: []string{"song.mkv"}, kind: media.KindVideo, want: "song.mkv", ok: true},
		{name: "wrong kind", files: []string{"song.mp4"}, kind: media.KindAudio, ok: false},
		{name: "nothing", kind: media.KindVideo, ok: false},
		{name: "bracket stem", files: []string{"song [live].m4a"}, kind: media.KindAudio, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				touch(t, filepath.Join(dir, f))
			}
			got, err := Locate(dir, "song", tt.kind, "mp3")
			if !tt.ok {
				if !errors.Is(err, services.ErrAcquisition) {
					t.Fatalf("expected ErrAcquisition, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Locate returned error: %v", err)
			}
			if filepath.Base(got) != tt.want {
				t.Fatalf("Locate = %q, want %q", filepath.Base(got), tt.want)
			}
		})
	}
}

func TestLocateEscapesGlobCharacters(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "set [live].m4a"))
	got, err := Locate(dir, "set [live]", media.KindAudio, "mp3")
	if err != nil {
		t.Fatalf("Locate returned error: %v", err)
	}
	if filepath.Base(got) != "set [live].m4a" {
		t.Fatalf("unexpected match %q", got)
	}
}

func TestDownloadPassesConfiguredFFmpeg(t *testing.T) {
	dir := t.TempDir()
	d := New(Options{FFmpeg: "/opt/ffmpeg/bin/ffmpeg"}, logging.NewNop())
	var got FetchRequest
	d.WithFetchFunc(func(_ context.Context, req FetchRequest, _ func(float64)) error {
		got = req
		touch(t, filepath.Join(dir, "clip.mp3"))
		return nil
	})

	if _, err := d.Download(context.Background(), "https://example.com/v", "clip", media.KindAudio, dir, nil); err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if got.FFmpegLocation != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("ffmpeg location = %q", got.FFmpegLocation)
	}
}

func TestFFmpegLocation(t *testing.T) {
	bin := t.TempDir()
	stub := filepath.Join(bin, "ffmpeg-custom")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	t.Setenv("PATH", bin)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "absolute path kept", input: "/usr/local/bin/ffmpeg", want: "/usr/local/bin/ffmpeg"},
		{name: "bare name resolved", input: "ffmpeg-custom", want: stub},
		{name: "unknown name left to yt-dlp", input: "ffmpeg-missing", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ffmpegLocation(tt.input); got != tt.want {
				t.Fatalf("ffmpegLocation(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
