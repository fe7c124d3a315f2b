package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"clipper/internal/config"
)

func TestLoadDefaultConfigUsesEnvTokenAndExpandsPaths(t *testing.T) {
	t.Setenv("CLIPPER_TELEGRAM_TOKEN", "123:abc")
	t.Setenv("BOT_TOKEN", "")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantWork := filepath.Join(tempHome, ".local", "share", "clipper", "work")
	if cfg.Paths.WorkDir != wantWork {
		t.Fatalf("unexpected work dir: got %q want %q", cfg.Paths.WorkDir, wantWork)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Fatalf("expected token from env, got %q", cfg.Telegram.Token)
	}
	if cfg.API.Bind != "127.0.0.1:7490" {
		t.Fatalf("unexpected api bind: %q", cfg.API.Bind)
	}
	if cfg.MaxUploadBytes() != 50*1024*1024 {
		t.Fatalf("unexpected upload guard: %d", cfg.MaxUploadBytes())
	}
	if cfg.StatusMinInterval() != 2*time.Second {
		t.Fatalf("unexpected status interval: %s", cfg.StatusMinInterval())
	}
	if !cfg.Status.Pin {
		t.Fatal("expected pinning enabled by default")
	}
	if cfg.DatabasePath() != filepath.Join(tempHome, ".local", "share", "clipper", "clipper.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if err := cfg.RequireTelegram(); err != nil {
		t.Fatalf("RequireTelegram returned error: %v", err)
	}
}

func TestLoadFallsBackToBotTokenEnv(t *testing.T) {
	t.Setenv("CLIPPER_TELEGRAM_TOKEN", "")
	t.Setenv("BOT_TOKEN", "legacy-token")
	t.Setenv("HOME", t.TempDir())

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Telegram.Token != "legacy-token" {
		t.Fatalf("expected BOT_TOKEN fallback, got %q", cfg.Telegram.Token)
	}
}

func TestRequireTelegramWithoutToken(t *testing.T) {
	t.Setenv("CLIPPER_TELEGRAM_TOKEN", "")
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("HOME", t.TempDir())

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	err = cfg.RequireTelegram()
	if err == nil {
		t.Fatal("expected missing token error")
	}
	if !strings.Contains(err.Error(), "CLIPPER_TELEGRAM_TOKEN") {
		t.Fatalf("expected env var hint in error, got %v", err)
	}
}

func TestLoadCustomConfigOverridesDefaults(t *testing.T) {
	t.Setenv("CLIPPER_TELEGRAM_TOKEN", "")
	t.Setenv("BOT_TOKEN", "")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "clipper.toml")
	type fileConfig struct {
		Paths    config.Paths    `toml:"paths"`
		Telegram config.Telegram `toml:"telegram"`
		Pipeline config.Pipeline `toml:"pipeline"`
		Logging  config.Logging  `toml:"logging"`
	}
	payload, err := toml.Marshal(fileConfig{
		Paths:    config.Paths{WorkDir: "~/scratch"},
		Telegram: config.Telegram{Token: "file-token"},
		Pipeline: config.Pipeline{AudioCodec: "M4A", MaxUploadMB: 20, UploadPauseMillis: 250},
		Logging:  config.Logging{Format: "JSON", Level: "Debug"},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, payload, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config to be read from %q, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Paths.WorkDir != filepath.Join(tempHome, "scratch") {
		t.Fatalf("unexpected work dir: %q", cfg.Paths.WorkDir)
	}
	if cfg.Telegram.Token != "file-token" {
		t.Fatalf("unexpected token: %q", cfg.Telegram.Token)
	}
	if cfg.Pipeline.AudioCodec != "m4a" {
		t.Fatalf("expected codec to be lowercased, got %q", cfg.Pipeline.AudioCodec)
	}
	if cfg.UploadPause() != 250*time.Millisecond {
		t.Fatalf("unexpected upload pause: %s", cfg.UploadPause())
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Tools.YtDlp != "yt-dlp" {
		t.Fatalf("expected default yt-dlp binary, got %q", cfg.Tools.YtDlp)
	}
	if cfg.Pipeline.ThumbnailMaxSide != 320 {
		t.Fatalf("expected default thumbnail side, got %d", cfg.Pipeline.ThumbnailMaxSide)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "unknown codec",
			mutate: func(c *config.Config) { c.Pipeline.AudioCodec = "wma" },
			want:   "pipeline.audio_codec",
		},
		{
			name:   "negative upload limit",
			mutate: func(c *config.Config) { c.Pipeline.MaxUploadMB = -1 },
			want:   "pipeline.max_upload_mb",
		},
		{
			name:   "percent delta out of range",
			mutate: func(c *config.Config) { c.Status.MinPercentDelta = 101 },
			want:   "status.min_percent_delta",
		},
		{
			name:   "log format",
			mutate: func(c *config.Config) { c.Logging.Format = "xml" },
			want:   "logging.format",
		},
		{
			name:   "log level",
			mutate: func(c *config.Config) { c.Logging.Level = "trace" },
			want:   "logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestEnsureDirectoriesCreatesPaths(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.DataDir = filepath.Join(base, "data")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.Paths.WorkDir, cfg.Paths.LogDir, cfg.Paths.DataDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected %s to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %s to be a directory", dir)
		}
	}
}

func TestCreateSampleProducesLoadableConfig(t *testing.T) {
	t.Setenv("CLIPPER_TELEGRAM_TOKEN", "")
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	defaults := config.Default()
	if cfg.Pipeline.MaxUploadMB != defaults.Pipeline.MaxUploadMB {
		t.Fatalf("sample upload limit %d differs from default %d", cfg.Pipeline.MaxUploadMB, defaults.Pipeline.MaxUploadMB)
	}
	if cfg.Status.MinPercentDelta != defaults.Status.MinPercentDelta {
		t.Fatalf("sample percent delta %d differs from default %d", cfg.Status.MinPercentDelta, defaults.Status.MinPercentDelta)
	}
}
