package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkDir string `toml:"work_dir"`
	LogDir  string `toml:"log_dir"`
	DataDir string `toml:"data_dir"`
}

// Telegram contains Bot API credentials and pacing.
type Telegram struct {
	Token                 string  `toml:"token"`
	RequestTimeoutSeconds int     `toml:"request_timeout_seconds"`
	PollTimeoutSeconds    int     `toml:"poll_timeout_seconds"`
	MessagesPerSecond     float64 `toml:"messages_per_second"`
}

// Tools names the external binaries the pipeline shells out to.
type Tools struct {
	YtDlp   string `toml:"ytdlp"`
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
}

// Pipeline contains acquisition, segmentation, and delivery settings.
type Pipeline struct {
	AudioCodec              string `toml:"audio_codec"`
	AudioBitrate            string `toml:"audio_bitrate"`
	MaxUploadMB             int    `toml:"max_upload_mb"`
	UploadPauseMillis       int    `toml:"upload_pause_ms"`
	FailureDwellSeconds     int    `toml:"failure_dwell_seconds"`
	NoticeDwellSeconds      int    `toml:"notice_dwell_seconds"`
	MetadataTimeoutSeconds  int    `toml:"metadata_timeout_seconds"`
	ThumbnailTimeoutSeconds int    `toml:"thumbnail_timeout_seconds"`
	ThumbnailMaxSide        int    `toml:"thumbnail_max_side"`
}

// Status contains throttling for the pinned status message.
type Status struct {
	MinIntervalMillis int  `toml:"min_interval_ms"`
	MinPercentDelta   int  `toml:"min_percent_delta"`
	Pin               bool `toml:"pin"`
}

// API contains the HTTP listener for health, metrics and job status.
type API struct {
	Bind  string `toml:"bind"`
	Token string `toml:"token"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for clipper.
//
// Configuration sections by subsystem:
//   - Paths: job scratch space, logs, and the user registry database
//   - Telegram: bot token and Bot API pacing
//   - Tools: yt-dlp, ffmpeg, and ffprobe binaries
//   - Pipeline: audio target, upload guard, dwell times, fetch timeouts
//   - Status: status-message coalescing and pinning
//   - API: health and metrics listener
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Telegram Telegram `toml:"telegram"`
	Tools    Tools    `toml:"tools"`
	Pipeline Pipeline `toml:"pipeline"`
	Status   Status   `toml:"status"`
	API      API      `toml:"api"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/clipper/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("clipper.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.LogDir, c.Paths.DataDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the user registry database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "clipper.db")
}

// LockPath returns the location of the single-instance daemon lock.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "clipper.lock")
}

// MetadataTimeout bounds the metadata fetch for one source.
func (c *Config) MetadataTimeout() time.Duration {
	return time.Duration(c.Pipeline.MetadataTimeoutSeconds) * time.Second
}

// ThumbnailTimeout bounds the cover art download.
func (c *Config) ThumbnailTimeout() time.Duration {
	return time.Duration(c.Pipeline.ThumbnailTimeoutSeconds) * time.Second
}

// UploadPause is the delay enforced between consecutive uploads of one job.
func (c *Config) UploadPause() time.Duration {
	return time.Duration(c.Pipeline.UploadPauseMillis) * time.Millisecond
}

// FailureDwell is how long a failure message stays visible before the idle text returns.
func (c *Config) FailureDwell() time.Duration {
	return time.Duration(c.Pipeline.FailureDwellSeconds) * time.Second
}

// NoticeDwell is how long informational notices stay visible mid-job.
func (c *Config) NoticeDwell() time.Duration {
	return time.Duration(c.Pipeline.NoticeDwellSeconds) * time.Second
}

// MaxUploadBytes is the largest file the transport will be asked to send.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Pipeline.MaxUploadMB) * 1024 * 1024
}

// StatusMinInterval is the minimum spacing between status message updates.
func (c *Config) StatusMinInterval() time.Duration {
	return time.Duration(c.Status.MinIntervalMillis) * time.Millisecond
}

// TelegramRequestTimeout bounds a single Bot API request.
func (c *Config) TelegramRequestTimeout() time.Duration {
	return time.Duration(c.Telegram.RequestTimeoutSeconds) * time.Second
}

// TelegramPollTimeout is how long one long-poll request waits for updates.
func (c *Config) TelegramPollTimeout() time.Duration {
	return time.Duration(c.Telegram.PollTimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
