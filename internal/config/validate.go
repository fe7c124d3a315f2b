package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateStatus(); err != nil {
		return err
	}
	return c.validateLogging()
}

// RequireTelegram reports whether the bot token needed by the daemon is present.
func (c *Config) RequireTelegram() error {
	if c.Telegram.Token != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = "~/.config/clipper/config.toml"
	}
	return fmt.Errorf("telegram.token is required. Set CLIPPER_TELEGRAM_TOKEN env var or edit %s (create with 'clipper config init')", defaultPath)
}

func (c *Config) validatePipeline() error {
	switch c.Pipeline.AudioCodec {
	case "mp3", "m4a", "opus", "aac", "flac", "vorbis", "wav":
	default:
		return fmt.Errorf("pipeline.audio_codec: unsupported value %q", c.Pipeline.AudioCodec)
	}
	if c.Pipeline.MaxUploadMB < 0 {
		return errors.New("pipeline.max_upload_mb must be zero (unlimited) or positive")
	}
	if c.Pipeline.UploadPauseMillis < 0 {
		return errors.New("pipeline.upload_pause_ms must not be negative")
	}
	if c.Pipeline.FailureDwellSeconds < 0 || c.Pipeline.NoticeDwellSeconds < 0 {
		return errors.New("pipeline dwell times must not be negative")
	}
	return nil
}

func (c *Config) validateStatus() error {
	if c.Status.MinIntervalMillis < 0 {
		return errors.New("status.min_interval_ms must not be negative")
	}
	if c.Status.MinPercentDelta < 0 || c.Status.MinPercentDelta > 100 {
		return errors.New("status.min_percent_delta must be between 0 and 100")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
