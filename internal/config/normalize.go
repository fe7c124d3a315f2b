package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTelegram()
	c.normalizeTools()
	c.normalizePipeline()
	c.normalizeLogging()
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	c.API.Token = strings.TrimSpace(c.API.Token)
	if token := strings.TrimSpace(os.Getenv("CLIPPER_API_TOKEN")); token != "" {
		c.API.Token = token
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTelegram() {
	c.Telegram.Token = strings.TrimSpace(c.Telegram.Token)
	if c.Telegram.Token == "" {
		for _, key := range []string{"CLIPPER_TELEGRAM_TOKEN", "BOT_TOKEN"} {
			if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
				c.Telegram.Token = strings.TrimSpace(value)
				break
			}
		}
	}
	if c.Telegram.RequestTimeoutSeconds <= 0 {
		c.Telegram.RequestTimeoutSeconds = defaultRequestTimeoutSeconds
	}
	if c.Telegram.PollTimeoutSeconds <= 0 {
		c.Telegram.PollTimeoutSeconds = defaultPollTimeoutSeconds
	}
	if c.Telegram.MessagesPerSecond <= 0 {
		c.Telegram.MessagesPerSecond = defaultMessagesPerSecond
	}
}

func (c *Config) normalizeTools() {
	c.Tools.YtDlp = defaultString(c.Tools.YtDlp, "yt-dlp")
	c.Tools.FFmpeg = defaultString(c.Tools.FFmpeg, "ffmpeg")
	c.Tools.FFprobe = defaultString(c.Tools.FFprobe, "ffprobe")
}

func (c *Config) normalizePipeline() {
	c.Pipeline.AudioCodec = strings.ToLower(defaultString(c.Pipeline.AudioCodec, defaultAudioCodec))
	c.Pipeline.AudioBitrate = defaultString(c.Pipeline.AudioBitrate, defaultAudioBitrate)
	if c.Pipeline.MetadataTimeoutSeconds <= 0 {
		c.Pipeline.MetadataTimeoutSeconds = defaultMetadataTimeoutSeconds
	}
	if c.Pipeline.ThumbnailTimeoutSeconds <= 0 {
		c.Pipeline.ThumbnailTimeoutSeconds = defaultThumbnailTimeoutSeconds
	}
	if c.Pipeline.ThumbnailMaxSide <= 0 {
		c.Pipeline.ThumbnailMaxSide = defaultThumbnailMaxSide
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(defaultString(c.Logging.Format, defaultLogFormat))
	c.Logging.Level = strings.ToLower(defaultString(c.Logging.Level, defaultLogLevel))
}

func defaultString(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}
