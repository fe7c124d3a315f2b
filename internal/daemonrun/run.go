package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"clipper/internal/acquisition"
	"clipper/internal/bot"
	"clipper/internal/config"
	"clipper/internal/daemon"
	"clipper/internal/logging"
	"clipper/internal/media/ffmpeg"
	"clipper/internal/media/ffprobe"
	"clipper/internal/media/tags"
	"clipper/internal/media/thumbnail"
	"clipper/internal/pipeline"
	"clipper/internal/preflight"
	"clipper/internal/registry"
	"clipper/internal/resolver"
	"clipper/internal/segmenter"
	"clipper/internal/session"
	"clipper/internal/status"
	"clipper/internal/transport"
	"clipper/internal/transport/telegram"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Components is the job machinery shared by the daemon and the fetch command.
type Components struct {
	Sessions *session.Store
	Gate     *session.Gate
	Resolver *resolver.Resolver
	Reporter *status.Reporter
	Pipeline *pipeline.Pipeline
}

// Build wires resolver, acquisition, segmentation, status reporting and the
// pipeline on top of messenger and the given user registry.
func Build(cfg *config.Config, messenger transport.Messenger, users status.Registry, logger *slog.Logger) (*Components, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if messenger == nil || users == nil {
		return nil, errors.New("messenger and user registry are required")
	}

	reporter := status.NewReporter(messenger, users, status.Options{
		MinInterval:     cfg.StatusMinInterval(),
		MinPercentDelta: cfg.Status.MinPercentDelta,
		Pin:             cfg.Status.Pin,
	}, logger)

	res := resolver.New(cfg.Tools.YtDlp, cfg.MetadataTimeout(), logger)
	downloader := acquisition.New(acquisition.Options{
		Binary:       cfg.Tools.YtDlp,
		FFmpeg:       cfg.Tools.FFmpeg,
		AudioCodec:   cfg.Pipeline.AudioCodec,
		AudioBitrate: cfg.Pipeline.AudioBitrate,
	}, logger)
	tagger := tags.NewTagger(logger)
	splitter := segmenter.New(ffmpeg.New(cfg.Tools.FFmpeg, logger), tagger, ffprobe.Prober{Binary: cfg.Tools.FFprobe}, logger)

	c := &Components{
		Sessions: session.NewStore(),
		Gate:     session.NewGate(),
		Resolver: res,
		Reporter: reporter,
	}
	c.Pipeline = pipeline.New(pipeline.Dependencies{
		Sessions:   c.Sessions,
		Gate:       c.Gate,
		Resolver:   res,
		Downloader: downloader,
		Segmenter:  splitter,
		Thumbnails: thumbnail.NewFetcher(cfg.ThumbnailTimeout(), cfg.Pipeline.ThumbnailMaxSide, logger),
		Tagger:     tagger,
		Status:     reporter,
		Messenger:  messenger,
		Registry:   users,
	}, pipeline.OptionsFromConfig(cfg), logger)
	return c, nil
}

// Run starts the clipper daemon and serves chat updates until interrupted.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.RequireTelegram(); err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logPath := filepath.Join(cfg.Paths.LogDir, "clipper.log")
	logger, err := logging.New(logging.Options{
		Level:            firstNonEmpty(opts.LogLevel, cfg.Logging.Level),
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)
	for _, result := range preflight.Failed(preflight.RunAll(signalCtx, cfg, "")) {
		logger.Warn("preflight check failed",
			logging.String(logging.FieldEventType, "preflight_failed"),
			logging.Alert("preflight"),
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, "jobs may fail until the check passes"),
		)
	}

	pidPath := filepath.Join(cfg.Paths.LogDir, "clipper.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := registry.Open(cfg)
	if err != nil {
		logger.Error("open user registry", logging.Error(err))
		return err
	}
	defer store.Close()

	client, err := telegram.New(telegram.Options{
		Token:             cfg.Telegram.Token,
		RequestTimeout:    cfg.TelegramRequestTimeout(),
		MessagesPerSecond: cfg.Telegram.MessagesPerSecond,
		PollTimeout:       cfg.TelegramPollTimeout(),
	}, logger)
	if err != nil {
		return err
	}

	components, err := Build(cfg, client, store, logger)
	if err != nil {
		return err
	}

	d, err := daemon.New(cfg, store, components.Reporter, components.Pipeline, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Start(signalCtx); err != nil {
		return err
	}
	defer d.Stop()

	b := bot.New(bot.Dependencies{
		Chat:     client,
		Sessions: components.Sessions,
		Gate:     components.Gate,
		Resolver: components.Resolver,
		Pipeline: components.Pipeline,
		Registry: store,
		Status:   components.Reporter,
	}, logger)
	b.Run(signalCtx, client.Updates(signalCtx))

	logger.Info("clipper daemon shutting down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("telegram_token_present", strings.TrimSpace(cfg.Telegram.Token) != ""),
		logging.Bool("ytdlp_available", binaryAvailable(cfg.Tools.YtDlp)),
		logging.String("ytdlp_binary", cfg.Tools.YtDlp),
		logging.Bool("ffmpeg_available", binaryAvailable(cfg.Tools.FFmpeg)),
		logging.String("ffmpeg_binary", cfg.Tools.FFmpeg),
		logging.Bool("ffprobe_available", binaryAvailable(cfg.Tools.FFprobe)),
		logging.String("ffprobe_binary", cfg.Tools.FFprobe),
		logging.String("api_bind", cfg.API.Bind),
	)
}

func binaryAvailable(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
