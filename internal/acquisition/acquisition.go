package acquisition

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lrstanley/go-ytdlp"

	"clipper/internal/logging"
	"clipper/internal/media"
	"clipper/internal/services"
	"clipper/internal/textutil"
)

const (
	videoFormat = "best[ext=mp4]/bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"
	audioFormat = "bestaudio[ext=m4a]/bestaudio/best"

	progressInterval = 500 * time.Millisecond
)

var (
	videoExtensions = []string{".mp4", ".mkv", ".webm"}
	audioExtensions = []string{".mp3", ".m4a", ".opus"}
)

// FetchRequest is the yt-dlp invocation for one download.
type FetchRequest struct {
	SourceRef      string
	OutputTemplate string
	Format         string
	ExtractAudio   bool
	AudioFormat    string
	AudioQuality   string
	FFmpegLocation string
}

// FetchFunc performs the download, calling progress with 0-100 percentages.
type FetchFunc func(ctx context.Context, req FetchRequest, progress func(percent float64)) error

// Options configures audio post-processing. FFmpeg is the binary yt-dlp
// merges and extracts with; a bare name is resolved on PATH.
type Options struct {
	Binary       string
	FFmpeg       string
	AudioCodec   string
	AudioBitrate string
}

// Downloader acquires media files.
type Downloader struct {
	opts   Options
	logger *slog.Logger
	fetch  FetchFunc
}

// New constructs a Downloader.
func New(opts Options, logger *slog.Logger) *Downloader {
	if strings.TrimSpace(opts.AudioCodec) == "" {
		opts.AudioCodec = "mp3"
	}
	if strings.TrimSpace(opts.AudioBitrate) == "" {
		opts.AudioBitrate = "192K"
	}
	opts.FFmpeg = ffmpegLocation(opts.FFmpeg)
	d := &Downloader{
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "acquisition"),
	}
	d.fetch = d.ytdlpFetch
	return d
}

// WithFetchFunc replaces the downloader backend (used in tests).
func (d *Downloader) WithFetchFunc(fn FetchFunc) {
	if d != nil && fn != nil {
		d.fetch = fn
	}
}

// Download fetches sourceRef into dir and returns the produced file. Progress
// percentages are offered to progress without blocking; progress may be nil.
func (d *Downloader) Download(ctx context.Context, sourceRef, title string, kind media.Kind, dir string, progress chan<- float64) (media.Acquired, error) {
	name := textutil.SanitizeFileName(title)
	req := FetchRequest{
		SourceRef:      sourceRef,
		OutputTemplate: filepath.Join(dir, name+".%(ext)s"),
		Format:         videoFormat,
		FFmpegLocation: d.opts.FFmpeg,
	}
	if kind == media.KindAudio {
		req.Format = audioFormat
		req.ExtractAudio = true
		req.AudioFormat = d.opts.AudioCodec
		req.AudioQuality = d.opts.AudioBitrate
	}

	logger := logging.WithContext(ctx, d.logger)
	sampler := logging.NewProgressSampler(10)
	report := func(percent float64) {
		if percent < 0 {
			percent = 0
		}
		if percent > 100 {
			percent = 100
		}
		if progress != nil {
			select {
			case progress <- percent:
			default:
			}
		}
		if sampler.ShouldLog(percent) {
			logger.Debug("download progress",
				logging.Float64("percent", percent),
				logging.Int("pass", sampler.Passes()),
			)
		}
	}

	started := time.Now()
	if err := d.fetch(ctx, req, report); err != nil {
		if ctx.Err() != nil {
			return media.Acquired{}, ctx.Err()
		}
		return media.Acquired{}, services.Wrap(services.ErrAcquisition, "acquiring", "download", "", err)
	}

	path, err := Locate(dir, name, kind, d.opts.AudioCodec)
	if err != nil {
		return media.Acquired{}, err
	}

	attrs := []logging.Attr{
		logging.String("file", filepath.Base(path)),
		logging.String("kind", kind.String()),
		logging.Duration("elapsed", time.Since(started)),
	}
	if info, statErr := os.Stat(path); statErr == nil {
		attrs = append(attrs, logging.String("size", humanize.Bytes(uint64(info.Size()))))
	}
	logger.Info("download complete", logging.Args(attrs...)...)
	return media.NewAcquired(path), nil
}

// Locate finds the file yt-dlp produced for name. The expected extension is
// tried first, then any file with the same stem and a known extension.
func Locate(dir, name string, kind media.Kind, audioCodec string) (string, error) {
	preferred := ".mp4"
	allowed := videoExtensions
	if kind == media.KindAudio {
		preferred = "." + strings.ToLower(strings.TrimSpace(audioCodec))
		if preferred == "." {
			preferred = ".mp3"
		}
		allowed = append([]string{preferred}, audioExtensions...)
	}

	exact := filepath.Join(dir, name+preferred)
	if info, err := os.Stat(exact); err == nil && !info.IsDir() {
		return exact, nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, globEscape(name)+".*"))
	if err != nil {
		return "", services.Wrap(services.ErrAcquisition, "acquiring", "locate output", name, err)
	}
	sort.Strings(matches)
	for _, ext := range allowed {
		for _, match := range matches {
			if strings.EqualFold(filepath.Ext(match), ext) {
				return match, nil
			}
		}
	}
	return "", services.Wrap(services.ErrAcquisition, "acquiring", "locate output",
		fmt.Sprintf("no %s file produced for %q", kind, name), nil)
}

// ffmpegLocation returns a path yt-dlp accepts for --ffmpeg-location, or ""
// to let yt-dlp search on its own.
func ffmpegLocation(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if strings.ContainsRune(name, filepath.Separator) {
		return name
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return ""
	}
	return path
}

func globEscape(value string) string {
	replacer := strings.NewReplacer("[", `\[`, "]", `\]`, "*", `\*`, "?", `\?`)
	return replacer.Replace(value)
}

func (d *Downloader) ytdlpFetch(ctx context.Context, req FetchRequest, progress func(float64)) error {
	cmd := ytdlp.New().
		NoPlaylist().
		NoWarnings().
		ForceOverwrites().
		Format(req.Format).
		Output(req.OutputTemplate)
	if d.opts.Binary != "" {
		cmd.SetExecutable(d.opts.Binary)
	}
	if req.FFmpegLocation != "" {
		cmd.FFmpegLocation(req.FFmpegLocation)
	}
	if req.ExtractAudio {
		cmd.ExtractAudio().AudioFormat(req.AudioFormat).AudioQuality(req.AudioQuality)
	}

	cmd.ProgressFunc(progressInterval, func(update ytdlp.ProgressUpdate) {
		if update.TotalBytes > 0 {
			progress(float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100)
		}
	})

	result, err := cmd.Run(ctx, req.SourceRef)
	if err != nil {
		if result != nil && strings.TrimSpace(result.Stderr) != "" {
			lines := strings.Split(strings.TrimSpace(result.Stderr), "\n")
			return fmt.Errorf("%w: %s", err, strings.TrimSpace(lines[len(lines)-1]))
		}
		return err
	}
	return nil
}
