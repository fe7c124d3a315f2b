package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"clipper/internal/logging"
	"clipper/internal/media"
	"clipper/internal/services"
)

// DumpFunc returns the yt-dlp JSON dump for sourceRef.
type DumpFunc func(ctx context.Context, sourceRef string) ([]byte, error)

// Resolver fetches source metadata.
type Resolver struct {
	binary  string
	timeout time.Duration
	logger  *slog.Logger
	dump    DumpFunc
}

// New constructs a Resolver that runs the given yt-dlp binary.
func New(binary string, timeout time.Duration, logger *slog.Logger) *Resolver {
	r := &Resolver{
		binary:  strings.TrimSpace(binary),
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "resolver"),
	}
	r.dump = r.ytdlpDump
	return r
}

// WithDumpFunc replaces the metadata source (used in tests).
func (r *Resolver) WithDumpFunc(fn DumpFunc) {
	if r != nil && fn != nil {
		r.dump = fn
	}
}

// Resolve fetches and decodes metadata for sourceRef.
func (r *Resolver) Resolve(ctx context.Context, sourceRef string) (media.Descriptor, error) {
	sourceRef = strings.TrimSpace(sourceRef)
	if err := ValidateSourceRef(sourceRef); err != nil {
		return media.Descriptor{}, err
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	started := time.Now()
	data, err := r.dump(ctx, sourceRef)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return media.Descriptor{}, services.Wrap(services.ErrResolution, "resolving", "fetch metadata",
				fmt.Sprintf("timed out after %s", r.timeout), services.ErrTimeout)
		}
		return media.Descriptor{}, services.Wrap(services.ErrResolution, "resolving", "fetch metadata", "", err)
	}

	desc, err := ParseDump(data)
	if err != nil {
		return media.Descriptor{}, err
	}

	r.logger.Debug("metadata resolved",
		logging.String("source_id", desc.ID),
		logging.String("title", desc.Title),
		logging.Int("duration_seconds", desc.Duration),
		logging.Int("chapters", len(desc.Chapters)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return desc, nil
}

func (r *Resolver) ytdlpDump(ctx context.Context, sourceRef string) ([]byte, error) {
	cmd := ytdlp.New().
		DumpSingleJSON().
		SkipDownload().
		NoPlaylist().
		NoWarnings()
	if r.binary != "" {
		cmd.SetExecutable(r.binary)
	}
	result, err := cmd.Run(ctx, sourceRef)
	if err != nil {
		if result != nil && strings.TrimSpace(result.Stderr) != "" {
			return nil, fmt.Errorf("%w: %s", err, lastLine(result.Stderr))
		}
		return nil, err
	}
	return []byte(result.Stdout), nil
}

// ValidateSourceRef accepts absolute http(s) URLs only.
func ValidateSourceRef(sourceRef string) error {
	if sourceRef == "" {
		return services.Wrap(services.ErrValidation, "resolving", "validate source", "empty source reference", nil)
	}
	parsed, err := url.Parse(sourceRef)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return services.Wrap(services.ErrValidation, "resolving", "validate source",
			fmt.Sprintf("not an http(s) link: %q", sourceRef), nil)
	}
	return nil
}

func lastLine(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
