// Package ffmpeg cuts time ranges out of acquired files by stream copy.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"clipper/internal/logging"
	"clipper/internal/services"
)

// CommandRunner executes an external command. Tests inject fakes.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// CutRequest describes one range to copy out of Source. End 0 copies to the
// end of the input.
type CutRequest struct {
	Source string
	Output string
	Start  int
	End    int
}

// Runner shells out to ffmpeg.
type Runner struct {
	binary string
	logger *slog.Logger
	run    CommandRunner
}

// New constructs a Runner for the given binary.
func New(binary string, logger *slog.Logger) *Runner {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Runner{
		binary: binary,
		logger: logging.NewComponentLogger(logger, "ffmpeg"),
		run:    defaultCommandRunner,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (r *Runner) WithCommandRunner(fn CommandRunner) {
	if r != nil && fn != nil {
		r.run = fn
	}
}

// Cut copies [Start, End) of the audio stream into Output without re-encoding.
// Output is written to a temporary sibling and renamed on success.
func (r *Runner) Cut(ctx context.Context, req CutRequest) error {
	if r == nil {
		return errors.New("ffmpeg runner not initialized")
	}
	if strings.TrimSpace(req.Source) == "" || strings.TrimSpace(req.Output) == "" {
		return services.Wrap(services.ErrValidation, "segmenting", "cut", "source and output are required", nil)
	}
	if req.Start < 0 || (req.End != 0 && req.End <= req.Start) {
		return services.Wrap(services.ErrValidation, "segmenting", "cut",
			fmt.Sprintf("invalid range %d-%d", req.Start, req.End), nil)
	}

	tmpPath := filepath.Join(filepath.Dir(req.Output), ".cut-"+filepath.Base(req.Output))
	args := CutArgs(req.Source, tmpPath, req.Start, req.End)

	r.logger.Debug("executing ffmpeg cut",
		logging.String("source", filepath.Base(req.Source)),
		logging.String("output", filepath.Base(req.Output)),
		logging.Int("start", req.Start),
		logging.Int("end", req.End),
	)

	if err := r.run(ctx, r.binary, args...); err != nil {
		_ = os.Remove(tmpPath)
		return services.Wrap(services.ErrSegmentTranscode, "segmenting", "ffmpeg cut", filepath.Base(req.Output), err)
	}
	if _, err := os.Stat(tmpPath); err != nil {
		return services.Wrap(services.ErrSegmentTranscode, "segmenting", "ffmpeg cut", "no output produced", err)
	}
	if err := os.Rename(tmpPath, req.Output); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("finalize segment: %w", err)
	}
	return nil
}

// CutArgs builds the ffmpeg argument list for a stream-copy audio cut.
func CutArgs(source, output string, start, end int) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-y", "-ss", strconv.Itoa(start)}
	if end > 0 {
		args = append(args, "-to", strconv.Itoa(end))
	}
	return append(args, "-i", source, "-map", "0:a", "-map_metadata", "-1", "-c", "copy", output)
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr strings.Builder
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			return err
		}
		return fmt.Errorf("%w: %s", err, detail)
	}
	return nil
}
