package segmenter

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"clipper/internal/logging"
	"clipper/internal/media"
	"clipper/internal/media/ffmpeg"
	"clipper/internal/media/tags"
	"clipper/internal/services"
	"clipper/internal/textutil"
)

// Cutter copies a time range out of a file.
type Cutter interface {
	Cut(ctx context.Context, req ffmpeg.CutRequest) error
}

// Tagger writes metadata into a produced segment.
type Tagger interface {
	Tag(path string, fields tags.Fields) error
}

// DurationProber reports a file's duration in seconds.
type DurationProber interface {
	Duration(ctx context.Context, path string) (int, error)
}

// SplitOptions carries per-job values shared by every segment.
type SplitOptions struct {
	// Duration of the source in seconds; 0 means unknown.
	Duration  int
	Artist    string
	Album     string
	CoverPath string
}

// Segmenter produces segments from an acquired file.
type Segmenter struct {
	cutter Cutter
	tagger Tagger
	prober DurationProber
	logger *slog.Logger
}

// New constructs a Segmenter. prober may be nil.
func New(cutter Cutter, tagger Tagger, prober DurationProber, logger *slog.Logger) *Segmenter {
	return &Segmenter{
		cutter: cutter,
		tagger: tagger,
		prober: prober,
		logger: logging.NewComponentLogger(logger, "segmenter"),
	}
}

// Split cuts src at the entry offsets. progress, when non-nil, receives
// 0-100 after each entry is processed. Segments are returned in ascending
// index order; indexes match entry positions so gaps mark dropped segments.
func (s *Segmenter) Split(ctx context.Context, src media.Acquired, entries []media.TimestampEntry, kind media.Kind, opts SplitOptions, progress func(percent int)) ([]media.Segment, error) {
	if kind == media.KindVideo {
		return nil, services.Wrap(services.ErrNotImplemented, "segmenting", "split", "video segmentation is not supported", nil)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	logger := logging.WithContext(ctx, s.logger)
	duration := opts.Duration
	if duration <= 0 && s.prober != nil {
		probed, err := s.prober.Duration(ctx, src.Path)
		if err != nil {
			logger.Warn("duration probe failed; last segment will be skipped",
				logging.Error(err),
				logging.String(logging.FieldEventType, "duration_probe_failed"),
				logging.String(logging.FieldImpact, "final segment not delivered"),
			)
		} else {
			duration = probed
		}
	}

	dir := filepath.Dir(src.Path)
	total := len(entries)
	segments := make([]media.Segment, 0, total)
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return segments, err
		}

		index := i + 1
		start := entry.Offset
		end := duration
		if i+1 < total {
			end = entries[i+1].Offset
		}

		segment, ok := s.produce(ctx, logger, src, dir, index, total, entry, start, end, opts)
		if ok {
			segments = append(segments, segment)
		}
		if progress != nil {
			progress(index * 100 / total)
		}
	}
	return segments, nil
}

func (s *Segmenter) produce(ctx context.Context, logger *slog.Logger, src media.Acquired, dir string, index, total int, entry media.TimestampEntry, start, end int, opts SplitOptions) (media.Segment, bool) {
	if end <= 0 {
		logger.Warn("segment skipped; source duration unknown",
			logging.Int("segment", index),
			logging.String(logging.FieldEventType, "segment_skipped"),
		)
		return media.Segment{}, false
	}
	if end <= start {
		logger.Warn("segment skipped; empty range",
			logging.Int("segment", index),
			logging.Int("start", start),
			logging.Int("end", end),
			logging.String(logging.FieldEventType, "segment_skipped"),
		)
		return media.Segment{}, false
	}

	name := fmt.Sprintf("%02d. %s.%s", index, textutil.SanitizeFileName(entry.Label), src.Ext)
	output := filepath.Join(dir, name)
	if err := s.cutter.Cut(ctx, ffmpeg.CutRequest{Source: src.Path, Output: output, Start: start, End: end}); err != nil {
		logging.WarnWithContext(logger, "segment cut failed", "segment_transcode_failed",
			logging.Int("segment", index),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check ffmpeg stderr for the source container"),
		)
		return media.Segment{}, false
	}

	title := entry.Label
	if title == "" {
		title = fmt.Sprintf("Track %d", index)
	}
	if s.tagger != nil && tags.Supports(src.Ext) {
		err := s.tagger.Tag(output, tags.Fields{
			Title:      title,
			Artist:     opts.Artist,
			Album:      opts.Album,
			Track:      index,
			TrackTotal: total,
			CoverPath:  opts.CoverPath,
		})
		if err != nil {
			logging.WarnWithContext(logger, "segment tagging failed; delivering untagged", "segment_tagging_failed",
				logging.Int("segment", index),
				logging.Error(err),
			)
		}
	}

	return media.Segment{Path: output, Index: index, Label: title, Start: start, End: end}, true
}
