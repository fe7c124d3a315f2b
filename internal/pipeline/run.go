package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"clipper/internal/logging"
	"clipper/internal/media"
	"clipper/internal/media/tags"
	"clipper/internal/metrics"
	"clipper/internal/segmenter"
	"clipper/internal/services"
	"clipper/internal/session"
	"clipper/internal/status"
	"clipper/internal/timestamps"
)

// job holds the values a run snapshots at admission.
type job struct {
	id        string
	user      int64
	sourceRef string
	kind      media.Kind
	mode      media.Mode
	replyTo   int
	dir       string
	state     State
	logger    *slog.Logger

	desc      media.Descriptor
	entries   []media.TimestampEntry
	acquired  media.Acquired
	coverPath string
	units     []media.Segment
}

func (p *Pipeline) run(ctx context.Context, user int64, snap session.Session, release func()) (err error) {
	j := &job{
		id:        uuid.NewString(),
		user:      user,
		sourceRef: snap.SourceRef,
		kind:      snap.Kind,
		mode:      snap.Mode,
		replyTo:   snap.SourceMessageID,
	}
	ctx = services.WithJobID(services.WithUserID(ctx, j.user), j.id)
	j.logger = logging.WithContext(ctx, p.logger)
	j.dir = filepath.Join(p.opts.WorkDir, "jobs", j.id)

	metrics.JobsActive.Inc()
	started := time.Now()
	j.logger.Info("job started",
		logging.String(logging.FieldEventType, "job_start"),
		logging.String("source", j.sourceRef),
		logging.String("kind", j.kind.String()),
		logging.String("mode", j.mode.String()),
	)

	defer func() {
		p.cleanup(ctx, j, err)
		release()
		metrics.JobsActive.Dec()
		outcome := "done"
		if err != nil {
			outcome = "failed"
		}
		metrics.JobsTotal.WithLabelValues(outcome, j.kind.String(), j.mode.String()).Inc()
		j.logger.Info("job finished",
			logging.String(logging.FieldEventType, "job_finish"),
			logging.String("outcome", outcome),
			logging.Duration("elapsed", time.Since(started)),
		)
	}()

	if err = p.execute(ctx, j); err != nil {
		p.fail(ctx, j, err)
	}
	return err
}

func (p *Pipeline) execute(ctx context.Context, j *job) error {
	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "acquiring", "create job directory", j.dir, err)
	}
	stages := []struct {
		state State
		run   func(context.Context, *job) error
	}{
		{StateResolvingMetadata, p.resolve},
		{StateExtractingTimestamps, p.extractTimestamps},
		{StateAcquiring, p.acquire},
		{StateSegmenting, p.segment},
		{StateUploading, p.upload},
	}
	for _, stg := range stages {
		if stg.state == StateExtractingTimestamps && j.mode != media.ModeByTimestamps {
			continue
		}
		if stg.state == StateSegmenting && (j.mode != media.ModeByTimestamps || len(j.entries) == 0) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		p.transition(j, stg.state)
		stageCtx := services.WithStage(ctx, stg.state.String())
		stageStart := time.Now()
		err := stg.run(stageCtx, j)
		metrics.StageDuration.WithLabelValues(stg.state.String()).Observe(time.Since(stageStart).Seconds())
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) resolve(ctx context.Context, j *job) error {
	p.deps.Status.Report(ctx, j.user, progressText(textResolving, 1), status.Force())
	desc, err := p.deps.Resolver.Resolve(ctx, j.sourceRef)
	if err != nil {
		return err
	}
	j.desc = desc
	return nil
}

func (p *Pipeline) extractTimestamps(ctx context.Context, j *job) error {
	if j.kind == media.KindVideo {
		j.logger.Info("video jobs are delivered whole",
			logging.String(logging.FieldEventType, "mode_demoted"),
			logging.String("reason", "video"),
		)
		j.mode = media.ModeWhole
		return p.notice(ctx, j, textVideoWhole)
	}

	p.deps.Status.Report(ctx, j.user, textTimestamps)
	j.entries = timestamps.Extract(j.desc.Chapters, j.desc.Description)
	if len(j.entries) == 0 {
		j.logger.Info("no timestamps found; delivering whole file",
			logging.String(logging.FieldEventType, "mode_demoted"),
			logging.String("reason", "no_timestamps"),
		)
		j.mode = media.ModeWhole
		return p.notice(ctx, j, textNoTimestamps)
	}
	j.logger.Info("timestamps extracted", logging.Int("count", len(j.entries)))
	return nil
}

func (p *Pipeline) acquire(ctx context.Context, j *job) error {
	p.deps.Status.Report(ctx, j.user, progressText(textDownloading, 5), status.Force())

	progress := make(chan float64, 16)
	stop := make(chan struct{})
	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		for {
			select {
			case pct := <-progress:
				p.deps.Status.Report(ctx, j.user, progressText(textDownloading, downloadPercent(pct)))
			case <-stop:
				for {
					select {
					case pct := <-progress:
						p.deps.Status.Report(ctx, j.user, progressText(textDownloading, downloadPercent(pct)))
					default:
						return
					}
				}
			}
		}
	}()

	acquired, err := p.deps.Downloader.Download(ctx, j.sourceRef, j.desc.Title, j.kind, j.dir, progress)
	close(stop)
	<-consumed
	if err != nil {
		return err
	}
	j.acquired = acquired
	j.units = []media.Segment{{
		Path:  acquired.Path,
		Index: 1,
		Label: j.desc.Title,
		End:   j.desc.Duration,
	}}

	if j.kind == media.KindAudio && p.deps.Thumbnails != nil {
		cover, err := p.deps.Thumbnails.Fetch(ctx, j.desc, j.dir)
		if err != nil {
			logging.WarnWithContext(j.logger, "cover art unavailable", "thumbnail_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "files are delivered without cover art"),
			)
		} else {
			j.coverPath = cover
		}
	}
	if j.kind == media.KindAudio && j.mode == media.ModeWhole {
		p.tagWhole(j)
	}

	p.deps.Status.Report(ctx, j.user, progressText(textDownloading, 80))
	return nil
}

func (p *Pipeline) tagWhole(j *job) {
	if p.deps.Tagger == nil || !tags.Supports(j.acquired.Ext) {
		return
	}
	fields := tags.Fields{
		Title:     j.desc.Title,
		Artist:    j.desc.Uploader,
		CoverPath: j.coverPath,
	}
	if err := p.deps.Tagger.Tag(j.acquired.Path, fields); err != nil {
		logging.WarnWithContext(j.logger, "tagging failed; delivering untagged", "tagging_failed",
			logging.Error(err),
		)
	}
}

func (p *Pipeline) segment(ctx context.Context, j *job) error {
	p.deps.Status.Report(ctx, j.user, progressText(textSplitting, 80), status.Force())
	opts := segmenter.SplitOptions{
		Duration:  j.desc.Duration,
		Artist:    j.desc.Title,
		Album:     j.desc.Title,
		CoverPath: j.coverPath,
	}
	segments, err := p.deps.Segmenter.Split(ctx, j.acquired, j.entries, j.kind, opts, func(pct int) {
		p.deps.Status.Report(ctx, j.user, progressText(textSplitting, splitPercent(pct)))
	})
	if err != nil {
		return err
	}
	if len(segments) == 0 {
		return services.Wrap(services.ErrSegmentTranscode, "segmenting", "split", "no segment could be produced", nil)
	}
	j.units = segments
	j.logger.Info("segments produced",
		logging.Int("count", len(segments)),
		logging.Int("requested", len(j.entries)),
	)
	return nil
}

// notice shows text and holds it for the notice dwell.
func (p *Pipeline) notice(ctx context.Context, j *job, text string) error {
	p.deps.Status.Report(ctx, j.user, text, status.Force())
	return p.sleep(ctx, p.opts.NoticeDwell)
}

func (p *Pipeline) fail(ctx context.Context, j *job, err error) {
	p.transition(j, StateFailed)
	metrics.JobFailuresTotal.WithLabelValues(services.Kind(err)).Inc()
	logging.ErrorWithContext(j.logger, "job failed", "job_failed",
		logging.Error(err),
		logging.ErrorKind(err),
	)
	ctx = context.WithoutCancel(ctx)
	p.deps.Status.Report(ctx, j.user, errorText(err), status.Force())
	if sleepErr := p.sleep(ctx, p.opts.FailureDwell); sleepErr != nil {
		j.logger.Debug("failure dwell interrupted", logging.Error(sleepErr))
	}
}

// cleanup always runs: it removes the job directory, clears the session and
// resets the status. The gate is released by the caller afterwards.
func (p *Pipeline) cleanup(ctx context.Context, j *job, runErr error) {
	ctx = context.WithoutCancel(ctx)
	failed := j.state == StateFailed
	p.transition(j, StateCleaningUp)

	if j.dir != "" {
		if err := os.RemoveAll(j.dir); err != nil {
			logging.WarnWithContext(j.logger, "job directory cleanup failed", "cleanup_failed",
				logging.Error(err),
				logging.String("dir", j.dir),
				logging.String(logging.FieldImpact, "disk space is not reclaimed"),
				logging.String(logging.FieldErrorHint, fmt.Sprintf("remove %s manually", j.dir)),
			)
		}
	}
	p.deps.Sessions.Clear(j.user)
	p.deps.Status.Report(ctx, j.user, status.IdleText, status.Force())

	if failed || runErr != nil {
		p.transition(j, StateFailed)
		return
	}
	p.transition(j, StateDone)
}
