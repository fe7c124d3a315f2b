package pipeline

import (
	"context"
	"errors"

	"clipper/internal/fileutil"
	"clipper/internal/logging"
	"clipper/internal/media"
	"clipper/internal/metrics"
	"clipper/internal/services"
	"clipper/internal/status"
	"clipper/internal/transport"
)

// upload sends the job's units in ascending index order, one at a time.
// A unit that cannot be sent is skipped; the job fails only when nothing was
// delivered or the user became unreachable.
func (p *Pipeline) upload(ctx context.Context, j *job) error {
	total := len(j.units)
	p.deps.Status.Report(ctx, j.user, uploadingText(0, total), status.Force())

	delivered := 0
	var lastErr error
	for i, unit := range j.units {
		if i > 0 {
			if err := p.sleep(ctx, p.opts.UploadPause); err != nil {
				return err
			}
		}
		p.deps.Status.Report(ctx, j.user, uploadingText(i+1, total), status.Force())

		err := p.uploadOne(ctx, j, unit)
		switch {
		case err == nil:
			delivered++
		case errors.Is(err, transport.ErrUnreachable):
			p.deactivate(ctx, j)
			return services.Wrap(services.ErrDelivery, "uploading", "send file", "user is unreachable", err)
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			lastErr = err
		}
	}

	if delivered == 0 {
		return services.Wrap(services.ErrDelivery, "uploading", "send file", "no file could be delivered", lastErr)
	}
	j.logger.Info("delivery complete",
		logging.String(logging.FieldEventType, "delivery_complete"),
		logging.Int("delivered", delivered),
		logging.Int("total", total),
	)
	return nil
}

func (p *Pipeline) uploadOne(ctx context.Context, j *job, unit media.Segment) error {
	logger := j.logger.With(
		logging.Int("index", unit.Index),
		logging.String("label", unit.Label),
	)

	size, err := fileutil.FileSize(unit.Path)
	if err != nil {
		metrics.SegmentsSkippedTotal.WithLabelValues("missing").Inc()
		logging.WarnWithContext(logger, "segment file missing; skipped", "upload_skipped", logging.Error(err))
		return err
	}
	if p.opts.MaxUploadBytes > 0 && size > p.opts.MaxUploadBytes {
		metrics.SegmentsSkippedTotal.WithLabelValues("too_large").Inc()
		logging.WarnWithContext(logger, "segment exceeds upload limit; skipped", "upload_skipped",
			logging.Int64("size_bytes", size),
			logging.Int64("limit_bytes", p.opts.MaxUploadBytes),
			logging.String(logging.FieldErrorHint, "raise pipeline.max_upload_mb if the transport allows it"),
		)
		p.tellUser(ctx, j, tooLargeText(unit.Label, size, p.opts.MaxUploadBytes))
		return transport.ErrTooLarge
	}

	upload := p.buildUpload(j, unit)
	_, err = p.deps.Messenger.SendFile(ctx, j.user, upload)
	if wait, throttled := transport.RetryAfter(err); throttled {
		logger.Info("upload throttled; retrying once", logging.Duration("wait", wait))
		if sleepErr := p.sleep(ctx, wait); sleepErr != nil {
			return sleepErr
		}
		_, err = p.deps.Messenger.SendFile(ctx, j.user, upload)
	}
	if err != nil {
		if errors.Is(err, transport.ErrUnreachable) {
			return err
		}
		reason := "failed"
		if errors.Is(err, transport.ErrTooLarge) {
			reason = "too_large"
		} else if _, throttled := transport.RetryAfter(err); throttled {
			reason = "throttled"
		}
		metrics.SegmentsSkippedTotal.WithLabelValues(reason).Inc()
		logging.WarnWithContext(logger, "upload failed; segment skipped", "upload_failed",
			logging.Error(err),
			logging.String("reason", reason),
			logging.String(logging.FieldImpact, "user does not receive this file"),
		)
		return err
	}

	metrics.SegmentsDeliveredTotal.Inc()
	metrics.DeliveredBytesTotal.Add(float64(size))
	logger.Debug("file delivered", logging.Int64("size_bytes", size))
	return nil
}

func (p *Pipeline) buildUpload(j *job, unit media.Segment) transport.Upload {
	upload := transport.Upload{
		Path:     unit.Path,
		Kind:     j.kind,
		Title:    unit.Label,
		Duration: unit.Duration(),
		ReplyTo:  j.replyTo,
	}
	if j.kind == media.KindAudio {
		upload.Performer = j.desc.Uploader
		if j.mode == media.ModeByTimestamps {
			upload.Performer = j.desc.Title
		}
		upload.ThumbPath = j.coverPath
	} else {
		upload.Caption = "🎬 " + unit.Label
	}
	return upload
}

// tellUser sends a standalone notice next to the status message.
func (p *Pipeline) tellUser(ctx context.Context, j *job, text string) {
	if _, err := p.deps.Messenger.SendText(ctx, j.user, text); err != nil {
		j.logger.Debug("notice delivery failed", logging.Error(err))
	}
}

func (p *Pipeline) deactivate(ctx context.Context, j *job) {
	metrics.UsersDeactivatedTotal.Inc()
	if p.deps.Registry == nil {
		return
	}
	if err := p.deps.Registry.Deactivate(context.WithoutCancel(ctx), j.user); err != nil {
		j.logger.Warn("deactivate user failed", logging.Error(err))
		return
	}
	j.logger.Info("user unreachable; deactivated",
		logging.String(logging.FieldEventType, "user_deactivated"),
	)
}
