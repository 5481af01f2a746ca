package pipeline

import (
	"context"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"murmur/internal/history"
	"murmur/internal/logging"
	"murmur/internal/notifications"
	"murmur/internal/services"
)

// ProcessBatch transcribes paths on a pool of Options.Workers goroutines and
// returns one FileResult per path in input order. A cancelled context stops
// files that have not started; they are reported as interrupted.
func (p *Pipeline) ProcessBatch(ctx context.Context, paths []string) BatchResult {
	runID := p.newRunID()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, p.logger)

	batch := BatchResult{
		RunID:     runID,
		Files:     make([]FileResult, len(paths)),
		StartedAt: p.now(),
	}
	logger.Info("batch started",
		logging.String(logging.FieldEventType, "batch_started"),
		logging.Int("files", len(paths)),
		logging.Int("workers", p.opts.Workers),
		logging.Int("max_concurrent", p.engine.Settings().MaxConcurrent),
		logging.Float64("rate_per_second", p.engine.Settings().RatePerSecond),
	)
	p.notify(ctx, notifications.EventBatchStarted, notifications.Payload{"count": len(paths)})

	var g errgroup.Group
	g.SetLimit(p.opts.Workers)
	for i, path := range paths {
		g.Go(func() error {
			var res FileResult
			if err := ctx.Err(); err != nil {
				now := p.now()
				res = FileResult{Path: path, Status: history.StatusInterrupted, Err: err, StartedAt: now, FinishedAt: now}
			} else {
				res = p.ProcessFile(ctx, path)
			}
			p.record(ctx, runID, res)
			if res.Status == history.StatusFailed {
				p.notify(ctx, notifications.EventFileFailed, notifications.Payload{
					"file":  filepath.Base(res.Path),
					"error": res.Err,
				})
			}
			batch.Files[i] = res
			return nil
		})
	}
	_ = g.Wait()

	batch.FinishedAt = p.now()
	summary := batch.Summary()
	logger.Info("batch finished",
		logging.String(logging.FieldEventType, "batch_finished"),
		logging.Int("completed", summary.Completed),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Int("interrupted", summary.Interrupted),
		logging.Duration("duration", batch.Duration()),
	)
	p.notify(ctx, notifications.EventBatchCompleted, notifications.Payload{
		"succeeded": summary.Completed,
		"failed":    summary.Failed + summary.Interrupted,
		"skipped":   summary.Skipped,
		"duration":  batch.Duration(),
	})
	return batch
}

func (p *Pipeline) record(ctx context.Context, runID string, res FileResult) {
	if p.history == nil {
		return
	}
	if _, err := p.history.Record(context.WithoutCancel(ctx), res.Outcome(runID)); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "history record failed", "history_record_failed",
			logging.String(logging.FieldSource, res.Path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the history database path and permissions"),
			logging.String(logging.FieldImpact, "this outcome is missing from murmur history"),
		)
	}
}

func (p *Pipeline) notify(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := p.notifier.Publish(context.WithoutCancel(ctx), event, payload); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "a push notification was not delivered"),
		)
	}
}
