package service

import (
	"context"
	"time"

	"issuebridge/internal/platform/logger"
)

// Worker triggers a batch for every tracker with queued comments on a fixed interval
type Worker struct {
	svc      *Service
	interval time.Duration
	log      logger.Logger
}

// NewWorker returns a worker; interval <= 0 means fifteen minutes
func NewWorker(svc *Service, interval time.Duration, log logger.Logger) *Worker {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Worker{svc: svc, interval: interval, log: log}
}

// Run ticks until ctx is done; a failed round is logged and retried next tick
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// Tick runs one round synchronously
func (w *Worker) Tick(ctx context.Context) {
	rows, err := w.svc.Status(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("list resubmit queues failed")
		return
	}
	for _, row := range rows {
		if row.QueueSize == 0 {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		res, err := w.svc.Resubmit(ctx, row.IssueTracker)
		if err != nil {
			w.log.Warn().Err(err).Str("tracker", row.IssueTracker).Msg("scheduled resubmit failed")
			continue
		}
		w.log.Info().
			Str("tracker", row.IssueTracker).
			Int("remove", len(res.Remove)).
			Int("requeue", len(res.Requeue)).
			Msg("scheduled resubmit done")
	}
}
