package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/portfolio/eventlog"
	"github.com/fastygo/portfolio/internal/infrastructure/buffer"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// EnvelopeAppender writes an already encoded envelope. eventlog.Publisher satisfies it.
type EnvelopeAppender interface {
	Append(ctx context.Context, stream string, env eventlog.Envelope) error
}

// RepublisherConfig controls how frequently parked events are retried and for how long
// they are kept.
type RepublisherConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// Republisher drains parked events back into the event log on a cron schedule.
type Republisher struct {
	store    *buffer.Store
	appender EnvelopeAppender
	monitor  ConnectionHealth
	logger   *zap.Logger
	cron     *cron.Cron
	cfg      RepublisherConfig
	now      func() time.Time
}

// DrainReport summarizes one pass over the buffer.
type DrainReport struct {
	Published int
	Requeued  int
	Dropped   int
	Expired   int
}

func NewRepublisher(
	store *buffer.Store,
	appender EnvelopeAppender,
	monitor ConnectionHealth,
	logger *zap.Logger,
	cfg RepublisherConfig,
) *Republisher {
	if cfg.Interval < time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Republisher{
		store:    store,
		appender: appender,
		monitor:  monitor,
		logger:   logger,
		cfg:      cfg,
		cron:     cron.New(cron.WithSeconds()),
		now:      time.Now,
	}

	r.cron.Schedule(interval(cfg.Interval), cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		report, err := r.Drain(ctx)
		if err != nil {
			r.logger.Error("republish pass failed", zap.Error(err))
			return
		}
		if report != (DrainReport{}) {
			r.logger.Info("republish pass finished",
				zap.Int("published", report.Published),
				zap.Int("requeued", report.Requeued),
				zap.Int("dropped", report.Dropped),
				zap.Int("expired", report.Expired))
		}
	}))

	return r
}

// interval fires every d exactly. cron.Every truncates to whole seconds.
type interval time.Duration

func (d interval) Next(t time.Time) time.Time {
	return t.Add(time.Duration(d))
}

// Start launches the cron scheduler.
func (r *Republisher) Start() {
	if r == nil || r.cron == nil {
		return
	}
	r.cron.Start()
	r.logger.Info("republisher started", zap.Duration("interval", r.cfg.Interval))
}

// Stop waits for a running pass to finish or ctx to expire.
func (r *Republisher) Stop(ctx context.Context) error {
	if r == nil || r.cron == nil {
		return nil
	}
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	r.logger.Info("republisher stopped")
	return nil
}

// Drain appends one batch of parked envelopes. An envelope that keeps failing is
// dropped after MaxRetries attempts.
func (r *Republisher) Drain(ctx context.Context) (DrainReport, error) {
	var report DrainReport
	if r == nil || r.store == nil {
		return report, nil
	}

	if r.cfg.Retention > 0 {
		expired, err := r.store.Cleanup(r.now().Add(-r.cfg.Retention))
		if err != nil {
			return report, err
		}
		if expired > 0 {
			r.logger.Warn("expired parked events discarded", zap.Int("count", expired))
		}
		report.Expired = expired
	}

	if r.monitor != nil && !r.monitor.IsOnline() {
		r.logger.Debug("skipping republish (offline)")
		return report, nil
	}

	items, err := r.store.GetBatch(r.cfg.BatchSize)
	if err != nil {
		return report, err
	}

	for _, item := range items {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		if err := r.appender.Append(ctx, item.Stream, item.Envelope); err != nil {
			item.Retries++
			item.Cause = err.Error()
			if item.Retries >= r.cfg.MaxRetries {
				r.logger.Error("dropping parked event (max retries reached)",
					zap.String("event_id", item.ID),
					zap.String("stream", item.Stream),
					zap.Int("retries", item.Retries),
					zap.Error(err))
				if err := r.store.Remove(item); err != nil {
					r.logger.Warn("failed to remove parked event", zap.Error(err))
				}
				report.Dropped++
				continue
			}
			if err := r.store.Requeue(item); err != nil {
				r.logger.Error("failed to requeue parked event", zap.String("event_id", item.ID), zap.Error(err))
			}
			report.Requeued++
			continue
		}

		if err := r.store.Remove(item); err != nil {
			r.logger.Warn("failed to purge republished event", zap.String("event_id", item.ID), zap.Error(err))
		}
		report.Published++
	}
	return report, nil
}

// Size returns the number of parked events.
func (r *Republisher) Size() int {
	if r == nil || r.store == nil {
		return 0
	}
	size, err := r.store.Size()
	if err != nil {
		return 0
	}
	return size
}
