package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fastygo/portfolio/domain"
	"github.com/fastygo/portfolio/eventlog"
	"github.com/fastygo/portfolio/internal/infrastructure/buffer"
	"github.com/fastygo/portfolio/pkg/logger"
	"github.com/fastygo/portfolio/usecase"
)

// EventParker stores events the log rejected so the Republisher can append them later.
type EventParker struct {
	store   *buffer.Store
	streams eventlog.Streams
	logger  *zap.Logger
}

func NewEventParker(store *buffer.Store, streams eventlog.Streams, logger *zap.Logger) *EventParker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventParker{store: store, streams: streams, logger: logger}
}

// Park encodes and stores every event it can route. Events that cannot be routed or
// encoded would fail again on republish, so they are reported and skipped.
func (p *EventParker) Park(ctx context.Context, events []domain.Event, cause error) error {
	if p.store == nil {
		return domain.NewError(domain.ErrCodeInternal, "event buffer not configured")
	}
	log := logger.WithRequestID(ctx, p.logger)

	reason := ""
	if cause != nil {
		reason = cause.Error()
	}

	var errs []error
	for _, ev := range events {
		if ev == nil {
			continue
		}
		stream, err := p.streams.For(ev.Kind())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		env, err := eventlog.Encode(ev)
		if err != nil {
			errs = append(errs, domain.WrapError(domain.ErrCodePublish, "encode event", err))
			continue
		}
		if err := p.store.Enqueue(buffer.Item{Stream: stream, Envelope: env, Cause: reason}); err != nil {
			errs = append(errs, err)
			continue
		}
		log.Info("event parked for republish",
			zap.String("event_id", env.EventID),
			zap.String("kind", string(env.Kind)),
			zap.String("stream", stream))
	}
	return errors.Join(errs...)
}

var _ usecase.EventBuffer = (*EventParker)(nil)
