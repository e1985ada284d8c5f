package eventlog

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/portfolio/domain"
	"github.com/fastygo/portfolio/usecase"
)

// Appender writes one envelope to a named stream and returns the entry id the log
// assigned to it.
type Appender interface {
	Append(ctx context.Context, stream string, env Envelope) (string, error)
}

// Publisher implements usecase.EventPublisher on top of an Appender.
type Publisher struct {
	appender Appender
	streams  Streams
	clock    func() time.Time
	logger   *zap.Logger
}

type Option func(*Publisher)

// WithClock overrides the source of publish timestamps.
func WithClock(clock func() time.Time) Option {
	return func(p *Publisher) {
		if clock != nil {
			p.clock = clock
		}
	}
}

func NewPublisher(appender Appender, streams Streams, logger *zap.Logger, opts ...Option) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Publisher{
		appender: appender,
		streams:  streams,
		clock:    time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish routes, encodes and appends ev. Every failure is classified as ErrCodePublish.
func (p *Publisher) Publish(ctx context.Context, ev domain.Event) error {
	if ev == nil {
		return domain.NewError(domain.ErrCodePublish, "nil event")
	}
	stream, err := p.streams.For(ev.Kind())
	if err != nil {
		return err
	}
	env, err := Encode(ev)
	if err != nil {
		return domain.WrapError(domain.ErrCodePublish, "encode event", err)
	}
	return p.Append(ctx, stream, env)
}

// Append stamps env with the current time and writes it to stream. It is also used to
// republish parked envelopes.
func (p *Publisher) Append(ctx context.Context, stream string, env Envelope) error {
	env = env.Stamped(p.clock())
	entryID, err := p.appender.Append(ctx, stream, env)
	if err != nil {
		return domain.WrapError(domain.ErrCodePublish, "append to "+stream, err)
	}
	p.logger.Debug("event appended",
		zap.String("stream", stream),
		zap.String("entry_id", entryID),
		zap.String("event_id", env.EventID),
		zap.String("kind", string(env.Kind)))
	return nil
}

// Streams exposes the routing table, e.g. for parking events by destination.
func (p *Publisher) Streams() Streams {
	return p.streams
}

var _ usecase.EventPublisher = (*Publisher)(nil)
