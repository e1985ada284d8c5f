// Package redis appends event envelopes to Redis Streams with XADD.
package redis

import (
	"context"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/portfolio/eventlog"
)

// StreamClient is the subset of the go-redis client used here.
type StreamClient interface {
	XAdd(ctx context.Context, a *redislib.XAddArgs) *redislib.StringCmd
}

type Appender struct {
	client StreamClient
	maxLen int64
}

// NewAppender returns an appender writing through client. A positive maxLen caps each
// stream with approximate trimming.
func NewAppender(client StreamClient, maxLen int64) *Appender {
	return &Appender{client: client, maxLen: maxLen}
}

// Append adds env as a single stream entry; Redis assigns the entry id.
func (a *Appender) Append(ctx context.Context, stream string, env eventlog.Envelope) (string, error) {
	args := &redislib.XAddArgs{
		Stream: stream,
		ID:     "*",
		Values: env.Fields(),
	}
	if a.maxLen > 0 {
		args.MaxLen = a.maxLen
		args.Approx = true
	}
	return a.client.XAdd(ctx, args).Result()
}

var _ eventlog.Appender = (*Appender)(nil)
