// Package kafka appends event envelopes to Kafka topics, one topic per stream.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/fastygo/portfolio/eventlog"
)

const headerKind = "kind"

type Appender struct {
	producer sarama.SyncProducer
}

func NewAppender(producer sarama.SyncProducer) *Appender {
	return &Appender{producer: producer}
}

// Append sends env as JSON keyed by its event id and returns "partition-offset".
func (a *Appender) Append(ctx context.Context, stream string, env eventlog.Envelope) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	body, err := json.Marshal(env)
	if err != nil {
		return "", err
	}

	partition, offset, err := a.producer.SendMessage(&sarama.ProducerMessage{
		Topic: stream,
		Key:   sarama.StringEncoder(env.EventID),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte(headerKind), Value: []byte(env.Kind)},
		},
		Timestamp: env.PublishedAt,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d-%d", partition, offset), nil
}

var _ eventlog.Appender = (*Appender)(nil)
