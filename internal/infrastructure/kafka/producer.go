package kafka

import (
	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/fastygo/portfolio/internal/config"
)

// NewConfig returns the producer settings used for the transaction event log:
// idempotent, fully acknowledged writes so a retried send cannot duplicate an entry.
func NewConfig(cfg config.KafkaConfig) *sarama.Config {
	sc := sarama.NewConfig()
	sc.Version = sarama.V3_8_0_0
	if cfg.ClientID != "" {
		sc.ClientID = cfg.ClientID
	}
	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 3
	sc.Producer.Compression = sarama.CompressionSnappy
	sc.Producer.Idempotent = true
	sc.Net.MaxOpenRequests = 1
	return sc
}

// Connect dials the brokers once and builds a sync producer on the shared client.
// The client is returned as well so health checks can refresh metadata through it.
func Connect(cfg config.KafkaConfig, logger *zap.Logger) (sarama.Client, sarama.SyncProducer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := sarama.NewClient(cfg.Brokers, NewConfig(cfg))
	if err != nil {
		return nil, nil, err
	}
	producer, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	logger.Info("connected to kafka", zap.Strings("brokers", cfg.Brokers))
	return client, producer, nil
}
