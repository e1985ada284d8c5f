package monitor

import (
	"context"
	"errors"

	"github.com/IBM/sarama"
	"github.com/jackc/pgx/v5/pgxpool"
	redislib "github.com/redis/go-redis/v9"
)

// Probe checks one dependency. A nil error means the dependency is reachable.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

func PostgresProbe(pool *pgxpool.Pool) Probe {
	return Probe{Name: "postgresql", Check: func(ctx context.Context) error {
		return pool.Ping(ctx)
	}}
}

func RedisProbe(client redislib.UniversalClient) Probe {
	return Probe{Name: "redis", Check: func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}}
}

func KafkaProbe(client sarama.Client) Probe {
	return Probe{Name: "kafka", Check: func(context.Context) error {
		if client.Closed() {
			return errors.New("kafka client closed")
		}
		return client.RefreshMetadata()
	}}
}

// MemoryProbe stands in for the in-memory repository, which is always available.
func MemoryProbe() Probe {
	return Probe{Name: "memory", Check: func(context.Context) error { return nil }}
}
