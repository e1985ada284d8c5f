package kafka

import (
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"

	"github.com/fastygo/portfolio/internal/config"
)

func TestNewConfig_IsIdempotentAndValid(t *testing.T) {
	sc := NewConfig(config.KafkaConfig{ClientID: "ledger-test"})

	assert.True(t, sc.Producer.Idempotent)
	assert.Equal(t, sarama.WaitForAll, sc.Producer.RequiredAcks)
	assert.True(t, sc.Producer.Return.Successes)
	assert.Equal(t, "ledger-test", sc.ClientID)
	assert.NoError(t, sc.Validate())
}
