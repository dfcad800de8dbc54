package async

import (
	"encoding/json"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/ntfygo/pkg/errors"
	"github.com/kart-io/ntfygo/pkg/logger"
	"github.com/kart-io/ntfygo/pkg/message"
)

func TestNewRedisQueueValidation(t *testing.T) {
	tests := []struct {
		name   string
		config RedisQueueConfig
	}{
		{"MissingAddress", RedisQueueConfig{StreamKey: "s", ConsumerGroup: "g", ConsumerName: "c"}},
		{"MissingStreamKey", RedisQueueConfig{Address: "localhost:6379", ConsumerGroup: "g", ConsumerName: "c"}},
		{"MissingConsumerGroup", RedisQueueConfig{Address: "localhost:6379", StreamKey: "s", ConsumerName: "c"}},
		{"MissingConsumerName", RedisQueueConfig{Address: "localhost:6379", StreamKey: "s", ConsumerGroup: "g"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRedisQueue(tt.config, logger.Discard)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.CodeInvalidParameter))
		})
	}
}

func TestDecodeStreamEntry(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		item := NewQueueItem("mytopic", message.NewSending().SetMessage("hello").SetPriority(message.PriorityHigh))
		data, err := json.Marshal(item)
		require.NoError(t, err)

		decoded, err := decodeStreamEntry(redis.XMessage{
			ID:     "1-0",
			Values: map[string]interface{}{"data": string(data), "priority": "4"},
		})
		require.NoError(t, err)
		assert.Equal(t, item.ID, decoded.ID)
		assert.Equal(t, "mytopic", decoded.Topic)
		assert.Equal(t, item.Priority, decoded.Priority)
		require.NotNil(t, decoded.Message)
		assert.Equal(t, "hello", decoded.Message.Message)
	})

	t.Run("MissingData", func(t *testing.T) {
		_, err := decodeStreamEntry(redis.XMessage{ID: "1-0", Values: map[string]interface{}{}})
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeMessageDecode))
	})

	t.Run("MalformedData", func(t *testing.T) {
		_, err := decodeStreamEntry(redis.XMessage{
			ID:     "1-0",
			Values: map[string]interface{}{"data": "{not json"},
		})
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeMessageDecode))
	})

	t.Run("MissingID", func(t *testing.T) {
		_, err := decodeStreamEntry(redis.XMessage{
			ID:     "1-0",
			Values: map[string]interface{}{"data": `{"topic":"mytopic"}`},
		})
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeMessageDecode))
	})
}
