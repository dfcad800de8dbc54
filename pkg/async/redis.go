package async

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kart-io/ntfygo/pkg/errors"
	"github.com/kart-io/ntfygo/pkg/logger"
)

// RedisQueueConfig configures a Redis Streams backed queue.
type RedisQueueConfig struct {
	// Address is the Redis host:port.
	Address string
	// Password authenticates against Redis, empty for none.
	Password string
	// DB selects the Redis database.
	DB int
	// StreamKey is the stream the queue lives in.
	StreamKey string
	// ConsumerGroup is the group items are read through.
	ConsumerGroup string
	// ConsumerName identifies this consumer within the group.
	ConsumerName string
	// MaxSize caps the stream length, DefaultQueueSize when non-positive.
	MaxSize int
	// BlockTimeout is how long one Dequeue read blocks before re-checking
	// the context, one second when non-positive.
	BlockTimeout time.Duration
}

// redisQueue implements Queue on a Redis Stream with a consumer group, so
// multiple processes can drain the same queue.
type redisQueue struct {
	client        *redis.Client
	streamKey     string
	consumerGroup string
	consumerName  string
	maxSize       int
	blockTimeout  time.Duration
	closed        atomic.Bool
	logger        logger.Logger
}

// NewRedisQueue creates a Redis Streams backed queue and verifies the
// connection.
func NewRedisQueue(config RedisQueueConfig, log logger.Logger) (Queue, error) {
	if config.Address == "" {
		return nil, errors.New(errors.CodeInvalidParameter, "redis address cannot be empty")
	}
	if config.StreamKey == "" {
		return nil, errors.New(errors.CodeInvalidParameter, "stream key cannot be empty")
	}
	if config.ConsumerGroup == "" {
		return nil, errors.New(errors.CodeInvalidParameter, "consumer group cannot be empty")
	}
	if config.ConsumerName == "" {
		return nil, errors.New(errors.CodeInvalidParameter, "consumer name cannot be empty")
	}
	if config.MaxSize <= 0 {
		config.MaxSize = DefaultQueueSize
	}
	if config.BlockTimeout <= 0 {
		config.BlockTimeout = time.Second
	}
	if log == nil {
		log = logger.Discard
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, errors.CodeInvalidParameter, "connecting to redis")
	}

	q := &redisQueue{
		client:        client,
		streamKey:     config.StreamKey,
		consumerGroup: config.ConsumerGroup,
		consumerName:  config.ConsumerName,
		maxSize:       config.MaxSize,
		blockTimeout:  config.BlockTimeout,
		logger:        log,
	}

	if err := q.ensureConsumerGroup(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return q, nil
}

// ensureConsumerGroup creates the consumer group, tolerating one that
// already exists.
func (q *redisQueue) ensureConsumerGroup(ctx context.Context) error {
	err := q.client.XGroupCreateMkStream(ctx, q.streamKey, q.consumerGroup, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return errors.Wrap(err, errors.CodeInvalidParameter, "creating consumer group")
	}
	return nil
}

func (q *redisQueue) Enqueue(ctx context.Context, item *QueueItem) error {
	if q.closed.Load() {
		return errors.New(errors.CodeQueueClosed, "queue is closed")
	}

	length, err := q.client.XLen(ctx, q.streamKey).Result()
	if err != nil {
		return errors.Wrap(err, errors.CodeQueueFull, "checking stream length")
	}
	if length >= int64(q.maxSize) {
		return errors.Newf(errors.CodeQueueFull, "queue is full (size: %d)", q.maxSize)
	}

	data, err := json.Marshal(item)
	if err != nil {
		return errors.Wrap(err, errors.CodeInvalidParameter, "encoding queue item")
	}

	err = q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.streamKey,
		Values: map[string]interface{}{
			"data":     string(data),
			"priority": item.Priority,
		},
	}).Err()
	if err != nil {
		return errors.Wrap(err, errors.CodeQueueFull, "adding item to stream")
	}

	q.logger.Debug("item enqueued to redis", "item_id", item.ID, "stream", q.streamKey)
	return nil
}

func (q *redisQueue) Dequeue(ctx context.Context) (*QueueItem, error) {
	for {
		if q.closed.Load() {
			return nil, errors.New(errors.CodeQueueClosed, "queue is closed")
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.consumerGroup,
			Consumer: q.consumerName,
			Streams:  []string{q.streamKey, ">"},
			Count:    1,
			Block:    q.blockTimeout,
		}).Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, errors.Wrap(err, errors.CodeQueueClosed, "reading from stream")
		}
		if len(streams) == 0 || len(streams[0].Messages) == 0 {
			continue
		}

		entry := streams[0].Messages[0]
		item, err := decodeStreamEntry(entry)
		if err != nil {
			// A malformed entry is acked so it does not wedge the group.
			_ = q.client.XAck(ctx, q.streamKey, q.consumerGroup, entry.ID).Err()
			q.logger.Warn("discarding malformed stream entry", "stream_id", entry.ID, "error", err)
			continue
		}

		if err := q.client.XAck(ctx, q.streamKey, q.consumerGroup, entry.ID).Err(); err != nil {
			q.logger.Warn("failed to ack stream entry", "stream_id", entry.ID, "error", err)
		}

		q.logger.Debug("item dequeued from redis", "item_id", item.ID, "stream_id", entry.ID)
		return item, nil
	}
}

// decodeStreamEntry extracts a queue item from a stream entry.
func decodeStreamEntry(entry redis.XMessage) (*QueueItem, error) {
	data, ok := entry.Values["data"].(string)
	if !ok {
		return nil, errors.New(errors.CodeMessageDecode, "stream entry has no data field")
	}
	var item QueueItem
	if err := json.Unmarshal([]byte(data), &item); err != nil {
		return nil, errors.Wrap(err, errors.CodeMessageDecode, "decoding queue item")
	}
	if item.ID == "" {
		return nil, errors.New(errors.CodeMessageDecode, "queue item has no id")
	}
	return &item, nil
}

func (q *redisQueue) Size() int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	length, err := q.client.XLen(ctx, q.streamKey).Result()
	if err != nil {
		q.logger.Error("failed to get queue size", "error", err)
		return 0
	}
	return int(length)
}

func (q *redisQueue) IsEmpty() bool {
	return q.Size() == 0
}

func (q *redisQueue) Close() error {
	if q.closed.Swap(true) {
		return nil
	}
	q.logger.Info("redis queue closed", "stream", q.streamKey)
	return q.client.Close()
}

func (q *redisQueue) Health() QueueHealth {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	healthy := !q.closed.Load()
	size := 0
	if err := q.client.Ping(ctx).Err(); err != nil {
		healthy = false
	} else if length, err := q.client.XLen(ctx, q.streamKey).Result(); err == nil {
		size = int(length)
	}

	return QueueHealth{
		Healthy: healthy,
		Size:    size,
		MaxSize: q.maxSize,
	}
}
