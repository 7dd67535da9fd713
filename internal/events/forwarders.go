package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const forwardTimeout = 5 * time.Second

// redisPublisher is the part of *redis.Client the forwarder uses
type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisForwarder publishes events as JSON on a Redis pub/sub channel
type RedisForwarder struct {
	client  redisPublisher
	channel string
	logger  *zap.Logger
}

// NewRedisForwarder creates a forwarder publishing to channel
func NewRedisForwarder(client redisPublisher, channel string, logger *zap.Logger) *RedisForwarder {
	return &RedisForwarder{
		client:  client,
		channel: channel,
		logger:  logger.With(zap.String("forwarder", "redis")),
	}
}

// Handle is a bus Handler
func (f *RedisForwarder) Handle(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		f.logger.Error("failed to marshal event", zap.String("event", event.Name), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), forwardTimeout)
	defer cancel()

	if err := f.client.Publish(ctx, f.channel, payload).Err(); err != nil {
		f.logger.Warn("failed to forward event",
			zap.String("event", event.Name),
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
	}
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, forwardTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// messageWriter is the part of *kafka.Writer the forwarder uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaForwarder writes events to a Kafka topic keyed by order id, so all
// events of one order land on the same partition
type KafkaForwarder struct {
	writer messageWriter
	logger *zap.Logger
}

// NewKafkaWriter builds an asynchronous writer for topic. Delivery errors are
// logged by the writer's completion callback.
func NewKafkaWriter(brokers []string, topic string, batchTimeout time.Duration, logger *zap.Logger) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: batchTimeout,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Warn("failed to deliver events to kafka",
					zap.String("topic", topic),
					zap.Int("messages", len(messages)),
					zap.Error(err),
				)
			}
		},
	}
}

// NewKafkaForwarder creates a forwarder using writer
func NewKafkaForwarder(writer messageWriter, logger *zap.Logger) *KafkaForwarder {
	return &KafkaForwarder{
		writer: writer,
		logger: logger.With(zap.String("forwarder", "kafka")),
	}
}

// Handle is a bus Handler
func (f *KafkaForwarder) Handle(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		f.logger.Error("failed to marshal event", zap.String("event", event.Name), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), forwardTimeout)
	defer cancel()

	err = f.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(event.Name)},
		},
	})
	if err != nil {
		f.logger.Warn("failed to forward event",
			zap.String("event", event.Name),
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
	}
}

// Close flushes pending messages
func (f *KafkaForwarder) Close() error {
	return f.writer.Close()
}
