package publish

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	v1 "github.com/xcity-lab/telemetry/internal/api/v1"
)

// RedisConfig configures the Redis pub/sub transport.
type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	ChannelPrefix string
}

// RedisPublisher publishes the JSON reading on channel prefix+topic.
type RedisPublisher struct {
	client *redis.Client
	prefix string
}

// NewRedisPublisher connects and pings the server.
func NewRedisPublisher(ctx context.Context, cfg RedisConfig) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	slog.Info("[Redis] Publisher connected", "addr", cfg.Addr, "channel_prefix", cfg.ChannelPrefix)
	return &RedisPublisher{client: client, prefix: cfg.ChannelPrefix}, nil
}

// Channel returns the Redis channel for topic.
func (p *RedisPublisher) Channel(topic string) string {
	return p.prefix + topic
}

func (p *RedisPublisher) Publish(ctx context.Context, topic string, reading *v1.SensorReading) error {
	payload, err := encodeReading(reading)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, p.Channel(topic), payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", p.Channel(topic), err)
	}
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
