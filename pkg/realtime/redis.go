package realtime

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mundesk/mundesk/pkg/config"
	"github.com/redis/go-redis/v9"
)

// RedisChannel is the pub/sub channel.
const RedisChannel = "mundesk:changes"

// Redis is a broker over Redis pub/sub.
type Redis struct {
	*Memory
	client *redis.Client
	pubsub *redis.PubSub
	logger *log.Logger
	done   chan struct{}
}

var _ Broker = (*Redis)(nil)

// NewRedis connects to the configured Redis server and subscribes to
// RedisChannel.
func NewRedis(ctx context.Context, logger *log.Logger, cfg config.RealtimeConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ps := client.Subscribe(ctx, RedisChannel)
	// Wait for the subscription confirmation.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		_ = client.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", RedisChannel, err)
	}

	r := &Redis{
		Memory: NewMemory(),
		client: client,
		pubsub: ps,
		logger: logger,
		done:   make(chan struct{}),
	}

	go r.process()

	return r, nil
}

func (r *Redis) process() {
	defer close(r.done)
	for msg := range r.pubsub.Channel() {
		e, err := ParseEvent(msg.Payload)
		if err != nil {
			r.logger.Warn("invalid message", "payload", msg.Payload)
			continue
		}

		_ = r.Memory.Publish(context.Background(), e)
	}
}

// Publish implements Broker.
func (r *Redis) Publish(ctx context.Context, e Event) error {
	return r.client.Publish(ctx, RedisChannel, e.String()).Err() //nolint:wrapcheck
}

// Close implements Broker.
func (r *Redis) Close() error {
	err := r.pubsub.Close()
	<-r.done
	_ = r.Memory.Close()
	if cerr := r.client.Close(); err == nil {
		err = cerr
	}

	return err //nolint:wrapcheck
}
