package notify

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisPublisher publishes messages over Redis PUB/SUB. It satisfies
// Publisher with fire-and-forget semantics: errors are logged, never
// returned, never retried here.
type RedisPublisher struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisPublisher connects a publisher to the Redis instance at redisURL.
func NewRedisPublisher(redisURL string, logger zerolog.Logger) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisPublisher{
		client: redis.NewClient(opts),
		logger: logger,
	}, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		p.logger.Error().Err(err).
			Str("channel", channel).
			Str("action", string(msg.ActionType)).
			Msg("encode notification")
		return
	}

	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		p.logger.Error().Err(err).
			Str("channel", channel).
			Str("action", string(msg.ActionType)).
			Msg("publish notification")
		return
	}

	p.logger.Debug().
		Str("channel", channel).
		Str("action", string(msg.ActionType)).
		Msg("notification published")
}

// Close releases the underlying Redis connection.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
