package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openai-api-blueprint/blueprint/pkg/logger"
)

const pingTimeout = 2 * time.Second

type Service struct {
	client *redis.Client
}

// NewService connects to Redis. It returns nil when url is empty or the server
// does not answer a ping, callers fall back to in-memory storage.
func NewService(url, password string) *Service {
	l := logger.For(logger.REDIS)
	if url == "" {
		l.Debug().Msg("Redis URL not configured - service will be unavailable")
		return nil
	}

	svc := &Service{
		client: redis.NewClient(&redis.Options{
			Addr:     url,
			Password: password,
			DB:       0,
		}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		l.Error().
			Err(err).
			Str("addr", url).
			Msg("Failed to establish Redis connection")
		_ = svc.Close()
		return nil
	}

	l.Info().Str("addr", url).Msg("Connected to Redis")
	return svc
}

// Client exposes the underlying client for script execution
func (s *Service) Client() *redis.Client {
	return s.client
}

// Ping checks if Redis is accessible
func (s *Service) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *Service) Close() error {
	return s.client.Close()
}
