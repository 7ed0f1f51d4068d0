package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"accident-severity-api/config"
)

const (
	ChannelModelUpdates = "accidents:model_updates"
	ChannelPredictions  = "accidents:predictions"
)

// ErrCacheMiss is returned by Get when the key is absent or redis is not
// configured.
var ErrCacheMiss = errors.New("cache miss")

// CacheService wraps redis. A CacheService without a client is valid and
// turns every call into a no-op, so callers never branch on availability.
type CacheService struct {
	client *redis.Client
	logger *slog.Logger
}

// NewCacheService connects to redis, retrying the ping a few times. On
// failure it still returns a usable no-op CacheService with the error.
func NewCacheService(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (*CacheService, error) {
	logger = logger.With("component", "cache")
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	const attempts = 5
	var lastErr error
	for i := 0; i < attempts; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		lastErr = client.Ping(pingCtx).Err()
		cancel()
		if lastErr == nil {
			logger.Info("redis connected", "addr", cfg.Addr())
			return &CacheService{client: client, logger: logger}, nil
		}
		logger.Warn("redis ping failed", "attempt", i+1, "of", attempts, "error", lastErr)
		select {
		case <-ctx.Done():
			client.Close()
			return NewNoopCache(logger), ctx.Err()
		case <-time.After(time.Second):
		}
	}

	client.Close()
	return NewNoopCache(logger), fmt.Errorf("redis ping failed after %d attempts: %w", attempts, lastErr)
}

// NewNoopCache returns a CacheService with no backing store.
func NewNoopCache(logger *slog.Logger) *CacheService {
	return &CacheService{logger: logger}
}

// NewCacheServiceWithClient wraps an existing client.
func NewCacheServiceWithClient(client *redis.Client, logger *slog.Logger) *CacheService {
	return &CacheService{client: client, logger: logger}
}

func (s *CacheService) Available() bool {
	return s.client != nil
}

func (s *CacheService) Get(ctx context.Context, key string, dest any) error {
	if s.client == nil {
		return ErrCacheMiss
	}
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(val, dest)
}

func (s *CacheService) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if s.client == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		s.logger.Warn("cache set failed", "key", key, "error", err)
		return err
	}
	return nil
}

func (s *CacheService) Delete(ctx context.Context, key string) error {
	if s.client == nil {
		return nil
	}
	return s.client.Del(ctx, key).Err()
}

func (s *CacheService) Publish(ctx context.Context, channel string, message any) error {
	if s.client == nil {
		return nil
	}
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	if err := s.client.Publish(ctx, channel, data).Err(); err != nil {
		s.logger.Warn("publish failed", "channel", channel, "error", err)
		return err
	}
	return nil
}

// Subscribe returns nil when redis is not configured.
func (s *CacheService) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	if s.client == nil {
		return nil
	}
	return s.client.Subscribe(ctx, channel)
}

func (s *CacheService) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
