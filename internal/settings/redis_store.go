// Package settings stores per-application dashboard settings (default date
// window, column layout, per-user expand preferences) as Redis hashes.
package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one hash per application under "settings:<application>".
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisStore{client: client, prefix: "settings:"}, nil
}

// NewRedisStoreWithClient wraps an existing client, mainly for tests.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "settings:"}
}

func (s *RedisStore) key(applicationName string) string {
	return s.prefix + applicationName
}

// Get returns one setting value; the empty string if it is unset.
func (s *RedisStore) Get(ctx context.Context, applicationName, name string) (string, error) {
	value, err := s.client.HGet(ctx, s.key(applicationName), name).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %s/%s: %w", applicationName, name, err)
	}
	return value, nil
}

// Set stores one setting value.
func (s *RedisStore) Set(ctx context.Context, applicationName, name, value string) error {
	if err := s.client.HSet(ctx, s.key(applicationName), name, value).Err(); err != nil {
		return fmt.Errorf("set setting %s/%s: %w", applicationName, name, err)
	}
	return nil
}

// All returns every setting for one application.
func (s *RedisStore) All(ctx context.Context, applicationName string) (map[string]string, error) {
	values, err := s.client.HGetAll(ctx, s.key(applicationName)).Result()
	if err != nil {
		return nil, fmt.Errorf("list settings %s: %w", applicationName, err)
	}
	return values, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
