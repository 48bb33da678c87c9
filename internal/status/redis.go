package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mliu/reelgen/internal/domain"
)

const (
	jobKeyPrefix   = "job:"
	jobKeySuffix   = ":status"
	stockKeyPrefix = "stock:"
)

// RedisStore implements Store and StockRegistry on a Redis-compatible
// server. Records are stored as JSON strings under job:<id>:status with a
// TTL that is reset on every write; expiry is the only removal mechanism.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisConfig holds connection settings for the status store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg *RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func jobKey(id string) string {
	return jobKeyPrefix + id + jobKeySuffix
}

// Create persists a new job record with the configured TTL.
func (s *RedisStore) Create(ctx context.Context, rec *domain.JobRecord) error {
	return s.write(ctx, rec)
}

// Update rewrites the record and refreshes its TTL.
func (s *RedisStore) Update(ctx context.Context, rec *domain.JobRecord) error {
	return s.write(ctx, rec)
}

func (s *RedisStore) write(ctx context.Context, rec *domain.JobRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal job record: %w", err)
	}

	if err := s.client.Set(ctx, jobKey(rec.JobID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write job record: %w", err)
	}
	return nil
}

// Get returns the record for id, or ErrNotFound after expiry.
func (s *RedisStore) Get(ctx context.Context, id string) (*domain.JobRecord, error) {
	data, err := s.client.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read job record: %w", err)
	}

	var rec domain.JobRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job record: %w", err)
	}
	return &rec, nil
}

// RegisterStockMedia stores a stock media id to URL mapping.
func (s *RedisStore) RegisterStockMedia(ctx context.Context, id, url string) error {
	if err := s.client.Set(ctx, stockKeyPrefix+id, url, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to register stock media %s: %w", id, err)
	}
	return nil
}

// LookupStockMedia returns the registered URL for a stock media id.
func (s *RedisStore) LookupStockMedia(ctx context.Context, id string) (string, error) {
	url, err := s.client.Get(ctx, stockKeyPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to look up stock media %s: %w", id, err)
	}
	return url, nil
}
