// Package session remembers logged-out tokens until they expire.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"

	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/config"
)

// RevocationStore records revoked token IDs. Entries may be forgotten once
// the token has expired.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID uuid.UUID, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID uuid.UUID) (bool, error)
}

// NewStore builds the store selected by cfg.Store.
func NewStore(cfg config.SessionConfig) (RevocationStore, error) {
	switch cfg.Store {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return NewRedisStore(client), nil
	case "memory":
		return NewMemoryStore(cfg.MemoryEntries)
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}
}

// MemoryStore keeps revocations in a size-bounded LRU. Evicting a live entry
// re-admits its token, so size it above the expected logouts per token TTL.
type MemoryStore struct {
	cache *lru.Cache[uuid.UUID, time.Time]
	now   func() time.Time
}

func NewMemoryStore(size int) (*MemoryStore, error) {
	cache, err := lru.New[uuid.UUID, time.Time](size)
	if err != nil {
		return nil, fmt.Errorf("creating revocation cache: %w", err)
	}
	return &MemoryStore{cache: cache, now: time.Now}, nil
}

func (s *MemoryStore) Revoke(_ context.Context, tokenID uuid.UUID, expiresAt time.Time) error {
	if !expiresAt.After(s.now()) {
		return nil
	}
	s.cache.Add(tokenID, expiresAt)
	return nil
}

func (s *MemoryStore) IsRevoked(_ context.Context, tokenID uuid.UUID) (bool, error) {
	expiresAt, ok := s.cache.Get(tokenID)
	if !ok {
		return false, nil
	}
	if !expiresAt.After(s.now()) {
		s.cache.Remove(tokenID)
		return false, nil
	}
	return true, nil
}

const redisKeyPrefix = "medforecast:revoked:"

type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func (s *RedisStore) Revoke(ctx context.Context, tokenID uuid.UUID, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, redisKeyPrefix+tokenID.String(), 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	return nil
}

func (s *RedisStore) IsRevoked(ctx context.Context, tokenID uuid.UUID) (bool, error) {
	n, err := s.client.Exists(ctx, redisKeyPrefix+tokenID.String()).Result()
	if err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	return n > 0, nil
}

// Ping verifies the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
