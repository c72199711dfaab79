package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"deviceloan/models"
)

// Store holds server-side sessions keyed by an opaque cookie value. The
// resolved profile is stored whole; role is immutable for the session's life.
type Store interface {
	Create(ctx context.Context, id string, p models.Profile) error
	Get(ctx context.Context, id string) (*models.Profile, error)
	Delete(ctx context.Context, id string) error
}

type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

type record struct {
	Profile   models.Profile `json:"profile"`
	IssuedAt  int64          `json:"iat"`
	ExpiresAt int64          `json:"exp"`
}

func key(id string) string { return fmt.Sprintf("loan:sess:%s", id) }

func (s *RedisStore) Create(ctx context.Context, id string, p models.Profile) error {
	now := time.Now()
	b, _ := json.Marshal(record{
		Profile:   p,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.ttl).Unix(),
	})
	return s.rdb.Set(ctx, key(id), b, s.ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.Profile, error) {
	b, err := s.rdb.Get(ctx, key(id)).Bytes()
	if err != nil {
		return nil, err
	}
	var rec record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, err
	}
	return &rec.Profile, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, key(id)).Err()
}
