package redis

import (
	"context"
	"time"

	stderrors "errors"

	"github.com/honeynil/BooReviewService/internal/infrastructure/auth"
)

// RevocationStore keeps blacklist entries in Redis and relies on key TTLs
// for expiry.
type RevocationStore struct {
	client RedisClient
	prefix string
	now    func() time.Time
}

func NewRevocationStore(client RedisClient, prefix string) *RevocationStore {
	return &RevocationStore{client: client, prefix: prefix, now: time.Now}
}

func (s *RevocationStore) key(k string) string {
	return s.prefix + k
}

func (s *RevocationStore) Put(ctx context.Context, key, token string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	// go-redis switches to PX for sub-second remainders
	return s.client.Set(ctx, s.key(key), token, ttl)
}

func (s *RevocationStore) Raise(ctx context.Context, key, mark string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl < time.Millisecond {
		return nil
	}
	return s.client.SetIfGreater(ctx, s.key(key), mark, ttl)
}

func (s *RevocationStore) Lookup(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, s.key(key))
	if stderrors.Is(err, ErrKeyNotFound) {
		return "", auth.ErrKeyNotFound
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (s *RevocationStore) Contains(ctx context.Context, key string) (bool, error) {
	return s.client.Exists(ctx, s.key(key))
}
