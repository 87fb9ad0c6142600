package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/verigate/verigate/domain"
	"github.com/verigate/verigate/identity"
)

// RedisRevocationStore keeps the blacklist in Redis for deployments that
// run more than one instance. Entries carry a TTL, so the compaction
// sweep is a no-op here.
type RedisRevocationStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisRevocationStore(client *redis.Client, prefix string, ttl time.Duration) *RedisRevocationStore {
	if prefix == "" {
		prefix = "verigate:revoked:"
	}
	return &RedisRevocationStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisRevocationStore) key(token string) string {
	return s.prefix + token
}

func (s *RedisRevocationStore) AddRevokedToken(ctx context.Context, t *identity.RevokedToken) error {
	ok, err := s.client.SetNX(ctx, s.key(t.Token), t.CreatedAt.Unix(), s.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis revocation: add failed: %w", err)
	}
	if !ok {
		return domain.ErrTokenRevoked
	}
	return nil
}

func (s *RedisRevocationStore) IsTokenRevoked(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("redis revocation: lookup failed: %w", err)
	}
	return n > 0, nil
}

func (s *RedisRevocationStore) DeleteRevokedTokensBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	// Key TTL already bounds retention.
	return 0, nil
}
