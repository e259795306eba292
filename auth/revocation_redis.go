package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// minRedisRetention is the shortest lifetime given to a revocation key, including
// for tokens that have already expired.
const minRedisRetention = time.Minute

// RedisRevocationStore shares revocations between replicas and across restarts.
// Keys are SHA-256 digests of the token and expire with the token itself.
type RedisRevocationStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

var _ RevocationStore = (*RedisRevocationStore)(nil)

func NewRedisRevocationStore(client *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{client: client, prefix: "dsadmin:revoked:", now: time.Now}
}

func (r *RedisRevocationStore) Add(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.now())
	if ttl < minRedisRetention {
		ttl = minRedisRetention
	}
	if err := r.client.Set(ctx, r.key(token), 1, ttl).Err(); err != nil {
		return fmt.Errorf("auth/redis: revoke: %w", err)
	}
	return nil
}

func (r *RedisRevocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("auth/redis: lookup: %w", err)
	}
	return n > 0, nil
}

func (r *RedisRevocationStore) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return r.prefix + hex.EncodeToString(sum[:])
}
