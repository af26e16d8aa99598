package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const revokedPrefix = "crm:session:revoked:"

// keyValue is the part of redis.Cmdable the revocation store needs.
type keyValue interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisRevocations shares logged-out session ids between every server
// instance. Keys expire together with the session they block.
type RedisRevocations struct {
	kv keyValue
}

func NewRedisRevocations(client *RedisClient) *RedisRevocations {
	return &RedisRevocations{kv: client.Client()}
}

func (r *RedisRevocations) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	return r.kv.Set(ctx, revokedPrefix+tokenID, 1, ttl).Err()
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.kv.Exists(ctx, revokedPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
