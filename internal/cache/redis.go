package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const defaultKeyPrefix = "roomie:"

// Redis is a Store backed by a Redis server, shared by every process that
// points at the same instance.
type Redis struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedis(client *redis.Client, keyPrefix string) *Redis {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &Redis{client: client, keyPrefix: keyPrefix}
}

// DialRedis connects to addr and verifies the connection with PING.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}
	return client, nil
}

// Close releases the underlying client's connections.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) viewKey(key string) string {
	return r.keyPrefix + key
}

func (r *Redis) generationKey(roomID int64) string {
	return fmt.Sprintf("%sroom:%d:generation", r.keyPrefix, roomID)
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, r.viewKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis: get %s: %w", key, err)
	}
	return val, true, nil
}

// Set stores val under key. A non-positive ttl never expires.
func (r *Redis) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, r.viewKey(key), val, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Generation(ctx context.Context, roomID int64) (int64, error) {
	key := r.generationKey(roomID)
	s, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis: get generation for room %d: %w", roomID, err)
	}
	gen, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis: parse generation %q for room %d: %w", s, roomID, err)
	}
	return gen, nil
}

func (r *Redis) Invalidate(ctx context.Context, roomID int64) error {
	if err := r.client.Incr(ctx, r.generationKey(roomID)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate room %d: %w", roomID, err)
	}
	return nil
}
