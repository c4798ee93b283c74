package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"CompetitorScanner/internal/ports"
)

const scanBatch = 100

// RedisConfig carries connection settings for the Redis-backed store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Redis implements KeyValueStore on a Redis backend. Values are JSON
// documents; keys are "<account>:<category>:<key>".
type Redis struct {
	client *redis.Client
}

var _ ports.KeyValueStore = (*Redis)(nil)

// NewRedis connects to the backend and verifies it with a ping.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{client: client}, nil
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Put stores the JSON encoding of value without expiry.
func (r *Redis) Put(ctx context.Context, ns ports.Namespace, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	if err := r.client.Set(ctx, compositeKey(ns, key), raw, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Get decodes the stored value into dest; ErrNotFound when absent.
func (r *Redis) Get(ctx context.Context, ns ports.Namespace, key string, dest any) error {
	raw, err := r.client.Get(ctx, compositeKey(ns, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ports.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal value: %w", err)
	}
	return nil
}

// Search lists the namespace's entries in key order, capped at limit when
// limit is positive.
func (r *Redis) Search(ctx context.Context, ns ports.Namespace, limit int) ([]ports.Entry, error) {
	prefix := compositeKey(ns, "")
	pattern := prefix + "*"

	keys := make([]string, 0)
	iter := r.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", pattern, err)
	}

	sort.Strings(keys)
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	if len(keys) == 0 {
		return []ports.Entry{}, nil
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget: %w", err)
	}

	entries := make([]ports.Entry, 0, len(keys))
	for i, key := range keys {
		str, ok := values[i].(string)
		if !ok {
			// Key vanished between scan and mget.
			continue
		}
		entries = append(entries, ports.Entry{
			Key:   strings.TrimPrefix(key, prefix),
			Value: json.RawMessage(str),
		})
	}
	return entries, nil
}

// Delete removes the key; deleting an absent key is not an error.
func (r *Redis) Delete(ctx context.Context, ns ports.Namespace, key string) error {
	if err := r.client.Del(ctx, compositeKey(ns, key)).Err(); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

func compositeKey(ns ports.Namespace, key string) string {
	return fmt.Sprintf("%s:%s:%s", ns.AccountID, ns.Category, key)
}
