package alertstore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces alert keys.
const DefaultRedisPrefix = "whalesentinel:alert:"

// RedisKV stores each timestamp (unix milliseconds) under a prefixed key.
type RedisKV struct {
	client *redis.Client
	prefix string
}

// NewRedisKV wraps an existing client.
func NewRedisKV(client *redis.Client, prefix string) *RedisKV {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisKV{client: client, prefix: prefix}
}

// DialRedis connects and pings the server.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Printf("[INFO] redis connected: %s", addr)
	return client, nil
}

func (r *RedisKV) key(symbol string) string { return r.prefix + symbol }

func (r *RedisKV) Get(ctx context.Context, symbol string) (time.Time, bool, error) {
	val, err := r.client.Get(ctx, r.key(symbol)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	ms, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("decode %s: %w", symbol, err)
	}
	return time.UnixMilli(ms), true, nil
}

func (r *RedisKV) Set(ctx context.Context, symbol string, createdAt time.Time) error {
	return r.client.Set(ctx, r.key(symbol), strconv.FormatInt(createdAt.UnixMilli(), 10), 0).Err()
}

func (r *RedisKV) Delete(ctx context.Context, symbol string) error {
	return r.client.Del(ctx, r.key(symbol)).Err()
}

func (r *RedisKV) Keys(ctx context.Context) ([]string, error) {
	var (
		cursor uint64
		keys   []string
	)
	for {
		batch, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", 100).Result()
		if err != nil {
			return nil, err
		}
		for _, k := range batch {
			keys = append(keys, strings.TrimPrefix(k, r.prefix))
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	sort.Strings(keys)
	return keys, nil
}

func (r *RedisKV) Close() error {
	return r.client.Close()
}
