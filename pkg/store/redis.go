package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	redislib "github.com/redis/go-redis/v9"
)

const redisOpTimeout = 3 * time.Second

// RedisStore persists values as JSON strings in Redis. The dotted key
// hierarchy maps straight onto Redis key names under a fixed prefix.
type RedisStore struct {
	client *redislib.Client
	prefix string

	// Guards Push's read-append-write cycle. Keys are disjoint per
	// guild/node, so a single process-wide lock is enough.
	mu sync.Mutex
}

// RedisConfig holds connection settings for the Redis backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedisStore connects to Redis and pings it before returning.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redislib.NewClient(&redislib.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("store: redis ping: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "lunalink:"
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) key(key string) string {
	return s.prefix + key
}

func (s *RedisStore) Get(key string, v any) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err == redislib.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: redis get %q: %w", key, err)
	}
	if v == nil {
		return true, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("store: decoding %q: %w", key, err)
	}
	return true, nil
}

func (s *RedisStore) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encoding %q: %w", key, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return s.client.Set(ctx, s.key(key), raw, 0).Err()
}

func (s *RedisStore) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return s.client.Del(ctx, s.key(key)).Err()
}

func (s *RedisStore) Push(key string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []json.RawMessage
	if _, err := s.Get(key, &list); err != nil {
		return err
	}
	item, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encoding %q: %w", key, err)
	}
	list = append(list, item)
	return s.Set(key, list)
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
