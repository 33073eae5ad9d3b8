package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const connectTimeout = 5 * time.Second

// RedisConfig captures the settings for establishing a Redis connection.
type RedisConfig struct {
	Addr string
	DB   int
}

// Connect initialises a Redis client and validates connectivity with a ping.
func Connect(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}

// Snapshot is a Redis-backed JSON key-value layer that outlives the process.
// It sits under the in-memory metadata cache as a best-effort optimization:
// a Redis outage degrades to plain upstream fetches, never to an error.
// Key format: snapshot:<cache key>
type Snapshot struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewSnapshot creates a Snapshot wrapping the given Redis client. Entries
// expire after ttl.
func NewSnapshot(client *redis.Client, ttl time.Duration, log zerolog.Logger) *Snapshot {
	return &Snapshot{client: client, ttl: ttl, log: log}
}

// Load reads and decodes the value stored under key into v. It reports
// whether a value was present and decoded.
func (s *Snapshot) Load(ctx context.Context, key string, v any) bool {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.log.Warn().Err(err).Str("key", key).Msg("snapshot read failed")
		}
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("snapshot entry undecodable, ignoring")
		return false
	}
	return true
}

// Store writes v under key with the snapshot TTL. Failures are logged and
// swallowed.
func (s *Snapshot) Store(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("snapshot encode failed")
		return
	}
	if err := s.client.Set(ctx, s.key(key), raw, s.ttl).Err(); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("snapshot write failed")
	}
}

func (s *Snapshot) key(key string) string {
	return "snapshot:" + key
}
