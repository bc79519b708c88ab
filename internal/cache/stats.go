package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"taskflow/internal/policy"
	"taskflow/internal/repository"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const statsKey = "taskflow:admin:stats"

// KV is the part of the redis client the cache uses.
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Connect opens a redis client and checks it answers.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

// Stats caches platform stats in redis. Authorization always runs against
// the wrapped repository, so a cached value is never served to a
// non-admin. Redis failures degrade to an uncached read.
type Stats struct {
	next repository.StatsRepositoryInterface
	kv   KV
	ttl  time.Duration
	log  *zap.Logger
}

var _ repository.StatsRepositoryInterface = (*Stats)(nil)

func NewStats(next repository.StatsRepositoryInterface, kv KV, ttl time.Duration, log *zap.Logger) *Stats {
	return &Stats{next: next, kv: kv, ttl: ttl, log: log.Named("stats_cache")}
}

func (s *Stats) Authorize(ctx context.Context, p policy.Principal) error {
	return s.next.Authorize(ctx, p)
}

func (s *Stats) Platform(ctx context.Context, p policy.Principal) (*repository.PlatformStats, error) {
	if err := s.next.Authorize(ctx, p); err != nil {
		return nil, err
	}

	raw, err := s.kv.Get(ctx, statsKey).Bytes()
	switch {
	case err == nil:
		var stats repository.PlatformStats
		if err := json.Unmarshal(raw, &stats); err == nil {
			return &stats, nil
		}
		s.log.Warn("discarding undecodable cached stats")
	case !errors.Is(err, redis.Nil):
		s.log.Warn("stats cache read failed", zap.Error(err))
	}

	stats, err := s.next.Platform(ctx, p)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(stats); err == nil {
		if err := s.kv.Set(ctx, statsKey, b, s.ttl).Err(); err != nil {
			s.log.Warn("stats cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}
