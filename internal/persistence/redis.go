package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/event-service/internal/config"
)

// Redis topologies, picked from RedisConfig the same way redis.NewUniversalClient picks its client.
const (
	TopologyStandalone = "standalone"
	TopologySentinel   = "sentinel"
	TopologyCluster    = "cluster"
)

const redisPingTimeout = 3 * time.Second

var (
	// ErrNoRedisAddr is returned when REDIS_ADDR resolves to no address.
	ErrNoRedisAddr = errors.New("REDIS_ADDR not provided")
	// ErrClusterDB is returned when a cluster is configured with a non-zero logical database.
	ErrClusterDB = errors.New("redis cluster only supports database 0")
)

// CacheStore owns the Redis connection behind the event cache.
type CacheStore struct {
	client   redis.UniversalClient
	topology string
}

// RedisTopology reports which client redis.NewUniversalClient builds for cfg.
func RedisTopology(cfg config.RedisConfig) string {
	switch {
	case cfg.MasterName != "":
		return TopologySentinel
	case len(cfg.Addrs) > 1:
		return TopologyCluster
	default:
		return TopologyStandalone
	}
}

// OpenCacheStore builds the client for the configured topology and pings it. An unreachable
// server is only logged: the event cache degrades to database reads until it comes back.
func OpenCacheStore(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*CacheStore, error) {
	if len(cfg.Addrs) == 0 {
		return nil, ErrNoRedisAddr
	}
	topology := RedisTopology(cfg)
	if topology == TopologyCluster && cfg.DB != 0 {
		return nil, fmt.Errorf("%w: REDIS_DB=%d", ErrClusterDB, cfg.DB)
	}

	store := &CacheStore{
		client: redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:      cfg.Addrs,
			MasterName: cfg.MasterName,
			Password:   cfg.Password,
			DB:         cfg.DB,
			PoolSize:   cfg.PoolSize,
		}),
		topology: topology,
	}

	fields := []zap.Field{zap.String("topology", topology), zap.Strings("addrs", cfg.Addrs)}
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		logger.Warn("redis unreachable; event cache disabled until it recovers", append(fields, zap.Error(err))...)
	} else {
		logger.Info("connected to redis", fields...)
	}
	return store, nil
}

// Client is the handle the event cache issues commands through.
func (s *CacheStore) Client() redis.UniversalClient {
	if s == nil {
		return nil
	}
	return s.client
}

// Topology names the client kind in use.
func (s *CacheStore) Topology() string {
	if s == nil {
		return ""
	}
	return s.topology
}

// Ping verifies Redis connectivity for the readiness check.
func (s *CacheStore) Ping(ctx context.Context) error {
	if s == nil || s.client == nil {
		return errors.New("redis client not configured")
	}
	return s.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (s *CacheStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
