// Package cache adapts the teacher's Redis route-result cache
// (internal/cache/redis.go in passbi_core) into a nearest-street-node
// lookup cache sitting in front of internal/geo: stop-to-street snapping
// is a pure function of a stop's coordinates and the street network, so
// caching its result is a correctness-independent speedup, never a
// semantic dependency (see SPEC_FULL.md Domain Stack). Every caller must
// still be correct if GetSnap always misses.
package cache

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/passbi/gtfsgraph/internal/geo"
	"github.com/passbi/gtfsgraph/internal/graphstore"
	"github.com/redis/go-redis/v9"
)

var (
	client     *redis.Client
	clientOnce sync.Once
	clientErr  error
)

// Config holds Redis configuration.
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

// LoadConfigFromEnv loads Redis configuration from environment variables.
func LoadConfigFromEnv() *Config {
	port, _ := strconv.Atoi(getEnv("REDIS_PORT", "6379"))
	db, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	ttl, _ := time.ParseDuration(getEnv("SNAP_CACHE_TTL", "24h"))

	return &Config{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     port,
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       db,
		TTL:      ttl,
	}
}

// GetClient returns the global Redis client (singleton pattern, as in the
// teacher's internal/cache and internal/db: one process, one pool).
func GetClient() (*redis.Client, error) {
	clientOnce.Do(func() {
		config := LoadConfigFromEnv()

		opts := &redis.Options{
			Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
			Password:     config.Password,
			DB:           config.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
			MinIdleConns: 2,
		}

		if getEnv("REDIS_TLS_ENABLED", "false") == "true" {
			opts.TLSConfig = &tls.Config{
				MinVersion: tls.VersionTLS12,
			}
		}

		client = redis.NewClient(opts)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			clientErr = fmt.Errorf("failed to connect to Redis: %w", err)
			return
		}
	})

	return client, clientErr
}

// Close closes the Redis client.
func Close() {
	if client != nil {
		client.Close()
	}
}

// SnapKey builds a deterministic cache key for a (lat, lon, maxDistanceM)
// nearest-node query, rounded to six decimal places of a degree (~0.1m) so
// nearby repeat queries for
// the same stop collapse onto one key.
func SnapKey(lat, lon, maxDistanceM float64) string {
	data := fmt.Sprintf("%.6f,%.6f,%.0f", lat, lon, maxDistanceM)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("snap:%x", hash[:12])
}

// GetSnap retrieves a cached snap result. A nil, nil return means cache
// miss; callers fall back to geo.LocationIndex.Closest.
func GetSnap(ctx context.Context, key string) (*geo.Snap, error) {
	client, err := GetClient()
	if err != nil {
		return nil, err
	}

	raw, err := client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if raw == "miss" {
		s := geo.InvalidSnap()
		return &s, nil
	}

	var node int64
	var dist float64
	if _, err := fmt.Sscanf(raw, "%d|%f", &node, &dist); err != nil {
		return nil, fmt.Errorf("corrupt snap cache entry: %w", err)
	}
	s := geo.NewSnap(graphstore.NodeID(node), dist)
	return &s, nil
}

// SetSnap caches a snap result, valid or not, under the given TTL.
func SetSnap(ctx context.Context, key string, snap geo.Snap, ttl time.Duration) error {
	client, err := GetClient()
	if err != nil {
		return err
	}

	if !snap.IsValid() {
		return client.Set(ctx, key, "miss", ttl).Err()
	}

	value := fmt.Sprintf("%d|%f", snap.ClosestNode(), snap.DistanceMeters())
	return client.Set(ctx, key, value, ttl).Err()
}

// HealthCheck performs a health check on the Redis connection.
func HealthCheck(ctx context.Context) error {
	client, err := GetClient()
	if err != nil {
		return fmt.Errorf("Redis client not initialized: %w", err)
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis ping failed: %w", err)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
