package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"dashboard-sync/internal/domain"

	"github.com/redis/go-redis/v9"
)

// SnapshotKey holds the latest snapshot JSON.
const SnapshotKey = "prices:snapshot"

var Client *redis.Client

var (
	newRedisClient = func(opts *redis.Options) *redis.Client {
		return redis.NewClient(opts)
	}
	pingRedis = func(ctx context.Context, client *redis.Client) error {
		return client.Ping(ctx).Err()
	}
	parseRedisURL = redis.ParseURL
)

// InitRedis connects Client to addr, either host:port or a redis:// URL.
// An empty addr leaves Client nil and the mirror off.
func InitRedis(ctx context.Context, addr string) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		Client = nil
		return
	}

	opts := &redis.Options{Addr: addr}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := parseRedisURL(addr)
		if err != nil {
			log.Fatalf("failed to parse REDIS_URL: %v", err)
		}
		opts = parsed
	}

	Client = newRedisClient(opts)
	if err := pingRedis(ctx, Client); err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	log.Println("Connected to Redis")
}

type RedisSetter interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// SnapshotMirror copies every snapshot into Redis for other readers.
type SnapshotMirror struct {
	redis RedisSetter
}

func NewSnapshotMirror(client RedisSetter) *SnapshotMirror {
	return &SnapshotMirror{redis: client}
}

func (m *SnapshotMirror) SaveSnapshot(ctx context.Context, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return m.redis.Set(ctx, SnapshotKey, data, 0).Err()
}
