package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Config holds cache manager configuration.
type Config struct {
	// Redis is the optional second cache tier. Nil keeps the cache
	// memory-only.
	Redis *redis.Client

	// MemorySize is the maximum number of pages held in memory.
	MemorySize int

	// TTL is how long a cached page stays fresh.
	TTL time.Duration
}

// DefaultConfig returns defaults suitable for a full catalog run.
func DefaultConfig() Config {
	return Config{
		MemorySize: 512,
		TTL:        5 * time.Minute,
	}
}

// Manager handles page response caching: an in-memory LRU in front of an
// optional Redis backend.
type Manager struct {
	redis  *redis.Client
	memory *expirable.LRU[string, *Entry]
	ttl    time.Duration
}

// NewManager creates a cache manager.
func NewManager(cfg Config) *Manager {
	if cfg.MemorySize <= 0 {
		cfg.MemorySize = DefaultConfig().MemorySize
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	return &Manager{
		redis:  cfg.Redis,
		memory: expirable.NewLRU[string, *Entry](cfg.MemorySize, nil, cfg.TTL),
		ttl:    cfg.TTL,
	}
}

// Get retrieves a cached page response.
// Returns ErrCacheMiss if the key is absent or the entry expired.
func (m *Manager) Get(ctx context.Context, key Key) (*Entry, error) {
	cacheKey := key.String()

	if entry, ok := m.memory.Get(cacheKey); ok && !entry.IsExpired() {
		CacheHits.WithLabelValues("memory").Inc()
		return entry, nil
	}

	if m.redis == nil {
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	data, err := m.redis.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			CacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	if entry.IsExpired() {
		_ = m.Delete(ctx, key)
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	// Promote to the memory tier for subsequent lookups.
	m.memory.Add(cacheKey, &entry)

	CacheHits.WithLabelValues("redis").Inc()
	return &entry, nil
}

// Set stores a page response body under the configured TTL.
func (m *Manager) Set(ctx context.Context, key Key, body []byte) error {
	if len(body) == 0 {
		return fmt.Errorf("cache body cannot be empty")
	}

	now := time.Now()
	entry := &Entry{
		Data:     body,
		CachedAt: now,
		Expires:  now.Add(m.ttl),
	}
	cacheKey := key.String()

	m.memory.Add(cacheKey, entry)

	if m.redis == nil {
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal entry: %w", err)
	}

	if err := m.redis.Set(ctx, cacheKey, data, m.ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// Delete removes a cache entry from both tiers.
func (m *Manager) Delete(ctx context.Context, key Key) error {
	cacheKey := key.String()
	m.memory.Remove(cacheKey)

	if m.redis == nil {
		return nil
	}

	if err := m.redis.Del(ctx, cacheKey).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}
