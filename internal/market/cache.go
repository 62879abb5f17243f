package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Alias1177/StockSignal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrCacheMiss is returned by a Store when the key is absent or expired
var ErrCacheMiss = errors.New("cache miss")

// Store keeps serialized series for a limited time
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachingFetcher serves repeated requests for the same series from a Store
type CachingFetcher struct {
	next   models.SeriesFetcher
	store  Store
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachingFetcher wraps next. A non-positive ttl disables caching.
func NewCachingFetcher(next models.SeriesFetcher, store Store, ttl time.Duration) models.SeriesFetcher {
	if ttl <= 0 || store == nil {
		return next
	}
	return &CachingFetcher{
		next:   next,
		store:  store,
		ttl:    ttl,
		logger: log.With().Str("component", "series_cache").Logger(),
	}
}

// Name identifies the wrapped provider
func (c *CachingFetcher) Name() string { return c.next.Name() }

// Fetch returns a cached series or delegates and stores the result
func (c *CachingFetcher) Fetch(ctx context.Context, req models.FetchRequest) (models.Series, error) {
	key := cacheKey(c.next.Name(), req)

	if data, err := c.store.Get(ctx, key); err == nil {
		var series models.Series
		if err := json.Unmarshal(data, &series); err == nil {
			c.logger.Debug().Str("key", key).Msg("Cache hit")
			return series, nil
		}
	} else if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn().Err(err).Str("key", key).Msg("Cache read failed")
	}

	series, err := c.next.Fetch(ctx, req)
	if err != nil {
		return series, err
	}

	if data, err := json.Marshal(series); err == nil {
		if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("Cache write failed")
		}
	}
	return series, nil
}

func cacheKey(provider string, req models.FetchRequest) string {
	return fmt.Sprintf("series:%s:%s:%s:%s", provider, req.Symbol, req.Period, req.Interval)
}

type memoryItem struct {
	value    []byte
	expireAt time.Time
}

// MemoryStore is an in-process TTL store
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	now   func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]memoryItem),
		now:   time.Now,
	}
}

// Get returns a live value or ErrCacheMiss
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	item, ok := m.items[key]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrCacheMiss
	}
	if m.now().After(item.expireAt) {
		m.mu.Lock()
		// a Set may have refreshed the key since the read lock was released
		if cur, ok := m.items[key]; ok && m.now().After(cur.expireAt) {
			delete(m.items, key)
		}
		m.mu.Unlock()
		return nil, ErrCacheMiss
	}
	return item.value, nil
}

// Set stores value until ttl elapses and drops expired entries
func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, item := range m.items {
		if now.After(item.expireAt) {
			delete(m.items, k)
		}
	}
	m.items[key] = memoryItem{value: value, expireAt: now.Add(ttl)}
	return nil
}

// RedisStore keeps series in Redis so several processes share one cache
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to addr and verifies the connection
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &RedisStore{client: client}, nil
}

// Get returns the stored bytes or ErrCacheMiss
func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return data, err
}

// Set stores value with an expiry
func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Close releases the connection pool
func (r *RedisStore) Close() error {
	return r.client.Close()
}
