// Package cache memoizes computed reports in Redis, falling back to an
// in-process map when Redis is disabled or unreachable.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Mode indicates which backend is active.
type Mode string

const (
	ModeRedis    Mode = "redis"
	ModeInMemory Mode = "in-memory"
)

// DefaultPrefix namespaces every key this package writes.
const DefaultPrefix = "jpx:"

// MaxMemEntries caps the in-memory map. When full, the entry closest to
// expiry is evicted.
const MaxMemEntries = 1024

// Options configures the Redis connection.
type Options struct {
	Address  string
	Password string
	DB       int
	Prefix   string
}

type item struct {
	data      []byte
	expiresAt time.Time
}

// Cache stores JSON-encoded values with a TTL.
type Cache struct {
	redis  *redis.Client
	prefix string

	modeMu sync.RWMutex
	mode   Mode

	memMu sync.Mutex
	mem   map[string]item

	now func() time.Time
}

// NewInMemory returns a cache that never touches Redis.
func NewInMemory() *Cache {
	return &Cache{
		prefix: DefaultPrefix,
		mode:   ModeInMemory,
		mem:    make(map[string]item),
		now:    time.Now,
	}
}

// New connects to Redis. If the server does not answer a ping the cache runs
// in memory; New never fails.
func New(ctx context.Context, opts Options) *Cache {
	c := NewInMemory()
	if opts.Prefix != "" {
		c.prefix = opts.Prefix
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Address,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     5,
		MaxRetries:   2,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("Redis connection to %s failed: %v (using in-memory cache)", opts.Address, err)
		_ = client.Close()
		return c
	}

	log.Printf("Redis connected at %s", opts.Address)
	c.redis = client
	c.setMode(ModeRedis)
	return c
}

func (c *Cache) setMode(m Mode) {
	c.modeMu.Lock()
	defer c.modeMu.Unlock()
	if c.mode != m {
		c.mode = m
		log.Printf("Cache mode changed: %s", m)
	}
}

// Mode returns the active backend.
func (c *Cache) Mode() Mode {
	c.modeMu.RLock()
	defer c.modeMu.RUnlock()
	return c.mode
}

// Set stores v as JSON under key. A Redis write failure falls back to memory.
func (c *Cache) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	if c.Mode() == ModeRedis {
		err := c.redis.Set(ctx, c.prefix+key, data, ttl).Err()
		if err == nil {
			return nil
		}
		log.Printf("Redis SET failed for '%s': %v (falling back to in-memory)", key, err)
	}

	c.memMu.Lock()
	now := c.now()
	c.sweepLocked(now)
	if _, exists := c.mem[key]; !exists && len(c.mem) >= MaxMemEntries {
		c.evictLocked()
	}
	c.mem[key] = item{data: data, expiresAt: now.Add(ttl)}
	c.memMu.Unlock()
	return nil
}

// sweepLocked drops expired entries. Caller holds memMu.
func (c *Cache) sweepLocked(now time.Time) {
	for k, it := range c.mem {
		if !now.Before(it.expiresAt) {
			delete(c.mem, k)
		}
	}
}

func (c *Cache) evictLocked() {
	var oldest string
	var oldestAt time.Time
	for k, it := range c.mem {
		if oldest == "" || it.expiresAt.Before(oldestAt) {
			oldest, oldestAt = k, it.expiresAt
		}
	}
	delete(c.mem, oldest)
}

// Len returns the number of entries held in memory.
func (c *Cache) Len() int {
	c.memMu.Lock()
	defer c.memMu.Unlock()
	return len(c.mem)
}

// Get decodes the value under key into dest. It reports whether the key was
// present and unexpired.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if c.Mode() == ModeRedis {
		data, err := c.redis.Get(ctx, c.prefix+key).Bytes()
		switch {
		case err == redis.Nil:
			// May have been written to memory during an outage.
		case err != nil:
			log.Printf("Redis GET failed for '%s': %v", key, err)
		default:
			if err := json.Unmarshal(data, dest); err != nil {
				return false, fmt.Errorf("unmarshal %s: %w", key, err)
			}
			return true, nil
		}
	}

	c.memMu.Lock()
	it, ok := c.mem[key]
	if ok && !c.now().Before(it.expiresAt) {
		delete(c.mem, key)
		ok = false
	}
	c.memMu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(it.data, dest); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}

// Clear removes every key this cache wrote.
func (c *Cache) Clear(ctx context.Context) error {
	if c.Mode() == ModeRedis {
		iter := c.redis.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
		deleted := 0
		for iter.Next(ctx) {
			if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
				return fmt.Errorf("delete %s: %w", iter.Val(), err)
			}
			deleted++
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("scan keys: %w", err)
		}
		log.Printf("Redis cache cleared (%d keys deleted)", deleted)
	}

	c.memMu.Lock()
	c.mem = make(map[string]item)
	c.memMu.Unlock()
	return nil
}

// Close releases the Redis connection, if any.
func (c *Cache) Close() error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Close()
}
