// Package cache stores query embeddings so repeated questions skip the
// embedding call. Values are opaque bytes behind a layered memory/disk store.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/ppiankov/policygate/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a stable, filesystem-safe key from its parts
func Key(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return "policygate:v1:" + hex.EncodeToString(hash[:])
}

// New builds the cache described by cfg; a disabled cache stores nothing
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nopCache{}
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)
	}
	return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}

type nopCache struct{}

func (nopCache) Get(string) ([]byte, bool)                { return nil, false }
func (nopCache) Set(string, []byte, time.Duration) error { return nil }
func (nopCache) Delete(string) error                      { return nil }
func (nopCache) Clear() error                             { return nil }
