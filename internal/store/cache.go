package store

import (
	"encoding/json"
)

// CacheStore persists last-known-good JSON payloads keyed by a logical
// cache name (e.g. "admin_dashboard_v1"). Entries have no TTL:
// staleness is resolved by the next successful fetch, not by expiry.
type CacheStore struct {
	store *Store
}

// NewCacheStore creates a cache store.
func NewCacheStore(s *Store) *CacheStore {
	return &CacheStore{store: s}
}

// Read decodes the cached payload for key into dest. It returns false
// on a missing entry and, identically, on a corrupt one: a payload that
// no longer decodes is treated as a cache miss, never surfaced.
func (c *CacheStore) Read(key string, dest any) bool {
	raw, err := c.store.Get("cache_" + key)
	if err != nil || raw == nil {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false
	}
	return true
}

// Write persists value under key, replacing the previous payload whole.
// Persistence failures are reported but must not affect caller state.
func (c *CacheStore) Write(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.store.Put("cache_"+key, raw)
}

// Drop removes the cached payload for key.
func (c *CacheStore) Drop(key string) error {
	return c.store.Delete("cache_" + key)
}

// DropAll removes every cached payload, preserving tokens.
func (c *CacheStore) DropAll() error {
	return c.store.DeletePrefix("cache_")
}
