// Package audiocache is the content-addressed store for synthesized
// chunk audio. Identical (text, voice) pairs always map to the same key,
// so a second synthesis of the same chunk is a cache hit while a valid
// entry exists. The cache is a plain key/value store: request coalescing
// for concurrent fetches of the same key lives in the playback package.
package audiocache

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// Key derives the cache key for a chunk of text spoken by a voice.
func Key(text, voiceID string) string {
	h := sha256.Sum256([]byte(voiceID + "\x00" + text))
	return fmt.Sprintf("%x", h[:])
}

type entry struct {
	audio     []byte
	expiresAt time.Time
}

// Cache is a thread-safe in-memory audio store with TTL eviction.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
}

// New creates a cache whose entries expire after ttl. A non-positive ttl
// means entries never expire.
func New(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
	}
}

// Get returns the audio for key. An expired entry acts as absent and is
// removed so the caller re-synthesizes.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.audio, true
}

// Put stores audio under key. Overwriting an existing entry is harmless:
// keys are content-addressed, so the same key always carries the same
// audio.
func (c *Cache) Put(key string, audio []byte) {
	var expires time.Time
	if c.ttl > 0 {
		expires = time.Now().Add(c.ttl)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{audio: audio, expiresAt: expires}
}

// Delete removes an entry.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Cleanup removes expired entries.
func (c *Cache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for key, e := range c.entries {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// Len returns the number of live entries, including any not yet swept.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
