package bridge

import "sync"

// KeyCache is the learned-key cache: a mutex-guarded mapping from channel
// name to the most recently observed pre-shared key for that channel.
// Seeded from configuration at startup, grown by outbound publishes that
// specify a key, and read by the decryption trial engine.
//
// Every access takes the lock for a constant-time operation only, never
// while blocked on I/O.
type KeyCache struct {
	mu   sync.RWMutex
	keys map[string]string
}

// NewKeyCache builds a cache seeded with the given channel->key map. seed
// may be nil.
func NewKeyCache(seed map[string]string) *KeyCache {
	keys := make(map[string]string, len(seed))
	for k, v := range seed {
		keys[k] = v
	}
	return &KeyCache{keys: keys}
}

// Lookup returns the cached key for channel, if any.
func (c *KeyCache) Lookup(channel string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key, ok := c.keys[channel]
	return key, ok
}

// All returns a snapshot copy of every (channel, key) pair currently
// cached.
func (c *KeyCache) All() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.keys))
	for k, v := range c.keys {
		out[k] = v
	}
	return out
}

// Learn records pskBase64 as the key for channel, overwriting any prior
// value.
func (c *KeyCache) Learn(channel, pskBase64 string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys[channel] = pskBase64
}
