package generate

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

const defaultResultTTL = 60 * time.Minute

// ResultCache remembers generated documents so asking again for the same
// document, prompt and model does not call the API twice.
type ResultCache struct {
	cache *ttlcache.Cache[string, string]
}

// NewResultCache creates a result cache. A non-positive ttl uses the default.
func NewResultCache(ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = defaultResultTTL
	}
	c := ttlcache.New[string, string](
		ttlcache.WithTTL[string, string](ttl),
		ttlcache.WithDisableTouchOnHit[string, string](),
	)
	go c.Start()
	return &ResultCache{cache: c}
}

// Get returns the cached document for key.
func (rc *ResultCache) Get(key string) (string, bool) {
	item := rc.cache.Get(key)
	if item == nil {
		return "", false
	}
	return item.Value(), true
}

// Set stores a generated document under key.
func (rc *ResultCache) Set(key, content string) {
	rc.cache.Set(key, content, ttlcache.DefaultTTL)
}

// Len returns the number of live entries.
func (rc *ResultCache) Len() int {
	return rc.cache.Len()
}

// Close stops the cache expiration loop.
func (rc *ResultCache) Close() {
	rc.cache.Stop()
}

// resultKey hashes every input that affects the generated text.
func resultKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
