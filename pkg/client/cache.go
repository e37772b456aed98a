package client

import (
	"sync"
	"time"

	"github.com/darmiel/callsign/internal/core"
)

// DefaultRefreshMargin is subtracted from a credential's expiry so it is
// refreshed before the call service starts rejecting it.
const DefaultRefreshMargin = 5 * time.Minute

type cacheItem struct {
	credential core.IssuedCredential
	expiresAt  time.Time
}

// CredentialCache keeps issued credentials per requested identifier.
// The zero value is not usable, create one with NewCredentialCache.
type CredentialCache struct {
	mu     sync.Mutex
	items  map[string]cacheItem
	margin time.Duration
	now    func() time.Time
}

func NewCredentialCache() *CredentialCache {
	return &CredentialCache{
		items:  make(map[string]cacheItem),
		margin: DefaultRefreshMargin,
		now:    time.Now,
	}
}

// WithClock replaces the clock, used in tests.
func (c *CredentialCache) WithClock(now func() time.Time) *CredentialCache {
	c.now = now
	return c
}

// Get returns the cached credential for key if it has not expired.
// Expired items are removed.
func (c *CredentialCache) Get(key string) (core.IssuedCredential, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	if !ok {
		return core.IssuedCredential{}, false
	}
	if !c.now().Before(item.expiresAt) {
		delete(c.items, key)
		return core.IssuedCredential{}, false
	}
	return item.credential, true
}

// Set caches credential for ttl. A non-positive ttl removes the key.
func (c *CredentialCache) Set(key string, credential core.IssuedCredential, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl <= 0 {
		delete(c.items, key)
		return
	}
	c.items[key] = cacheItem{
		credential: credential,
		expiresAt:  c.now().Add(ttl),
	}
}

// SetIssued caches credential until DefaultRefreshMargin before it expires.
func (c *CredentialCache) SetIssued(key string, credential core.IssuedCredential) {
	c.Set(key, credential, c.TTLFor(credential))
}

// TTLFor returns how long credential may be served from cache.
func (c *CredentialCache) TTLFor(credential core.IssuedCredential) time.Duration {
	return time.Unix(credential.ExpireTime, 0).Add(-c.margin).Sub(c.now())
}

func (c *CredentialCache) Clear(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *CredentialCache) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.items)
}

func (c *CredentialCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
