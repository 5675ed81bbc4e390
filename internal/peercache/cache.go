// Package peercache implements the two-generation peer-credential cache
// described in spec.md section 4.3: PeerCredentialCache. It caches
// (uid, pid, security-label) per IPC peer id, deduplicates concurrent
// lookups for the same peer via singleflight, and rotates generations once
// the current generation exceeds a high-water mark.
package peercache

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/gridbox/provider/internal/item"
	"github.com/gridbox/provider/internal/metrics"
)

// defaultHighWaterMark is spec.md's "e.g., 100 entries" rotation threshold.
const defaultHighWaterMark = 100

// Lookup resolves a peer id to its kernel-level credentials. In production
// this is internal/transport's SO_PEERCRED + AppArmor-label reader; tests
// supply a fake.
type Lookup func(ctx context.Context, peerID string) (item.PeerInfo, error)

// Cache is the two-generation credential cache. The zero value is not
// usable — construct with New.
type Cache struct {
	mu            sync.Mutex
	current       map[string]item.PeerInfo
	old           map[string]item.PeerInfo
	highWaterMark int

	lookup Lookup
	group  singleflight.Group
	logger *zap.Logger
}

// New creates a Cache that resolves misses via lookup.
func New(lookup Lookup, logger *zap.Logger) *Cache {
	return &Cache{
		current:       make(map[string]item.PeerInfo),
		old:           make(map[string]item.PeerInfo),
		highWaterMark: defaultHighWaterMark,
		lookup:        lookup,
		logger:        logger.Named("peercache"),
	}
}

// WithHighWaterMark overrides the default rotation threshold. Exposed for
// tests that want to exercise rotation without inserting 100 entries.
func (c *Cache) WithHighWaterMark(n int) *Cache {
	c.mu.Lock()
	c.highWaterMark = n
	c.mu.Unlock()
	return c
}

// Get resolves peerID's credentials, following spec.md's four-step
// algorithm: current-generation hit, old-generation promotion, in-flight
// coalescing, or a fresh lookup.
func (c *Cache) Get(ctx context.Context, peerID string) (item.PeerInfo, error) {
	c.mu.Lock()
	if info, ok := c.current[peerID]; ok {
		c.mu.Unlock()
		metrics.CredentialCacheLookups.WithLabelValues("current_hit").Inc()
		return info, nil
	}
	if info, ok := c.old[peerID]; ok {
		c.promoteLocked(peerID, info)
		c.mu.Unlock()
		metrics.CredentialCacheLookups.WithLabelValues("old_hit").Inc()
		return info, nil
	}
	c.mu.Unlock()

	// singleflight.Group dedupes concurrent callers for the same peerID:
	// only one of them actually invokes c.lookup; the rest block on the
	// same result. This directly implements spec.md step 3 ("a lookup is
	// already in flight, attach to its completion") without hand-rolled
	// per-key channel bookkeeping.
	v, err, shared := c.group.Do(peerID, func() (any, error) {
		info, err := c.lookup(ctx, peerID)
		if err != nil {
			return item.PeerInfo{}, err
		}
		c.mu.Lock()
		c.insertLocked(peerID, info)
		c.mu.Unlock()
		return info, nil
	})
	if err != nil {
		metrics.CredentialCacheLookups.WithLabelValues("miss").Inc()
		return item.PeerInfo{}, err
	}
	if shared {
		metrics.CredentialCacheLookups.WithLabelValues("coalesced").Inc()
	} else {
		metrics.CredentialCacheLookups.WithLabelValues("miss").Inc()
	}
	return v.(item.PeerInfo), nil
}

// Invalidate drops any cached record for peerID. internal/server registers
// it as a connwatch disconnect handler, so it runs when a peer disconnects.
func (c *Cache) Invalidate(peerID string) {
	c.mu.Lock()
	delete(c.current, peerID)
	delete(c.old, peerID)
	c.mu.Unlock()
}

func (c *Cache) promoteLocked(peerID string, info item.PeerInfo) {
	delete(c.old, peerID)
	c.insertLocked(peerID, info)
}

// insertLocked adds peerID to the current generation, rotating generations
// first if the high-water mark would be exceeded. Must be called with c.mu
// held.
func (c *Cache) insertLocked(peerID string, info item.PeerInfo) {
	if len(c.current) >= c.highWaterMark {
		c.logger.Debug("rotating peer credential cache generations",
			zap.Int("current_size", len(c.current)),
			zap.Int("high_water_mark", c.highWaterMark),
		)
		c.old = c.current
		c.current = make(map[string]item.PeerInfo)
	}
	c.current[peerID] = info
}
