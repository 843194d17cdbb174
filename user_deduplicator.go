package ldevents

import (
	"time"

	"github.com/launchdarkly/ccache"
)

// dedupEntryTTL is set far longer than any realistic UserKeysFlushInterval; resets are
// driven by explicit flush() calls (the dispatcher's user-keys ticker), not by ccache's
// own TTL expiry. Capacity bounding comes from ccache's MaxSize/LRU eviction instead.
const dedupEntryTTL = 24 * time.Hour

// userDeduplicator gates how often a given user's full payload needs to be sent as a
// separate Index event. It is touched only by the dispatcher goroutine (spec §9's
// single-writer invariant), so no additional locking is needed here beyond what ccache
// itself does internally.
type userDeduplicator struct {
	cache         *ccache.Cache
	flushInterval time.Duration
}

func newUserDeduplicator(capacity int, flushInterval time.Duration) *userDeduplicator {
	if capacity <= 0 {
		capacity = DefaultUserKeysCapacity
	}
	return &userDeduplicator{
		cache:         ccache.New(ccache.Configure().MaxSize(int64(capacity))),
		flushInterval: flushInterval,
	}
}

// processUser returns true iff this key was not already known within the current
// window - the caller should then emit an Index event for it.
func (d *userDeduplicator) processUser(key string) bool {
	if item := d.cache.Get(key); item != nil && !item.Expired() {
		return false
	}
	d.cache.Set(key, true, dedupEntryTTL)
	return true
}

// flush resets the set of known users, called by the dispatcher's user-keys ticker.
func (d *userDeduplicator) flush() {
	d.cache.Clear()
}

// getFlushInterval returns the period this deduplicator was created with; the dispatcher
// resets it on a ticker of that same period.
func (d *userDeduplicator) getFlushInterval() time.Duration {
	return d.flushInterval
}
