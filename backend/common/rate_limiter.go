package common

import (
	"fmt"
	"hash/fnv"
	"sync"
	"time"
)

// rateLimitEntry is one identity's fixed window: how many requests it has
// made and when the window resets.
type rateLimitEntry struct {
	count       int
	windowReset time.Time
}

// InMemoryRateLimiter is a per-identity fixed-window counter. It is not
// persisted and resets on restart: a heuristic abuse guard, not a security
// boundary. The lock only guards the map and is never held across I/O.
type InMemoryRateLimiter struct {
	mu      sync.Mutex
	entries map[string]*rateLimitEntry

	// injectable clock for tests
	now func() time.Time
}

func NewInMemoryRateLimiter() *InMemoryRateLimiter {
	return &InMemoryRateLimiter{
		entries: make(map[string]*rateLimitEntry),
		now:     time.Now,
	}
}

// Request reports whether identity may perform another request in a window of
// the given duration with the given maximum. The first call in a window
// always succeeds; once the count reaches maxRequestNum further calls are
// denied until the window elapses.
func (l *InMemoryRateLimiter) Request(identity string, maxRequestNum int, duration int64) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[identity]
	if !ok || now.After(entry.windowReset) {
		l.entries[identity] = &rateLimitEntry{
			count:       1,
			windowReset: now.Add(time.Duration(duration) * time.Second),
		}
		if len(l.entries) > maxRateLimitEntries {
			l.evictExpired(now)
		}
		return true
	}
	entry.count++
	return entry.count <= maxRequestNum
}

// maxRateLimitEntries bounds the map before an eviction sweep runs.
const maxRateLimitEntries = 10000

// evictExpired must be called with the lock held.
func (l *InMemoryRateLimiter) evictExpired(now time.Time) {
	for identity, entry := range l.entries {
		if now.After(entry.windowReset) {
			delete(l.entries, identity)
		}
	}
}

// HashIdentity folds a client IP (or any anonymous marker) into a short map
// key. FNV is deliberately non-cryptographic: a collision merely makes two
// callers share a quota.
func HashIdentity(s string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return fmt.Sprintf("%08x", h.Sum32())
}
