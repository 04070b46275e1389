package common

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterWindowBoundary(t *testing.T) {
	now := time.Now()
	limiter := NewInMemoryRateLimiter()
	limiter.now = func() time.Time { return now }

	const max = 20
	for i := 1; i <= max; i++ {
		assert.True(t, limiter.Request("user:1", max, 300), "call %d should be allowed", i)
	}
	assert.False(t, limiter.Request("user:1", max, 300), "call 21 must be denied")
	assert.False(t, limiter.Request("user:1", max, 300), "still denied within the window")

	// A different identity is unaffected.
	assert.True(t, limiter.Request("user:2", max, 300))

	// After the window elapses the same identity starts fresh.
	now = now.Add(301 * time.Second)
	assert.True(t, limiter.Request("user:1", max, 300), "fresh window allows again")
}

func TestRateLimiterFirstCallAlwaysAllowed(t *testing.T) {
	limiter := NewInMemoryRateLimiter()
	assert.True(t, limiter.Request("anyone", 1, 60))
	assert.False(t, limiter.Request("anyone", 1, 60))
}

func TestRateLimiterConcurrentAccess(t *testing.T) {
	limiter := NewInMemoryRateLimiter()
	const goroutines = 50
	const callsEach = 20

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			identity := fmt.Sprintf("id-%d", g%10)
			for i := 0; i < callsEach; i++ {
				limiter.Request(identity, 100, 60)
			}
		}(g)
	}
	wg.Wait()
	// No assertion beyond not racing; run with -race.
}

func TestHashIdentityStable(t *testing.T) {
	a := HashIdentity("203.0.113.9")
	b := HashIdentity("203.0.113.9")
	c := HashIdentity("203.0.113.10")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 8)
}
