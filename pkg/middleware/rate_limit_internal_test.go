package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterCleanup(t *testing.T) {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		cfg: RateLimiterConfig{
			RequestsPerSecond: 1,
			Burst:             1,
			CleanupInterval:   time.Millisecond,
			TTL:               time.Millisecond,
		},
	}
	rl.get("203.0.113.7")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		rl.cleanup(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		rl.mu.Lock()
		defer rl.mu.Unlock()
		return len(rl.visitors) == 0
	}, time.Second, 5*time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup kept running after cancel")
	}
}
