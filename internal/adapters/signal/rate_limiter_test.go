package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventRateLimiter(t *testing.T) {
	rl := NewEventRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("c1"))
	}
	assert.False(t, rl.Allow("c1"))
	assert.True(t, rl.Allow("c2"), "budgets are per connection")

	rl.Forget("c1")
	assert.True(t, rl.Allow("c1"))
}

func TestEventRateLimiterWindowSlides(t *testing.T) {
	rl := NewEventRateLimiter(2, 10*time.Millisecond)
	assert.True(t, rl.Allow("c1"))
	assert.True(t, rl.Allow("c1"))
	assert.False(t, rl.Allow("c1"))

	time.Sleep(15 * time.Millisecond)
	assert.True(t, rl.Allow("c1"))
}
