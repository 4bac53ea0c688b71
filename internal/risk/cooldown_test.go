package risk

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCooldownGate(t *testing.T) {
	g := NewCooldownGate(10 * time.Second)
	t0 := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	ok, _ := g.Allow(t0)
	assert.True(t, ok, "first request accepted")

	ok, wait := g.Allow(t0.Add(4 * time.Second))
	assert.False(t, ok)
	assert.InDelta(t, 6.0, wait.Seconds(), 0.01)

	// a rejected request must not push the window out
	ok, wait = g.Allow(t0.Add(7 * time.Second))
	assert.False(t, ok)
	assert.InDelta(t, 3.0, wait.Seconds(), 0.01)

	ok, _ = g.Allow(t0.Add(11 * time.Second))
	assert.True(t, ok, "accepted after cooldown")

	ok, _ = g.Allow(t0.Add(12 * time.Second))
	assert.False(t, ok, "window restarts from the last accepted request")
}

func TestCooldownGate_Disabled(t *testing.T) {
	g := NewCooldownGate(0)
	assert.IsType(t, NopGate{}, g)
	now := time.Now()
	for i := 0; i < 5; i++ {
		ok, wait := g.Allow(now)
		assert.True(t, ok)
		assert.Zero(t, wait)
	}
}

func TestCooldownGate_ConcurrentSingleWinner(t *testing.T) {
	g := NewCooldownGate(time.Minute)
	now := time.Now()

	var accepted int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := g.Allow(now); ok {
				atomic.AddInt32(&accepted, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), accepted)
}
