package risk

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"krakenWebhook/internal/ports"
)

// CooldownGate rejects a request that arrives within cooldown of the last
// accepted one. Rejections are not queued and do not extend the window.
// One gate is shared by all handlers.
type CooldownGate struct {
	cooldown time.Duration

	mu      sync.Mutex // serializes check-then-take on limiter
	limiter *rate.Limiter
}

var _ ports.Gate = (*CooldownGate)(nil)

// NewCooldownGate returns a gate with the given window. A non-positive
// cooldown yields a gate that accepts everything.
func NewCooldownGate(cooldown time.Duration) ports.Gate {
	if cooldown <= 0 {
		return NopGate{}
	}
	return &CooldownGate{
		cooldown: cooldown,
		limiter:  rate.NewLimiter(rate.Every(cooldown), 1),
	}
}

// Allow implements ports.Gate.
func (g *CooldownGate) Allow(now time.Time) (bool, time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if tokens := g.limiter.TokensAt(now); tokens < 1 {
		return false, time.Duration((1 - tokens) * float64(g.cooldown))
	}
	g.limiter.AllowN(now, 1)
	return true, 0
}

// NopGate accepts every request.
type NopGate struct{}

func (NopGate) Allow(time.Time) (bool, time.Duration) { return true, 0 }
