package krakenclient

import (
	"sync/atomic"
	"time"
)

// nonceSource hands out strictly increasing millisecond nonces. If the clock
// stalls or steps backwards the previous value plus one is used instead, so a
// nonce is never reused or decreased.
type nonceSource struct {
	last atomic.Uint64
	now  func() time.Time
}

func newNonceSource(now func() time.Time) *nonceSource {
	if now == nil {
		now = time.Now
	}
	return &nonceSource{now: now}
}

// Next returns the next nonce. Safe for concurrent use.
func (n *nonceSource) Next() uint64 {
	for {
		prev := n.last.Load()
		next := uint64(n.now().UnixMilli())
		if next <= prev {
			next = prev + 1
		}
		if n.last.CompareAndSwap(prev, next) {
			return next
		}
	}
}
