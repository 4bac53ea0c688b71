package ports

import "time"

// Gate decides whether a request may proceed to the exchange.
// Implementations must be safe for concurrent use.
type Gate interface {
	// Allow reports whether the request arriving at now is accepted.
	// When it is not, the returned duration is the remaining wait.
	Allow(now time.Time) (bool, time.Duration)
}
