package client

import (
	"math/rand"
	"time"
)

// Backoff returns the wait before reconnect attempt n (1-based): capped
// exponential with full jitter. A fixed retry interval invites a
// thundering herd when a shared network path flaps; jitter spreads the
// reconnect storm while keeping the eventually-reconnect guarantee.
func Backoff(base, cap time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= cap {
			d = cap
			break
		}
	}
	if d <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(d)) + 1)
}
