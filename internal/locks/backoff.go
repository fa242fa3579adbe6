package locks

import (
	"math"
	"math/rand"
	"time"
)

// retryDelay grows from 10ms to a 250ms cap, with a little jitter so waiters
// polling the same key do not retry in lockstep.
func retryDelay(attempt int) time.Duration {
	base := 10 * time.Millisecond
	capDelay := 250 * time.Millisecond

	delay := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if delay > capDelay || delay <= 0 {
		delay = capDelay
	}

	return delay + time.Duration(rand.Intn(10))*time.Millisecond
}
