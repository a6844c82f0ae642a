package monitor

import "time"

const (
	backoffBase = 30 * time.Second
	backoffCap  = 5 * time.Minute
)

// backoffDelay returns the sleep before the next probe attempt after the
// given number of consecutive errors: 30s doubled per additional error,
// capped at 5 minutes.
func backoffDelay(consecutiveErrors int) time.Duration {
	if consecutiveErrors < 1 {
		return backoffBase
	}
	delay := backoffBase
	for i := 1; i < consecutiveErrors; i++ {
		delay *= 2
		if delay >= backoffCap {
			return backoffCap
		}
	}
	return delay
}
