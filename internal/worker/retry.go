package worker

import "time"

// RetryPolicy shapes the backoff applied to failed report sync tasks.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryPolicy is the report queue's standard backoff: quick retries
// for transient redis or workbook errors, capped at a minute.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:    5,
		InitialDelay:  2 * time.Second,
		MaxDelay:      time.Minute,
		BackoffFactor: 2,
	}
}

// NextDelay returns the wait before the given attempt (1-based). The delay
// grows by BackoffFactor per attempt and clamps at MaxDelay.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	delay := r.InitialDelay
	if delay <= 0 {
		delay = time.Second
	}
	factor := r.BackoffFactor
	if factor <= 0 {
		factor = 2
	}

	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * factor)
		if r.MaxDelay > 0 && delay >= r.MaxDelay {
			return r.MaxDelay
		}
	}
	if r.MaxDelay > 0 && delay > r.MaxDelay {
		return r.MaxDelay
	}
	return delay
}
