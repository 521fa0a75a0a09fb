package portal

import (
	"math"
	"time"
)

// Default reconnection policy values.
const (
	DEF_MAX_RECONNECT_ATTEMPTS = 5
	DEF_RECONNECT_BASE_DELAY   = 1 * time.Second
	DEF_BACKOFF_FACTOR         = 2.0
)

// ReconnectPolicy controls how the engine retries a dropped push
// channel before falling back to polling.
type ReconnectPolicy struct {
	MaxAttempts int           // Attempts before giving up on the push channel
	BaseDelay   time.Duration // Delay before the first attempt
	Factor      float64       // Exponential backoff multiplier
}

// DefaultReconnectPolicy returns the stock policy: 5 attempts with
// delays of 1, 2, 4, 8 and 16 base units.
func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		MaxAttempts: DEF_MAX_RECONNECT_ATTEMPTS,
		BaseDelay:   DEF_RECONNECT_BASE_DELAY,
		Factor:      DEF_BACKOFF_FACTOR,
	}
}

// Delay computes the backoff before the given attempt (1-based):
// BaseDelay * Factor^(attempt-1).
func (p ReconnectPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(float64(p.BaseDelay) * math.Pow(p.Factor, float64(attempt-1)))
}
