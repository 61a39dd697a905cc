package resilience

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// next returns the delay that follows d, capped at MaxBackoff.
func (p RetryPolicy) next(d time.Duration) time.Duration {
	grown := time.Duration(float64(d) * p.Multiplier)
	if grown > p.MaxBackoff {
		return p.MaxBackoff
	}
	return grown
}

type BreakerPolicy struct {
	Enabled          bool
	MinRequests      uint32
	FailureRatio     float64
	OpenTimeout      time.Duration
	HalfOpenMaxCalls uint32
}

type Config struct {
	Retry    RetryPolicy
	Breaker  BreakerPolicy
	Observer Observer
}

// Observer receives retry and breaker events for one backend.
type Observer interface {
	ObserveRetry(backend, operation string, attempt int)
	ObserveBreakerState(backend string, state gobreaker.State)
}

func DefaultConfig() Config {
	return Config{
		Retry: RetryPolicy{
			MaxAttempts:    2,
			InitialBackoff: 50 * time.Millisecond,
			MaxBackoff:     200 * time.Millisecond,
			Multiplier:     2.0,
		},
		Breaker: BreakerPolicy{
			Enabled:          true,
			MinRequests:      20,
			FailureRatio:     0.5,
			OpenTimeout:      15 * time.Second,
			HalfOpenMaxCalls: 2,
		},
	}
}

// withDefaults fills every zero or out-of-range field from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	r, b := c.Retry, c.Breaker

	if r.MaxAttempts <= 0 {
		r.MaxAttempts = def.Retry.MaxAttempts
	}
	if r.InitialBackoff <= 0 {
		r.InitialBackoff = def.Retry.InitialBackoff
	}
	if r.MaxBackoff <= 0 {
		r.MaxBackoff = def.Retry.MaxBackoff
	}
	r.MaxBackoff = max(r.MaxBackoff, r.InitialBackoff)
	if r.Multiplier < 1.0 {
		r.Multiplier = def.Retry.Multiplier
	}

	if b.MinRequests == 0 {
		b.MinRequests = def.Breaker.MinRequests
	}
	if b.FailureRatio <= 0 || b.FailureRatio > 1 {
		b.FailureRatio = def.Breaker.FailureRatio
	}
	if b.OpenTimeout <= 0 {
		b.OpenTimeout = def.Breaker.OpenTimeout
	}
	if b.HalfOpenMaxCalls == 0 {
		b.HalfOpenMaxCalls = def.Breaker.HalfOpenMaxCalls
	}

	if c.Observer == nil {
		c.Observer = logObserver{}
	}
	c.Retry, c.Breaker = r, b
	return c
}
