package resilience

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Outcome tells the executor how to treat an error returned by a backend call.
type Outcome int

const (
	// Permanent errors are returned at once and count against the breaker.
	Permanent Outcome = iota
	// Transient errors are retried and count against the breaker.
	Transient
	// Ignored errors are returned at once and leave the breaker untouched.
	Ignored
)

type Classifier func(err error) Outcome

// Executor wraps every call to a single backend in bounded retries and one
// shared circuit breaker, so an unreachable database trips for all queries.
type Executor struct {
	backend  string
	classify Classifier
	retry    RetryPolicy
	observer Observer
	breaker  *gobreaker.CircuitBreaker[struct{}]
}

func NewExecutor(backend string, cfg Config, classify Classifier) *Executor {
	cfg = cfg.withDefaults()
	if classify == nil {
		classify = func(error) Outcome { return Permanent }
	}

	e := &Executor{
		backend:  backend,
		classify: classify,
		retry:    cfg.Retry,
		observer: cfg.Observer,
	}
	if cfg.Breaker.Enabled {
		e.breaker = newBreaker(backend, cfg.Breaker, classify, cfg.Observer)
	}
	return e
}

// Execute runs fn, retrying transient failures. operation only labels
// retries in logs and metrics.
func (e *Executor) Execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	if e.breaker == nil {
		return e.attempt(ctx, operation, fn)
	}
	_, err := e.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, e.attempt(ctx, operation, fn)
	})
	return err
}

func (e *Executor) attempt(ctx context.Context, operation string, fn func(context.Context) error) error {
	delay := e.retry.InitialBackoff
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn(ctx)
		if err == nil || n >= e.retry.MaxAttempts || e.classify(err) != Transient {
			return err
		}

		e.observer.ObserveRetry(e.backend, operation, n)
		if !sleep(ctx, delay) {
			return err
		}
		delay = e.retry.next(delay)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func newBreaker(backend string, p BreakerPolicy, classify Classifier, observer Observer) *gobreaker.CircuitBreaker[struct{}] {
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        backend,
		MaxRequests: p.HalfOpenMaxCalls,
		Timeout:     p.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < p.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= p.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || classify(err) == Ignored
		},
		OnStateChange: func(name string, _ gobreaker.State, to gobreaker.State) {
			observer.ObserveBreakerState(name, to)
		},
	})
}

// IsCircuitOpen reports whether err was produced by the breaker rejecting
// a call rather than by the backend.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

type logObserver struct{}

func (logObserver) ObserveRetry(backend, operation string, attempt int) {
	slog.Warn("backend_retry", "backend", backend, "operation", operation, "attempt", attempt)
}

func (logObserver) ObserveBreakerState(backend string, state gobreaker.State) {
	slog.Warn("backend_breaker_state", "backend", backend, "state", state.String())
}
