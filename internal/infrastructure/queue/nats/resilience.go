package nats

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/tariff-resolver/internal/core/domain"
	"github.com/kirillkom/tariff-resolver/internal/infrastructure/resilience"
)

// NewExecutor returns the executor used for resolve requests sent to workers.
func NewExecutor(cfg resilience.Config) *resilience.Executor {
	return resilience.NewExecutor("nats", cfg, classifyNATSError)
}

func classifyNATSError(err error) resilience.Outcome {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resilience.Ignored
	case errors.Is(err, nats.ErrNoServers),
		errors.Is(err, nats.ErrTimeout),
		errors.Is(err, nats.ErrConnectionClosed),
		errors.Is(err, nats.ErrDisconnected),
		errors.Is(err, nats.ErrNoResponders):
		return resilience.Transient
	default:
		return resilience.Permanent
	}
}

func wrapTemporaryIfNeeded(err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if resilience.IsCircuitOpen(err) || classifyNATSError(err) == resilience.Transient {
		return domain.WrapError(domain.ErrTemporary, "nats request", err)
	}
	return err
}
