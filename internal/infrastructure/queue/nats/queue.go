package nats

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/tariff-resolver/internal/core/domain"
	"github.com/kirillkom/tariff-resolver/internal/infrastructure/resilience"
)

const defaultQueueGroup = "tariff-workers"

// ResolveHandler answers one resolve request.
type ResolveHandler func(ctx context.Context, req domain.ResolveRequest) (*domain.Resolution, error)

type Queue struct {
	conn           *nats.Conn
	subject        string
	queueGroup     string
	requestTimeout time.Duration
	executor       *resilience.Executor
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

// Options tunes the connection. Zero values take the defaults below.
type Options struct {
	QueueGroup           string
	ClientName           string
	RequestTimeout       time.Duration
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func (o Options) withDefaults() Options {
	o.QueueGroup = cmp.Or(o.QueueGroup, defaultQueueGroup)
	o.ClientName = cmp.Or(o.ClientName, "tariff-resolver")
	o.RequestTimeout = positiveOr(o.RequestTimeout, 5*time.Second)
	o.ConnectTimeout = positiveOr(o.ConnectTimeout, 2*time.Second)
	o.ReconnectWait = positiveOr(o.ReconnectWait, 2*time.Second)
	if o.MaxReconnects <= 0 {
		o.MaxReconnects = 60
	}
	if o.RetryOnFailedConnect == nil {
		retry := true
		o.RetryOnFailedConnect = &retry
	}
	return o
}

func (o Options) natsOptions() []nats.Option {
	return []nats.Option{
		nats.Name(o.ClientName),
		nats.Timeout(o.ConnectTimeout),
		nats.ReconnectWait(o.ReconnectWait),
		nats.MaxReconnects(o.MaxReconnects),
		nats.RetryOnFailedConnect(*o.RetryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "client", o.ClientName, "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "client", o.ClientName, "url", nc.ConnectedUrl())
		}),
	}
}

func positiveOr(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	options = options.withDefaults()
	conn, err := nats.Connect(url, options.natsOptions()...)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:           conn,
		subject:        subject,
		queueGroup:     options.QueueGroup,
		requestTimeout: options.RequestTimeout,
		executor:       options.ResilienceExecutor,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

// RequestResolve sends req to the worker pool and waits for its reply. Errors
// reported by the worker keep their kind.
func (q *Queue) RequestResolve(ctx context.Context, req domain.ResolveRequest) (*domain.Resolution, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode resolve request: %w", err)
	}

	var reply *nats.Msg
	call := func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, q.requestTimeout)
			defer cancel()
		}
		msg, err := q.conn.RequestWithContext(ctx, q.subject, payload)
		if err != nil {
			return fmt.Errorf("nats request: %w", err)
		}
		reply = msg
		return nil
	}

	if q.executor != nil {
		err = q.executor.Execute(ctx, "request", call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, wrapTemporaryIfNeeded(err)
	}
	return decodeReply(reply.Data)
}

// ServeResolveRequests answers requests as a member of the queue group until
// ctx is cancelled, then drains in-flight messages.
func (q *Queue) ServeResolveRequests(ctx context.Context, handler ResolveHandler) error {
	sub, err := q.conn.QueueSubscribe(q.subject, q.queueGroup, func(msg *nats.Msg) {
		if ctx.Err() != nil {
			return
		}
		if msg.Reply == "" {
			slog.Warn("nats_request_without_reply", "subject", msg.Subject)
			return
		}

		if err := msg.Respond(handleRequest(ctx, msg.Data, handler)); err != nil {
			slog.Error("nats_respond_failed", "subject", msg.Subject, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}
