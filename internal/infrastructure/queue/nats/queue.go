package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/document-catalog/internal/core/domain"
	"github.com/kirillkom/document-catalog/internal/infrastructure/resilience"
)

// Queue carries catalog events between the API and the stats workers.
type Queue struct {
	conn     *nats.Conn
	subject  string
	group    string
	executor *resilience.Executor
	logger   *slog.Logger
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	// QueueGroup load-balances events across workers. Empty fans out to every subscriber.
	QueueGroup         string
	ResilienceExecutor *resilience.Executor
	Logger             *slog.Logger
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(
		url,
		nats.Name("document-catalog"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:     conn,
		subject:  subject,
		group:    options.QueueGroup,
		executor: options.ResilienceExecutor,
		logger:   logger,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishCatalogEvent(ctx context.Context, event domain.CatalogEvent) error {
	payload, err := encodeEvent(event)
	if err != nil {
		return err
	}

	call := func(_ context.Context) error {
		if err := q.conn.Publish(q.subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", call, publishErrors.Classify)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return publishErrors.WrapTemporary(publishOperation, err)
	}
	return nil
}

func (q *Queue) SubscribeCatalogEvents(ctx context.Context, handler func(context.Context, domain.CatalogEvent) error) error {
	onMessage := func(msg *nats.Msg) {
		q.dispatch(ctx, msg.Data, handler)
	}

	var (
		sub *nats.Subscription
		err error
	)
	if q.group != "" {
		sub, err = q.conn.QueueSubscribe(q.subject, q.group, onMessage)
	} else {
		sub, err = q.conn.Subscribe(q.subject, onMessage)
	}
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

func (q *Queue) dispatch(ctx context.Context, data []byte, handler func(context.Context, domain.CatalogEvent) error) {
	if errors.Is(ctx.Err(), context.Canceled) {
		return
	}
	event, err := decodeEvent(data)
	if err != nil {
		q.logger.Warn("catalog_event_decode_failed", "error", err, "payload_bytes", len(data))
		return
	}

	handlerCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := handler(handlerCtx, event); err != nil {
		q.logger.Error("catalog_event_handler_failed",
			"event_id", event.ID,
			"kind", event.Kind,
			"entity_id", event.EntityID,
			"error", err,
		)
	}
}

func encodeEvent(event domain.CatalogEvent) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode catalog event: %w", err)
	}
	return payload, nil
}

func decodeEvent(data []byte) (domain.CatalogEvent, error) {
	var event domain.CatalogEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return domain.CatalogEvent{}, fmt.Errorf("decode catalog event: %w", err)
	}
	switch event.Kind {
	case domain.EventDocument, domain.EventHierarchy:
	default:
		return domain.CatalogEvent{}, fmt.Errorf("decode catalog event: unknown kind %q", event.Kind)
	}
	return event, nil
}
