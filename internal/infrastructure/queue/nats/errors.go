package nats

import (
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/document-catalog/internal/infrastructure/resilience"
)

const publishOperation = "catalog event publish"

// publishErrors separates connection trouble, which a reconnect may cure,
// from events the server will never accept.
var publishErrors = resilience.ErrorKinds{
	Transient: func(err error) bool {
		return errors.Is(err, nats.ErrNoServers) ||
			errors.Is(err, nats.ErrTimeout) ||
			errors.Is(err, nats.ErrConnectionClosed) ||
			errors.Is(err, nats.ErrConnectionReconnecting) ||
			errors.Is(err, nats.ErrDisconnected) ||
			errors.Is(err, nats.ErrReconnectBufExceeded) ||
			errors.Is(err, nats.ErrSlowConsumer)
	},
	Rejected: func(err error) bool {
		return errors.Is(err, nats.ErrMaxPayload) ||
			errors.Is(err, nats.ErrBadSubject)
	},
}
