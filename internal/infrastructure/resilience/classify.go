package resilience

import (
	"context"
	"errors"

	"github.com/kirillkom/document-catalog/internal/core/domain"
)

// ErrorKinds describes how one backend fails. Errors matching neither
// predicate are not retried but still count against the breaker.
type ErrorKinds struct {
	// Transient errors are retried and count against the breaker.
	Transient func(error) bool
	// Rejected errors are the caller's fault: never retried and never held
	// against the backend's health.
	Rejected func(error) bool
}

// Classify is an ErrorClassifier. Cancellation is neither retried nor
// recorded, and an open breaker fails fast.
func (k ErrorKinds) Classify(err error) ErrorClassification {
	switch {
	case err == nil:
		return ErrorClassification{}
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return ErrorClassification{}
	case IsCircuitOpen(err):
		return ErrorClassification{RecordFailure: true}
	case k.Rejected != nil && k.Rejected(err):
		return ErrorClassification{}
	case k.Transient != nil && k.Transient(err):
		return ErrorClassification{Retryable: true, RecordFailure: true}
	default:
		return ErrorClassification{RecordFailure: true}
	}
}

// WrapTemporary tags transient and open-circuit failures as
// domain.ErrTemporary under operation. Other errors are returned as is.
func (k ErrorKinds) WrapTemporary(operation string, err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if IsCircuitOpen(err) || k.Classify(err).Retryable {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}
