package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/kirillkom/document-catalog/internal/core/domain"
)

// wrapReadError adds operation context and turns context errors into the
// cancelled/temporary kinds the transport layer understands.
func wrapReadError(operation string, err error) error {
	switch {
	case err == nil:
		return nil
	case domain.IsKind(err, domain.ErrCancelled), domain.IsKind(err, domain.ErrTemporary):
		return fmt.Errorf("%s: %w", operation, err)
	case errors.Is(err, context.Canceled):
		return domain.WrapError(domain.ErrCancelled, operation, err)
	case errors.Is(err, context.DeadlineExceeded):
		return domain.WrapError(domain.ErrTemporary, operation, err)
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}
