package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrNodeNotFound     = errors.New("hierarchy node not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrChainMismatch    = errors.New("hierarchy chain mismatch")
	ErrInactiveNode     = errors.New("hierarchy node is inactive")
	ErrCancelled        = errors.New("request cancelled")
	ErrTemporary        = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
