package httpadapter

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kirillkom/document-catalog/internal/core/domain"
)

// statusClientClosedRequest is nginx's code for a request the client abandoned.
const statusClientClosedRequest = 499

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrCancelled), errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrDocumentNotFound), domain.IsKind(err, domain.ErrNodeNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrChainMismatch), domain.IsKind(err, domain.ErrInactiveNode):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrTemporary), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error   string                `json:"error"`
	Details *domain.ChainMismatch `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	body := errorResponse{Error: err.Error()}

	switch {
	case status == statusClientClosedRequest:
		slog.Debug("http_request_cancelled",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
		)
	case status >= 500:
		slog.Error("http_handler_error",
			"request_id", requestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
		if status == http.StatusInternalServerError {
			body.Error = "internal server error"
		}
	}

	var mismatch *domain.ChainMismatch
	if errors.As(err, &mismatch) {
		body.Details = mismatch
	}
	writeJSON(w, status, body)
}
