package httpadapter

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"

	"github.com/kirillkom/document-catalog/internal/core/domain"
)

// RequestValidator checks document write requests against the API
// description before they reach a handler.
type RequestValidator struct {
	router  routers.Router
	options *openapi3filter.Options
}

func NewRequestValidator(doc *openapi3.T) (*RequestValidator, error) {
	// route on the request path alone; the description's server is "/"
	doc.Servers = nil
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}
	options := &openapi3filter.Options{AuthenticationFunc: openapi3filter.NoopAuthenticationFunc}
	options.WithCustomSchemaErrorFunc(func(err *openapi3.SchemaError) string {
		if path := err.JSONPointer(); len(path) > 0 {
			return fmt.Sprintf("%s: %s", strings.Join(path, "."), err.Reason)
		}
		return err.Reason
	})
	return &RequestValidator{router: router, options: options}, nil
}

// WithRequestValidator validates document writes with v.
func WithRequestValidator(v *RequestValidator) RouterOption {
	return func(rt *Router) {
		rt.validator = v
	}
}

func (v *RequestValidator) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isDocumentWrite(r) {
			next.ServeHTTP(w, r)
			return
		}
		route, params, err := v.router.FindRoute(r)
		if err != nil {
			// unknown route or method: the mux answers 404 or 405
			next.ServeHTTP(w, r)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		err = openapi3filter.ValidateRequest(r.Context(), &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: params,
			Route:      route,
			Options:    v.options,
		})
		if err != nil {
			writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "validate request", err))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isDocumentWrite(r *http.Request) bool {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		return false
	}
	return r.URL.Path == "/v1/documents" || strings.HasPrefix(r.URL.Path, "/v1/documents/")
}
