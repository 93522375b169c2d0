package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/kirillkom/document-catalog/internal/config"
	"github.com/kirillkom/document-catalog/internal/core/domain"
	"github.com/kirillkom/document-catalog/internal/core/ports"
	"github.com/kirillkom/document-catalog/internal/observability/metrics"
)

// Services are the inbound ports the HTTP surface exposes.
type Services struct {
	Cascade  ports.CascadeResolver
	Search   ports.DocumentSearcher
	Stats    ports.StatsReader
	Catalog  ports.CatalogWriter
	Exporter ports.StatsExporter
}

type Router struct {
	cfg       config.Config
	services  Services
	metrics   *metrics.HTTPServerMetrics
	apiSpec   []byte
	validator *RequestValidator
}

type RouterOption func(*Router)

func WithMetrics(m *metrics.HTTPServerMetrics) RouterOption {
	return func(rt *Router) {
		rt.metrics = m
	}
}

// WithOpenAPISpec serves spec at /v1/openapi.yaml.
func WithOpenAPISpec(spec []byte) RouterOption {
	return func(rt *Router) {
		rt.apiSpec = spec
	}
}

func NewRouter(cfg config.Config, services Services, opts ...RouterOption) *Router {
	rt := &Router{
		cfg:      cfg,
		services: services,
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}
	if len(rt.apiSpec) > 0 {
		mux.HandleFunc("GET /v1/openapi.yaml", rt.openAPISpec)
	}

	mux.HandleFunc("GET /v1/hierarchy/process-types", rt.listProcessTypes)
	mux.HandleFunc("GET /v1/hierarchy/internal-processes/standalone", rt.listStandaloneProcesses)
	mux.HandleFunc("GET /v1/hierarchy/stats", rt.hierarchyStats)
	mux.HandleFunc("POST /v1/hierarchy/validate", rt.validateChain)
	mux.HandleFunc("GET /v1/hierarchy/{type}/{id}/children", rt.listChildren)
	mux.HandleFunc("PATCH /v1/hierarchy/{type}/{id}", rt.setNodeActive)

	mux.HandleFunc("GET /v1/documents/search", rt.searchDocuments)
	mux.HandleFunc("GET /v1/documents/stats/extensions", rt.extensionStats)
	mux.HandleFunc("GET /v1/documents/stats/types", rt.typeStats)
	mux.HandleFunc("GET /v1/documents/stats/export", rt.exportStats)
	mux.HandleFunc("POST /v1/documents", rt.createDocument)
	mux.HandleFunc("GET /v1/documents/{id}", rt.getDocument)
	mux.HandleFunc("PUT /v1/documents/{id}", rt.updateDocument)
	mux.HandleFunc("DELETE /v1/documents/{id}", rt.invalidateDocument)

	var handler http.Handler = mux
	if rt.validator != nil {
		handler = rt.validator.middleware(handler)
	}
	handler = timeoutMiddleware(handler, rt.cfg.APIRequestTimeout)
	handler = backpressureMiddleware(handler, rt.cfg.APIBackpressureMaxInFlight, rt.cfg.APIBackpressureWait)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware("api", handler)
	}
	handler = accessLogMiddleware(handler)
	handler = recoverMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) openAPISpec(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(rt.apiSpec)
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "parse path", fmt.Errorf("%s %q is not a positive integer", name, raw))
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
