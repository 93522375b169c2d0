package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/document-catalog/internal/config"
	"github.com/kirillkom/document-catalog/internal/core/domain"
)

type cascadeFake struct {
	roots       []domain.NodeRef
	children    []domain.NodeRef
	childErr    error
	validateErr error

	gotType domain.NodeType
	gotID   int64
}

func (f *cascadeFake) Roots(context.Context) ([]domain.NodeRef, error) { return f.roots, nil }
func (f *cascadeFake) Standalone(context.Context) ([]domain.NodeRef, error) {
	return []domain.NodeRef{}, nil
}
func (f *cascadeFake) Children(_ context.Context, t domain.NodeType, id int64) ([]domain.NodeRef, error) {
	f.gotType, f.gotID = t, id
	return f.children, f.childErr
}
func (f *cascadeFake) ValidateChain(context.Context, domain.HierarchySelection) error {
	return f.validateErr
}

type searchFake struct {
	result *domain.SearchResult
	err    error
	got    domain.SearchQuery
}

func (f *searchFake) Search(_ context.Context, q domain.SearchQuery) (*domain.SearchResult, error) {
	f.got = q
	return f.result, f.err
}

type statsFake struct {
	report *domain.StatsReport
	nodeT  domain.NodeType
}

func (f *statsFake) ExtensionCounts(context.Context) ([]domain.ExtensionCount, error) {
	return []domain.ExtensionCount{{Extension: "pdf", Total: 3}}, nil
}
func (f *statsFake) TypeCounts(context.Context) (map[string]int64, error) {
	return map[string]int64{"pdf": 3}, nil
}
func (f *statsFake) HierarchyNodeCounts(_ context.Context, t domain.NodeType) ([]domain.NodeCount, error) {
	f.nodeT = t
	return []domain.NodeCount{{NodeID: 1, Name: "Strategic", Total: 3}}, nil
}
func (f *statsFake) Report(context.Context) (*domain.StatsReport, error) { return f.report, nil }

type catalogFake struct {
	err       error
	created   domain.DocumentInput
	activeSet *bool
}

func (f *catalogFake) Get(_ context.Context, id int64) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Document{ID: id, Title: "Plan"}, nil
}
func (f *catalogFake) Create(_ context.Context, input domain.DocumentInput) (*domain.Document, error) {
	f.created = input
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Document{ID: 77, Title: input.Title}, nil
}
func (f *catalogFake) Update(_ context.Context, id int64, input domain.DocumentInput) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Document{ID: id, Title: input.Title}, nil
}
func (f *catalogFake) Invalidate(context.Context, int64) error { return f.err }
func (f *catalogFake) SetNodeActive(_ context.Context, _ domain.NodeType, _ int64, active bool) error {
	f.activeSet = &active
	return f.err
}

type exporterFake struct{}

func (exporterFake) ContentType() string { return "application/test" }
func (exporterFake) WriteStats(w io.Writer, report domain.StatsReport) error {
	_, err := io.WriteString(w, "rows:"+report.GeneratedAt.Format("2006"))
	return err
}

type testServices struct {
	cascade *cascadeFake
	search  *searchFake
	stats   *statsFake
	catalog *catalogFake
}

func newTestHandler(cfg config.Config) (http.Handler, *testServices) {
	svc := &testServices{
		cascade: &cascadeFake{},
		search:  &searchFake{result: &domain.SearchResult{Items: []domain.Document{}, Page: 1, PageSize: 10, LastPage: 1}},
		stats:   &statsFake{report: &domain.StatsReport{GeneratedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}},
		catalog: &catalogFake{},
	}
	router := NewRouter(cfg, Services{
		Cascade:  svc.cascade,
		Search:   svc.search,
		Stats:    svc.stats,
		Catalog:  svc.catalog,
		Exporter: exporterFake{},
	}, WithOpenAPISpec([]byte("openapi: 3.0.3\n")))
	return router.Handler(), svc
}

func do(handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func TestSearchRespondsWithPagination(t *testing.T) {
	handler, svc := newTestHandler(config.Config{})
	svc.search.result = &domain.SearchResult{
		Items:    []domain.Document{{ID: 9, Title: "Budget"}},
		Page:     2,
		PageSize: 1,
		Total:    3,
		LastPage: 3,
	}

	res := do(handler, http.MethodGet, "/v1/documents/search?text=budget&extensions[]=pdf&page=2&per_page=1", "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	var body struct {
		Items      []domain.Document  `json:"items"`
		Pagination paginationResponse `json:"pagination"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Items) != 1 || body.Pagination != (paginationResponse{CurrentPage: 2, LastPage: 3, PerPage: 1, Total: 3}) {
		t.Fatalf("unexpected body %+v", body)
	}
	if svc.search.got.Text != "budget" || svc.search.got.PageSize != 1 || len(svc.search.got.Extensions) != 1 {
		t.Fatalf("query not forwarded: %+v", svc.search.got)
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", domain.WrapError(domain.ErrDocumentNotFound, "get", errors.New("id=5")), http.StatusNotFound},
		{"invalid", domain.WrapError(domain.ErrInvalidInput, "create", errors.New("title failed")), http.StatusBadRequest},
		{"inactive", domain.WrapError(domain.ErrInactiveNode, "create", errors.New("category 4")), http.StatusUnprocessableEntity},
		{"cancelled", domain.WrapError(domain.ErrCancelled, "get", context.Canceled), statusClientClosedRequest},
		{"temporary", domain.WrapError(domain.ErrTemporary, "get", errors.New("db down")), http.StatusServiceUnavailable},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler, svc := newTestHandler(config.Config{})
			svc.catalog.err = tc.err
			res := do(handler, http.MethodGet, "/v1/documents/5", "")
			if res.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, res.Code)
			}
		})
	}
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	handler, svc := newTestHandler(config.Config{})
	svc.catalog.err = errors.New("pq: password authentication failed")

	res := do(handler, http.MethodGet, "/v1/documents/5", "")
	if strings.Contains(res.Body.String(), "password") {
		t.Fatalf("internal error leaked: %s", res.Body.String())
	}
}

func TestValidateChainReturnsMismatchDetails(t *testing.T) {
	handler, svc := newTestHandler(config.Config{})
	svc.cascade.validateErr = &domain.ChainMismatch{
		Level:          domain.NodeGeneralProcess,
		ExpectedParent: domain.Int64(10),
		Actual:         20,
		Child:          domain.NodeInternalProcess,
		ChildID:        100,
	}

	res := do(handler, http.MethodPost, "/v1/hierarchy/validate", `{"general_process_id":20,"internal_process_id":100}`)
	if res.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", res.Code)
	}
	var body errorResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Details == nil || body.Details.Level != domain.NodeGeneralProcess || *body.Details.ExpectedParent != 10 || body.Details.Actual != 20 {
		t.Fatalf("unexpected details %+v", body.Details)
	}

	svc.cascade.validateErr = nil
	res = do(handler, http.MethodPost, "/v1/hierarchy/validate", `{}`)
	if res.Code != http.StatusOK || !strings.Contains(res.Body.String(), `"valid":true`) {
		t.Fatalf("expected valid chain, got %d %s", res.Code, res.Body.String())
	}
}

func TestListChildrenParsesPath(t *testing.T) {
	handler, svc := newTestHandler(config.Config{})
	svc.cascade.children = []domain.NodeRef{{ID: 100, Name: "Budget"}}

	res := do(handler, http.MethodGet, "/v1/hierarchy/general-processes/10/children", "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if svc.cascade.gotType != domain.NodeGeneralProcess || svc.cascade.gotID != 10 {
		t.Fatalf("unexpected call %s %d", svc.cascade.gotType, svc.cascade.gotID)
	}

	if res := do(handler, http.MethodGet, "/v1/hierarchy/folders/10/children", ""); res.Code != http.StatusBadRequest {
		t.Fatalf("unknown type expected 400, got %d", res.Code)
	}
	if res := do(handler, http.MethodGet, "/v1/hierarchy/category/x/children", ""); res.Code != http.StatusBadRequest {
		t.Fatalf("bad id expected 400, got %d", res.Code)
	}
}

func TestSetNodeActiveRequiresFlag(t *testing.T) {
	handler, svc := newTestHandler(config.Config{})

	if res := do(handler, http.MethodPatch, "/v1/hierarchy/category/4", `{}`); res.Code != http.StatusBadRequest {
		t.Fatalf("missing flag expected 400, got %d", res.Code)
	}
	res := do(handler, http.MethodPatch, "/v1/hierarchy/category/4", `{"active":false}`)
	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}
	if svc.catalog.activeSet == nil || *svc.catalog.activeSet {
		t.Fatalf("expected deactivation, got %v", svc.catalog.activeSet)
	}
}

func TestCreateDocumentAcceptsPlainDates(t *testing.T) {
	handler, svc := newTestHandler(config.Config{})

	res := do(handler, http.MethodPost, "/v1/documents",
		`{"title":"Plan","original_filename":"plan.pdf","document_date":"2024-02-01","hierarchy":{"category_id":4}}`)
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}
	if res.Header().Get("Location") != "/v1/documents/77" {
		t.Fatalf("unexpected location %q", res.Header().Get("Location"))
	}
	got := svc.catalog.created
	if got.DocumentDate == nil || got.DocumentDate.Format(time.DateOnly) != "2024-02-01" {
		t.Fatalf("unexpected document date %v", got.DocumentDate)
	}
	if got.Hierarchy.CategoryID == nil || *got.Hierarchy.CategoryID != 4 {
		t.Fatalf("hierarchy not decoded: %+v", got.Hierarchy)
	}

	if res := do(handler, http.MethodPost, "/v1/documents", `{"title":"Plan","document_date":"01.02.2024"}`); res.Code != http.StatusBadRequest {
		t.Fatalf("bad date expected 400, got %d", res.Code)
	}
	if res := do(handler, http.MethodPost, "/v1/documents", `{"title":"Plan","colour":"red"}`); res.Code != http.StatusBadRequest {
		t.Fatalf("unknown field expected 400, got %d", res.Code)
	}
}

func TestInvalidateDocument(t *testing.T) {
	handler, _ := newTestHandler(config.Config{})
	if res := do(handler, http.MethodDelete, "/v1/documents/3", ""); res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}
}

func TestHierarchyStatsDefaultsToProcessTypes(t *testing.T) {
	handler, svc := newTestHandler(config.Config{})

	if res := do(handler, http.MethodGet, "/v1/hierarchy/stats", ""); res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if svc.stats.nodeT != domain.NodeProcessType {
		t.Fatalf("expected process_type, got %q", svc.stats.nodeT)
	}
	do(handler, http.MethodGet, "/v1/hierarchy/stats?type=categories", "")
	if svc.stats.nodeT != domain.NodeCategory {
		t.Fatalf("expected category, got %q", svc.stats.nodeT)
	}
	if res := do(handler, http.MethodGet, "/v1/hierarchy/stats?type=teams", ""); res.Code != http.StatusBadRequest {
		t.Fatalf("unknown type expected 400, got %d", res.Code)
	}
}

func TestExportStatsSetsAttachmentHeaders(t *testing.T) {
	handler, _ := newTestHandler(config.Config{})

	res := do(handler, http.MethodGet, "/v1/documents/stats/export", "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res.Header().Get("Content-Type") != "application/test" {
		t.Fatalf("unexpected content type %q", res.Header().Get("Content-Type"))
	}
	if !strings.Contains(res.Header().Get("Content-Disposition"), "catalog-stats-20240501.xlsx") {
		t.Fatalf("unexpected disposition %q", res.Header().Get("Content-Disposition"))
	}
	if !bytes.Equal(res.Body.Bytes(), []byte("rows:2024")) {
		t.Fatalf("unexpected body %q", res.Body.String())
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	handler, _ := newTestHandler(config.Config{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-123")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("request id not echoed: %q", res.Header().Get(requestIDHeader))
	}
	if res := do(handler, http.MethodGet, "/healthz", ""); res.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected generated request id")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler, _ := newTestHandler(config.Config{})
	if res := do(handler, http.MethodPost, "/v1/documents/search", ""); res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", res.Code)
	}
}

func TestOpenAPISpecIsServed(t *testing.T) {
	handler, _ := newTestHandler(config.Config{})
	res := do(handler, http.MethodGet, "/v1/openapi.yaml", "")
	if res.Code != http.StatusOK || !strings.HasPrefix(res.Body.String(), "openapi:") {
		t.Fatalf("unexpected spec response %d %q", res.Code, res.Body.String())
	}
}
