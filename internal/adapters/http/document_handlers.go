package httpadapter

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/document-catalog/internal/core/domain"
)

type paginationResponse struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

type searchResponse struct {
	Items      []domain.Document  `json:"items"`
	Pagination paginationResponse `json:"pagination"`
}

func (rt *Router) searchDocuments(w http.ResponseWriter, r *http.Request) {
	query := parseSearchQuery(r.URL.Query())
	start := time.Now()
	result, err := rt.services.Search.Search(r.Context(), query)
	if rt.metrics != nil {
		total := 0
		if result != nil {
			total = result.Total
		}
		rt.metrics.RecordSearch(strings.TrimSpace(query.Text) != "", total, time.Since(start), err)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Items: result.Items,
		Pagination: paginationResponse{
			CurrentPage: result.Page,
			LastPage:    result.LastPage,
			PerPage:     result.PageSize,
			Total:       result.Total,
		},
	})
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := rt.services.Catalog.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// documentRequest takes dates as YYYY-MM-DD or RFC3339; the embedded input's
// own date fields are shadowed.
type documentRequest struct {
	domain.DocumentInput
	DocumentDate *string `json:"document_date"`
	ValidUntil   *string `json:"valid_until"`
}

func (req documentRequest) toInput() (domain.DocumentInput, error) {
	input := req.DocumentInput
	var err error
	if input.DocumentDate, err = requestDate("document_date", req.DocumentDate); err != nil {
		return domain.DocumentInput{}, err
	}
	if input.ValidUntil, err = requestDate("valid_until", req.ValidUntil); err != nil {
		return domain.DocumentInput{}, err
	}
	return input, nil
}

func requestDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t := parseDateParam(strings.TrimSpace(*raw))
	if t == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "decode body", fmt.Errorf("%s: expected YYYY-MM-DD or RFC3339, got %q", field, *raw))
	}
	return t, nil
}

func (rt *Router) decodeDocumentInput(w http.ResponseWriter, r *http.Request) (domain.DocumentInput, error) {
	var req documentRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		return domain.DocumentInput{}, err
	}
	return req.toInput()
}

func (rt *Router) createDocument(w http.ResponseWriter, r *http.Request) {
	input, err := rt.decodeDocumentInput(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := rt.services.Catalog.Create(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/v1/documents/%d", doc.ID))
	writeJSON(w, http.StatusCreated, doc)
}

func (rt *Router) updateDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	input, err := rt.decodeDocumentInput(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := rt.services.Catalog.Update(r.Context(), id, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) invalidateDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := rt.services.Catalog.Invalidate(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) extensionStats(w http.ResponseWriter, r *http.Request) {
	counts, err := rt.services.Stats.ExtensionCounts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if counts == nil {
		counts = []domain.ExtensionCount{}
	}
	writeJSON(w, http.StatusOK, counts)
}

func (rt *Router) typeStats(w http.ResponseWriter, r *http.Request) {
	counts, err := rt.services.Stats.TypeCounts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if counts == nil {
		counts = map[string]int64{}
	}
	writeJSON(w, http.StatusOK, counts)
}

func (rt *Router) exportStats(w http.ResponseWriter, r *http.Request) {
	if rt.services.Exporter == nil {
		writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "export is not configured"})
		return
	}
	report, err := rt.services.Stats.Report(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := rt.services.Exporter.WriteStats(&buf, *report); err != nil {
		writeError(w, r, err)
		return
	}
	filename := fmt.Sprintf("catalog-stats-%s.xlsx", report.GeneratedAt.UTC().Format("20060102"))
	w.Header().Set("Content-Type", rt.services.Exporter.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
