package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kirillkom/document-catalog/internal/core/domain"
	"github.com/kirillkom/document-catalog/internal/infrastructure/repository/memory"
)

type queryFake struct {
	total    int
	countErr error
	findErr  error

	filter    domain.DocumentFilter
	sort      domain.SortSpec
	page      domain.PageRequest
	findCalls int
}

func (f *queryFake) Count(_ context.Context, filter domain.DocumentFilter) (int, error) {
	f.filter = filter
	return f.total, f.countErr
}

func (f *queryFake) Find(_ context.Context, filter domain.DocumentFilter, sort domain.SortSpec, page domain.PageRequest) ([]domain.Document, error) {
	f.findCalls++
	f.filter = filter
	f.sort = sort
	f.page = page
	if f.findErr != nil {
		return nil, f.findErr
	}
	return []domain.Document{{ID: 1}}, nil
}

func seedPDFs(t *testing.T, n int) *memory.Catalog {
	t.Helper()
	c := memory.NewCatalog()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		doc := domain.Document{
			Title:     fmt.Sprintf("Informe anual %d", i),
			CreatedAt: base.Add(time.Duration(i%4) * time.Hour),
		}
		doc.SetFilename(fmt.Sprintf("informe-%02d.pdf", i))
		if err := c.Create(context.Background(), &doc); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	other := domain.Document{Title: "Informe anual", CreatedAt: base}
	other.SetFilename("informe.docx")
	if err := c.Create(context.Background(), &other); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return c
}

func TestSearchPaginatesMatchingDocuments(t *testing.T) {
	uc := NewSearchUseCase(seedPDFs(t, 23), domain.DefaultDocumentTypes(), SearchOptions{})

	result, err := uc.Search(context.Background(), domain.SearchQuery{
		Text:       "informe anual",
		Extensions: []string{"pdf"},
		Page:       1,
		PageSize:   10,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(result.Items) != 10 || result.Total != 23 || result.LastPage != 3 || result.Page != 1 {
		t.Fatalf("unexpected result: items=%d total=%d last=%d page=%d", len(result.Items), result.Total, result.LastPage, result.Page)
	}
}

func TestSearchClampsPageBeyondLast(t *testing.T) {
	uc := NewSearchUseCase(seedPDFs(t, 23), domain.DefaultDocumentTypes(), SearchOptions{})

	result, err := uc.Search(context.Background(), domain.SearchQuery{
		Extensions: []string{"pdf"},
		Page:       99,
		PageSize:   10,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if result.Page != 3 || len(result.Items) != 3 {
		t.Fatalf("expected page 3 with 3 items, got page=%d items=%d", result.Page, len(result.Items))
	}
}

func TestSearchPagesNeverOverlap(t *testing.T) {
	uc := NewSearchUseCase(seedPDFs(t, 23), domain.DefaultDocumentTypes(), SearchOptions{})

	seen := make(map[int64]int)
	total := 0
	for page := 1; page <= 5; page++ {
		result, err := uc.Search(context.Background(), domain.SearchQuery{PageSize: 5, Page: page})
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		total = result.Total
		for _, doc := range result.Items {
			if prev, dup := seen[doc.ID]; dup {
				t.Fatalf("document %d on pages %d and %d", doc.ID, prev, page)
			}
			seen[doc.ID] = page
		}
	}
	if len(seen) != total {
		t.Fatalf("expected %d distinct documents across pages, got %d", total, len(seen))
	}
}

func TestSearchEmptyResultKeepsRequestedPage(t *testing.T) {
	query := &queryFake{}
	uc := NewSearchUseCase(query, domain.DefaultDocumentTypes(), SearchOptions{})

	result, err := uc.Search(context.Background(), domain.SearchQuery{Page: 4})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if result.Page != 4 || result.LastPage != 1 || result.Items == nil || len(result.Items) != 0 {
		t.Fatalf("unexpected empty result %+v", result)
	}
	if query.findCalls != 0 {
		t.Fatalf("expected no Find call for an empty result")
	}
}

func TestSearchNormalizesQuery(t *testing.T) {
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	query := &queryFake{total: 50}
	uc := NewSearchUseCase(query, domain.DefaultDocumentTypes(), SearchOptions{})

	_, err := uc.Search(context.Background(), domain.SearchQuery{
		Text:            " ab ",
		Extensions:      []string{" .PDF", ""},
		DocumentTypes:   []string{"spreadsheet", "unknown"},
		Confidentiality: "top-secret",
		Tag:             " Budget ",
		DateFrom:        &from,
		DateTo:          &to,
		SortBy:          "relevance",
		SortOrder:       "sideways",
		Page:            -3,
		PageSize:        1000,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	f := query.filter
	if f.Text != "" {
		t.Fatalf("expected short text to be ignored, got %q", f.Text)
	}
	want := []string{"csv", "ods", "pdf", "xls", "xlsx"}
	if fmt.Sprint(f.Extensions) != fmt.Sprint(want) {
		t.Fatalf("expected extensions %v, got %v", want, f.Extensions)
	}
	if f.Confidentiality != nil {
		t.Fatalf("expected invalid confidentiality to be ignored")
	}
	if f.Tag != "budget" {
		t.Fatalf("expected normalized tag, got %q", f.Tag)
	}
	if !f.DateFrom.Equal(to) || !f.DateTo.Equal(from) {
		t.Fatalf("expected reversed bounds to be swapped, got %v..%v", f.DateFrom, f.DateTo)
	}
	if query.sort != (domain.SortSpec{Field: domain.SortCreatedAt, Order: domain.SortDesc}) {
		t.Fatalf("expected default sort, got %+v", query.sort)
	}
	if query.page != (domain.PageRequest{Limit: 100, Offset: 0}) {
		t.Fatalf("expected clamped paging, got %+v", query.page)
	}
}

func TestSearchUnknownDocumentTypesOnlyMeansNoKindFilter(t *testing.T) {
	query := &queryFake{total: 1}
	uc := NewSearchUseCase(query, domain.DefaultDocumentTypes(), SearchOptions{})

	if _, err := uc.Search(context.Background(), domain.SearchQuery{DocumentTypes: []string{"hologram"}}); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if query.filter.Extensions != nil {
		t.Fatalf("expected no extension filter, got %v", query.filter.Extensions)
	}
}

func TestSearchIgnoresTextWithoutWords(t *testing.T) {
	catalog := seedPDFs(t, 3)
	uc := NewSearchUseCase(catalog, domain.DefaultDocumentTypes(), SearchOptions{})

	for _, text := range []string{"???", " -- ", "..."} {
		res, err := uc.Search(context.Background(), domain.SearchQuery{Text: text, SortBy: "relevance"})
		if err != nil {
			t.Fatalf("Search(%q) error = %v", text, err)
		}
		if res.Total != 4 {
			t.Fatalf("Search(%q) total = %d, want every document", text, res.Total)
		}
	}

	query := &queryFake{total: 1}
	uc = NewSearchUseCase(query, domain.DefaultDocumentTypes(), SearchOptions{})
	if _, err := uc.Search(context.Background(), domain.SearchQuery{Text: "?!?", SortBy: "relevance"}); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if query.filter.Text != "" || query.sort.Field == domain.SortRelevance {
		t.Fatalf("punctuation must not enable the text filter: %+v %+v", query.filter, query.sort)
	}
}

func TestSearchRelevanceSortWithText(t *testing.T) {
	query := &queryFake{total: 1}
	uc := NewSearchUseCase(query, domain.DefaultDocumentTypes(), SearchOptions{})

	if _, err := uc.Search(context.Background(), domain.SearchQuery{Text: "budget", SortBy: "relevance", SortOrder: "DESC"}); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if query.sort.Field != domain.SortRelevance || query.sort.Order != domain.SortDesc {
		t.Fatalf("expected relevance desc, got %+v", query.sort)
	}
	if query.page.Limit != 10 {
		t.Fatalf("expected default page size 10, got %d", query.page.Limit)
	}
}

func TestSearchCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	uc := NewSearchUseCase(&queryFake{total: 3}, domain.DefaultDocumentTypes(), SearchOptions{})

	_, err := uc.Search(ctx, domain.SearchQuery{})
	if !domain.IsKind(err, domain.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}

	uc = NewSearchUseCase(&queryFake{total: 3, findErr: fmt.Errorf("query: %w", context.Canceled)}, domain.DefaultDocumentTypes(), SearchOptions{})
	_, err = uc.Search(context.Background(), domain.SearchQuery{})
	if !domain.IsKind(err, domain.ErrCancelled) {
		t.Fatalf("expected ErrCancelled from aborted fetch, got %v", err)
	}
}

func TestSearchPropagatesStoreErrors(t *testing.T) {
	boom := errors.New("db down")
	uc := NewSearchUseCase(&queryFake{countErr: boom}, domain.DefaultDocumentTypes(), SearchOptions{})

	_, err := uc.Search(context.Background(), domain.SearchQuery{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}
