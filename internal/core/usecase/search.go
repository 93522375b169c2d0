package usecase

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/document-catalog/internal/core/domain"
	"github.com/kirillkom/document-catalog/internal/core/ports"
)

const (
	defaultPageSize      = 10
	defaultMaxPageSize   = 100
	defaultMinTextLength = 3
)

type SearchOptions struct {
	DefaultPageSize int
	MaxPageSize     int
	MinTextLength   int
}

type SearchUseCase struct {
	query ports.DocumentQuery
	types domain.DocumentTypes
	opts  SearchOptions
}

func NewSearchUseCase(query ports.DocumentQuery, types domain.DocumentTypes, opts SearchOptions) *SearchUseCase {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = defaultPageSize
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = defaultMaxPageSize
	}
	if opts.DefaultPageSize > opts.MaxPageSize {
		opts.DefaultPageSize = opts.MaxPageSize
	}
	if opts.MinTextLength <= 0 {
		opts.MinTextLength = defaultMinTextLength
	}
	return &SearchUseCase{query: query, types: types, opts: opts}
}

// Search never rejects a malformed query: out-of-range paging is clamped and
// unknown enum values drop their filter.
func (uc *SearchUseCase) Search(ctx context.Context, q domain.SearchQuery) (*domain.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapReadError("search documents", err)
	}

	filter := uc.normalizeFilter(q)
	sortSpec := uc.normalizeSort(q, filter.Text != "")
	page, pageSize := uc.normalizePaging(q.Page, q.PageSize)

	total, err := uc.query.Count(ctx, filter)
	if err != nil {
		return nil, wrapReadError("count documents", err)
	}

	lastPage := domain.LastPage(total, pageSize)
	if total > 0 && page > lastPage {
		page = lastPage
	}

	result := &domain.SearchResult{
		Items:    []domain.Document{},
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		LastPage: lastPage,
	}
	if total == 0 {
		return result, nil
	}

	items, err := uc.query.Find(ctx, filter, sortSpec, domain.PageRequest{
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	})
	if err != nil {
		return nil, wrapReadError("find documents", err)
	}
	if items != nil {
		result.Items = items
	}
	return result, nil
}

func (uc *SearchUseCase) normalizeFilter(q domain.SearchQuery) domain.DocumentFilter {
	filter := domain.DocumentFilter{
		Hierarchy: q.Hierarchy,
		Tag:       strings.ToLower(strings.TrimSpace(q.Tag)),
		DateFrom:  q.DateFrom,
		DateTo:    q.DateTo,
	}

	// text with no searchable words ("???") is ignored like short text
	text := strings.TrimSpace(q.Text)
	if utf8.RuneCountInString(text) >= uc.opts.MinTextLength && len(domain.Tokenize(text)) > 0 {
		filter.Text = text
	}

	if c, ok := domain.ParseConfidentiality(q.Confidentiality); ok {
		filter.Confidentiality = &c
	}

	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateFrom.After(*filter.DateTo) {
		filter.DateFrom, filter.DateTo = filter.DateTo, filter.DateFrom
	}

	filter.Extensions = uc.extensionSet(q.Extensions, q.DocumentTypes)
	return filter
}

// extensionSet unions explicit extensions with the extensions of every known
// document type label. Unknown labels contribute nothing.
func (uc *SearchUseCase) extensionSet(extensions, documentTypes []string) []string {
	set := make(map[string]struct{}, len(extensions))
	for _, raw := range extensions {
		if ext := domain.NormalizeExtension(raw); ext != "" {
			set[ext] = struct{}{}
		}
	}
	for _, label := range documentTypes {
		exts, ok := uc.types.Extensions(label)
		if !ok {
			continue
		}
		for _, ext := range exts {
			set[ext] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for ext := range set {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

func (uc *SearchUseCase) normalizeSort(q domain.SearchQuery, hasText bool) domain.SortSpec {
	field, ok := domain.ParseSortField(q.SortBy)
	if !ok || (field == domain.SortRelevance && !hasText) {
		field = domain.SortCreatedAt
	}
	order, ok := domain.ParseSortOrder(q.SortOrder)
	if !ok {
		order = domain.SortDesc
	}
	return domain.SortSpec{Field: field, Order: order}
}

func (uc *SearchUseCase) normalizePaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case pageSize < 1:
		pageSize = uc.opts.DefaultPageSize
	case pageSize > uc.opts.MaxPageSize:
		pageSize = uc.opts.MaxPageSize
	}
	return page, pageSize
}
