package httpadapter

import (
	"net/url"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"

	"github.com/kirillkom/document-catalog/internal/core/domain"
)

// queryAliases folds alternative spellings into the canonical parameter.
var queryAliases = map[string]string{
	"extensions[]": "extensions",
	"types[]":      "types",
	"per_page":     "page_size",
}

// parseSearchQuery never fails: malformed values are dropped so the search
// runs as if the parameter was not sent.
func parseSearchQuery(raw url.Values) domain.SearchQuery {
	values := cleanQuery(raw)

	q := domain.SearchQuery{
		Text:            deref(bindOptional[string](values, "text")),
		Confidentiality: deref(bindOptional[string](values, "confidentiality")),
		Tag:             deref(bindOptional[string](values, "tag")),
		SortBy:          deref(bindOptional[string](values, "sort_by")),
		SortOrder:       deref(bindOptional[string](values, "sort_order")),
		Page:            deref(bindOptional[int](values, "page")),
		PageSize:        deref(bindOptional[int](values, "page_size")),
		Extensions:      splitList(deref(bindOptional[[]string](values, "extensions"))),
		DocumentTypes:   splitList(deref(bindOptional[[]string](values, "types"))),
		Hierarchy: domain.HierarchySelection{
			ProcessTypeID:     bindOptional[int64](values, "process_type_id"),
			GeneralProcessID:  bindOptional[int64](values, "general_process_id"),
			InternalProcessID: bindOptional[int64](values, "internal_process_id"),
			CategoryID:        bindOptional[int64](values, "category_id"),
		},
	}
	if q.Text == "" {
		q.Text = deref(bindOptional[string](values, "q"))
	}
	q.DateFrom = parseDateParam(deref(bindOptional[string](values, "date_from")))
	q.DateTo = parseDateParam(deref(bindOptional[string](values, "date_to")))
	return q
}

// cleanQuery drops blank values, so "?tag=" and a missing tag are the same,
// and merges aliases into their canonical key.
func cleanQuery(raw url.Values) url.Values {
	out := make(url.Values, len(raw))
	for key, vals := range raw {
		canonical := key
		if alias, ok := queryAliases[key]; ok {
			canonical = alias
		}
		for _, v := range vals {
			if v = strings.TrimSpace(v); v != "" {
				out[canonical] = append(out[canonical], v)
			}
		}
	}
	return out
}

func bindOptional[T any](values url.Values, name string) *T {
	var dest *T
	if err := runtime.BindQueryParameter("form", true, false, name, values, &dest); err != nil {
		return nil
	}
	return dest
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}

// splitList accepts repeated keys and comma separated values alike.
func splitList(vals []string) []string {
	var out []string
	for _, v := range vals {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseDateParam(raw string) *time.Time {
	day, ok := domain.ParseDay(raw)
	if !ok {
		return nil
	}
	return &day
}
