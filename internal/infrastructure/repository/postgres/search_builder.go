package postgres

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kirillkom/document-catalog/internal/core/domain"
)

var sortColumns = map[domain.SortField]string{
	domain.SortCreatedAt:        "created_at",
	domain.SortTitle:            "title",
	domain.SortDocumentDate:     "document_date",
	domain.SortValidUntil:       "valid_until",
	domain.SortFileSize:         "file_size",
	domain.SortOriginalFilename: "original_filename",
	domain.SortExtension:        "extension",
}

var hierarchyColumns = map[domain.NodeType]string{
	domain.NodeProcessType:     "process_type_id",
	domain.NodeGeneralProcess:  "general_process_id",
	domain.NodeInternalProcess: "internal_process_id",
	domain.NodeCategory:        "category_id",
}

// searchQuery accumulates the WHERE clause and its positional arguments.
// Values always travel as arguments; only whitelisted identifiers are
// written into the statement.
type searchQuery struct {
	conds     []string
	args      []any
	textParam string
}

func (q *searchQuery) bind(v any) string {
	q.args = append(q.args, v)
	return fmt.Sprintf("$%d", len(q.args))
}

func buildSearchQuery(f domain.DocumentFilter) (*searchQuery, error) {
	q := &searchQuery{conds: []string{"invalidated_at IS NULL"}}

	if f.Text != "" {
		q.textParam = q.bind(f.Text)
		q.conds = append(q.conds, fmt.Sprintf("search_vector @@ plainto_tsquery('simple', %s)", q.textParam))
	}
	for _, nodeType := range domain.NodeTypes {
		if id := f.Hierarchy.At(nodeType); id != nil {
			q.conds = append(q.conds, fmt.Sprintf("%s = %s", hierarchyColumns[nodeType], q.bind(*id)))
		}
	}
	if len(f.Extensions) > 0 {
		params := make([]string, 0, len(f.Extensions))
		for _, ext := range f.Extensions {
			params = append(params, q.bind(ext))
		}
		q.conds = append(q.conds, fmt.Sprintf("extension IN (%s)", strings.Join(params, ", ")))
	}
	if f.Confidentiality != nil {
		q.conds = append(q.conds, "confidentiality = "+q.bind(string(*f.Confidentiality)))
	}
	if f.Tag != "" {
		tagJSON, err := json.Marshal([]string{f.Tag})
		if err != nil {
			return nil, fmt.Errorf("marshal tag filter: %w", err)
		}
		q.conds = append(q.conds, fmt.Sprintf("tags @> %s::jsonb", q.bind(string(tagJSON))))
	}
	if f.DateFrom != nil {
		q.conds = append(q.conds, fmt.Sprintf("document_date >= %s::date", q.bind(f.DateFrom.Format("2006-01-02"))))
	}
	if f.DateTo != nil {
		q.conds = append(q.conds, fmt.Sprintf("document_date <= %s::date", q.bind(f.DateTo.Format("2006-01-02"))))
	}
	return q, nil
}

func (q *searchQuery) where() string {
	return "WHERE " + strings.Join(q.conds, "\n  AND ")
}

// orderBy renders the primary sort with nulls last, then id desc.
func (q *searchQuery) orderBy(s domain.SortSpec) string {
	dir := "DESC"
	if s.Order == domain.SortAsc {
		dir = "ASC"
	}
	expr, ok := sortColumns[s.Field]
	if s.Field == domain.SortRelevance && q.textParam != "" {
		expr, ok = fmt.Sprintf("ts_rank(search_vector, plainto_tsquery('simple', %s))", q.textParam), true
	}
	if !ok {
		expr = sortColumns[domain.SortCreatedAt]
	}
	return fmt.Sprintf("ORDER BY %s %s NULLS LAST, id DESC", expr, dir)
}
