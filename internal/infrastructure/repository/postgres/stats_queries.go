package postgres

import (
	"context"
	"fmt"

	"github.com/kirillkom/document-catalog/internal/core/domain"
)

func (r *DocumentRepository) CountByExtension(ctx context.Context) ([]domain.ExtensionCount, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT extension, COUNT(*)
FROM documents
WHERE invalidated_at IS NULL
GROUP BY extension
ORDER BY COUNT(*) DESC, extension ASC
`)
	if err != nil {
		return nil, fmt.Errorf("count by extension: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ExtensionCount, 0)
	for rows.Next() {
		var c domain.ExtensionCount
		if err := rows.Scan(&c.Extension, &c.Total); err != nil {
			return nil, fmt.Errorf("scan extension count: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate extension counts: %w", err)
	}
	return out, nil
}

// CountByNode counts live documents per active node of nodeType, including
// nodes without documents.
func (r *DocumentRepository) CountByNode(ctx context.Context, nodeType domain.NodeType) ([]domain.NodeCount, error) {
	table, err := tableFor(nodeType)
	if err != nil {
		return nil, err
	}
	column := hierarchyColumns[nodeType]

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
SELECT n.id, n.name, COUNT(d.id)
FROM %s n
LEFT JOIN documents d ON d.%s = n.id AND d.invalidated_at IS NULL
WHERE n.active
GROUP BY n.id, n.name, n.sort_order
ORDER BY n.sort_order ASC, n.name ASC, n.id ASC
`, table.name, column))
	if err != nil {
		return nil, fmt.Errorf("count by %s: %w", nodeType, err)
	}
	defer rows.Close()

	out := make([]domain.NodeCount, 0)
	for rows.Next() {
		var c domain.NodeCount
		if err := rows.Scan(&c.NodeID, &c.Name, &c.Total); err != nil {
			return nil, fmt.Errorf("scan node count: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate node counts: %w", err)
	}
	return out, nil
}
