package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kirillkom/document-catalog/internal/core/domain"
)

type nodeTable struct {
	name         string
	parentColumn string
	titleColumn  string
}

// Identifiers below are the only ones ever interpolated into SQL.
var nodeTables = map[domain.NodeType]nodeTable{
	domain.NodeProcessType:     {name: "process_types", parentColumn: "NULL::bigint", titleColumn: "title"},
	domain.NodeGeneralProcess:  {name: "general_processes", parentColumn: "process_type_id", titleColumn: "''"},
	domain.NodeInternalProcess: {name: "internal_processes", parentColumn: "general_process_id", titleColumn: "''"},
	domain.NodeCategory:        {name: "categories", parentColumn: "internal_process_id", titleColumn: "''"},
}

func tableFor(nodeType domain.NodeType) (nodeTable, error) {
	t, ok := nodeTables[nodeType]
	if !ok {
		return nodeTable{}, domain.WrapError(domain.ErrInvalidInput, "resolve node table", fmt.Errorf("unknown node type %q", nodeType))
	}
	return t, nil
}

func (t nodeTable) selectColumns() string {
	return fmt.Sprintf("id, %s, name, %s, active, sort_order", t.parentColumn, t.titleColumn)
}

type HierarchyRepository struct {
	db *sql.DB
}

func NewHierarchyRepository(db *sql.DB) *HierarchyRepository {
	return &HierarchyRepository{db: db}
}

func (r *HierarchyRepository) GetNode(ctx context.Context, nodeType domain.NodeType, id int64) (*domain.Node, error) {
	table, err := tableFor(nodeType)
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx, fmt.Sprintf(`
SELECT %s
FROM %s
WHERE id = $1
`, table.selectColumns(), table.name), id)

	node, err := scanNode(row, nodeType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNodeNotFound, "get node", fmt.Errorf("%s %d", nodeType, id))
		}
		return nil, fmt.Errorf("scan %s: %w", nodeType, err)
	}
	return node, nil
}

func (r *HierarchyRepository) ListChildren(ctx context.Context, parentType domain.NodeType, parentID int64) ([]domain.Node, error) {
	childType, ok := parentType.ChildType()
	if !ok {
		return nil, domain.WrapError(domain.ErrInvalidInput, "list children", fmt.Errorf("node type %q has no children", parentType))
	}
	table, err := tableFor(childType)
	if err != nil {
		return nil, err
	}
	return r.listNodes(ctx, childType, fmt.Sprintf(`
SELECT %s
FROM %s
WHERE %s = $1 AND active
ORDER BY sort_order ASC, name ASC, id ASC
`, table.selectColumns(), table.name, table.parentColumn), parentID)
}

func (r *HierarchyRepository) ListRoots(ctx context.Context) ([]domain.Node, error) {
	table := nodeTables[domain.NodeProcessType]
	return r.listNodes(ctx, domain.NodeProcessType, fmt.Sprintf(`
SELECT %s
FROM %s
WHERE active
ORDER BY sort_order ASC, name ASC, id ASC
`, table.selectColumns(), table.name))
}

func (r *HierarchyRepository) ListStandalone(ctx context.Context) ([]domain.Node, error) {
	table := nodeTables[domain.NodeInternalProcess]
	return r.listNodes(ctx, domain.NodeInternalProcess, fmt.Sprintf(`
SELECT %s
FROM %s
WHERE general_process_id IS NULL AND active
ORDER BY sort_order ASC, name ASC, id ASC
`, table.selectColumns(), table.name))
}

func (r *HierarchyRepository) SetActive(ctx context.Context, nodeType domain.NodeType, id int64, active bool) error {
	table, err := tableFor(nodeType)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`UPDATE %s SET active = $2 WHERE id = $1`, table.name), id, active)
	if err != nil {
		return fmt.Errorf("update %s active: %w", nodeType, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrNodeNotFound, "set node active", fmt.Errorf("%s %d", nodeType, id))
	}
	return nil
}

func (r *HierarchyRepository) listNodes(ctx context.Context, nodeType domain.NodeType, query string, args ...any) ([]domain.Node, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", nodeType, err)
	}
	defer rows.Close()

	out := make([]domain.Node, 0)
	for rows.Next() {
		node, err := scanNode(rows, nodeType)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", nodeType, err)
		}
		out = append(out, *node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", nodeType, err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner, nodeType domain.NodeType) (*domain.Node, error) {
	var (
		node   = domain.Node{Type: nodeType}
		parent sql.NullInt64
	)
	if err := row.Scan(&node.ID, &parent, &node.Name, &node.Title, &node.Active, &node.Order); err != nil {
		return nil, err
	}
	if parent.Valid {
		node.ParentID = domain.Int64(parent.Int64)
	}
	return &node, nil
}
