package ports

import (
	"context"

	"github.com/kirillkom/document-catalog/internal/core/domain"
)

// CascadeResolver serves dependent hierarchy selections.
type CascadeResolver interface {
	Roots(ctx context.Context) ([]domain.NodeRef, error)
	Standalone(ctx context.Context) ([]domain.NodeRef, error)
	Children(ctx context.Context, parentType domain.NodeType, parentID int64) ([]domain.NodeRef, error)
	ValidateChain(ctx context.Context, selection domain.HierarchySelection) error
}

// DocumentSearcher is the read-only search/filter engine.
type DocumentSearcher interface {
	Search(ctx context.Context, query domain.SearchQuery) (*domain.SearchResult, error)
}

// StatsReader serves cached aggregates.
type StatsReader interface {
	ExtensionCounts(ctx context.Context) ([]domain.ExtensionCount, error)
	TypeCounts(ctx context.Context) (map[string]int64, error)
	HierarchyNodeCounts(ctx context.Context, nodeType domain.NodeType) ([]domain.NodeCount, error)
	Report(ctx context.Context) (*domain.StatsReport, error)
}

// StatsInvalidator drops the cached aggregates an event affects.
type StatsInvalidator interface {
	Invalidate(ctx context.Context, event domain.CatalogEvent)
}

// CatalogWriter is the mutation surface; every successful write invalidates stats.
type CatalogWriter interface {
	Get(ctx context.Context, id int64) (*domain.Document, error)
	Create(ctx context.Context, input domain.DocumentInput) (*domain.Document, error)
	Update(ctx context.Context, id int64, input domain.DocumentInput) (*domain.Document, error)
	Invalidate(ctx context.Context, id int64) error
	SetNodeActive(ctx context.Context, nodeType domain.NodeType, id int64, active bool) error
}
