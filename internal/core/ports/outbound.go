package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/document-catalog/internal/core/domain"
)

// HierarchyRepository reads hierarchy nodes and toggles their active flag.
type HierarchyRepository interface {
	GetNode(ctx context.Context, nodeType domain.NodeType, id int64) (*domain.Node, error)
	// ListChildren returns the active children of a node in display order.
	ListChildren(ctx context.Context, parentType domain.NodeType, parentID int64) ([]domain.Node, error)
	ListRoots(ctx context.Context) ([]domain.Node, error)
	ListStandalone(ctx context.Context) ([]domain.Node, error)
	SetActive(ctx context.Context, nodeType domain.NodeType, id int64, active bool) error
}

// DocumentRepository persists document metadata.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	Update(ctx context.Context, doc *domain.Document) error
	Invalidate(ctx context.Context, id int64, at time.Time) error
	GetByID(ctx context.Context, id int64) (*domain.Document, error)
}

// DocumentQuery is the read model used by search. Implementations exclude
// invalidated documents and order by sort, then id desc.
type DocumentQuery interface {
	Count(ctx context.Context, filter domain.DocumentFilter) (int, error)
	Find(ctx context.Context, filter domain.DocumentFilter, sort domain.SortSpec, page domain.PageRequest) ([]domain.Document, error)
}

// StatsSource computes aggregates with a full group-by over the catalog.
type StatsSource interface {
	CountByExtension(ctx context.Context) ([]domain.ExtensionCount, error)
	CountByNode(ctx context.Context, nodeType domain.NodeType) ([]domain.NodeCount, error)
}

// Cache is a key-value store with TTL and explicit delete. A miss is
// (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// EventPublisher announces committed mutations to other processes.
type EventPublisher interface {
	PublishCatalogEvent(ctx context.Context, event domain.CatalogEvent) error
}

// EventSubscriber consumes catalog events until ctx is done.
type EventSubscriber interface {
	SubscribeCatalogEvents(ctx context.Context, handler func(context.Context, domain.CatalogEvent) error) error
}

// StatsExporter renders a stats report as a downloadable file.
type StatsExporter interface {
	ContentType() string
	WriteStats(w io.Writer, report domain.StatsReport) error
}
