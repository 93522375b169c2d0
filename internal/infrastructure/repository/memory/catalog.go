package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/document-catalog/internal/core/domain"
)

// Catalog keeps the hierarchy and the documents in process memory. It serves
// every storage port and is used for local runs and tests.
type Catalog struct {
	mu     sync.RWMutex
	nodes  map[domain.NodeType]map[int64]domain.Node
	docs   map[int64]domain.Document
	lastID int64
}

func NewCatalog() *Catalog {
	nodes := make(map[domain.NodeType]map[int64]domain.Node, len(domain.NodeTypes))
	for _, t := range domain.NodeTypes {
		nodes[t] = make(map[int64]domain.Node)
	}
	return &Catalog{
		nodes: nodes,
		docs:  make(map[int64]domain.Document),
	}
}

// AddNode seeds a hierarchy node. The parent must already exist; only
// internal processes may omit it.
func (c *Catalog) AddNode(node domain.Node) error {
	if !node.Type.Valid() {
		return domain.WrapError(domain.ErrInvalidInput, "add node", fmt.Errorf("unknown node type %q", node.Type))
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	parentType, hasParent := node.Type.ParentType()
	switch {
	case !hasParent:
		node.ParentID = nil
	case node.ParentID == nil && node.Type != domain.NodeInternalProcess:
		return domain.WrapError(domain.ErrInvalidInput, "add node", fmt.Errorf("%s requires a parent", node.Type))
	case node.ParentID != nil:
		if _, ok := c.nodes[parentType][*node.ParentID]; !ok {
			return domain.WrapError(domain.ErrNodeNotFound, "add node", fmt.Errorf("%s %d", parentType, *node.ParentID))
		}
	}
	c.nodes[node.Type][node.ID] = cloneNode(node)
	return nil
}

func (c *Catalog) GetNode(ctx context.Context, nodeType domain.NodeType, id int64) (*domain.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	node, ok := c.nodes[nodeType][id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNodeNotFound, "get node", fmt.Errorf("%s %d", nodeType, id))
	}
	out := cloneNode(node)
	return &out, nil
}

func (c *Catalog) ListChildren(ctx context.Context, parentType domain.NodeType, parentID int64) ([]domain.Node, error) {
	childType, ok := parentType.ChildType()
	if !ok {
		return nil, domain.WrapError(domain.ErrInvalidInput, "list children", fmt.Errorf("node type %q has no children", parentType))
	}
	return c.listActive(ctx, childType, func(n domain.Node) bool {
		return n.ParentID != nil && *n.ParentID == parentID
	})
}

func (c *Catalog) ListRoots(ctx context.Context) ([]domain.Node, error) {
	return c.listActive(ctx, domain.NodeProcessType, func(domain.Node) bool { return true })
}

func (c *Catalog) ListStandalone(ctx context.Context) ([]domain.Node, error) {
	return c.listActive(ctx, domain.NodeInternalProcess, func(n domain.Node) bool {
		return n.ParentID == nil
	})
}

func (c *Catalog) listActive(ctx context.Context, nodeType domain.NodeType, keep func(domain.Node) bool) ([]domain.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Node, 0)
	for _, n := range c.nodes[nodeType] {
		if n.Active && keep(n) {
			out = append(out, cloneNode(n))
		}
	}
	domain.SortNodes(out)
	return out, nil
}

func (c *Catalog) SetActive(ctx context.Context, nodeType domain.NodeType, id int64, active bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.nodes[nodeType][id]
	if !ok {
		return domain.WrapError(domain.ErrNodeNotFound, "set node active", fmt.Errorf("%s %d", nodeType, id))
	}
	node.Active = active
	c.nodes[nodeType][id] = node
	return nil
}

func (c *Catalog) Create(ctx context.Context, doc *domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastID++
	doc.ID = c.lastID
	c.docs[doc.ID] = cloneDocument(*doc)
	return nil
}

func (c *Catalog) Update(ctx context.Context, doc *domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.docs[doc.ID]; !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "update document", fmt.Errorf("id %d", doc.ID))
	}
	c.docs[doc.ID] = cloneDocument(*doc)
	return nil
}

func (c *Catalog) Invalidate(ctx context.Context, id int64, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, ok := c.docs[id]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "invalidate document", fmt.Errorf("id %d", id))
	}
	doc.InvalidatedAt = &at
	doc.UpdatedAt = at
	c.docs[id] = doc
	return nil
}

func (c *Catalog) GetByID(ctx context.Context, id int64) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	doc, ok := c.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id %d", id))
	}
	out := cloneDocument(doc)
	return &out, nil
}

func (c *Catalog) Count(ctx context.Context, filter domain.DocumentFilter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := 0
	for _, doc := range c.docs {
		if matches(&doc, filter) {
			total++
		}
	}
	return total, nil
}

func (c *Catalog) Find(ctx context.Context, filter domain.DocumentFilter, sortSpec domain.SortSpec, page domain.PageRequest) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	hits := make([]scoredDocument, 0)
	for _, doc := range c.docs {
		if !matches(&doc, filter) {
			continue
		}
		hit := scoredDocument{doc: cloneDocument(doc)}
		if sortSpec.Field == domain.SortRelevance && filter.Text != "" {
			hit.score = domain.Relevance(&hit.doc, filter.Text)
		}
		hits = append(hits, hit)
	}
	c.mu.RUnlock()

	slices.SortFunc(hits, func(a, b scoredDocument) int {
		return compareHits(a, b, sortSpec)
	})

	if page.Offset < 0 {
		page.Offset = 0
	}
	if page.Offset >= len(hits) {
		return []domain.Document{}, nil
	}
	end := len(hits)
	if page.Limit > 0 && page.Offset+page.Limit < end {
		end = page.Offset + page.Limit
	}
	out := make([]domain.Document, 0, end-page.Offset)
	for _, hit := range hits[page.Offset:end] {
		out = append(out, hit.doc)
	}
	return out, nil
}

func (c *Catalog) CountByExtension(ctx context.Context) ([]domain.ExtensionCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	counts := make(map[string]int64)
	for _, doc := range c.docs {
		if doc.InvalidatedAt == nil {
			counts[doc.Extension]++
		}
	}
	c.mu.RUnlock()

	out := make([]domain.ExtensionCount, 0, len(counts))
	for ext, total := range counts {
		out = append(out, domain.ExtensionCount{Extension: ext, Total: total})
	}
	slices.SortFunc(out, func(a, b domain.ExtensionCount) int {
		if a.Total != b.Total {
			return cmp.Compare(b.Total, a.Total)
		}
		return strings.Compare(a.Extension, b.Extension)
	})
	return out, nil
}

// CountByNode returns one entry per active node of nodeType, zero counts
// included, in display order.
func (c *Catalog) CountByNode(ctx context.Context, nodeType domain.NodeType) ([]domain.NodeCount, error) {
	if !nodeType.Valid() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "count by node", fmt.Errorf("unknown node type %q", nodeType))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	totals := make(map[int64]int64)
	for _, doc := range c.docs {
		if doc.InvalidatedAt != nil {
			continue
		}
		if id := doc.Selection().At(nodeType); id != nil {
			totals[*id]++
		}
	}

	nodes := make([]domain.Node, 0, len(c.nodes[nodeType]))
	for _, n := range c.nodes[nodeType] {
		if n.Active {
			nodes = append(nodes, n)
		}
	}
	domain.SortNodes(nodes)

	out := make([]domain.NodeCount, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, domain.NodeCount{NodeID: n.ID, Name: n.Name, Total: totals[n.ID]})
	}
	return out, nil
}

type scoredDocument struct {
	doc   domain.Document
	score float64
}

func matches(doc *domain.Document, f domain.DocumentFilter) bool {
	if doc.InvalidatedAt != nil {
		return false
	}
	for _, t := range domain.NodeTypes {
		want := f.Hierarchy.At(t)
		if want == nil {
			continue
		}
		got := doc.Selection().At(t)
		if got == nil || *got != *want {
			return false
		}
	}
	if len(f.Extensions) > 0 && !slices.Contains(f.Extensions, doc.Extension) {
		return false
	}
	if f.Confidentiality != nil && doc.Confidentiality != *f.Confidentiality {
		return false
	}
	if f.Tag != "" && !slices.Contains(doc.Tags, f.Tag) {
		return false
	}
	if f.DateFrom != nil || f.DateTo != nil {
		if doc.DocumentDate == nil {
			return false
		}
		if f.DateFrom != nil && doc.DocumentDate.Before(*f.DateFrom) {
			return false
		}
		if f.DateTo != nil && doc.DocumentDate.After(*f.DateTo) {
			return false
		}
	}
	if f.Text != "" && !domain.TextMatch(doc, f.Text) {
		return false
	}
	return true
}

// compareHits orders by the requested field with nulls last in either
// direction, then by id descending.
func compareHits(a, b scoredDocument, s domain.SortSpec) int {
	var c int
	switch s.Field {
	case domain.SortTitle:
		c = strings.Compare(a.doc.Title, b.doc.Title)
	case domain.SortDocumentDate:
		if n, done := compareNulls(a.doc.DocumentDate, b.doc.DocumentDate); done {
			return tieBreak(n, a, b)
		}
		c = a.doc.DocumentDate.Compare(*b.doc.DocumentDate)
	case domain.SortValidUntil:
		if n, done := compareNulls(a.doc.ValidUntil, b.doc.ValidUntil); done {
			return tieBreak(n, a, b)
		}
		c = a.doc.ValidUntil.Compare(*b.doc.ValidUntil)
	case domain.SortFileSize:
		c = cmp.Compare(a.doc.FileSize, b.doc.FileSize)
	case domain.SortOriginalFilename:
		c = strings.Compare(a.doc.OriginalFilename, b.doc.OriginalFilename)
	case domain.SortExtension:
		c = strings.Compare(a.doc.Extension, b.doc.Extension)
	case domain.SortRelevance:
		c = cmp.Compare(a.score, b.score)
	default:
		c = a.doc.CreatedAt.Compare(b.doc.CreatedAt)
	}
	if s.Order == domain.SortDesc {
		c = -c
	}
	return tieBreak(c, a, b)
}

// compareNulls is done when at least one side is nil.
func compareNulls(a, b *time.Time) (int, bool) {
	switch {
	case a == nil && b == nil:
		return 0, true
	case a == nil:
		return 1, true
	case b == nil:
		return -1, true
	default:
		return 0, false
	}
}

func tieBreak(c int, a, b scoredDocument) int {
	if c != 0 {
		return c
	}
	return cmp.Compare(b.doc.ID, a.doc.ID)
}

func cloneNode(n domain.Node) domain.Node {
	if n.ParentID != nil {
		n.ParentID = domain.Int64(*n.ParentID)
	}
	return n
}

func cloneDocument(d domain.Document) domain.Document {
	d.Tags = slices.Clone(d.Tags)
	d.ProcessTypeID = cloneID(d.ProcessTypeID)
	d.GeneralProcessID = cloneID(d.GeneralProcessID)
	d.InternalProcessID = cloneID(d.InternalProcessID)
	d.CategoryID = cloneID(d.CategoryID)
	d.DocumentDate = cloneTime(d.DocumentDate)
	d.ValidUntil = cloneTime(d.ValidUntil)
	d.InvalidatedAt = cloneTime(d.InvalidatedAt)
	return d
}

func cloneID(v *int64) *int64 {
	if v == nil {
		return nil
	}
	return domain.Int64(*v)
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	t := *v
	return &t
}
