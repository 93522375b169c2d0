package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/document-catalog/internal/core/domain"
	"github.com/kirillkom/document-catalog/internal/core/ports"
)

type CascadeUseCase struct {
	hierarchy ports.HierarchyRepository
}

func NewCascadeUseCase(hierarchy ports.HierarchyRepository) *CascadeUseCase {
	return &CascadeUseCase{hierarchy: hierarchy}
}

func (uc *CascadeUseCase) Roots(ctx context.Context) ([]domain.NodeRef, error) {
	nodes, err := uc.hierarchy.ListRoots(ctx)
	if err != nil {
		return nil, wrapReadError("list process types", err)
	}
	return activeRefs(nodes), nil
}

func (uc *CascadeUseCase) Standalone(ctx context.Context) ([]domain.NodeRef, error) {
	nodes, err := uc.hierarchy.ListStandalone(ctx)
	if err != nil {
		return nil, wrapReadError("list standalone internal processes", err)
	}
	return activeRefs(nodes), nil
}

// Children returns the active children of a node. An inactive parent yields
// an empty list so that stale structure is not exposed.
func (uc *CascadeUseCase) Children(ctx context.Context, parentType domain.NodeType, parentID int64) ([]domain.NodeRef, error) {
	if _, ok := parentType.ChildType(); !ok {
		return nil, domain.WrapError(domain.ErrInvalidInput, "list children", fmt.Errorf("node type %q has no children", parentType))
	}
	parent, err := uc.hierarchy.GetNode(ctx, parentType, parentID)
	if err != nil {
		return nil, wrapReadError("load parent node", err)
	}
	if !parent.Active {
		return []domain.NodeRef{}, nil
	}

	nodes, err := uc.hierarchy.ListChildren(ctx, parentType, parentID)
	if err != nil {
		return nil, wrapReadError("list children", err)
	}
	return activeRefs(nodes), nil
}

// ValidateChain checks every adjacent pair of present references, walking up
// from the most specific one. A missing intermediate reference breaks the
// link and is not an error; only two present, disagreeing values are.
func (uc *CascadeUseCase) ValidateChain(ctx context.Context, selection domain.HierarchySelection) error {
	_, err := uc.resolveChain(ctx, selection)
	return err
}

func (uc *CascadeUseCase) resolveChain(ctx context.Context, selection domain.HierarchySelection) (map[domain.NodeType]*domain.Node, error) {
	nodes := make(map[domain.NodeType]*domain.Node, len(domain.NodeTypes))
	for _, nodeType := range domain.NodeTypes {
		id := selection.At(nodeType)
		if id == nil {
			continue
		}
		node, err := uc.hierarchy.GetNode(ctx, nodeType, *id)
		if err != nil {
			return nil, wrapReadError("resolve "+string(nodeType), err)
		}
		nodes[nodeType] = node
	}

	for i := len(domain.NodeTypes) - 1; i > 0; i-- {
		childType := domain.NodeTypes[i]
		parentType := domain.NodeTypes[i-1]
		child, ok := nodes[childType]
		if !ok {
			continue
		}
		parentRef := selection.At(parentType)
		if parentRef == nil {
			continue
		}
		if child.ParentID == nil || *child.ParentID != *parentRef {
			return nil, &domain.ChainMismatch{
				Level:          parentType,
				ExpectedParent: child.ParentID,
				Actual:         *parentRef,
				Child:          childType,
				ChildID:        child.ID,
			}
		}
	}
	return nodes, nil
}

func activeRefs(nodes []domain.Node) []domain.NodeRef {
	active := make([]domain.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Active {
			active = append(active, n)
		}
	}
	domain.SortNodes(active)

	out := make([]domain.NodeRef, 0, len(active))
	for _, n := range active {
		out = append(out, domain.NodeRef{ID: n.ID, Name: n.Name})
	}
	return out
}
