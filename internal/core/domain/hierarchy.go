package domain

import (
	"fmt"
	"sort"
	"strings"
)

// NodeType names one level of the classification hierarchy.
type NodeType string

const (
	NodeProcessType     NodeType = "process_type"
	NodeGeneralProcess  NodeType = "general_process"
	NodeInternalProcess NodeType = "internal_process"
	NodeCategory        NodeType = "category"
)

// NodeTypes lists the hierarchy levels from the root down.
var NodeTypes = []NodeType{NodeProcessType, NodeGeneralProcess, NodeInternalProcess, NodeCategory}

// ParseNodeType accepts the canonical names plus the kebab-case and plural
// spellings used in URLs ("process-types", "categories").
func ParseNodeType(raw string) (NodeType, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", "_")
	switch s {
	case "process_type", "process_types":
		return NodeProcessType, true
	case "general_process", "general_processes":
		return NodeGeneralProcess, true
	case "internal_process", "internal_processes":
		return NodeInternalProcess, true
	case "category", "categories":
		return NodeCategory, true
	default:
		return "", false
	}
}

func (t NodeType) Valid() bool {
	switch t {
	case NodeProcessType, NodeGeneralProcess, NodeInternalProcess, NodeCategory:
		return true
	default:
		return false
	}
}

func (t NodeType) ChildType() (NodeType, bool) {
	switch t {
	case NodeProcessType:
		return NodeGeneralProcess, true
	case NodeGeneralProcess:
		return NodeInternalProcess, true
	case NodeInternalProcess:
		return NodeCategory, true
	default:
		return "", false
	}
}

func (t NodeType) ParentType() (NodeType, bool) {
	switch t {
	case NodeGeneralProcess:
		return NodeProcessType, true
	case NodeInternalProcess:
		return NodeGeneralProcess, true
	case NodeCategory:
		return NodeInternalProcess, true
	default:
		return "", false
	}
}

// Node is a hierarchy node of any level. ParentID is nil for process types and
// for standalone internal processes that are not bound to a general process.
// Title is only carried by process types.
type Node struct {
	Type     NodeType `json:"type"`
	ID       int64    `json:"id"`
	ParentID *int64   `json:"parent_id,omitempty"`
	Name     string   `json:"name"`
	Title    string   `json:"title,omitempty"`
	Active   bool     `json:"active"`
	Order    int      `json:"order"`
}

// NodeRef is the cascade view of a node.
type NodeRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// SortNodes orders nodes by display order, then name, then id.
func SortNodes(nodes []Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Order != nodes[j].Order {
			return nodes[i].Order < nodes[j].Order
		}
		if nodes[i].Name != nodes[j].Name {
			return nodes[i].Name < nodes[j].Name
		}
		return nodes[i].ID < nodes[j].ID
	})
}

// HierarchySelection is the set of classification references carried by a
// document or a search filter. Nil means "not selected".
type HierarchySelection struct {
	ProcessTypeID     *int64 `json:"process_type_id,omitempty"`
	GeneralProcessID  *int64 `json:"general_process_id,omitempty"`
	InternalProcessID *int64 `json:"internal_process_id,omitempty"`
	CategoryID        *int64 `json:"category_id,omitempty"`
}

func (s HierarchySelection) At(t NodeType) *int64 {
	switch t {
	case NodeProcessType:
		return s.ProcessTypeID
	case NodeGeneralProcess:
		return s.GeneralProcessID
	case NodeInternalProcess:
		return s.InternalProcessID
	case NodeCategory:
		return s.CategoryID
	default:
		return nil
	}
}

func (s HierarchySelection) IsEmpty() bool {
	return s.ProcessTypeID == nil && s.GeneralProcessID == nil && s.InternalProcessID == nil && s.CategoryID == nil
}

// ChainMismatch reports a child reference whose stored parent disagrees with
// the parent reference present on the same selection.
type ChainMismatch struct {
	Level          NodeType `json:"level"`
	ExpectedParent *int64   `json:"expected_parent"`
	Actual         int64    `json:"actual"`
	Child          NodeType `json:"child"`
	ChildID        int64    `json:"child_id"`
}

func (m *ChainMismatch) Error() string {
	expected := "none"
	if m.ExpectedParent != nil {
		expected = fmt.Sprintf("%d", *m.ExpectedParent)
	}
	return fmt.Sprintf("%s %d belongs to %s %s, selection has %d", m.Child, m.ChildID, m.Level, expected, m.Actual)
}

func (m *ChainMismatch) Is(target error) bool {
	return target == ErrChainMismatch
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 {
	return &v
}
