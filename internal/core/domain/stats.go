package domain

import (
	"time"

	"github.com/google/uuid"
)

type ExtensionCount struct {
	Extension string `json:"extension"`
	Total     int64  `json:"total"`
}

type NodeCount struct {
	NodeID int64  `json:"node_id"`
	Name   string `json:"name"`
	Total  int64  `json:"total"`
}

// StatsReport bundles every aggregate for export.
type StatsReport struct {
	Extensions   []ExtensionCount `json:"extensions"`
	Types        map[string]int64 `json:"types"`
	ProcessTypes []NodeCount      `json:"process_types"`
	GeneratedAt  time.Time        `json:"generated_at"`
}

type EventKind string

const (
	EventDocument  EventKind = "document"
	EventHierarchy EventKind = "hierarchy"
)

// CatalogEvent announces a committed catalog or hierarchy mutation.
type CatalogEvent struct {
	ID         string    `json:"id"`
	Kind       EventKind `json:"kind"`
	NodeType   NodeType  `json:"node_type,omitempty"`
	EntityID   int64     `json:"entity_id"`
	Action     string    `json:"action"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewDocumentEvent(documentID int64, action string) CatalogEvent {
	return CatalogEvent{
		ID:         uuid.NewString(),
		Kind:       EventDocument,
		EntityID:   documentID,
		Action:     action,
		OccurredAt: time.Now().UTC(),
	}
}

func NewHierarchyEvent(nodeType NodeType, nodeID int64, action string) CatalogEvent {
	return CatalogEvent{
		ID:         uuid.NewString(),
		Kind:       EventHierarchy,
		NodeType:   nodeType,
		EntityID:   nodeID,
		Action:     action,
		OccurredAt: time.Now().UTC(),
	}
}
