package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/kirillkom/document-catalog/internal/core/domain"
)

const sampleFixtures = `
nodes:
  - {type: process-types, id: 1, name: Strategic, title: Strategic processes}
  - {type: general_process, id: 10, parent_id: 1, name: Planning}
  - {type: internal_process, id: 100, parent_id: 10, name: Budget}
  - {type: internal_process, id: 101, name: Audit}
  - {type: category, id: 1000, parent_id: 100, name: Reports, active: false}
documents:
  - title: Annual budget
    filename: budget-2024.XLSX
    tags: [Finance, finance, plan]
    process_type_id: 1
    general_process_id: 10
    internal_process_id: 100
    document_date: "2024-01-15"
    confidentiality: restricted
  - title: Audit checklist
    filename: checklist.pdf
    internal_process_id: 101
`

func TestLoadFixtures(t *testing.T) {
	ctx := context.Background()
	c := NewCatalog()
	if err := c.LoadFixtures(ctx, strings.NewReader(sampleFixtures)); err != nil {
		t.Fatalf("LoadFixtures() error = %v", err)
	}

	roots, _ := c.ListRoots(ctx)
	if len(roots) != 1 || roots[0].Title != "Strategic processes" {
		t.Fatalf("unexpected roots %+v", roots)
	}
	standalone, _ := c.ListStandalone(ctx)
	if len(standalone) != 1 || standalone[0].ID != 101 {
		t.Fatalf("unexpected standalone processes %+v", standalone)
	}
	cat, err := c.GetNode(ctx, domain.NodeCategory, 1000)
	if err != nil || cat.Active {
		t.Fatalf("expected inactive category, got %+v, %v", cat, err)
	}

	doc, err := c.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if doc.Extension != "xlsx" || doc.Confidentiality != domain.ConfidentialityRestricted {
		t.Fatalf("unexpected document %+v", doc)
	}
	if len(doc.Tags) != 2 || doc.Tags[0] != "finance" {
		t.Fatalf("tags not normalized: %v", doc.Tags)
	}
	if doc.DocumentDate == nil || doc.DocumentDate.Format("2006-01-02") != "2024-01-15" {
		t.Fatalf("unexpected document date %v", doc.DocumentDate)
	}

	second, _ := c.GetByID(ctx, 2)
	if second.Confidentiality != domain.ConfidentialityInternal {
		t.Fatalf("expected default confidentiality, got %q", second.Confidentiality)
	}
}

func TestLoadFixturesRejectsOrphans(t *testing.T) {
	c := NewCatalog()
	err := c.LoadFixtures(context.Background(), strings.NewReader(`
nodes:
  - {type: category, id: 5, parent_id: 99, name: Orphan}
`))
	if !domain.IsKind(err, domain.ErrNodeNotFound) {
		t.Fatalf("expected ErrNodeNotFound, got %v", err)
	}
}

func TestLoadFixturesRejectsBadDate(t *testing.T) {
	c := NewCatalog()
	err := c.LoadFixtures(context.Background(), strings.NewReader(`
documents:
  - {title: x, filename: x.pdf, document_date: "15/01/2024"}
`))
	if err == nil {
		t.Fatalf("expected date parse error")
	}
}
