package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/document-catalog/internal/core/domain"
)

type invalidatorFake struct {
	events []domain.CatalogEvent
}

func (f *invalidatorFake) Invalidate(_ context.Context, event domain.CatalogEvent) {
	f.events = append(f.events, event)
}

type publisherFake struct {
	events []domain.CatalogEvent
	err    error
}

func (f *publisherFake) PublishCatalogEvent(_ context.Context, event domain.CatalogEvent) error {
	f.events = append(f.events, event)
	return f.err
}

func validInput() domain.DocumentInput {
	return domain.DocumentInput{
		Title:            "  Annual report ",
		OriginalFilename: "reports/Annual.Report.PDF",
		FileSize:         2048,
		Tags:             []string{"Finance", " finance", "2024"},
		Hierarchy: domain.HierarchySelection{
			ProcessTypeID: domain.Int64(1), InternalProcessID: domain.Int64(100), CategoryID: domain.Int64(1000),
		},
	}
}

func TestCatalogCreate(t *testing.T) {
	catalog := newSeededCatalog(t)
	invalidator := &invalidatorFake{}
	publisher := &publisherFake{}
	uc := NewCatalogUseCase(catalog, catalog, invalidator, WithEventPublisher(publisher))
	fixed := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	uc.now = func() time.Time { return fixed }

	doc, err := uc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if doc.ID == 0 {
		t.Fatalf("expected id to be assigned")
	}
	if doc.Title != "Annual report" || doc.Extension != "pdf" {
		t.Fatalf("unexpected title/extension %q/%q", doc.Title, doc.Extension)
	}
	if strings.Join(doc.Tags, ",") != "2024,finance" {
		t.Fatalf("unexpected tags %v", doc.Tags)
	}
	if doc.Confidentiality != domain.ConfidentialityInternal {
		t.Fatalf("expected default confidentiality internal, got %q", doc.Confidentiality)
	}
	if !doc.CreatedAt.Equal(fixed) || !doc.UpdatedAt.Equal(fixed) {
		t.Fatalf("unexpected timestamps %v %v", doc.CreatedAt, doc.UpdatedAt)
	}
	if len(invalidator.events) != 1 || invalidator.events[0].Kind != domain.EventDocument || invalidator.events[0].Action != ActionCreated {
		t.Fatalf("expected one document invalidation, got %+v", invalidator.events)
	}
	if len(publisher.events) != 1 || publisher.events[0].EntityID != doc.ID {
		t.Fatalf("expected one published event, got %+v", publisher.events)
	}

	stored, err := uc.Get(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.OriginalFilename != "reports/Annual.Report.PDF" {
		t.Fatalf("unexpected stored filename %q", stored.OriginalFilename)
	}
}

func TestCatalogCreateValidation(t *testing.T) {
	catalog := newSeededCatalog(t)
	invalidator := &invalidatorFake{}
	uc := NewCatalogUseCase(catalog, catalog, invalidator)

	tests := []struct {
		name   string
		mutate func(*domain.DocumentInput)
		field  string
	}{
		{name: "blank title", mutate: func(in *domain.DocumentInput) { in.Title = "   " }, field: "title"},
		{name: "missing filename", mutate: func(in *domain.DocumentInput) { in.OriginalFilename = "" }, field: "original_filename"},
		{name: "negative size", mutate: func(in *domain.DocumentInput) { in.FileSize = -1 }, field: "file_size"},
		{name: "bad confidentiality", mutate: func(in *domain.DocumentInput) { in.Confidentiality = "secret" }, field: "confidentiality"},
		{name: "valid_until before document_date", mutate: func(in *domain.DocumentInput) {
			d := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
			v := d.AddDate(0, -1, 0)
			in.DocumentDate, in.ValidUntil = &d, &v
		}, field: "valid_until"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := uc.Create(context.Background(), in)
			if !domain.IsKind(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Fatalf("expected error to mention %q, got %v", tt.field, err)
			}
		})
	}
	if len(invalidator.events) != 0 {
		t.Fatalf("rejected writes must not invalidate stats")
	}
}

func TestCatalogCreateRejectsChainMismatch(t *testing.T) {
	catalog := newSeededCatalog(t)
	uc := NewCatalogUseCase(catalog, catalog, &invalidatorFake{})

	in := validInput()
	in.Hierarchy.InternalProcessID = domain.Int64(101)
	_, err := uc.Create(context.Background(), in)
	if !domain.IsKind(err, domain.ErrChainMismatch) {
		t.Fatalf("expected ErrChainMismatch, got %v", err)
	}
}

func TestCatalogInactiveNodes(t *testing.T) {
	catalog := newSeededCatalog(t)
	uc := NewCatalogUseCase(catalog, catalog, &invalidatorFake{})
	ctx := context.Background()

	in := validInput()
	in.Hierarchy = domain.HierarchySelection{CategoryID: domain.Int64(1001)}
	if _, err := uc.Create(ctx, in); !domain.IsKind(err, domain.ErrInactiveNode) {
		t.Fatalf("expected ErrInactiveNode for new assignment, got %v", err)
	}

	doc, err := uc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := uc.SetNodeActive(ctx, domain.NodeCategory, 1000, false); err != nil {
		t.Fatalf("SetNodeActive() error = %v", err)
	}

	update := validInput()
	update.Title = "Annual report v2"
	updated, err := uc.Update(ctx, doc.ID, update)
	if err != nil {
		t.Fatalf("Update() keeping a deactivated reference error = %v", err)
	}
	if updated.Title != "Annual report v2" {
		t.Fatalf("unexpected title %q", updated.Title)
	}

	stored, err := uc.Get(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.CategoryID == nil || *stored.CategoryID != 1000 {
		t.Fatalf("expected historical category reference to be preserved")
	}
}

func TestCatalogUpdateRederivesExtension(t *testing.T) {
	catalog := newSeededCatalog(t)
	uc := NewCatalogUseCase(catalog, catalog, &invalidatorFake{})
	ctx := context.Background()

	doc, err := uc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	in := validInput()
	in.OriginalFilename = "notes"
	updated, err := uc.Update(ctx, doc.ID, in)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Extension != domain.NoExtension {
		t.Fatalf("expected %q, got %q", domain.NoExtension, updated.Extension)
	}

	if _, err := uc.Update(ctx, 9999, in); !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestCatalogInvalidate(t *testing.T) {
	catalog := newSeededCatalog(t)
	invalidator := &invalidatorFake{}
	uc := NewCatalogUseCase(catalog, catalog, invalidator)
	ctx := context.Background()

	doc, err := uc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := uc.Invalidate(ctx, doc.ID); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	if err := uc.Invalidate(ctx, doc.ID); err != nil {
		t.Fatalf("second Invalidate() error = %v", err)
	}
	if len(invalidator.events) != 2 {
		t.Fatalf("expected create and one invalidate event, got %d", len(invalidator.events))
	}

	stored, err := uc.Get(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.InvalidatedAt == nil {
		t.Fatalf("expected invalidated_at to be set")
	}
	if _, err := uc.Update(ctx, doc.ID, validInput()); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected updates of invalidated documents to be rejected, got %v", err)
	}
}

func TestCatalogPublishFailureDoesNotFailWrite(t *testing.T) {
	catalog := newSeededCatalog(t)
	invalidator := &invalidatorFake{}
	uc := NewCatalogUseCase(catalog, catalog, invalidator, WithEventPublisher(&publisherFake{err: errors.New("nats down")}))

	if _, err := uc.Create(context.Background(), validInput()); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(invalidator.events) != 1 {
		t.Fatalf("expected local invalidation despite publish failure")
	}
}

func TestCatalogSetNodeActive(t *testing.T) {
	catalog := newSeededCatalog(t)
	invalidator := &invalidatorFake{}
	uc := NewCatalogUseCase(catalog, catalog, invalidator)
	ctx := context.Background()

	if err := uc.SetNodeActive(ctx, domain.NodeInternalProcess, 100, false); err != nil {
		t.Fatalf("SetNodeActive() error = %v", err)
	}
	if len(invalidator.events) != 1 || invalidator.events[0].Kind != domain.EventHierarchy ||
		invalidator.events[0].NodeType != domain.NodeInternalProcess || invalidator.events[0].Action != ActionDeactivated {
		t.Fatalf("unexpected events %+v", invalidator.events)
	}

	refs, err := NewCascadeUseCase(catalog).Children(ctx, domain.NodeInternalProcess, 100)
	if err != nil {
		t.Fatalf("Children() error = %v", err)
	}
	if len(refs) != 0 {
		t.Fatalf("expected no children under a deactivated node, got %v", refs)
	}

	if err := uc.SetNodeActive(ctx, domain.NodeCategory, 4242, true); !domain.IsKind(err, domain.ErrNodeNotFound) {
		t.Fatalf("expected ErrNodeNotFound, got %v", err)
	}
	if err := uc.SetNodeActive(ctx, domain.NodeType("planet"), 1, true); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
