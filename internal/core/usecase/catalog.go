package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kirillkom/document-catalog/internal/core/domain"
	"github.com/kirillkom/document-catalog/internal/core/ports"
)

const (
	ActionCreated     = "created"
	ActionUpdated     = "updated"
	ActionInvalidated = "invalidated"
	ActionActivated   = "activated"
	ActionDeactivated = "deactivated"
)

var inputValidate = newInputValidator()

func newInputValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

type CatalogOption func(*CatalogUseCase)

func WithCatalogLogger(logger *slog.Logger) CatalogOption {
	return func(uc *CatalogUseCase) {
		if logger != nil {
			uc.logger = logger
		}
	}
}

// WithEventPublisher announces committed writes to other processes.
func WithEventPublisher(publisher ports.EventPublisher) CatalogOption {
	return func(uc *CatalogUseCase) {
		uc.publisher = publisher
	}
}

// CatalogUseCase is the write surface of the catalog. Every successful write
// drops the affected stats keys before returning.
type CatalogUseCase struct {
	docs        ports.DocumentRepository
	hierarchy   ports.HierarchyRepository
	cascade     *CascadeUseCase
	invalidator ports.StatsInvalidator
	publisher   ports.EventPublisher
	logger      *slog.Logger
	now         func() time.Time
}

func NewCatalogUseCase(
	docs ports.DocumentRepository,
	hierarchy ports.HierarchyRepository,
	invalidator ports.StatsInvalidator,
	opts ...CatalogOption,
) *CatalogUseCase {
	uc := &CatalogUseCase{
		docs:        docs,
		hierarchy:   hierarchy,
		cascade:     NewCascadeUseCase(hierarchy),
		invalidator: invalidator,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *CatalogUseCase) Get(ctx context.Context, id int64) (*domain.Document, error) {
	doc, err := uc.docs.GetByID(ctx, id)
	if err != nil {
		return nil, wrapReadError("get document", err)
	}
	return doc, nil
}

func (uc *CatalogUseCase) Create(ctx context.Context, input domain.DocumentInput) (*domain.Document, error) {
	if err := validateInput(ctx, input); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create document", err)
	}
	if err := uc.checkHierarchy(ctx, input.Hierarchy, domain.HierarchySelection{}); err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	doc := &domain.Document{CreatedAt: now}
	applyInput(doc, input, now)

	if err := uc.docs.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document metadata: %w", err)
	}
	uc.afterWrite(ctx, domain.NewDocumentEvent(doc.ID, ActionCreated))
	return doc, nil
}

func (uc *CatalogUseCase) Update(ctx context.Context, id int64, input domain.DocumentInput) (*domain.Document, error) {
	if err := validateInput(ctx, input); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "update document", err)
	}
	doc, err := uc.docs.GetByID(ctx, id)
	if err != nil {
		return nil, wrapReadError("load document", err)
	}
	if doc.InvalidatedAt != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "update document", fmt.Errorf("document %d is invalidated", id))
	}
	if err := uc.checkHierarchy(ctx, input.Hierarchy, doc.Selection()); err != nil {
		return nil, err
	}

	applyInput(doc, input, uc.now().UTC())
	if err := uc.docs.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("update document metadata: %w", err)
	}
	uc.afterWrite(ctx, domain.NewDocumentEvent(doc.ID, ActionUpdated))
	return doc, nil
}

// Invalidate soft-deletes a document. Invalidating twice is a no-op.
func (uc *CatalogUseCase) Invalidate(ctx context.Context, id int64) error {
	doc, err := uc.docs.GetByID(ctx, id)
	if err != nil {
		return wrapReadError("load document", err)
	}
	if doc.InvalidatedAt != nil {
		return nil
	}
	if err := uc.docs.Invalidate(ctx, id, uc.now().UTC()); err != nil {
		return fmt.Errorf("invalidate document: %w", err)
	}
	uc.afterWrite(ctx, domain.NewDocumentEvent(id, ActionInvalidated))
	return nil
}

// SetNodeActive toggles a hierarchy node. Children of a deactivated node are
// left untouched; the cascade stops at the inactive parent.
func (uc *CatalogUseCase) SetNodeActive(ctx context.Context, nodeType domain.NodeType, id int64, active bool) error {
	if !nodeType.Valid() {
		return domain.WrapError(domain.ErrInvalidInput, "set node active", fmt.Errorf("unknown node type %q", nodeType))
	}
	if err := uc.hierarchy.SetActive(ctx, nodeType, id, active); err != nil {
		return wrapReadError("set node active", err)
	}
	action := ActionDeactivated
	if active {
		action = ActionActivated
	}
	uc.afterWrite(ctx, domain.NewHierarchyEvent(nodeType, id, action))
	return nil
}

// checkHierarchy validates the chain of selection and requires every node it
// references to be active, except references carried over from previous.
func (uc *CatalogUseCase) checkHierarchy(ctx context.Context, selection, previous domain.HierarchySelection) error {
	nodes, err := uc.cascade.resolveChain(ctx, selection)
	if err != nil {
		return err
	}
	for _, nodeType := range domain.NodeTypes {
		node, ok := nodes[nodeType]
		if !ok || node.Active {
			continue
		}
		if prev := previous.At(nodeType); prev != nil && *prev == node.ID {
			continue
		}
		return domain.WrapError(domain.ErrInactiveNode, "check hierarchy", fmt.Errorf("%s %d is inactive", nodeType, node.ID))
	}
	return nil
}

func (uc *CatalogUseCase) afterWrite(ctx context.Context, event domain.CatalogEvent) {
	ctx = context.WithoutCancel(ctx)
	if uc.invalidator != nil {
		uc.invalidator.Invalidate(ctx, event)
	}
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.PublishCatalogEvent(ctx, event); err != nil {
		uc.logger.Warn("catalog_event_publish_failed",
			"event_id", event.ID,
			"kind", event.Kind,
			"entity_id", event.EntityID,
			"error", err,
		)
	}
}

func validateInput(ctx context.Context, input domain.DocumentInput) error {
	if err := inputValidate.StructCtx(ctx, input); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
		}
		return errors.New(strings.Join(msgs, "; "))
	}
	if input.DocumentDate != nil && input.ValidUntil != nil && input.ValidUntil.Before(*input.DocumentDate) {
		return errors.New("valid_until is before document_date")
	}
	return nil
}

func applyInput(doc *domain.Document, input domain.DocumentInput, now time.Time) {
	doc.Title = strings.TrimSpace(input.Title)
	doc.Description = strings.TrimSpace(input.Description)
	doc.SetFilename(input.OriginalFilename)
	doc.FileSize = input.FileSize
	doc.Tags = domain.NormalizeTags(input.Tags)
	doc.SetSelection(input.Hierarchy)
	doc.DocumentDate = input.DocumentDate
	doc.ValidUntil = input.ValidUntil
	doc.Confidentiality = input.Confidentiality
	if doc.Confidentiality == "" {
		doc.Confidentiality = domain.ConfidentialityInternal
	}
	doc.UploadedBy = strings.TrimSpace(input.UploadedBy)
	doc.UpdatedAt = now
}
