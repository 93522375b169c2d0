package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/document-catalog/internal/core/domain"
)

const documentColumns = `id, title, description, original_filename, extension, file_size, tags,
	process_type_id, general_process_id, internal_process_id, category_id,
	document_date, valid_until, confidentiality, uploaded_by, created_at, updated_at, invalidated_at`

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	tagsJSON, err := marshalTags(doc.Tags)
	if err != nil {
		return err
	}

	err = r.db.QueryRowContext(ctx, `
INSERT INTO documents (
	title, description, original_filename, extension, file_size, tags,
	process_type_id, general_process_id, internal_process_id, category_id,
	document_date, valid_until, confidentiality, uploaded_by, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
RETURNING id
`,
		doc.Title, doc.Description, doc.OriginalFilename, doc.Extension, doc.FileSize, tagsJSON,
		doc.ProcessTypeID, doc.GeneralProcessID, doc.InternalProcessID, doc.CategoryID,
		dateArg(doc.DocumentDate), dateArg(doc.ValidUntil), string(doc.Confidentiality), doc.UploadedBy,
		doc.CreatedAt, doc.UpdatedAt,
	).Scan(&doc.ID)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Update(ctx context.Context, doc *domain.Document) error {
	tagsJSON, err := marshalTags(doc.Tags)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET title = $2, description = $3, original_filename = $4, extension = $5, file_size = $6, tags = $7,
	process_type_id = $8, general_process_id = $9, internal_process_id = $10, category_id = $11,
	document_date = $12, valid_until = $13, confidentiality = $14, uploaded_by = $15, updated_at = $16
WHERE id = $1
`,
		doc.ID, doc.Title, doc.Description, doc.OriginalFilename, doc.Extension, doc.FileSize, tagsJSON,
		doc.ProcessTypeID, doc.GeneralProcessID, doc.InternalProcessID, doc.CategoryID,
		dateArg(doc.DocumentDate), dateArg(doc.ValidUntil), string(doc.Confidentiality), doc.UploadedBy, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return requireAffected(res, "update document", doc.ID)
}

func (r *DocumentRepository) Invalidate(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET invalidated_at = $2, updated_at = $2
WHERE id = $1
`, id, at)
	if err != nil {
		return fmt.Errorf("invalidate document: %w", err)
	}
	return requireAffected(res, "invalidate document", id)
}

func (r *DocumentRepository) GetByID(ctx context.Context, id int64) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE id = $1
`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id %d", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return doc, nil
}

func (r *DocumentRepository) Count(ctx context.Context, filter domain.DocumentFilter) (int, error) {
	q, err := buildSearchQuery(filter)
	if err != nil {
		return 0, err
	}
	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents\n"+q.where(), q.args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return total, nil
}

func (r *DocumentRepository) Find(ctx context.Context, filter domain.DocumentFilter, sort domain.SortSpec, page domain.PageRequest) ([]domain.Document, error) {
	q, err := buildSearchQuery(filter)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s\nFROM documents\n%s\n%s\nLIMIT %s OFFSET %s",
		documentColumns, q.where(), q.orderBy(sort), q.bind(page.Limit), q.bind(page.Offset))

	rows, err := r.db.QueryContext(ctx, query, q.args...)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Document, 0, page.Limit)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var (
		doc             domain.Document
		tagsRaw         []byte
		processType     sql.NullInt64
		generalProcess  sql.NullInt64
		internalProcess sql.NullInt64
		category        sql.NullInt64
		documentDate    sql.NullTime
		validUntil      sql.NullTime
		invalidatedAt   sql.NullTime
		confidentiality string
	)
	err := row.Scan(
		&doc.ID, &doc.Title, &doc.Description, &doc.OriginalFilename, &doc.Extension, &doc.FileSize, &tagsRaw,
		&processType, &generalProcess, &internalProcess, &category,
		&documentDate, &validUntil, &confidentiality, &doc.UploadedBy, &doc.CreatedAt, &doc.UpdatedAt, &invalidatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(tagsRaw, &doc.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	doc.ProcessTypeID = nullID(processType)
	doc.GeneralProcessID = nullID(generalProcess)
	doc.InternalProcessID = nullID(internalProcess)
	doc.CategoryID = nullID(category)
	doc.DocumentDate = nullTime(documentDate)
	doc.ValidUntil = nullTime(validUntil)
	doc.InvalidatedAt = nullTime(invalidatedAt)
	doc.Confidentiality = domain.Confidentiality(confidentiality)
	return &doc, nil
}

func marshalTags(tags []string) ([]byte, error) {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}
	return raw, nil
}

// dateArg sends a DATE column value as YYYY-MM-DD so no timezone shift applies.
func dateArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}

func nullID(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return domain.Int64(v.Int64)
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func requireAffected(res sql.Result, operation string, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, operation, fmt.Errorf("id %d", id))
	}
	return nil
}
