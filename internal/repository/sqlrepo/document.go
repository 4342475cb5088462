package sqlrepo

import (
	"context"
	"database/sql"

	"docvault/internal/model"
	"docvault/internal/repository"
)

const documentColumns = `id, name, original_name, path, folder_id, size, media_type, uploaded_at, summary, markdown, processing_status`

// DocumentSQL is a database/sql implementation of repository.DocumentRepository.
// It uses parameterized queries and contains no business logic.
type DocumentSQL struct {
	db      *sql.DB
	dialect Dialect
}

// NewDocumentSQL creates a new DocumentSQL repository.
func NewDocumentSQL(db *sql.DB, dialect Dialect) *DocumentSQL {
	return &DocumentSQL{db: db, dialect: dialect}
}

var _ repository.DocumentRepository = (*DocumentSQL)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var (
		d        model.Document
		folderID sql.NullString
		summary  sql.NullString
		markdown sql.NullString
		status   string
	)
	if err := row.Scan(
		&d.ID,
		&d.Name,
		&d.OriginalName,
		&d.Path,
		&folderID,
		&d.Size,
		&d.Type,
		&d.UploadedAt,
		&summary,
		&markdown,
		&status,
	); err != nil {
		return nil, err
	}
	d.FolderID = nullToPtr(folderID)
	d.Summary = nullToPtr(summary)
	d.Markdown = nullToPtr(markdown)
	d.ProcessingStatus = model.ProcessingStatus(status)
	return &d, nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentSQL) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	q := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.db.ExecContext(ctx, r.dialect.rebind(q),
		doc.ID,
		doc.Name,
		doc.OriginalName,
		doc.Path,
		ptrToNull(doc.FolderID),
		doc.Size,
		doc.Type,
		doc.UploadedAt,
		ptrToNull(doc.Summary),
		ptrToNull(doc.Markdown),
		string(doc.ProcessingStatus),
	)
	if err != nil {
		return nil, err
	}
	out := *doc
	return &out, nil
}

// FindByID fetches a single document by its ID.
func (r *DocumentSQL) FindByID(ctx context.Context, id string) (*model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(r.db.QueryRowContext(ctx, r.dialect.rebind(q), id))
}

// List returns all documents ordered by upload time.
func (r *DocumentSQL) List(ctx context.Context) ([]model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents ORDER BY uploaded_at, id`
	return r.query(ctx, q)
}

// ListByFolder returns documents filed under folderID.
func (r *DocumentSQL) ListByFolder(ctx context.Context, folderID string) ([]model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE folder_id = $1 ORDER BY uploaded_at, id`
	return r.query(ctx, q, folderID)
}

// ListByStatus returns documents whose status is one of statuses.
func (r *DocumentSQL) ListByStatus(ctx context.Context, statuses ...model.ProcessingStatus) ([]model.Document, error) {
	if len(statuses) == 0 {
		return []model.Document{}, nil
	}
	args := make([]any, len(statuses))
	for i, s := range statuses {
		args[i] = string(s)
	}
	q := `SELECT ` + documentColumns + ` FROM documents WHERE processing_status IN (` +
		placeholders(1, len(statuses)) + `) ORDER BY uploaded_at, id`
	return r.query(ctx, q, args...)
}

// SetStatus writes a non-completed status and nulls both artifacts.
func (r *DocumentSQL) SetStatus(ctx context.Context, id string, status model.ProcessingStatus) error {
	if status == model.StatusCompleted {
		return repository.ErrCompletionRequiresArtifacts
	}
	const q = `UPDATE documents SET processing_status = $2, summary = NULL, markdown = NULL WHERE id = $1`
	return r.exec(ctx, q, id, string(status))
}

// Complete stores both artifacts together with the completed status.
func (r *DocumentSQL) Complete(ctx context.Context, id, summary, markdown string) error {
	const q = `UPDATE documents SET processing_status = $2, summary = $3, markdown = $4 WHERE id = $1`
	return r.exec(ctx, q, id, string(model.StatusCompleted), summary, markdown)
}

// Delete removes a document by ID.
func (r *DocumentSQL) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	return r.exec(ctx, q, id)
}

func (r *DocumentSQL) query(ctx context.Context, q string, args ...any) ([]model.Document, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.rebind(q), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// exec runs a single-row write and maps zero affected rows to sql.ErrNoRows,
// so a write against a deleted document never recreates it.
func (r *DocumentSQL) exec(ctx context.Context, q string, args ...any) error {
	return execOne(ctx, r.db, r.dialect, q, args...)
}

func execOne(ctx context.Context, db *sql.DB, d Dialect, q string, args ...any) error {
	res, err := db.ExecContext(ctx, d.rebind(q), args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func nullToPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func ptrToNull(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
