package repository

import (
	"context"

	"docvault/internal/model"
)

// DocumentRepository defines data access for documents using SQL queries only.
// No business logic here; strictly persistence operations.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// List returns every document, oldest upload first.
	List(ctx context.Context) ([]model.Document, error)

	// ListByFolder returns documents whose folder_id equals folderID.
	ListByFolder(ctx context.Context, folderID string) ([]model.Document, error)

	// ListByStatus returns documents in any of the given statuses.
	ListByStatus(ctx context.Context, statuses ...model.ProcessingStatus) ([]model.Document, error)

	// SetStatus moves a document to a non-completed status and clears both artifacts.
	// Returns sql.ErrNoRows if the document no longer exists.
	SetStatus(ctx context.Context, id string, status model.ProcessingStatus) error

	// Complete writes both artifacts and the completed status in one statement.
	// Returns sql.ErrNoRows if the document no longer exists.
	Complete(ctx context.Context, id, summary, markdown string) error

	// Delete removes a document by ID. Returns sql.ErrNoRows if nothing was deleted.
	Delete(ctx context.Context, id string) error
}
