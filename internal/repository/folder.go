package repository

import (
	"context"

	"docvault/internal/model"
)

// FolderRepository defines data access for folders.
type FolderRepository interface {
	Create(ctx context.Context, f *model.Folder) (*model.Folder, error)
	FindByID(ctx context.Context, id string) (*model.Folder, error)
	// List returns folders in creation order.
	List(ctx context.Context) ([]model.Folder, error)
	// Delete removes the folder row only; children and documents keep their references.
	Delete(ctx context.Context, id string) error
}
