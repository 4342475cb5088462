package sqlrepo

import (
	"context"
	"database/sql"

	"docvault/internal/model"
	"docvault/internal/repository"
)

const folderColumns = `id, name, parent_id, created_at`

// FolderSQL is a database/sql implementation of repository.FolderRepository.
type FolderSQL struct {
	db      *sql.DB
	dialect Dialect
}

// NewFolderSQL creates a new FolderSQL repository.
func NewFolderSQL(db *sql.DB, dialect Dialect) *FolderSQL {
	return &FolderSQL{db: db, dialect: dialect}
}

var _ repository.FolderRepository = (*FolderSQL)(nil)

func scanFolder(row rowScanner) (*model.Folder, error) {
	var (
		f      model.Folder
		parent sql.NullString
	)
	if err := row.Scan(&f.ID, &f.Name, &parent, &f.CreatedAt); err != nil {
		return nil, err
	}
	f.ParentID = nullToPtr(parent)
	return &f, nil
}

// Create inserts a new folder row and returns the stored record.
func (r *FolderSQL) Create(ctx context.Context, f *model.Folder) (*model.Folder, error) {
	q := `INSERT INTO folders (` + folderColumns + `) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, r.dialect.rebind(q), f.ID, f.Name, ptrToNull(f.ParentID), f.CreatedAt); err != nil {
		return nil, err
	}
	out := *f
	return &out, nil
}

// FindByID fetches a single folder by its ID.
func (r *FolderSQL) FindByID(ctx context.Context, id string) (*model.Folder, error) {
	q := `SELECT ` + folderColumns + ` FROM folders WHERE id = $1`
	return scanFolder(r.db.QueryRowContext(ctx, r.dialect.rebind(q), id))
}

// List returns all folders ordered by creation time.
func (r *FolderSQL) List(ctx context.Context) ([]model.Folder, error) {
	q := `SELECT ` + folderColumns + ` FROM folders ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, r.dialect.rebind(q))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Folder, 0)
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Delete removes a folder by ID; documents and child folders are left in place.
func (r *FolderSQL) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.db, r.dialect, `DELETE FROM folders WHERE id = $1`, id)
}
