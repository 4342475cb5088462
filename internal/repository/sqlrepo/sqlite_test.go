package sqlrepo

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"docvault/internal/database/migration"
	"docvault/internal/model"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migration.EnsureMigrated(context.Background(), db, migration.SQLite, zap.NewNop()))
	return db
}

func TestSQLite_DocumentLifecycle(t *testing.T) {
	db := openSQLite(t)
	docs := NewDocumentSQL(db, SQLite)
	ctx := context.Background()

	folder := "f1"
	_, err := docs.Create(ctx, &model.Document{
		ID:               "doc-1",
		Name:             "a.txt",
		OriginalName:     "a.txt",
		Path:             "documents/a.txt",
		FolderID:         &folder,
		Size:             5,
		Type:             "text/plain",
		UploadedAt:       time.Now().UTC(),
		ProcessingStatus: model.StatusProcessing,
	})
	require.NoError(t, err)

	require.NoError(t, docs.Complete(ctx, "doc-1", "short", "# a"))
	got, err := docs.FindByID(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.ProcessingStatus)
	assert.Equal(t, "short", *got.Summary)
	assert.Equal(t, "f1", *got.FolderID)

	require.NoError(t, docs.SetStatus(ctx, "doc-1", model.StatusFailed))
	got, err = docs.FindByID(ctx, "doc-1")
	require.NoError(t, err)
	assert.Nil(t, got.Summary)
	assert.Nil(t, got.Markdown)

	inFolder, err := docs.ListByFolder(ctx, "f1")
	require.NoError(t, err)
	assert.Len(t, inFolder, 1)

	failed, err := docs.ListByStatus(ctx, model.StatusProcessing, model.StatusFailed)
	require.NoError(t, err)
	assert.Len(t, failed, 1)

	require.NoError(t, docs.Delete(ctx, "doc-1"))
	assert.ErrorIs(t, docs.Complete(ctx, "doc-1", "s", "m"), sql.ErrNoRows)
	_, err = docs.FindByID(ctx, "doc-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSQLite_ArtifactConstraint(t *testing.T) {
	db := openSQLite(t)
	docs := NewDocumentSQL(db, SQLite)
	summary := "orphan summary"

	_, err := docs.Create(context.Background(), &model.Document{
		ID:               "doc-bad",
		Name:             "b.txt",
		OriginalName:     "b.txt",
		Path:             "documents/b.txt",
		Type:             "text/plain",
		UploadedAt:       time.Now().UTC(),
		Summary:          &summary,
		ProcessingStatus: model.StatusProcessing,
	})
	assert.Error(t, err)
}

func TestSQLite_Folders(t *testing.T) {
	db := openSQLite(t)
	folders := NewFolderSQL(db, SQLite)
	ctx := context.Background()

	parent := "root"
	base := time.Now().UTC()
	_, err := folders.Create(ctx, &model.Folder{ID: "root", Name: "Root", CreatedAt: base})
	require.NoError(t, err)
	_, err = folders.Create(ctx, &model.Folder{ID: "child", Name: "Child", ParentID: &parent, CreatedAt: base.Add(time.Second)})
	require.NoError(t, err)

	list, err := folders.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "root", list[0].ID)
	assert.Equal(t, "root", *list[1].ParentID)

	require.NoError(t, folders.Delete(ctx, "root"))
	child, err := folders.FindByID(ctx, "child")
	require.NoError(t, err)
	assert.Equal(t, "root", *child.ParentID)
}
