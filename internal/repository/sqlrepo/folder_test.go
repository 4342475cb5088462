package sqlrepo

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"docvault/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFolderSQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewFolderSQL(db, Postgres)
	ctx := context.Background()
	now := time.Now().UTC()
	cols := []string{"id", "name", "parent_id", "created_at"}

	t.Run("create root", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO folders").
			WithArgs("f1", "Reports", nil, now).
			WillReturnResult(sqlmock.NewResult(0, 1))

		f, err := repo.Create(ctx, &model.Folder{ID: "f1", Name: "Reports", CreatedAt: now})

		require.NoError(t, err)
		assert.Nil(t, f.ParentID)
	})

	t.Run("find child", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM folders WHERE id").
			WithArgs("f2").
			WillReturnRows(sqlmock.NewRows(cols).AddRow("f2", "2024", "f1", now))

		f, err := repo.FindByID(ctx, "f2")

		require.NoError(t, err)
		assert.Equal(t, "f1", *f.ParentID)
	})

	t.Run("list", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM folders ORDER BY").
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow("f1", "Reports", nil, now).
				AddRow("f2", "2024", "f1", now))

		folders, err := repo.List(ctx)

		require.NoError(t, err)
		assert.Len(t, folders, 2)
	})

	t.Run("delete missing", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM folders WHERE id").
			WithArgs("nope").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete(ctx, "nope"), sql.ErrNoRows)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "$1", placeholders(1, 1))
	assert.Equal(t, "$2, $3, $4", placeholders(2, 3))
	assert.Equal(t, "", placeholders(1, 0))
	assert.Equal(t, "a = ?1 AND b = ?2", SQLite.rebind("a = $1 AND b = $2"))
	assert.Equal(t, "a = $1", Postgres.rebind("a = $1"))
}
