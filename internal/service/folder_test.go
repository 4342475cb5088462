package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"docvault/internal/model"
	repoMocks "docvault/internal/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFolderService_Create(t *testing.T) {
	ctx := context.Background()
	parent := "p1"
	blank := ""

	tests := []struct {
		name       string
		folderName string
		parentID   *string
		setupMocks func(mRepo *repoMocks.MockFolderRepository)
		wantErr    error
		wantParent *string
	}{
		{
			name:       "root folder",
			folderName: " Reports ",
			setupMocks: func(mRepo *repoMocks.MockFolderRepository) {
				mRepo.On("Create", ctx, mock.MatchedBy(func(f *model.Folder) bool {
					return f.Name == "Reports" && f.ParentID == nil && f.ID != ""
				})).Return(func(ctx context.Context, f *model.Folder) *model.Folder { return f }, nil)
			},
		},
		{
			name:       "unknown parent accepted as given",
			folderName: "Q1",
			parentID:   &parent,
			setupMocks: func(mRepo *repoMocks.MockFolderRepository) {
				mRepo.On("Create", ctx, mock.Anything).
					Return(func(ctx context.Context, f *model.Folder) *model.Folder { return f }, nil)
			},
			wantParent: &parent,
		},
		{
			name:       "empty parent becomes root",
			folderName: "Q2",
			parentID:   &blank,
			setupMocks: func(mRepo *repoMocks.MockFolderRepository) {
				mRepo.On("Create", ctx, mock.Anything).
					Return(func(ctx context.Context, f *model.Folder) *model.Folder { return f }, nil)
			},
		},
		{
			name:       "name required",
			folderName: "   ",
			setupMocks: func(mRepo *repoMocks.MockFolderRepository) {},
			wantErr:    ErrNameRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockFolderRepository)
			svc := NewFolderService(mRepo)
			tt.setupMocks(mRepo)

			f, err := svc.Create(ctx, tt.folderName, tt.parentID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, f)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantParent, f.ParentID)
				assert.False(t, f.CreatedAt.IsZero())
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestFolderService_GetAndDelete(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockFolderRepository)
	svc := NewFolderService(mRepo)

	mRepo.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows)
	mRepo.On("Delete", ctx, "missing").Return(sql.ErrNoRows)
	mRepo.On("Delete", ctx, "broken").Return(errors.New("db fail"))

	_, err := svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrFolderNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "missing"), ErrFolderNotFound)
	assert.EqualError(t, svc.Delete(ctx, "broken"), "db fail")
	assert.ErrorIs(t, svc.Delete(ctx, ""), ErrIDRequired)
	mRepo.AssertExpectations(t)
}

func TestFolderService_Tree(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockFolderRepository)
	svc := NewFolderService(mRepo)

	root := "r"
	ghost := "ghost"
	mRepo.On("List", ctx).Return([]model.Folder{
		{ID: "r", Name: "Root"},
		{ID: "c", Name: "Child", ParentID: &root},
		{ID: "o", Name: "Orphan", ParentID: &ghost},
	}, nil)

	tree, err := svc.Tree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, "r", tree[0].ID)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "c", tree[0].Children[0].ID)
	assert.Equal(t, "o", tree[1].ID)
	mRepo.AssertExpectations(t)
}
