package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"docvault/internal/foldertree"
	"docvault/internal/model"
	"docvault/internal/repository"
)

var (
	ErrNameRequired   = errors.New("folder name is required")
	ErrFolderNotFound = errors.New("folder not found")
)

// FolderService defines the use cases for folders.
type FolderService interface {
	// Create adds a folder. parentID is stored as given; it is not checked for existence.
	Create(ctx context.Context, name string, parentID *string) (*model.Folder, error)
	List(ctx context.Context) ([]model.Folder, error)
	Get(ctx context.Context, id string) (*model.Folder, error)
	// Delete removes the folder only. Subfolders and documents keep their now-dangling references.
	Delete(ctx context.Context, id string) error
	// Tree returns the folder forest.
	Tree(ctx context.Context) ([]model.FolderNode, error)
}

type folderService struct {
	repo repository.FolderRepository
	now  func() time.Time
}

// NewFolderService constructs a FolderService.
func NewFolderService(repo repository.FolderRepository) FolderService {
	return &folderService{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

func (s *folderService) Create(ctx context.Context, name string, parentID *string) (*model.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if parentID != nil && strings.TrimSpace(*parentID) == "" {
		parentID = nil
	}
	return s.repo.Create(ctx, &model.Folder{
		ID:        uuid.NewString(),
		Name:      name,
		ParentID:  parentID,
		CreatedAt: s.now(),
	})
}

func (s *folderService) List(ctx context.Context) ([]model.Folder, error) {
	return s.repo.List(ctx)
}

func (s *folderService) Get(ctx context.Context, id string) (*model.Folder, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	f, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFolderNotFound
	}
	return f, err
}

func (s *folderService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrFolderNotFound
	}
	return err
}

func (s *folderService) Tree(ctx context.Context) ([]model.FolderNode, error) {
	folders, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return foldertree.Build(folders), nil
}
