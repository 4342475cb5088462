package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docvault/internal/enrichment"
	"docvault/internal/model"
	"docvault/internal/repository"
	"docvault/internal/search"
	"docvault/internal/storage"
)

var (
	ErrIDRequired     = errors.New("id is required")
	ErrNotFound       = errors.New("document not found")
	ErrNoFiles        = errors.New("no files uploaded")
	ErrTooManyFiles   = errors.New("too many files")
	ErrReaderNil      = errors.New("reader is nil")
	ErrSearchDisabled = errors.New("search is disabled")
)

// DefaultMaxFiles is the per-request upload cap used when none is configured.
const DefaultMaxFiles = 10

// UploadFile is one file of an upload request.
type UploadFile struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// Scheduler starts enrichment for an accepted document without waiting for it.
type Scheduler interface {
	Dispatch(task enrichment.Task)
}

// Searcher is the search index as seen by the document service.
type Searcher interface {
	Search(query string, limit int) ([]search.Hit, error)
	Delete(id string) error
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Ingest stores every file, creates its record in processing and schedules
	// enrichment. It returns once all records exist, before any enrichment finishes.
	Ingest(ctx context.Context, files []UploadFile, folderID *string) ([]model.Document, error)

	// List returns all documents.
	List(ctx context.Context) ([]model.Document, error)

	// ListByFolder returns documents whose folderId equals folderID.
	ListByFolder(ctx context.Context, folderID string) ([]model.Document, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// Content opens the original bytes of a document.
	Content(ctx context.Context, id string) (io.ReadCloser, *model.Document, error)

	// Delete removes the record, then the stored bytes on a best-effort basis.
	Delete(ctx context.Context, id string) error

	// Search queries the full-text index of completed documents.
	Search(ctx context.Context, query string, limit int) ([]search.Hit, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store     storage.Storage
	repo      repository.DocumentRepository
	scheduler Scheduler
	searcher  Searcher
	logger    *zap.Logger
	maxFiles  int
	now       func() time.Time
}

// Option customizes the document service.
type Option func(*documentService)

// WithSearcher enables Search and keeps the index in step with deletes.
func WithSearcher(s Searcher) Option {
	return func(d *documentService) { d.searcher = s }
}

// WithMaxFiles caps the number of files accepted per Ingest call.
func WithMaxFiles(n int) Option {
	return func(d *documentService) {
		if n > 0 {
			d.maxFiles = n
		}
	}
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, scheduler Scheduler, logger *zap.Logger, opts ...Option) DocumentService {
	s := &documentService{
		store:     store,
		repo:      repo,
		scheduler: scheduler,
		logger:    logger,
		maxFiles:  DefaultMaxFiles,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *documentService) Ingest(ctx context.Context, files []UploadFile, folderID *string) ([]model.Document, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if len(files) > s.maxFiles {
		return nil, fmt.Errorf("%w: %d files, at most %d allowed", ErrTooManyFiles, len(files), s.maxFiles)
	}
	for _, f := range files {
		if f.Reader == nil {
			return nil, ErrReaderNil
		}
	}
	if folderID != nil && strings.TrimSpace(*folderID) == "" {
		folderID = nil
	}

	accepted := make([]model.Document, 0, len(files))
	for _, f := range files {
		doc, err := s.accept(ctx, f, folderID)
		if err != nil {
			// Files accepted before the failure keep their records and jobs.
			return accepted, fmt.Errorf("ingest %s: %w", f.Name, err)
		}
		accepted = append(accepted, *doc)
		s.scheduler.Dispatch(enrichment.TaskFor(*doc))
	}
	return accepted, nil
}

// accept stores one file and creates its record, removing the stored object if the record cannot be saved.
func (s *documentService) accept(ctx context.Context, f UploadFile, folderID *string) (*model.Document, error) {
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := path.Join("documents", uuid.NewString()+strings.ToLower(path.Ext(f.Name)))

	objInfo, err := s.store.Put(ctx, key, f.Reader, storage.PutObjectOptions{
		Size:        f.Size,
		ContentType: contentType,
		Metadata: map[string]string{
			storage.MetaOriginalFilename: f.Name,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	size := objInfo.Size
	if size <= 0 {
		size = f.Size
	}
	doc := &model.Document{
		ID:               uuid.NewString(),
		Name:             f.Name,
		OriginalName:     f.Name,
		Path:             key,
		FolderID:         folderID,
		Size:             size,
		Type:             contentType,
		UploadedAt:       s.now(),
		ProcessingStatus: model.StatusProcessing,
	}
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

func (s *documentService) List(ctx context.Context) ([]model.Document, error) {
	return s.repo.List(ctx)
}

func (s *documentService) ListByFolder(ctx context.Context, folderID string) ([]model.Document, error) {
	if folderID == "" {
		return nil, ErrIDRequired
	}
	return s.repo.ListByFolder(ctx, folderID)
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *documentService) Content(ctx context.Context, id string) (io.ReadCloser, *model.Document, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, _, err := s.store.Get(ctx, doc.Path)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, doc, ErrNotFound
		}
		return nil, doc, fmt.Errorf("open content: %w", err)
	}
	return rc, doc, nil
}

// Delete removes the record first so a running job's final write finds nothing;
// a failed storage delete only leaves an orphaned object behind.
func (s *documentService) Delete(ctx context.Context, id string) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if err := s.store.Delete(ctx, doc.Path); err != nil {
		s.logger.Warn("document_content_delete_failed",
			zap.String("document_id", id),
			zap.String("path", doc.Path),
			zap.Error(err))
	}
	if s.searcher != nil {
		if err := s.searcher.Delete(id); err != nil {
			s.logger.Warn("search_index_delete_failed", zap.String("document_id", id), zap.Error(err))
		}
	}
	return nil
}

func (s *documentService) Search(ctx context.Context, query string, limit int) ([]search.Hit, error) {
	if s.searcher == nil {
		return nil, ErrSearchDisabled
	}
	if strings.TrimSpace(query) == "" {
		return []search.Hit{}, nil
	}
	return s.searcher.Search(query, limit)
}
