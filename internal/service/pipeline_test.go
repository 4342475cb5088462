package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"docvault/internal/database"
	"docvault/internal/database/migration"
	"docvault/internal/enrichment"
	"docvault/internal/model"
	"docvault/internal/repository/sqlrepo"
	"docvault/internal/search"
	"docvault/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeEnricher answers both prompts from the text, optionally failing or
// holding every call until release is closed.
type fakeEnricher struct {
	failing atomic.Bool
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (f *fakeEnricher) wait(ctx context.Context) error {
	f.calls.Add(1)
	if f.started != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.failing.Load() {
		return errors.New("model unavailable")
	}
	return nil
}

func (f *fakeEnricher) Summarize(ctx context.Context, text string) (string, error) {
	if err := f.wait(ctx); err != nil {
		return "", err
	}
	return "summary of " + text, nil
}

func (f *fakeEnricher) Markdown(ctx context.Context, text string) (string, error) {
	if err := f.wait(ctx); err != nil {
		return "", err
	}
	return "# " + text, nil
}

type pipeline struct {
	docs       *sqlrepo.DocumentSQL
	store      storage.Storage
	index      *search.Index
	enricher   *fakeEnricher
	job        *enrichment.Job
	dispatcher *enrichment.Dispatcher
	svc        DocumentService
}

func newPipeline(t *testing.T, enricher *fakeEnricher) *pipeline {
	t.Helper()
	dir := t.TempDir()

	db, err := database.OpenSQLite(filepath.Join(dir, "vault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migration.EnsureMigrated(context.Background(), db, migration.SQLite, zap.NewNop()))

	store, err := storage.NewLocal(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	index, err := search.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })

	docs := sqlrepo.NewDocumentSQL(db, sqlrepo.SQLite)
	job := enrichment.NewJob(docs, store, enricher, zap.NewNop(), enrichment.WithIndexer(index))
	dispatcher := enrichment.NewDispatcher(job, 5*time.Second, zap.NewNop())

	return &pipeline{
		docs:       docs,
		store:      store,
		index:      index,
		enricher:   enricher,
		job:        job,
		dispatcher: dispatcher,
		svc:        NewDocumentService(store, docs, dispatcher, zap.NewNop(), WithSearcher(index)),
	}
}

func (p *pipeline) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.dispatcher.Shutdown(ctx))
}

func TestPipeline_UploadReachesCompleted(t *testing.T) {
	p := newPipeline(t, &fakeEnricher{})
	ctx := context.Background()

	accepted, err := p.svc.Ingest(ctx, []UploadFile{textFile("invoice.txt", "quarterly invoice")}, nil)
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, model.StatusProcessing, accepted[0].ProcessingStatus)
	assert.Nil(t, accepted[0].FolderID)
	raw, err := json.Marshal(accepted[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"folderId":null`)

	p.drain(t)

	doc, err := p.svc.Get(ctx, accepted[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, doc.ProcessingStatus)
	require.NotNil(t, doc.Summary)
	require.NotNil(t, doc.Markdown)
	assert.Equal(t, "summary of quarterly invoice", *doc.Summary)
	assert.Equal(t, "# quarterly invoice", *doc.Markdown)

	hits, err := p.svc.Search(ctx, "invoice", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, doc.ID, hits[0].ID)
}

func TestPipeline_FailureRecoveredBySweep(t *testing.T) {
	enricher := &fakeEnricher{}
	enricher.failing.Store(true)
	p := newPipeline(t, enricher)
	ctx := context.Background()

	accepted, err := p.svc.Ingest(ctx, []UploadFile{textFile("a.txt", "alpha")}, nil)
	require.NoError(t, err)
	p.drain(t)

	doc, err := p.svc.Get(ctx, accepted[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, doc.ProcessingStatus)
	assert.Nil(t, doc.Summary)
	assert.Nil(t, doc.Markdown)

	enricher.failing.Store(false)
	report, err := enrichment.NewSweeper(p.docs, p.job, zap.NewNop()).Sweep(ctx, enrichment.SelectFailed)
	require.NoError(t, err)
	assert.Equal(t, enrichment.Report{Selected: 1, Completed: 1}, report)

	doc, err = p.svc.Get(ctx, accepted[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, doc.ProcessingStatus)

	// A second sweep finds nothing left to do.
	report, err = enrichment.NewSweeper(p.docs, p.job, zap.NewNop()).Sweep(ctx, enrichment.SelectFailed)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Selected)
}

func TestPipeline_JobRunTwiceIsIdempotent(t *testing.T) {
	p := newPipeline(t, &fakeEnricher{})
	ctx := context.Background()

	accepted, err := p.svc.Ingest(ctx, []UploadFile{textFile("a.txt", "alpha")}, nil)
	require.NoError(t, err)
	p.drain(t)

	first, err := p.svc.Get(ctx, accepted[0].ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusCompleted, first.ProcessingStatus)

	require.NoError(t, p.job.Run(ctx, enrichment.TaskFor(*first)))

	second, err := p.svc.Get(ctx, accepted[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, second.ProcessingStatus)
	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, first.Markdown, second.Markdown)

	hits, err := p.svc.Search(ctx, "alpha", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestPipeline_StuckDocumentRecoveredBySweep(t *testing.T) {
	p := newPipeline(t, &fakeEnricher{})
	ctx := context.Background()

	accepted, err := p.svc.Ingest(ctx, []UploadFile{textFile("a.txt", "alpha")}, nil)
	require.NoError(t, err)
	p.drain(t)

	// Simulate a job lost in a crash before its terminal write.
	require.NoError(t, p.docs.SetStatus(ctx, accepted[0].ID, model.StatusProcessing))

	report, err := enrichment.NewSweeper(p.docs, p.job, zap.NewNop()).Sweep(ctx, enrichment.SelectStuckOrFailed)
	require.NoError(t, err)
	assert.Equal(t, enrichment.Report{Selected: 1, Completed: 1}, report)

	doc, err := p.svc.Get(ctx, accepted[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, doc.ProcessingStatus)
	require.NotNil(t, doc.Summary)
	assert.Equal(t, "summary of alpha", *doc.Summary)
}

func TestPipeline_DeleteWhileProcessing(t *testing.T) {
	enricher := &fakeEnricher{started: make(chan struct{}, 2), release: make(chan struct{})}
	p := newPipeline(t, enricher)
	ctx := context.Background()

	accepted, err := p.svc.Ingest(ctx, []UploadFile{textFile("a.txt", "alpha")}, nil)
	require.NoError(t, err)
	<-enricher.started

	require.NoError(t, p.svc.Delete(ctx, accepted[0].ID))
	close(enricher.release)
	p.drain(t)

	_, err = p.docs.FindByID(ctx, accepted[0].ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	all, err := p.svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	_, _, err = p.store.Get(ctx, accepted[0].Path)
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}

func TestPipeline_UnsupportedTypeFails(t *testing.T) {
	p := newPipeline(t, &fakeEnricher{})
	ctx := context.Background()

	accepted, err := p.svc.Ingest(ctx, []UploadFile{{
		Name:        "legacy.doc",
		ContentType: "application/msword",
		Size:        4,
		Reader:      strings.NewReader("\xd0\xcf\x11\xe0"),
	}}, nil)
	require.NoError(t, err)
	p.drain(t)

	doc, err := p.svc.Get(ctx, accepted[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, doc.ProcessingStatus)
	assert.Zero(t, p.enricher.calls.Load())
}

func TestPipeline_DanglingFolderStillListed(t *testing.T) {
	p := newPipeline(t, &fakeEnricher{})
	ctx := context.Background()
	folder := "never-created"

	_, err := p.svc.Ingest(ctx, []UploadFile{textFile("a.txt", "alpha")}, &folder)
	require.NoError(t, err)
	p.drain(t)

	inFolder, err := p.svc.ListByFolder(ctx, folder)
	require.NoError(t, err)
	require.Len(t, inFolder, 1)
	assert.True(t, inFolder[0].InFolder(&folder))
}
