// Package enrichment runs the background job that turns an uploaded document
// into its summary and markdown artifacts, plus the dispatcher and recovery sweep around it.
package enrichment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"docvault/internal/ai"
	"docvault/internal/extract"
	"docvault/internal/model"
	"docvault/internal/repository"
	"docvault/internal/storage"
)

// ErrDocumentGone is returned by Run when the document was deleted while the job ran.
var ErrDocumentGone = errors.New("document deleted during enrichment")

// statusWriteTimeout bounds the final status write, which runs even after the job context expired.
const statusWriteTimeout = 10 * time.Second

// Task identifies the document a job enriches.
type Task struct {
	DocumentID string
	Path       string
	MediaType  string
	Name       string
}

// TaskFor builds the Task for a stored document.
func TaskFor(doc model.Document) Task {
	return Task{
		DocumentID: doc.ID,
		Path:       doc.Path,
		MediaType:  doc.Type,
		Name:       doc.OriginalName,
	}
}

// Indexer receives documents that reached completed.
type Indexer interface {
	Index(doc model.Document) error
}

// Runner runs one enrichment job to completion.
type Runner interface {
	Run(ctx context.Context, task Task) error
}

// Job extracts text, generates both artifacts concurrently and writes the
// outcome in a single status write.
type Job struct {
	docs          repository.DocumentRepository
	store         storage.Storage
	enricher      ai.Enricher
	logger        *zap.Logger
	indexer       Indexer
	metrics       *Metrics
	tracer        trace.Tracer
	maxInputChars int
}

var _ Runner = (*Job)(nil)

// JobOption customizes a Job.
type JobOption func(*Job)

// WithIndexer indexes completed documents for search.
func WithIndexer(ix Indexer) JobOption {
	return func(j *Job) { j.indexer = ix }
}

// WithMetrics records job outcomes on m.
func WithMetrics(m *Metrics) JobOption {
	return func(j *Job) { j.metrics = m }
}

// WithMaxInputChars caps the text handed to the enricher.
func WithMaxInputChars(n int) JobOption {
	return func(j *Job) { j.maxInputChars = n }
}

// NewJob constructs a Job.
func NewJob(docs repository.DocumentRepository, store storage.Storage, enricher ai.Enricher, logger *zap.Logger, opts ...JobOption) *Job {
	j := &Job{
		docs:     docs,
		store:    store,
		enricher: enricher,
		logger:   logger,
		tracer:   otel.Tracer("docvault/enrichment"),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Run enriches one document. The returned error describes why the document
// did not reach completed; the status itself has already been written.
func (j *Job) Run(ctx context.Context, task Task) error {
	ctx, span := j.tracer.Start(ctx, "enrichment.run", trace.WithAttributes(
		attribute.String("document.id", task.DocumentID),
		attribute.String("document.type", task.MediaType),
	))
	defer span.End()

	log := j.logger.With(zap.String("document_id", task.DocumentID))
	start := time.Now()
	j.metrics.start()

	outcome, err := j.run(ctx, task, log)

	j.metrics.finish(outcome, time.Since(start).Seconds())
	span.SetAttributes(attribute.String("enrichment.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	return err
}

func (j *Job) run(ctx context.Context, task Task, log *zap.Logger) (string, error) {
	summary, markdown, err := j.enrich(ctx, task)

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusWriteTimeout)
	defer cancel()

	if err != nil {
		log.Warn("enrichment_failed", zap.Error(err))
		if serr := j.docs.SetStatus(writeCtx, task.DocumentID, model.StatusFailed); serr != nil {
			if errors.Is(serr, sql.ErrNoRows) {
				log.Info("enrichment_discarded", zap.String("reason", "document deleted"))
				return OutcomeDiscarded, ErrDocumentGone
			}
			log.Error("enrichment_status_write_failed", zap.Error(serr))
			return OutcomePersistError, fmt.Errorf("persist failed status: %w", serr)
		}
		return OutcomeFailed, err
	}

	if err := j.docs.Complete(writeCtx, task.DocumentID, summary, markdown); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Info("enrichment_discarded", zap.String("reason", "document deleted"))
			return OutcomeDiscarded, ErrDocumentGone
		}
		// No retry: the document keeps its last written status until the next sweep.
		log.Error("enrichment_status_write_failed", zap.Error(err))
		return OutcomePersistError, fmt.Errorf("persist completion: %w", err)
	}

	log.Info("enrichment_completed",
		zap.Int("summary_len", len(summary)),
		zap.Int("markdown_len", len(markdown)),
	)
	j.index(writeCtx, task, log)
	return OutcomeCompleted, nil
}

// enrich produces both artifacts; neither is returned unless both succeeded.
func (j *Job) enrich(ctx context.Context, task Task) (string, string, error) {
	rc, _, err := j.store.Get(ctx, task.Path)
	if err != nil {
		return "", "", fmt.Errorf("open content: %w", err)
	}
	text, err := extract.Text(rc, task.MediaType, task.Name)
	rc.Close()
	if err != nil {
		return "", "", fmt.Errorf("extract text: %w", err)
	}
	text = ai.Truncate(text, j.maxInputChars)

	var summary, markdown string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := j.enricher.Summarize(gctx, text)
		summary = s
		return err
	})
	g.Go(func() error {
		m, err := j.enricher.Markdown(gctx, text)
		markdown = m
		return err
	})
	if err := g.Wait(); err != nil {
		return "", "", err
	}
	return summary, markdown, nil
}

func (j *Job) index(ctx context.Context, task Task, log *zap.Logger) {
	if j.indexer == nil {
		return
	}
	doc, err := j.docs.FindByID(ctx, task.DocumentID)
	if err != nil {
		log.Warn("search_index_skipped", zap.Error(err))
		return
	}
	if err := j.indexer.Index(*doc); err != nil {
		log.Warn("search_index_failed", zap.Error(err))
	}
}
