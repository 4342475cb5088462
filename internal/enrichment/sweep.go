package enrichment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// Selection is the set of statuses a sweep re-runs.
type Selection []model.ProcessingStatus

var (
	// SelectStuckOrFailed re-runs documents left in processing (crashed or
	// unpersisted jobs) and those that failed.
	SelectStuckOrFailed = Selection{model.StatusProcessing, model.StatusFailed}
	// SelectFailed re-runs failed documents only.
	SelectFailed = Selection{model.StatusFailed}
)

// ParseSelection maps a CLI scope name to a Selection.
func ParseSelection(scope string) (Selection, error) {
	switch scope {
	case "stuck", "":
		return SelectStuckOrFailed, nil
	case "failed":
		return SelectFailed, nil
	default:
		return nil, fmt.Errorf("unknown sweep scope %q (want stuck or failed)", scope)
	}
}

// Report summarizes one sweep.
type Report struct {
	Selected  int `json:"selected"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// Sweeper re-schedules selected documents through the enrichment job, one at a time.
type Sweeper struct {
	docs   repository.DocumentRepository
	runner Runner
	logger *zap.Logger
}

// NewSweeper constructs a Sweeper.
func NewSweeper(docs repository.DocumentRepository, runner Runner, logger *zap.Logger) *Sweeper {
	return &Sweeper{docs: docs, runner: runner, logger: logger}
}

// Candidates lists the documents a sweep with sel would re-run.
func (s *Sweeper) Candidates(ctx context.Context, sel Selection) ([]model.Document, error) {
	docs, err := s.docs.ListByStatus(ctx, sel...)
	if err != nil {
		return nil, fmt.Errorf("list documents by status: %w", err)
	}
	return docs, nil
}

// Sweep marks each selected document processing and runs the job on it.
// A document deleted between the scan and its turn is skipped.
func (s *Sweeper) Sweep(ctx context.Context, sel Selection) (Report, error) {
	docs, err := s.Candidates(ctx, sel)
	if err != nil {
		return Report{}, err
	}

	rep := Report{Selected: len(docs)}
	s.logger.Info("sweep_started", zap.Int("selected", rep.Selected), zap.Any("statuses", sel))

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		log := s.logger.With(zap.String("document_id", doc.ID), zap.String("name", doc.OriginalName))

		if err := s.docs.SetStatus(ctx, doc.ID, model.StatusProcessing); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				rep.Skipped++
				log.Info("sweep_skip", zap.String("reason", "document deleted"))
				continue
			}
			return rep, fmt.Errorf("reset status for %s: %w", doc.ID, err)
		}

		switch err := s.runner.Run(ctx, TaskFor(doc)); {
		case err == nil:
			rep.Completed++
			log.Info("sweep_document_completed")
		case errors.Is(err, ErrDocumentGone):
			rep.Skipped++
		default:
			rep.Failed++
			log.Warn("sweep_document_failed", zap.Error(err))
		}
	}

	s.logger.Info("sweep_finished",
		zap.Int("completed", rep.Completed),
		zap.Int("failed", rep.Failed),
		zap.Int("skipped", rep.Skipped))
	return rep, nil
}
