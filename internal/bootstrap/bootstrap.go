// Package bootstrap assembles the record store, content store, enricher and
// enrichment job shared by the API server and the reprocess command.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"docvault/internal/ai"
	"docvault/internal/config"
	"docvault/internal/database"
	"docvault/internal/database/migration"
	"docvault/internal/enrichment"
	"docvault/internal/model"
	"docvault/internal/repository/sqlrepo"
	"docvault/internal/search"
	"docvault/internal/storage"
)

// Deps is the wired application core.
type Deps struct {
	DB        *sql.DB
	Store     storage.Storage
	Documents *sqlrepo.DocumentSQL
	Folders   *sqlrepo.FolderSQL
	Job       *enrichment.Job
	// Index is nil when search is disabled or not requested.
	Index    *search.Index
	Registry *prometheus.Registry
}

// Options selects optional parts of the core.
type Options struct {
	// Search opens the index and rebuilds it from completed documents.
	Search bool
}

// New opens every backend named by cfg, migrates the schema and builds the
// enrichment job. On error everything opened so far is closed.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger, opts Options) (_ *Deps, err error) {
	d := &Deps{Registry: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			d.Close()
		}
	}()

	d.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	d.DB, err = database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := migration.EnsureMigrated(ctx, d.DB, cfg.Database.Driver, logger); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	dialect := sqlrepo.Postgres
	if cfg.Database.Driver == config.DriverSQLite {
		dialect = sqlrepo.SQLite
	}
	d.Documents = sqlrepo.NewDocumentSQL(d.DB, dialect)
	d.Folders = sqlrepo.NewFolderSQL(d.DB, dialect)

	d.Store, err = openStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize content storage: %w", err)
	}

	enricher, err := ai.NewClaude(cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("initialize enricher: %w", err)
	}

	metrics, err := enrichment.NewMetrics(d.Registry)
	if err != nil {
		return nil, fmt.Errorf("register enrichment metrics: %w", err)
	}

	jobOpts := []enrichment.JobOption{
		enrichment.WithMetrics(metrics),
		enrichment.WithMaxInputChars(cfg.AI.MaxInputChars),
	}
	if opts.Search && cfg.Search.Enabled {
		if d.Index, err = openIndex(ctx, cfg.Search, d.Documents, logger); err != nil {
			return nil, err
		}
		jobOpts = append(jobOpts, enrichment.WithIndexer(d.Index))
	}

	d.Job = enrichment.NewJob(d.Documents, d.Store, enricher, logger.With(zap.String("component", "enrichment")), jobOpts...)
	return d, nil
}

func openStorage(cfg *config.AppConfig) (storage.Storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageLocal:
		return storage.NewLocal(cfg.Storage.LocalDir)
	case config.StorageMinIO, "":
		return storage.NewMinIO(cfg.MinIO)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Storage.Driver)
	}
}

// openIndex opens the search index and refills it from the record store,
// which stays the source of truth.
func openIndex(ctx context.Context, cfg config.SearchConfig, docs *sqlrepo.DocumentSQL, logger *zap.Logger) (*search.Index, error) {
	index, err := search.Open(cfg.IndexPath)
	if err != nil {
		return nil, fmt.Errorf("open search index: %w", err)
	}
	completed, err := docs.ListByStatus(ctx, model.StatusCompleted)
	if err != nil {
		index.Close()
		return nil, fmt.Errorf("load completed documents: %w", err)
	}
	n, err := index.Rebuild(completed)
	if err != nil {
		index.Close()
		return nil, fmt.Errorf("rebuild search index: %w", err)
	}
	logger.Info("search_index_ready", zap.Int("documents", n), zap.Bool("in_memory", cfg.IndexPath == ""))
	return index, nil
}

// Close releases the index and the database.
func (d *Deps) Close() error {
	var errs []error
	if d.Index != nil {
		errs = append(errs, d.Index.Close())
	}
	if d.DB != nil {
		errs = append(errs, d.DB.Close())
	}
	return errors.Join(errs...)
}
