package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"docvault/internal/service"
)

// Options carries the non-service dependencies of the HTTP surface.
type Options struct {
	// MaxFileBytes rejects larger uploaded files with 413; zero disables the check.
	MaxFileBytes int64
	// Gatherer backs /metrics; nil leaves the route unregistered.
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// RegisterRoutes attaches the probes, /metrics and the /api group to app.
func RegisterRoutes(app *fiber.App, db Pinger, docSvc service.DocumentService, folderSvc service.FolderService, opts Options) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())
	if opts.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")

	docs := api.Group("/documents")
	docs.Post("/upload", UploadDocument(docSvc, opts.MaxFileBytes, logger))
	docs.Get("/", ListDocuments(docSvc))
	// Static segments before /:id.
	docs.Get("/search", SearchDocuments(docSvc))
	docs.Get("/folder/:folderId", ListFolderDocuments(docSvc))
	docs.Get("/:id", GetDocument(docSvc))
	docs.Get("/:id/content", GetDocumentContent(docSvc))
	docs.Delete("/:id", DeleteDocument(docSvc))

	folders := api.Group("/folders")
	folders.Post("/", CreateFolder(folderSvc))
	folders.Get("/", ListFolders(folderSvc))
	folders.Get("/tree", FolderTree(folderSvc))
	folders.Get("/:id", GetFolder(folderSvc))
	folders.Delete("/:id", DeleteFolder(folderSvc))
}
