package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"docvault/internal/model"
	"docvault/internal/service"
)

// Multipart field names accepted by UploadDocument.
const (
	filesField    = "files"
	folderIDField = "folderId"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

func validID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// ListDocuments returns every document.
//
// @Summary List documents
// @Tags documents
// @Produce json
// @Success 200 {object} envelope{data=[]model.Document}
// @Router /api/documents [get]
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docs, err := svc.List(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return writeData(c, fiber.StatusOK, nonNil(docs), "")
	}
}

// ListFolderDocuments returns the documents whose folderId equals :folderId.
//
// @Summary List documents in a folder
// @Tags documents
// @Produce json
// @Param folderId path string true "Folder ID"
// @Success 200 {object} envelope{data=[]model.Document}
// @Router /api/documents/folder/{folderId} [get]
func ListFolderDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docs, err := svc.ListByFolder(c.UserContext(), c.Params("folderId"))
		if err != nil {
			if errors.Is(err, service.ErrIDRequired) {
				return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "folder id is required")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return writeData(c, fiber.StatusOK, nonNil(docs), "")
	}
}

// UploadDocument accepts multipart field "files" (one or more) and an optional
// "folderId". Each file is stored, recorded as processing and handed to
// enrichment; the response does not wait for enrichment.
//
// @Summary Upload documents
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Documents"
// @Param folderId formData string false "Folder ID"
// @Success 201 {object} envelope{data=[]model.Document}
// @Failure 400 {object} envelope
// @Failure 413 {object} envelope
// @Failure 500 {object} envelope "PARTIAL_UPLOAD carries the documents accepted before the failure"
// @Router /api/documents/upload [post]
func UploadDocument(svc service.DocumentService, maxFileBytes int64, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil || len(form.File[filesField]) == 0 {
			return writeError(c, fiber.StatusBadRequest, "NO_FILES", "No files uploaded")
		}
		headers := form.File[filesField]

		files := make([]service.UploadFile, 0, len(headers))
		defer func() {
			for _, f := range files {
				if cl, ok := f.Reader.(multipart.File); ok {
					cl.Close()
				}
			}
		}()
		for _, fh := range headers {
			if maxFileBytes > 0 && fh.Size > maxFileBytes {
				return writeError(c, fiber.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
					fmt.Sprintf("%s exceeds the %d MB limit", fh.Filename, maxFileBytes>>20))
			}
			f, err := fh.Open()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			files = append(files, service.UploadFile{
				Name:        fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Size:        fh.Size,
				Reader:      f,
			})
		}

		var folderID *string
		if v := form.Value[folderIDField]; len(v) > 0 && strings.TrimSpace(v[0]) != "" {
			folderID = &v[0]
		}

		docs, err := svc.Ingest(c.UserContext(), files, folderID)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrNoFiles):
				return writeError(c, fiber.StatusBadRequest, "NO_FILES", "No files uploaded")
			case errors.Is(err, service.ErrTooManyFiles):
				return writeError(c, fiber.StatusBadRequest, "TOO_MANY_FILES", "too many files in one upload")
			}
			logger.Error("document_upload_failed",
				zap.String("request_id", requestIDFromCtx(c)),
				zap.Int("accepted", len(docs)),
				zap.Error(err))
			if len(docs) > 0 {
				// These documents are stored and already being processed.
				return writeErrorData(c, fiber.StatusInternalServerError, "PARTIAL_UPLOAD",
					fmt.Sprintf("upload stopped after %d file(s)", len(docs)), docs)
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		return writeData(c, fiber.StatusCreated, docs,
			fmt.Sprintf("%d file(s) uploaded successfully. AI processing started.", len(docs)))
	}
}

// GetDocument returns one document, including its artifacts once completed.
//
// @Summary Get a document
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} envelope{data=model.Document}
// @Failure 404 {object} envelope
// @Router /api/documents/{id} [get]
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := svc.Get(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "Document not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return writeData(c, fiber.StatusOK, doc, "")
	}
}

// GetDocumentContent streams the original bytes with the uploaded content type.
//
// @Summary Download original content
// @Tags documents
// @Produce octet-stream
// @Param id path string true "Document ID"
// @Success 200 {file} binary
// @Failure 404 {object} envelope
// @Router /api/documents/{id}/content [get]
func GetDocumentContent(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		rc, doc, err := svc.Content(c.UserContext(), id)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrNotFound) && doc != nil:
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "File not found on server")
			case errors.Is(err, service.ErrNotFound):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "Document not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		c.Set(fiber.HeaderContentType, doc.Type)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", doc.OriginalName))
		// fasthttp closes rc once the body has been written.
		return c.SendStream(rc, int(doc.Size))
	}
}

// DeleteDocument removes the record, then the stored bytes on a best-effort basis.
//
// @Summary Delete a document
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} envelope
// @Failure 404 {object} envelope
// @Router /api/documents/{id} [delete]
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "Document not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return writeData(c, fiber.StatusOK, nil, "Document deleted successfully")
	}
}

// SearchDocuments runs a full-text query over completed documents.
//
// @Summary Search documents
// @Tags documents
// @Produce json
// @Param q query string true "Query"
// @Param limit query int false "Max hits" default(20)
// @Success 200 {object} envelope{data=[]search.Hit}
// @Failure 503 {object} envelope
// @Router /api/documents/search [get]
func SearchDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := defaultSearchLimit
		if s := c.Query("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
			}
			limit = min(n, maxSearchLimit)
		}

		hits, err := svc.Search(c.UserContext(), c.Query("q"), limit)
		if err != nil {
			if errors.Is(err, service.ErrSearchDisabled) {
				return writeError(c, fiber.StatusServiceUnavailable, "SEARCH_DISABLED", "search is disabled")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return writeData(c, fiber.StatusOK, hits, "")
	}
}

func nonNil(docs []model.Document) []model.Document {
	if docs == nil {
		return []model.Document{}
	}
	return docs
}
