package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"docvault/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvelope(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func TestClient_GetDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/documents/d1":
			writeEnvelope(w, http.StatusOK, map[string]any{
				"success": true,
				"data":    map[string]any{"id": "d1", "processingStatus": "completed", "summary": "s"},
			})
		case "/api/documents/boom":
			writeEnvelope(w, http.StatusInternalServerError, map[string]any{
				"success": false, "error": "internal server error", "code": "INTERNAL_ERROR", "requestId": "r-1",
			})
		default:
			writeEnvelope(w, http.StatusNotFound, map[string]any{"success": false, "error": "Document not found"})
		}
	}))
	defer srv.Close()

	c := New(srv.URL + "/api")
	ctx := context.Background()

	doc, err := c.GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, doc.ProcessingStatus)
	assert.Equal(t, "s", *doc.Summary)

	_, err = c.GetDocument(ctx, "gone")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.GetDocument(ctx, "boom")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "INTERNAL_ERROR", apiErr.Code)
	assert.Equal(t, "r-1", apiErr.RequestID)
}

func TestClient_Upload(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "a.txt")
	p2 := filepath.Join(dir, "b.pdf")
	require.NoError(t, os.WriteFile(p1, []byte("alpha"), 0o644))
	require.NoError(t, os.WriteFile(p2, []byte("%PDF"), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/documents/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		files := r.MultipartForm.File["files"]
		require.Len(t, files, 2)
		assert.Equal(t, "a.txt", files[0].Filename)
		assert.Equal(t, "text/plain", files[0].Header.Get("Content-Type"))
		assert.Equal(t, "application/pdf", files[1].Header.Get("Content-Type"))
		assert.Equal(t, "f1", r.FormValue("folderId"))

		f, _ := files[0].Open()
		b, _ := io.ReadAll(f)
		assert.Equal(t, "alpha", string(b))

		writeEnvelope(w, http.StatusCreated, map[string]any{
			"success": true,
			"data": []map[string]any{
				{"id": "1", "name": "a.txt", "processingStatus": "processing"},
				{"id": "2", "name": "b.pdf", "processingStatus": "processing"},
			},
			"message": "2 file(s) uploaded successfully. AI processing started.",
		})
	}))
	defer srv.Close()

	docs, err := New(srv.URL+"/api").Upload(context.Background(), []string{p1, p2}, "f1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, model.StatusProcessing, docs[1].ProcessingStatus)
}

func TestClient_UploadMissingFile(t *testing.T) {
	_, err := New("http://127.0.0.1:1/api").Upload(context.Background(), []string{"/nonexistent/x.txt"}, "")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestClient_Folders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/folders":
			var req map[string]any
			json.NewDecoder(r.Body).Decode(&req)
			if req["name"] == "" {
				writeEnvelope(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Folder name is required", "code": "NAME_REQUIRED"})
				return
			}
			assert.NotContains(t, req, "parentId")
			writeEnvelope(w, http.StatusCreated, map[string]any{"success": true, "data": map[string]any{"id": "f1", "name": req["name"], "parentId": nil}})
		case r.URL.Path == "/api/folders":
			writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": []map[string]any{{"id": "f1", "name": "A"}}})
		case r.URL.Path == "/api/folders/tree":
			writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": []map[string]any{
				{"id": "f1", "name": "A", "children": []map[string]any{{"id": "f2", "name": "B", "children": []any{}}}},
			}})
		}
	}))
	defer srv.Close()

	c := New(srv.URL + "/api/")
	ctx := context.Background()

	f, err := c.CreateFolder(ctx, "Reports", "")
	require.NoError(t, err)
	assert.Equal(t, "f1", f.ID)
	assert.Nil(t, f.ParentID)

	_, err = c.CreateFolder(ctx, "", "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "NAME_REQUIRED", apiErr.Code)

	folders, err := c.ListFolders(ctx)
	require.NoError(t, err)
	assert.Len(t, folders, 1)

	tree, err := c.FolderTree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "f2", tree[0].Children[0].ID)
}
