package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vaultServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/folders/tree", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":[{"id":"f1","name":"Reports","children":[{"id":"f2","name":"2024","children":[]}]}]}`))
	})
	mux.HandleFunc("GET /api/documents/d1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"id":"d1","name":"a.txt","originalName":"a.txt","type":"text/plain","size":3,"processingStatus":"completed","summary":"short"}}`))
	})
	mux.HandleFunc("POST /api/documents/upload", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"success":true,"data":[{"id":"d1","name":"a.txt","originalName":"a.txt","processingStatus":"processing"}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRun_Tree(t *testing.T) {
	srv := vaultServer(t)
	var out bytes.Buffer

	err := run(context.Background(), []string{"-api", srv.URL + "/api", "tree"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "Reports  (f1)\n  2024  (f2)\n", out.String())
}

func TestRun_Status(t *testing.T) {
	srv := vaultServer(t)
	var out bytes.Buffer

	err := run(context.Background(), []string{"-api", srv.URL + "/api", "status", "d1"}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "status:  completed")
	assert.Contains(t, out.String(), "short")
}

func TestRun_UploadWaitsForCompletion(t *testing.T) {
	srv := vaultServer(t)
	path := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o600))
	var out bytes.Buffer

	err := run(context.Background(), []string{"-api", srv.URL + "/api", "upload", "-interval", "10ms", path}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "1 file(s) uploaded")
	assert.Contains(t, out.String(), "completed")
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		errMsg string
	}{
		{name: "no command", args: nil, errMsg: "missing command"},
		{name: "unknown command", args: []string{"frobnicate"}, errMsg: "unknown command"},
		{name: "upload without files", args: []string{"upload"}, errMsg: "no files"},
		{name: "status without id", args: []string{"status"}, errMsg: "expected one document id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), tt.args, &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
