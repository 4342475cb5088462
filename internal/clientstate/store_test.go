package clientstate

import (
	"sync"
	"sync/atomic"
	"testing"

	"docvault/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Documents(t *testing.T) {
	var changes atomic.Int32
	s := New(func() { changes.Add(1) })
	folder := "f1"

	s.SetDocuments([]model.Document{{ID: "a"}, {ID: "b", FolderID: &folder}})
	s.AddDocument(model.Document{ID: "c", ProcessingStatus: model.StatusProcessing})

	summary := "done"
	s.UpdateDocument(model.Document{ID: "c", ProcessingStatus: model.StatusCompleted, Summary: &summary})
	s.UpdateDocument(model.Document{ID: "unknown"})

	c, ok := s.Document("c")
	require.True(t, ok)
	assert.Equal(t, model.StatusCompleted, c.ProcessingStatus)
	assert.Len(t, s.Documents(), 3)

	root := s.DocumentsInFolder(nil)
	assert.Len(t, root, 2)
	inFolder := s.DocumentsInFolder(&folder)
	require.Len(t, inFolder, 1)
	assert.Equal(t, "b", inFolder[0].ID)

	s.RemoveDocument("a")
	_, ok = s.Document("a")
	assert.False(t, ok)
	assert.Equal(t, int32(5), changes.Load())
}

func TestStore_Uploads(t *testing.T) {
	s := New(nil)

	s.AddUpload(Upload{Filename: "a.txt", Status: UploadUploading})
	s.AddUpload(Upload{Filename: "b.txt", Status: UploadUploading})
	assert.True(t, s.Busy())

	s.UpdateUpload("a.txt", UploadUpdate{Progress: Progress(100), Status: Status(UploadCompleted)})
	s.UpdateUpload("b.txt", UploadUpdate{Status: Status(UploadFailed), Error: Message("AI processing failed")})

	a, _ := s.Upload("a.txt")
	assert.Equal(t, Upload{Filename: "a.txt", Progress: 100, Status: UploadCompleted}, a)
	b, _ := s.Upload("b.txt")
	assert.Equal(t, "AI processing failed", b.Error)
	assert.Equal(t, 0, b.Progress)
	assert.False(t, s.Busy())

	s.RemoveUpload("a.txt")
	assert.Len(t, s.Uploads(), 1)
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	s := New(nil)
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := string(rune('a' + i%26))
			s.AddDocument(model.Document{ID: id})
			s.UpdateDocument(model.Document{ID: id, ProcessingStatus: model.StatusCompleted})
			_ = s.Documents()
		}()
	}
	wg.Wait()
	assert.Len(t, s.Documents(), 50)
}

func TestStore_ReturnsCopies(t *testing.T) {
	s := New(nil)
	s.SetFolders([]model.Folder{{ID: "x"}})

	got := s.Folders()
	got[0].ID = "mutated"

	assert.Equal(t, "x", s.Folders()[0].ID)
}
