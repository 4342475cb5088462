// Package clientstate is the client-side view of the vault: documents, folders
// and per-file upload progress. Pollers and CLIs share one Store.
package clientstate

import (
	"slices"
	"sync"

	"docvault/internal/model"
)

// UploadStatus is the local progress state of one uploaded file.
type UploadStatus string

const (
	UploadUploading  UploadStatus = "uploading"
	UploadProcessing UploadStatus = "processing"
	UploadCompleted  UploadStatus = "completed"
	UploadFailed     UploadStatus = "failed"
)

// Upload is the progress entry for one file, keyed by filename.
type Upload struct {
	Filename string       `json:"filename"`
	Progress int          `json:"progress"`
	Status   UploadStatus `json:"status"`
	Error    string       `json:"error,omitempty"`
}

// UploadUpdate carries the fields to change on an Upload; nil fields are kept.
type UploadUpdate struct {
	Progress *int
	Status   *UploadStatus
	Error    *string
}

// Listener is called after every mutation, outside the store's lock.
type Listener func()

// Store is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	documents []model.Document
	folders   []model.Folder
	uploads   []Upload
	listener  Listener
}

// New returns an empty Store. listener may be nil.
func New(listener Listener) *Store {
	return &Store{listener: listener}
}

func (s *Store) notify() {
	if s.listener != nil {
		s.listener()
	}
}

func (s *Store) mutate(fn func()) {
	s.mu.Lock()
	fn()
	s.mu.Unlock()
	s.notify()
}

func (s *Store) SetDocuments(docs []model.Document) {
	s.mutate(func() { s.documents = slices.Clone(docs) })
}

func (s *Store) AddDocument(doc model.Document) {
	s.mutate(func() { s.documents = append(s.documents, doc) })
}

// UpdateDocument replaces the stored copy of doc.ID; unknown ids are ignored.
func (s *Store) UpdateDocument(doc model.Document) {
	s.mutate(func() {
		for i := range s.documents {
			if s.documents[i].ID == doc.ID {
				s.documents[i] = doc
			}
		}
	})
}

func (s *Store) RemoveDocument(id string) {
	s.mutate(func() {
		s.documents = slices.DeleteFunc(s.documents, func(d model.Document) bool { return d.ID == id })
	})
}

func (s *Store) Document(id string) (model.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.documents {
		if d.ID == id {
			return d, true
		}
	}
	return model.Document{}, false
}

func (s *Store) Documents() []model.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.documents)
}

// DocumentsInFolder returns documents filed under folderID; nil selects root-level documents.
func (s *Store) DocumentsInFolder(folderID *string) []model.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Document
	for _, d := range s.documents {
		if d.InFolder(folderID) {
			out = append(out, d)
		}
	}
	return out
}

func (s *Store) SetFolders(folders []model.Folder) {
	s.mutate(func() { s.folders = slices.Clone(folders) })
}

func (s *Store) AddFolder(f model.Folder) {
	s.mutate(func() { s.folders = append(s.folders, f) })
}

func (s *Store) Folders() []model.Folder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.folders)
}

func (s *Store) AddUpload(u Upload) {
	s.mutate(func() { s.uploads = append(s.uploads, u) })
}

// UpdateUpload applies upd to every entry with the given filename.
func (s *Store) UpdateUpload(filename string, upd UploadUpdate) {
	s.mutate(func() {
		for i := range s.uploads {
			if s.uploads[i].Filename != filename {
				continue
			}
			if upd.Progress != nil {
				s.uploads[i].Progress = *upd.Progress
			}
			if upd.Status != nil {
				s.uploads[i].Status = *upd.Status
			}
			if upd.Error != nil {
				s.uploads[i].Error = *upd.Error
			}
		}
	})
}

func (s *Store) RemoveUpload(filename string) {
	s.mutate(func() {
		s.uploads = slices.DeleteFunc(s.uploads, func(u Upload) bool { return u.Filename == filename })
	})
}

func (s *Store) Upload(filename string) (Upload, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.uploads {
		if u.Filename == filename {
			return u, true
		}
	}
	return Upload{}, false
}

func (s *Store) Uploads() []Upload {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.uploads)
}

// Busy reports whether any upload is still uploading or processing.
func (s *Store) Busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.ContainsFunc(s.uploads, func(u Upload) bool {
		return u.Status == UploadUploading || u.Status == UploadProcessing
	})
}

// Status and Progress build UploadUpdate fields inline.
func Status(s UploadStatus) *UploadStatus { return &s }
func Progress(p int) *int                { return &p }
func Message(m string) *string           { return &m }
