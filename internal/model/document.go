package model

import "time"

// Document is an uploaded file and its enrichment artifacts.
// Summary and Markdown are set only while ProcessingStatus is completed.
type Document struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	OriginalName     string           `json:"originalName"`
	Path             string           `json:"path"`
	FolderID         *string          `json:"folderId"`
	Size             int64            `json:"size"`
	Type             string           `json:"type"`
	UploadedAt       time.Time        `json:"uploadedAt"`
	Summary          *string          `json:"summary"`
	Markdown         *string          `json:"markdown"`
	ProcessingStatus ProcessingStatus `json:"processingStatus"`
}

// InFolder reports whether the document belongs to folderID; nil means the root.
func (d Document) InFolder(folderID *string) bool {
	if folderID == nil {
		return d.FolderID == nil
	}
	return d.FolderID != nil && *d.FolderID == *folderID
}
