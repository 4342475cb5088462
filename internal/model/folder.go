package model

import "time"

// Folder is a node in the folder forest. A nil ParentID marks a root.
type Folder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  *string   `json:"parentId"`
	CreatedAt time.Time `json:"createdAt"`
}

// FolderNode is a Folder with its children resolved.
type FolderNode struct {
	Folder
	Children []FolderNode `json:"children"`
}
