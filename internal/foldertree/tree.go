// Package foldertree assembles the flat folder list into a forest.
package foldertree

import "docvault/internal/model"

// Build returns the folder forest. Folders with no parent, or whose parent is
// not in the list, are roots. Sibling order follows input order. Folders only
// reachable through a parent cycle are omitted, so Build always terminates.
func Build(folders []model.Folder) []model.FolderNode {
	known := make(map[string]bool, len(folders))
	for _, f := range folders {
		known[f.ID] = true
	}

	children := make(map[string][]model.Folder)
	roots := make([]model.Folder, 0)
	for _, f := range folders {
		if f.ParentID == nil || !known[*f.ParentID] {
			roots = append(roots, f)
			continue
		}
		children[*f.ParentID] = append(children[*f.ParentID], f)
	}

	visited := make(map[string]bool, len(folders))
	var attach func(f model.Folder) model.FolderNode
	attach = func(f model.Folder) model.FolderNode {
		visited[f.ID] = true
		node := model.FolderNode{Folder: f, Children: make([]model.FolderNode, 0, len(children[f.ID]))}
		for _, c := range children[f.ID] {
			if visited[c.ID] {
				continue
			}
			node.Children = append(node.Children, attach(c))
		}
		return node
	}

	forest := make([]model.FolderNode, 0, len(roots))
	for _, r := range roots {
		if visited[r.ID] {
			continue
		}
		forest = append(forest, attach(r))
	}
	return forest
}

// Count returns the number of folders in the forest.
func Count(forest []model.FolderNode) int {
	n := 0
	for _, node := range forest {
		n += 1 + Count(node.Children)
	}
	return n
}
