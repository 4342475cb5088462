// Package repository contains data access layer abstractions.
// Implementations live in subpackages (sqlrepo) and report missing rows as sql.ErrNoRows.
package repository

import "errors"

// ErrCompletionRequiresArtifacts is returned by SetStatus when asked to mark a
// document completed; completion goes through Complete so both artifacts land
// in the same write.
var ErrCompletionRequiresArtifacts = errors.New("completed status requires summary and markdown")

// Store groups the repositories backed by one record store.
type Store struct {
	Documents DocumentRepository
	Folders   FolderRepository
}
