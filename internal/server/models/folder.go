package models

import "time"

// Folder is a single-level container for files, owned exclusively by one
// user. (name, owner) pairs are unique, enforced by a DB constraint.
type Folder struct {
	ID        string
	Name      string
	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FolderInfo is a dashboard listing row: a folder plus its file count.
// FileCount is derived, never persisted.
type FolderInfo struct {
	Folder
	FileCount int64
}
