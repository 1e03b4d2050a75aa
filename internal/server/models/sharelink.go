package models

import "time"

// ShareLink grants read-only, ownership-independent access to a folder's
// current file list until ExpiresAt. Links are never updated or revoked;
// validity is computed at read time as now < ExpiresAt.
type ShareLink struct {
	ID       string
	FolderID string
	// Token is an unguessable random identifier, unique across all links.
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}
