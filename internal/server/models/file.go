package models

import "time"

// File describes metadata for an object held in the blob store. The row is
// created only after the object exists under StoragePath; an object without
// a row is an inert orphan, a row without an object must never happen.
type File struct {
	ID       string
	FolderID string
	// OwnerID is denormalized from the parent folder and must always equal
	// the folder's owner.
	OwnerID string
	// Filename is the stored object's base name (random prefix included).
	Filename string
	// OriginalName is the name the user uploaded the file under.
	OriginalName string
	MimeType     string
	Size         int64
	// StoragePath is the opaque, globally unique object-store key:
	// {ownerId}/{folderId}/{randomId}-{originalName}.
	StoragePath string
	UploadedAt  time.Time
}
