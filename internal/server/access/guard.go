// Package access implements the stateless authorization predicates for
// folders, files, and share links. Every check returns nil (allow) or one
// sentinel from internal/common (deny with reason); there are no partial
// grants.
package access

import (
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/models"
)

type Guard struct{}

func NewGuard() *Guard {
	return &Guard{}
}

// FolderAction authorizes owner-scoped folder operations: read, update,
// delete, create-child-file, create-share. Allowed iff the principal is the
// folder's owner.
func (g *Guard) FolderAction(principalID string, folder *models.Folder) error {
	if principalID == "" {
		return common.ErrorUnauthenticated
	}
	if folder == nil {
		return common.ErrorNotFound
	}
	if folder.OwnerID != principalID {
		return common.ErrorForbidden
	}
	return nil
}

// FileRead authorizes reading a file. The file's denormalized owner and the
// parent folder's owner are invariant-equal; both are checked anyway so an
// invariant violation denies access instead of silently granting it.
func (g *Guard) FileRead(principalID string, file *models.File, folder *models.Folder) error {
	if principalID == "" {
		return common.ErrorUnauthenticated
	}
	if file == nil || folder == nil {
		return common.ErrorNotFound
	}
	if file.OwnerID != principalID && folder.OwnerID != principalID {
		return common.ErrorForbidden
	}
	return nil
}

// FileDelete authorizes deleting a file. Stricter than FileRead: deletion
// is an owner-only action.
func (g *Guard) FileDelete(principalID string, file *models.File) error {
	if principalID == "" {
		return common.ErrorUnauthenticated
	}
	if file == nil {
		return common.ErrorNotFound
	}
	if file.OwnerID != principalID {
		return common.ErrorForbidden
	}
	return nil
}

// ShareRead validates a share link at read time. No principal is required;
// the token itself is the capability. Validity is now < ExpiresAt.
func (g *Guard) ShareRead(link *models.ShareLink, now time.Time) error {
	if link == nil {
		return common.ErrorNotFound
	}
	if !now.Before(link.ExpiresAt) {
		return common.ErrorExpired
	}
	return nil
}

// ShareFile verifies that the requested file belongs to the link's folder.
func (g *Guard) ShareFile(link *models.ShareLink, file *models.File) error {
	if link == nil || file == nil {
		return common.ErrorNotFound
	}
	if file.FolderID != link.FolderID {
		return common.ErrorFileNotInScope
	}
	return nil
}
