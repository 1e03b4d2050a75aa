package folders

import (
	"context"

	"github.com/dmitrijs2005/filevault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, folder *models.Folder) (*models.Folder, error)
	GetByID(ctx context.Context, id string) (*models.Folder, error)
	// ListByOwner returns the owner's folders ordered by updated_at
	// descending, each with its file count.
	ListByOwner(ctx context.Context, ownerID string) ([]*models.FolderInfo, error)
	// ExistsByName reports whether the owner already has a folder with the
	// given name, excluding excludeID when non-empty. This is a lower-bound
	// check; the unique constraint is authoritative under concurrency.
	ExistsByName(ctx context.Context, ownerID, name, excludeID string) (bool, error)
	UpdateName(ctx context.Context, id, name string) error
	// Delete removes the folder row; file rows go with it via the
	// ON DELETE CASCADE constraint, atomically.
	Delete(ctx context.Context, id string) error
}
