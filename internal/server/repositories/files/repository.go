package files

import (
	"context"

	"github.com/dmitrijs2005/filevault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, file *models.File) (*models.File, error)
	GetByID(ctx context.Context, id string) (*models.File, error)
	// ListByFolder returns the folder's files ordered by upload time
	// descending.
	ListByFolder(ctx context.Context, folderID string) ([]*models.File, error)
	Delete(ctx context.Context, id string) error
}
