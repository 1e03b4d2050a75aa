// Package services contains the server-side business logic: folder and file
// CRUD against the metadata store, upload/download orchestration against the
// blob store, share-link lifecycle, and the identity provider.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/access"
	"github.com/dmitrijs2005/filevault/internal/server/blobstore"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
)

// FolderView is the result of viewing a single folder: the folder, its files
// newest-first, and derived aggregates that are never persisted.
type FolderView struct {
	Folder    *models.Folder
	Files     []*models.File
	FileCount int
	TotalSize int64
}

// FolderService owns folder CRUD and the folder-delete orchestration that
// removes both blobs and metadata.
type FolderService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	blobs  blobstore.Gateway
	guard  *access.Guard
	logger logging.Logger
}

func NewFolderService(db *sql.DB, repos repomanager.RepositoryManager, blobs blobstore.Gateway,
	guard *access.Guard, logger logging.Logger) *FolderService {
	return &FolderService{
		db:     db,
		repos:  repos,
		blobs:  blobs,
		guard:  guard,
		logger: logger.With("module", "folder_service"),
	}
}

// Create inserts a new folder for the principal. Names are trimmed; empty
// names are rejected, duplicates yield ErrorConflict. The pre-insert
// existence check is a fast path only; under concurrency the DB unique
// constraint is what guarantees exactly one winner.
func (s *FolderService) Create(ctx context.Context, principalID, name string) (*models.Folder, error) {
	if principalID == "" {
		return nil, common.ErrorUnauthenticated
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.ErrorInvalidArgument
	}

	folderRepo := s.repos.Folders(s.db)

	exists, err := folderRepo.ExistsByName(ctx, principalID, name, "")
	if err != nil {
		return nil, fmt.Errorf("error checking folder name: %w", err)
	}
	if exists {
		return nil, common.ErrorConflict
	}

	folder, err := folderRepo.Create(ctx, &models.Folder{Name: name, OwnerID: principalID})
	if err != nil {
		return nil, err
	}
	return folder, nil
}

// List returns the principal's folders for the dashboard, most recently
// updated first, with file counts.
func (s *FolderService) List(ctx context.Context, principalID string) ([]*models.FolderInfo, error) {
	if principalID == "" {
		return nil, common.ErrorUnauthenticated
	}
	return s.repos.Folders(s.db).ListByOwner(ctx, principalID)
}

// View loads a folder with its files (newest first) and computes the
// fileCount/totalSize aggregates.
func (s *FolderService) View(ctx context.Context, principalID, folderID string) (*FolderView, error) {
	folder, err := s.repos.Folders(s.db).GetByID(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.FolderAction(principalID, folder); err != nil {
		return nil, err
	}

	files, err := s.repos.Files(s.db).ListByFolder(ctx, folder.ID)
	if err != nil {
		return nil, fmt.Errorf("error listing files: %w", err)
	}

	view := &FolderView{Folder: folder, Files: files, FileCount: len(files)}
	for _, f := range files {
		view.TotalSize += f.Size
	}
	return view, nil
}

// Update renames a folder, applying the same trimming, ownership, and
// uniqueness rules as Create but excluding the folder itself from the
// duplicate check.
func (s *FolderService) Update(ctx context.Context, principalID, folderID, newName string) (*models.Folder, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, common.ErrorInvalidArgument
	}

	folderRepo := s.repos.Folders(s.db)

	folder, err := folderRepo.GetByID(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.FolderAction(principalID, folder); err != nil {
		return nil, err
	}

	exists, err := folderRepo.ExistsByName(ctx, principalID, newName, folder.ID)
	if err != nil {
		return nil, fmt.Errorf("error checking folder name: %w", err)
	}
	if exists {
		return nil, common.ErrorConflict
	}

	if err := folderRepo.UpdateName(ctx, folder.ID, newName); err != nil {
		return nil, err
	}

	folder.Name = newName
	return folder, nil
}

// Delete removes a folder's blobs and then its metadata. Blob removal
// failure does not block metadata deletion: metadata is the source of truth
// for user-visible existence, and an unreferenced blob is inert, while a
// dangling DB reference would not be. Failed removals are logged and
// accepted as leaked state. The folder row and its file rows disappear
// atomically via the cascade constraint.
func (s *FolderService) Delete(ctx context.Context, principalID, folderID string) error {
	folderRepo := s.repos.Folders(s.db)

	folder, err := folderRepo.GetByID(ctx, folderID)
	if err != nil {
		return err
	}
	if err := s.guard.FolderAction(principalID, folder); err != nil {
		return err
	}

	files, err := s.repos.Files(s.db).ListByFolder(ctx, folder.ID)
	if err != nil {
		return fmt.Errorf("error listing files: %w", err)
	}

	if len(files) > 0 {
		keys := make([]string, 0, len(files))
		for _, f := range files {
			keys = append(keys, f.StoragePath)
		}
		if failed, err := s.blobs.RemoveMany(ctx, keys); err != nil || len(failed) > 0 {
			s.logger.Warn(ctx, "blob removal incomplete, deleting metadata anyway",
				"folder", folder.ID, "failed_keys", failed, "error", err)
		}
	}

	return folderRepo.Delete(ctx, folder.ID)
}
