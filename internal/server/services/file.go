package services

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/filex"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/access"
	"github.com/dmitrijs2005/filevault/internal/server/blobstore"
	"github.com/dmitrijs2005/filevault/internal/server/config"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Upload describes a spooled multipart upload: a temp file on local disk
// plus what the client told us about it. The service owns the temp file
// from the moment it is handed in and releases it on every exit path.
type Upload struct {
	TempPath     string
	OriginalName string
	MimeType     string
	Size         int64
}

// FileService owns upload orchestration (temp file → blob store → metadata
// commit) and download/delete orchestration.
type FileService struct {
	db           *sql.DB
	repos        repomanager.RepositoryManager
	blobs        blobstore.Gateway
	guard        *access.Guard
	logger       logging.Logger
	maxBytes     int64
	allowedTypes map[string]struct{}
	signedURLTTL time.Duration
}

func NewFileService(db *sql.DB, repos repomanager.RepositoryManager, blobs blobstore.Gateway,
	guard *access.Guard, logger logging.Logger, cfg *config.Config) *FileService {

	allowed := make(map[string]struct{}, len(cfg.AllowedMimeTypes))
	for _, mt := range cfg.AllowedMimeTypes {
		allowed[mt] = struct{}{}
	}

	return &FileService{
		db:           db,
		repos:        repos,
		blobs:        blobs,
		guard:        guard,
		logger:       logger.With("module", "file_service"),
		maxBytes:     cfg.MaxUploadBytes,
		allowedTypes: allowed,
		signedURLTTL: cfg.SignedURLTTL,
	}
}

// StorageKey builds the globally unique object key for an upload:
// {ownerId}/{folderId}/{randomId}-{originalName}. The random component makes
// repeated uploads of identically named files collision-free.
func StorageKey(ownerID, folderID, originalName string) string {
	return fmt.Sprintf("%s/%s/%s-%s", ownerID, folderID, uuid.NewString(), originalName)
}

// Upload validates, streams the spooled bytes to the blob store, and only
// then commits the metadata row. Ordering is strict: a metadata row must
// never point at a non-existent object. The temp file is released on every
// path. If the metadata insert fails after a successful put, the object is
// an accepted orphan.
func (s *FileService) Upload(ctx context.Context, principalID, folderID string, up *Upload) (*models.File, error) {
	defer s.releaseTemp(ctx, up.TempPath)

	// both checks run before any blob-store contact
	if up.Size > s.maxBytes {
		return nil, common.ErrorPayloadTooLarge
	}
	if _, ok := s.allowedTypes[up.MimeType]; !ok {
		return nil, common.ErrorUnsupportedMediaType
	}

	folder, err := s.repos.Folders(s.db).GetByID(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.FolderAction(principalID, folder); err != nil {
		return nil, err
	}

	key := StorageKey(folder.OwnerID, folder.ID, up.OriginalName)

	src, err := os.Open(up.TempPath)
	if err != nil {
		return nil, fmt.Errorf("open temp file: %w", err)
	}
	putErr := s.blobs.Put(ctx, key, src, up.MimeType)
	_ = src.Close()

	if putErr != nil {
		s.logger.Error(ctx, "blob put failed", "key", key, "error", putErr)
		return nil, common.ErrorStorageUnavailable
	}

	file := &models.File{
		FolderID:     folder.ID,
		OwnerID:      folder.OwnerID,
		Filename:     path.Base(key),
		OriginalName: up.OriginalName,
		MimeType:     up.MimeType,
		Size:         up.Size,
		StoragePath:  key,
	}

	created, err := s.repos.Files(s.db).Create(ctx, file)
	if err != nil {
		// the object exists with no metadata pointer: an inert orphan
		s.logger.Warn(ctx, "metadata insert failed after upload, object orphaned",
			"key", key, "error", err)
		return nil, fmt.Errorf("error creating file record: %w", err)
	}

	return created, nil
}

// Download authorizes the read (file owner or parent-folder owner) and
// returns a signed, time-limited retrieval URL. The caller redirects the
// end user to it; the server never proxies file bytes.
func (s *FileService) Download(ctx context.Context, principalID, fileID string) (string, error) {
	file, err := s.repos.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		return "", err
	}
	folder, err := s.repos.Folders(s.db).GetByID(ctx, file.FolderID)
	if err != nil {
		return "", fmt.Errorf("error loading parent folder: %w", err)
	}
	if err := s.guard.FileRead(principalID, file, folder); err != nil {
		return "", err
	}

	url, err := s.blobs.SignedURL(ctx, file.StoragePath, s.signedURLTTL)
	if err != nil {
		s.logger.Error(ctx, "signed url failed", "key", file.StoragePath, "error", err)
		return "", common.ErrorStorageUnavailable
	}
	return url, nil
}

// Delete removes the blob and then the metadata row. Deletion is owner-only.
// A failed blob removal is logged and the metadata row is deleted anyway,
// the same orphan-tolerant policy as folder deletion.
func (s *FileService) Delete(ctx context.Context, principalID, fileID string) error {
	fileRepo := s.repos.Files(s.db)

	file, err := fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return err
	}
	if err := s.guard.FileDelete(principalID, file); err != nil {
		return err
	}

	if failed, err := s.blobs.RemoveMany(ctx, []string{file.StoragePath}); err != nil || len(failed) > 0 {
		s.logger.Warn(ctx, "blob removal failed, deleting metadata anyway",
			"key", file.StoragePath, "error", err)
	}

	return fileRepo.Delete(ctx, file.ID)
}

func (s *FileService) releaseTemp(ctx context.Context, path string) {
	if err := filex.RemoveQuiet(path); err != nil {
		s.logger.Warn(ctx, "temp file cleanup failed", "path", path, "error", err)
	}
}
