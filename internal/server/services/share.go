package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/access"
	"github.com/dmitrijs2005/filevault/internal/server/blobstore"
	"github.com/dmitrijs2005/filevault/internal/server/config"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// SharedFile pairs a file with its signed retrieval URL. URL is nil when
// the URL could not be generated for that one file; a single broken object
// must not hide the rest of a shared folder.
type SharedFile struct {
	File *models.File
	URL  *string
}

// ShareView is the anonymous, read-only view of a shared folder.
type ShareView struct {
	Folder *models.Folder
	Files  []*SharedFile
}

// ShareService issues, validates, and resolves share tokens. Tokens are
// never rotated or revoked; expiry is the only termination mechanism.
type ShareService struct {
	db           *sql.DB
	repos        repomanager.RepositoryManager
	blobs        blobstore.Gateway
	guard        *access.Guard
	logger       logging.Logger
	signedURLTTL time.Duration
}

func NewShareService(db *sql.DB, repos repomanager.RepositoryManager, blobs blobstore.Gateway,
	guard *access.Guard, logger logging.Logger, cfg *config.Config) *ShareService {
	return &ShareService{
		db:           db,
		repos:        repos,
		blobs:        blobs,
		guard:        guard,
		logger:       logger.With("module", "share_service"),
		signedURLTTL: cfg.SignedURLTTL,
	}
}

// Create issues a share link for the folder, valid for durationDays days.
// Invalid or absent durations are clamped to 1 day. The token is an
// unguessable 128-bit-class random identifier.
func (s *ShareService) Create(ctx context.Context, principalID, folderID string, durationDays int) (*models.ShareLink, error) {
	folder, err := s.repos.Folders(s.db).GetByID(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.FolderAction(principalID, folder); err != nil {
		return nil, err
	}

	if durationDays < 1 {
		durationDays = 1
	}

	link := &models.ShareLink{
		FolderID:  folder.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(time.Duration(durationDays) * 24 * time.Hour),
	}

	link, err = s.repos.ShareLinks(s.db).Create(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("error creating share link: %w", err)
	}
	return link, nil
}

// View resolves a token to the shared folder and its files, each with an
// independently generated signed URL. Per-file URL failures degrade to a
// nil URL instead of aborting the listing.
func (s *ShareService) View(ctx context.Context, token string) (*ShareView, error) {
	link, err := s.repos.ShareLinks(s.db).GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.guard.ShareRead(link, time.Now()); err != nil {
		return nil, err
	}

	folder, err := s.repos.Folders(s.db).GetByID(ctx, link.FolderID)
	if err != nil {
		return nil, fmt.Errorf("error loading shared folder: %w", err)
	}

	files, err := s.repos.Files(s.db).ListByFolder(ctx, folder.ID)
	if err != nil {
		return nil, fmt.Errorf("error listing files: %w", err)
	}

	view := &ShareView{Folder: folder, Files: make([]*SharedFile, 0, len(files))}
	for _, f := range files {
		shared := &SharedFile{File: f}
		url, err := s.blobs.SignedURL(ctx, f.StoragePath, s.signedURLTTL)
		if err != nil {
			s.logger.Warn(ctx, "signed url failed for shared file",
				"key", f.StoragePath, "error", err)
		} else {
			shared.URL = &url
		}
		view.Files = append(view.Files, shared)
	}

	return view, nil
}

// DownloadFile resolves a token plus file ID to one signed URL, verifying
// that the file belongs to the token's folder.
func (s *ShareService) DownloadFile(ctx context.Context, token, fileID string) (string, error) {
	link, err := s.repos.ShareLinks(s.db).GetByToken(ctx, token)
	if err != nil {
		return "", err
	}
	if err := s.guard.ShareRead(link, time.Now()); err != nil {
		return "", err
	}

	file, err := s.repos.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		return "", err
	}
	if err := s.guard.ShareFile(link, file); err != nil {
		return "", err
	}

	url, err := s.blobs.SignedURL(ctx, file.StoragePath, s.signedURLTTL)
	if err != nil {
		s.logger.Error(ctx, "signed url failed", "key", file.StoragePath, "error", err)
		return "", common.ErrorStorageUnavailable
	}
	return url, nil
}
