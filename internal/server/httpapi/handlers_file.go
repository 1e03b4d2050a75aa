package httpapi

import (
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/filex"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/services"
)

type fileResponse struct {
	ID           string    `json:"id"`
	FolderID     string    `json:"folderId"`
	OriginalName string    `json:"originalName"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

func toFileResponse(f *models.File) fileResponse {
	return fileResponse{
		ID:           f.ID,
		FolderID:     f.FolderID,
		OriginalName: f.OriginalName,
		MimeType:     f.MimeType,
		Size:         f.Size,
		UploadedAt:   f.UploadedAt,
	}
}

// handleFileUpload spools the multipart part to the temp dir and hands the
// path to the file service, which owns releasing it.
func (s *Server) handleFileUpload(c *gin.Context) {
	// reject grossly oversized bodies before spooling; the service enforces
	// the exact per-file limit
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadBytes+1<<20)

	header, err := c.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			s.abortWithError(c, common.ErrorPayloadTooLarge)
			return
		}
		s.abortWithError(c, common.ErrorInvalidArgument)
		return
	}

	dir, err := filex.EnsureSubDir(s.tempDir)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	tmpPath := filepath.Join(dir, uuid.NewString())
	if err := c.SaveUploadedFile(header, tmpPath); err != nil {
		s.abortWithError(c, err)
		return
	}

	file, err := s.files.Upload(c.Request.Context(), principalID(c), c.Param("id"), &services.Upload{
		TempPath:     tmpPath,
		OriginalName: filepath.Base(header.Filename),
		MimeType:     header.Header.Get("Content-Type"),
		Size:         header.Size,
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toFileResponse(file))
}

// handleFileDownload redirects to a short-lived signed URL; the object bytes
// never pass through this server.
func (s *Server) handleFileDownload(c *gin.Context) {
	url, err := s.files.Download(c.Request.Context(), principalID(c), c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.Redirect(http.StatusFound, url)
}

func (s *Server) handleFileDelete(c *gin.Context) {
	if err := s.files.Delete(c.Request.Context(), principalID(c), c.Param("id")); err != nil {
		s.abortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
