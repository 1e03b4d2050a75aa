package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/services"
)

type folderRequest struct {
	Name string `json:"name"`
}

type folderResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type folderListItem struct {
	folderResponse
	FileCount int64 `json:"fileCount"`
}

type folderViewResponse struct {
	folderResponse
	Files     []fileResponse `json:"files"`
	FileCount int            `json:"fileCount"`
	TotalSize int64          `json:"totalSize"`
}

func toFolderResponse(f *models.Folder) folderResponse {
	return folderResponse{ID: f.ID, Name: f.Name, CreatedAt: f.CreatedAt, UpdatedAt: f.UpdatedAt}
}

func toFolderViewResponse(v *services.FolderView) folderViewResponse {
	resp := folderViewResponse{
		folderResponse: toFolderResponse(v.Folder),
		Files:          make([]fileResponse, 0, len(v.Files)),
		FileCount:      v.FileCount,
		TotalSize:      v.TotalSize,
	}
	for _, f := range v.Files {
		resp.Files = append(resp.Files, toFileResponse(f))
	}
	return resp
}

func (s *Server) handleFolderList(c *gin.Context) {
	folders, err := s.folders.List(c.Request.Context(), principalID(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	items := make([]folderListItem, 0, len(folders))
	for _, f := range folders {
		items = append(items, folderListItem{
			folderResponse: toFolderResponse(&f.Folder),
			FileCount:      f.FileCount,
		})
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) handleFolderCreate(c *gin.Context) {
	var req folderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, common.ErrorInvalidArgument)
		return
	}

	folder, err := s.folders.Create(c.Request.Context(), principalID(c), req.Name)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toFolderResponse(folder))
}

func (s *Server) handleFolderView(c *gin.Context) {
	view, err := s.folders.View(c.Request.Context(), principalID(c), c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toFolderViewResponse(view))
}

func (s *Server) handleFolderUpdate(c *gin.Context) {
	var req folderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, common.ErrorInvalidArgument)
		return
	}

	folder, err := s.folders.Update(c.Request.Context(), principalID(c), c.Param("id"), req.Name)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toFolderResponse(folder))
}

func (s *Server) handleFolderDelete(c *gin.Context) {
	if err := s.folders.Delete(c.Request.Context(), principalID(c), c.Param("id")); err != nil {
		s.abortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
