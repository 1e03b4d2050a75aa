package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/models"
)

type shareCreateRequest struct {
	DurationDays int `json:"durationDays"`
}

type shareLinkResponse struct {
	Token     string    `json:"token"`
	FolderID  string    `json:"folderId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type sharedFileResponse struct {
	fileResponse
	URL *string `json:"url"`
}

type shareViewResponse struct {
	FolderName string               `json:"folderName"`
	Files      []sharedFileResponse `json:"files"`
}

func toShareLinkResponse(l *models.ShareLink) shareLinkResponse {
	return shareLinkResponse{Token: l.Token, FolderID: l.FolderID, ExpiresAt: l.ExpiresAt}
}

func (s *Server) handleShareCreate(c *gin.Context) {
	var req shareCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, common.ErrorInvalidArgument)
		return
	}

	link, err := s.shares.Create(c.Request.Context(), principalID(c), c.Param("id"), req.DurationDays)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toShareLinkResponse(link))
}

func (s *Server) handleShareView(c *gin.Context) {
	view, err := s.shares.View(c.Request.Context(), c.Param("token"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	resp := shareViewResponse{
		FolderName: view.Folder.Name,
		Files:      make([]sharedFileResponse, 0, len(view.Files)),
	}
	for _, f := range view.Files {
		resp.Files = append(resp.Files, sharedFileResponse{
			fileResponse: toFileResponse(f.File),
			URL:          f.URL,
		})
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleShareDownload(c *gin.Context) {
	url, err := s.shares.DownloadFile(c.Request.Context(), c.Param("token"), c.Param("fileId"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.Redirect(http.StatusFound, url)
}
