package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/filevault/internal/common"
)

type errorResponse struct {
	Error string `json:"error"`
}

// statusFromError maps the service error taxonomy onto HTTP status codes.
// Anything unrecognized is an internal error and must not leak detail.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, common.ErrorInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthenticated),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrRefreshTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound),
		errors.Is(err, common.ErrorFileNotInScope):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrorExpired):
		return http.StatusGone
	case errors.Is(err, common.ErrorPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, common.ErrorUnsupportedMediaType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, common.ErrorStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) abortWithError(c *gin.Context, err error) {
	status := statusFromError(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed",
			"method", c.Request.Method, "path", c.FullPath(), "error", err)
		msg = "internal error"
	}

	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}
