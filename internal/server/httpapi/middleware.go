package httpapi

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/auth"
)

const principalKey = "principalID"

// authRequired validates the bearer token and stores the principal in the
// request context. Every route behind it can rely on principalID being set.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			s.abortWithError(c, common.ErrorUnauthenticated)
			return
		}

		userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
		if err != nil {
			s.abortWithError(c, err)
			return
		}

		c.Set(principalKey, userID)
		c.Next()
	}
}

func principalID(c *gin.Context) string {
	return c.GetString(principalKey)
}
