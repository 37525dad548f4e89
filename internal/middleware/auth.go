package middleware

import (
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/roomforge/api/internal/modules/serializer"
)

const (
	UserIDHeader = "X-User-ID"
	userIDKey    = "user_id"
	maxUserIDLen = 128
)

// RequireUser trusts the user id set by the upstream auth gateway.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				serializer.Err(serializer.CodeUnauthorized, "UNAUTHENTICATED", "missing "+UserIDHeader+" header", nil))
			return
		}
		if !validUserID(id) {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				serializer.Err(serializer.CodeUnauthorized, "UNAUTHENTICATED", "invalid "+UserIDHeader+" header", nil))
			return
		}
		c.Set(userIDKey, id)
		c.Next()
	}
}

// UserID returns the id stored by RequireUser, or "" outside of it.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func validUserID(id string) bool {
	if len(id) > maxUserIDLen {
		return false
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) || r == '/' {
			return false
		}
	}
	return true
}
