package middleware

import (
	"net/http"
	"strings"

	"github.com/ErlanBelekov/prompt-studio/internal/reqctx"
	"github.com/ErlanBelekov/prompt-studio/internal/session"
	"github.com/gin-gonic/gin"
)

const (
	errUnauthorized         = "Unauthorized"
	errVerificationRequired = "Please verify your email to access this page."
)

// SessionParser is satisfied by *session.Manager.
type SessionParser interface {
	Parse(raw string) (*session.Claims, error)
}

// RequireVerified validates a Bearer session token, rejects sessions whose
// email is not verified, and sets "userID" in the gin and request contexts.
func RequireVerified(sessions SessionParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}

		claims, err := sessions.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}

		if !claims.EmailVerified {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": errVerificationRequired})
			return
		}

		c.Set("userID", claims.UserID())
		c.Set("role", string(claims.Role))
		c.Request = c.Request.WithContext(reqctx.WithUserID(c.Request.Context(), claims.UserID()))
		c.Next()
	}
}
