package middleware

import (
	"github.com/ErlanBelekov/prompt-studio/internal/clientip"
	"github.com/ErlanBelekov/prompt-studio/internal/reqctx"
	"github.com/gin-gonic/gin"
)

// RequestContext injects a request ID and the client IP into the request
// context. An incoming X-Request-ID is preserved; otherwise a new UUID v4 is
// generated and echoed back.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = reqctx.NewRequestID()
		}

		ctx := reqctx.WithRequestID(c.Request.Context(), id)
		if ip := clientip.FromRequest(c.Request); ip != "" {
			ctx = reqctx.WithClientIP(ctx, ip)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
