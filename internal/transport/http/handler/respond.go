package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// serverError writes 503 for deadline overruns and 500 otherwise. Details
// are logged, never returned.
func serverError(c *gin.Context, logger *slog.Logger, op string, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		logger.WarnContext(c.Request.Context(), op, "error", err)
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errServiceUnavailable})
		return
	}
	logger.ErrorContext(c.Request.Context(), op, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
}
