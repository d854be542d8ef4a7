package httptransport

import (
	"log/slog"
	"time"

	"github.com/ErlanBelekov/prompt-studio/internal/transport/http/handler"
	"github.com/ErlanBelekov/prompt-studio/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	Account *handler.AccountHandler
	Prompt  *handler.PromptHandler
}

func NewRouter(logger *slog.Logger, h Handlers, sessions middleware.SessionParser, requestTimeout time.Duration) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestContext())
	r.Use(middleware.Security())
	r.Use(sloggin.NewWithConfig(logger, sloggin.Config{
		WithRequestID: false,
		Filters:       []sloggin.Filter{sloggin.IgnorePath("/favicon.ico")},
	}))
	r.Use(middleware.Metrics())
	r.Use(middleware.Timeout(requestTimeout))

	auth := r.Group("/auth", middleware.NoStore())
	auth.POST("/signup", h.Auth.Signup)
	auth.POST("/verify-email", h.Auth.VerifyEmail)
	auth.POST("/login", h.Auth.Login)

	r.GET("/tags", h.Prompt.Tags)

	verified := middleware.RequireVerified(sessions)

	account := r.Group("/account", verified, middleware.NoStore())
	account.GET("", h.Account.Get)
	account.PATCH("", h.Account.Update)

	prompts := r.Group("/prompts", verified)
	prompts.GET("", h.Prompt.List)
	prompts.GET("/:id", h.Prompt.Get)

	return r
}
