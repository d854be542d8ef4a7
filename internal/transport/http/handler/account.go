package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ErlanBelekov/prompt-studio/internal/domain"
	"github.com/ErlanBelekov/prompt-studio/internal/usecase"
	"github.com/gin-gonic/gin"
)

type accountUsecaser interface {
	GetAccount(ctx context.Context, userID string) (*domain.User, error)
	UpdateAccount(ctx context.Context, userID string, input usecase.UpdateAccountInput) (*domain.User, error)
}

type AccountHandler struct {
	accounts accountUsecaser
	logger   *slog.Logger
}

func NewAccountHandler(accounts accountUsecaser, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger.With("component", "account_handler")}
}

type accountResponse struct {
	ID            string      `json:"id"`
	Email         string      `json:"email"`
	Name          *string     `json:"name"`
	Role          domain.Role `json:"role"`
	EmailVerified *time.Time  `json:"email_verified"`
	CreatedAt     time.Time   `json:"created_at"`
}

func toAccountResponse(u *domain.User) accountResponse {
	return accountResponse{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
}

// GET /account
func (h *AccountHandler) Get(c *gin.Context) {
	user, err := h.accounts.GetAccount(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		h.writeError(c, "get account", err)
		return
	}
	c.JSON(http.StatusOK, toAccountResponse(user))
}

type updateAccountRequest struct {
	Name *string `json:"name" binding:"omitempty,min=2,max=80"`
}

// PATCH /account
func (h *AccountHandler) Update(c *gin.Context) {
	var req updateAccountRequest
	if msg := bindAndValidate(c, &req, func() { req.Name = normalizeName(req.Name) }, errInvalidAccount); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	user, err := h.accounts.UpdateAccount(c.Request.Context(), c.GetString("userID"), usecase.UpdateAccountInput{Name: req.Name})
	if err != nil {
		h.writeError(c, "update account", err)
		return
	}
	c.JSON(http.StatusOK, toAccountResponse(user))
}

func (h *AccountHandler) writeError(c *gin.Context, op string, err error) {
	if errors.Is(err, domain.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": errAccountNotFound})
		return
	}
	serverError(c, h.logger, op, err)
}
