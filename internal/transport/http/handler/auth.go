package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ErlanBelekov/prompt-studio/internal/clientip"
	"github.com/ErlanBelekov/prompt-studio/internal/domain"
	"github.com/ErlanBelekov/prompt-studio/internal/ratelimit"
	"github.com/ErlanBelekov/prompt-studio/internal/usecase"
	"github.com/gin-gonic/gin"
)

// authUsecaser is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type authUsecaser interface {
	Signup(ctx context.Context, input usecase.SignupInput) (usecase.SignupResult, error)
	Login(ctx context.Context, email, password string) (usecase.LoginResult, error)
}

type verifier interface {
	Verify(ctx context.Context, token string) (usecase.VerificationResult, error)
}

type sessionIssuer interface {
	Issue(user *domain.User) (string, time.Time, error)
}

type AuthHandler struct {
	auth         authUsecaser
	verification verifier
	sessions     sessionIssuer
	limiter      rateLimiter
	exposeTokens bool
	logger       *slog.Logger
}

func NewAuthHandler(auth authUsecaser, verification verifier, sessions sessionIssuer, limiter rateLimiter, exposeTokens bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:         auth,
		verification: verification,
		sessions:     sessions,
		limiter:      limiter,
		exposeTokens: exposeTokens,
		logger:       logger.With("component", "auth_handler"),
	}
}

type signupRequest struct {
	Email    string  `json:"email"    binding:"required,email,min=5,max=255"`
	Password string  `json:"password" binding:"required,min=8,max=72"`
	Name     *string `json:"name"     binding:"omitempty,min=2,max=80"`
}

type signupResponse struct {
	Message string    `json:"message"`
	Token   string    `json:"token,omitempty"`
	Expires time.Time `json:"expires"`
}

// POST /auth/signup
// 201 for a new account, 200 when a pending account gets a fresh token.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	msg := bindAndValidate(c, &req, func() {
		req.Email = normalizeEmail(req.Email)
		req.Name = normalizeName(req.Name)
	}, errInvalidSignup)
	if msg == "" && len(req.Password) > maxPasswordBytes {
		msg = fieldMessages["Password.max"]
	}
	if msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	key := "signup:" + clientip.Or(clientip.FromRequest(c.Request), req.Email) + ":" + req.Email
	if !allow(c, h.limiter, h.logger, ratelimit.SignupRule, key, errSignupRateLimited) {
		return
	}

	res, err := h.auth.Signup(c.Request.Context(), usecase.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": errEmailTaken})
			return
		}
		serverError(c, h.logger, "signup", err)
		return
	}

	status, body := http.StatusCreated, signupResponse{Message: msgAccountCreated, Expires: res.Expires}
	if !res.Created {
		status, body.Message = http.StatusOK, msgTokenReissued
	}
	if h.exposeTokens {
		body.Token = res.Token
	}
	c.JSON(status, body)
}

type verifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

type verifyEmailResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// POST /auth/verify-email
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req verifyEmailRequest
	if msg := bindAndValidate(c, &req, nil, errTokenRequired); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	key := "verify:" + clientip.Or(clientip.FromRequest(c.Request), "unknown")
	if !allow(c, h.limiter, h.logger, ratelimit.VerifyRule, key, errVerifyRateLimited) {
		return
	}

	res, err := h.verification.Verify(c.Request.Context(), req.Token)
	if err != nil {
		serverError(c, h.logger, "verify email", err)
		return
	}

	status := http.StatusOK
	if !res.Success {
		status = http.StatusBadRequest
	}
	c.JSON(status, verifyEmailResponse{Success: res.Success, Message: res.Message})
}

type loginRequest struct {
	Email    string `json:"email"    binding:"required,email,min=5,max=255"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// POST /auth/login
// Returns a session token for verified accounts with matching credentials.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	msg := bindAndValidate(c, &req, func() { req.Email = normalizeEmail(req.Email) }, errInvalidLogin)
	if msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	key := "login:" + clientip.Or(clientip.FromRequest(c.Request), req.Email)
	if !allow(c, h.limiter, h.logger, ratelimit.LoginRule, key, errLoginRateLimited) {
		return
	}

	res, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		serverError(c, h.logger, "login", err)
		return
	}

	switch res.Status {
	case usecase.LoginInvalidCredentials:
		c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidCredentials})
		return
	case usecase.LoginEmailUnverified:
		c.JSON(http.StatusForbidden, gin.H{"error": errEmailUnverified})
		return
	}

	token, expires, err := h.sessions.Issue(res.User)
	if err != nil {
		serverError(c, h.logger, "issue session", err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{Token: token, ExpiresAt: expires})
}
