package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ErlanBelekov/prompt-studio/internal/domain"
	"github.com/ErlanBelekov/prompt-studio/internal/email"
	"github.com/ErlanBelekov/prompt-studio/internal/metrics"
	"github.com/ErlanBelekov/prompt-studio/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

const passwordCost = 12

// TokenIssuer is satisfied by *VerificationUsecase.
type TokenIssuer interface {
	CreateToken(ctx context.Context, email string) (IssuedToken, error)
}

type SignupInput struct {
	Email    string
	Password string
	Name     *string
}

type SignupResult struct {
	User *domain.User
	IssuedToken
	// Created is false when an unverified account was found and a fresh token re-issued.
	Created bool
}

type LoginStatus int

const (
	LoginOK LoginStatus = iota
	LoginInvalidCredentials
	LoginEmailUnverified
)

func (s LoginStatus) String() string {
	switch s {
	case LoginOK:
		return "ok"
	case LoginInvalidCredentials:
		return "invalid_credentials"
	case LoginEmailUnverified:
		return "email_unverified"
	default:
		return "unknown"
	}
}

type LoginResult struct {
	Status LoginStatus
	User   *domain.User // set only for LoginOK
}

type AuthUsecase struct {
	users      repository.UserRepository
	tokens     TokenIssuer
	email      email.Sender
	appBaseURL string
	logger     *slog.Logger
	cost       int
	dummyHash  []byte
}

func NewAuthUsecase(users repository.UserRepository, tokens TokenIssuer, emailSender email.Sender, appBaseURL string, logger *slog.Logger) *AuthUsecase {
	return newAuthUsecase(users, tokens, emailSender, appBaseURL, logger, passwordCost)
}

func newAuthUsecase(users repository.UserRepository, tokens TokenIssuer, emailSender email.Sender, appBaseURL string, logger *slog.Logger, cost int) *AuthUsecase {
	// Compared against when the email is unknown so both paths cost one bcrypt run.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("prompt-studio-dummy-password"), cost)
	return &AuthUsecase{
		users:      users,
		tokens:     tokens,
		email:      emailSender,
		appBaseURL: appBaseURL,
		logger:     logger.With("component", "auth"),
		cost:       cost,
		dummyHash:  dummy,
	}
}

// Signup creates an account and issues a verification token. An existing
// unverified account gets a fresh token instead; a verified one yields
// domain.ErrEmailTaken.
func (u *AuthUsecase) Signup(ctx context.Context, input SignupInput) (SignupResult, error) {
	existing, err := u.users.FindByEmail(ctx, input.Email)
	switch {
	case err == nil:
		if existing.IsVerified() {
			metrics.SignupsTotal.WithLabelValues("conflict").Inc()
			return SignupResult{}, domain.ErrEmailTaken
		}
		issued, err := u.issue(ctx, existing.Email)
		if err != nil {
			return SignupResult{}, err
		}
		metrics.SignupsTotal.WithLabelValues("reissued").Inc()
		return SignupResult{User: existing, IssuedToken: issued}, nil
	case !errors.Is(err, domain.ErrUserNotFound):
		return SignupResult{}, fmt.Errorf("find user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), u.cost)
	if err != nil {
		return SignupResult{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := u.users.Create(ctx, repository.CreateUserInput{
		Email:        input.Email,
		PasswordHash: string(hash),
		Name:         input.Name,
		Role:         domain.RoleUser,
	})
	if errors.Is(err, domain.ErrEmailTaken) {
		metrics.SignupsTotal.WithLabelValues("conflict").Inc()
		return SignupResult{}, err
	}
	if err != nil {
		return SignupResult{}, fmt.Errorf("create user: %w", err)
	}

	issued, err := u.issue(ctx, user.Email)
	if err != nil {
		return SignupResult{}, err
	}

	u.logger.InfoContext(ctx, "user signed up", "user_id", user.ID)
	metrics.SignupsTotal.WithLabelValues("created").Inc()
	return SignupResult{User: user, IssuedToken: issued, Created: true}, nil
}

func (u *AuthUsecase) issue(ctx context.Context, addr string) (IssuedToken, error) {
	issued, err := u.tokens.CreateToken(ctx, addr)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("create verification token: %w", err)
	}

	subject, body := email.VerificationMessage(email.VerificationLink(u.appBaseURL, issued.Token), issued.Expires)
	if err := u.email.Send(ctx, addr, subject, body); err != nil {
		u.logger.ErrorContext(ctx, "failed to send verification email", "error", err)
	}
	return issued, nil
}

// Login checks credentials. Unknown email, missing password and wrong
// password all report LoginInvalidCredentials.
func (u *AuthUsecase) Login(ctx context.Context, addr, password string) (LoginResult, error) {
	res, err := u.login(ctx, addr, password)
	if err != nil {
		return LoginResult{}, err
	}
	metrics.LoginsTotal.WithLabelValues(res.Status.String()).Inc()
	return res, nil
}

func (u *AuthUsecase) login(ctx context.Context, addr, password string) (LoginResult, error) {
	user, err := u.users.FindByEmail(ctx, addr)
	if errors.Is(err, domain.ErrUserNotFound) {
		_ = bcrypt.CompareHashAndPassword(u.dummyHash, []byte(password))
		return LoginResult{Status: LoginInvalidCredentials}, nil
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("find user: %w", err)
	}

	if user.PasswordHash == nil {
		_ = bcrypt.CompareHashAndPassword(u.dummyHash, []byte(password))
		return LoginResult{Status: LoginInvalidCredentials}, nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return LoginResult{Status: LoginInvalidCredentials}, nil
	}

	if !user.IsVerified() {
		return LoginResult{Status: LoginEmailUnverified}, nil
	}
	return LoginResult{Status: LoginOK, User: user}, nil
}

func (u *AuthUsecase) GetAccount(ctx context.Context, userID string) (*domain.User, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

type UpdateAccountInput struct {
	Name *string
}

func (u *AuthUsecase) UpdateAccount(ctx context.Context, userID string, input UpdateAccountInput) (*domain.User, error) {
	patch := repository.UserPatch{Name: input.Name}
	if patch.Empty() {
		return u.GetAccount(ctx, userID)
	}
	user, err := u.users.Update(ctx, userID, patch)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}
