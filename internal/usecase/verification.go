package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/prompt-studio/internal/domain"
	"github.com/ErlanBelekov/prompt-studio/internal/metrics"
	"github.com/ErlanBelekov/prompt-studio/internal/repository"
)

const defaultVerificationTTL = 24 * time.Hour

// Outcome is the terminal state of one verification attempt.
type Outcome int

const (
	OutcomeNotFound Outcome = iota
	OutcomeExpired
	OutcomeNoUser
	OutcomeAlreadyVerified
	OutcomeVerified
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNotFound:
		return "not_found"
	case OutcomeExpired:
		return "expired"
	case OutcomeNoUser:
		return "no_user"
	case OutcomeAlreadyVerified:
		return "already_verified"
	case OutcomeVerified:
		return "verified"
	default:
		return "unknown"
	}
}

func (o Outcome) Success() bool {
	return o == OutcomeAlreadyVerified || o == OutcomeVerified
}

// Message is the user-facing text for the outcome.
func (o Outcome) Message() string {
	switch o {
	case OutcomeExpired:
		return "this verification link has expired, please request a new one"
	case OutcomeNoUser:
		return "no account is associated with this verification link"
	case OutcomeAlreadyVerified:
		return "your email is already verified, you can sign in"
	case OutcomeVerified:
		return "email verified successfully, you can sign in now"
	default:
		return "invalid or expired verification token"
	}
}

type VerificationResult struct {
	Outcome Outcome
	Success bool
	Message string
}

func resultFor(o Outcome) VerificationResult {
	return VerificationResult{Outcome: o, Success: o.Success(), Message: o.Message()}
}

type IssuedToken struct {
	Token   string
	Expires time.Time
}

type VerificationUsecase struct {
	tokens repository.VerificationTokenRepository
	users  repository.UserRepository
	logger *slog.Logger
	ttl    time.Duration
	now    func() time.Time
}

func NewVerificationUsecase(tokens repository.VerificationTokenRepository, users repository.UserRepository, logger *slog.Logger) *VerificationUsecase {
	return &VerificationUsecase{
		tokens: tokens,
		users:  users,
		logger: logger.With("component", "verification"),
		ttl:    defaultVerificationTTL,
		now:    time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (u *VerificationUsecase) WithClock(now func() time.Time) *VerificationUsecase {
	u.now = now
	return u
}

// CreateToken issues a fresh token for email, invalidating any earlier one.
func (u *VerificationUsecase) CreateToken(ctx context.Context, email string) (IssuedToken, error) {
	raw := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return IssuedToken{}, fmt.Errorf("generate token: %w", err)
	}
	token := hex.EncodeToString(raw)
	expires := u.now().Add(u.ttl)

	err := u.tokens.Replace(ctx, domain.VerificationToken{
		Identifier: email,
		TokenHash:  HashToken(token),
		Expires:    expires,
	})
	if err != nil {
		return IssuedToken{}, fmt.Errorf("store verification token: %w", err)
	}
	return IssuedToken{Token: token, Expires: expires}, nil
}

// Verify consumes token. Business outcomes are reported in the result;
// the error is only set for infrastructure failures.
func (u *VerificationUsecase) Verify(ctx context.Context, token string) (VerificationResult, error) {
	outcome, err := u.verify(ctx, token)
	if err != nil {
		return VerificationResult{}, err
	}
	metrics.VerificationOutcomesTotal.WithLabelValues(outcome.String()).Inc()
	return resultFor(outcome), nil
}

func (u *VerificationUsecase) verify(ctx context.Context, token string) (Outcome, error) {
	hash := HashToken(token)

	vt, err := u.tokens.FindByHash(ctx, hash)
	if errors.Is(err, domain.ErrTokenNotFound) {
		return OutcomeNotFound, nil
	}
	if err != nil {
		return 0, fmt.Errorf("find verification token: %w", err)
	}

	if vt.Expired(u.now()) {
		return OutcomeExpired, u.discard(ctx, hash)
	}

	user, err := u.users.FindByEmail(ctx, vt.Identifier)
	if errors.Is(err, domain.ErrUserNotFound) {
		return OutcomeNoUser, u.discard(ctx, hash)
	}
	if err != nil {
		return 0, fmt.Errorf("find user: %w", err)
	}

	if user.IsVerified() {
		return OutcomeAlreadyVerified, u.discard(ctx, hash)
	}

	err = u.tokens.ConsumeAndVerify(ctx, hash, user.ID, u.now())
	if errors.Is(err, domain.ErrTokenNotFound) {
		// Consumed by a concurrent request between lookup and delete.
		return OutcomeNotFound, nil
	}
	if errors.Is(err, domain.ErrUserNotVerifiable) {
		return u.settleChangedUser(ctx, vt.Identifier, hash)
	}
	if err != nil {
		return 0, fmt.Errorf("consume verification token: %w", err)
	}

	u.logger.InfoContext(ctx, "email verified", "user_id", user.ID)
	return OutcomeVerified, nil
}

// settleChangedUser handles a user deleted or verified between the lookup and
// the consume transaction, which left the token in place.
func (u *VerificationUsecase) settleChangedUser(ctx context.Context, email, hash string) (Outcome, error) {
	user, err := u.users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return OutcomeNoUser, u.discard(ctx, hash)
	case err != nil:
		return 0, fmt.Errorf("find user: %w", err)
	case user.IsVerified():
		return OutcomeAlreadyVerified, u.discard(ctx, hash)
	default:
		return 0, fmt.Errorf("consume verification token: %w", domain.ErrUserNotVerifiable)
	}
}

func (u *VerificationUsecase) discard(ctx context.Context, hash string) error {
	if err := u.tokens.DeleteByHash(ctx, hash); err != nil {
		return fmt.Errorf("delete verification token: %w", err)
	}
	return nil
}

// HashToken returns the hex SHA-256 digest under which a token is stored.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
