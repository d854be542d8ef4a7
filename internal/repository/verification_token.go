package repository

import (
	"context"
	"time"

	"github.com/ErlanBelekov/prompt-studio/internal/domain"
)

type VerificationTokenRepository interface {
	// Replace makes t the only token for t.Identifier, atomically.
	Replace(ctx context.Context, t domain.VerificationToken) error
	// FindByHash returns domain.ErrTokenNotFound when no row matches.
	FindByHash(ctx context.Context, tokenHash string) (*domain.VerificationToken, error)
	DeleteByHash(ctx context.Context, tokenHash string) error
	// ConsumeAndVerify deletes the token and marks the user verified in one
	// transaction. Returns domain.ErrTokenNotFound if the token was already
	// gone, or domain.ErrUserNotVerifiable if the user is missing or already
	// verified. Nothing is committed in either case.
	ConsumeAndVerify(ctx context.Context, tokenHash, userID string, verifiedAt time.Time) error
	DeleteExpired(ctx context.Context, before time.Time) (int, error)
}
