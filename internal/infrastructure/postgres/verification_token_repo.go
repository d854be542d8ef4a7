package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ErlanBelekov/prompt-studio/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type VerificationTokenRepository struct {
	pool DBTX
}

func NewVerificationTokenRepository(pool DBTX) *VerificationTokenRepository {
	return &VerificationTokenRepository{pool: pool}
}

// Replace stores t as the only token for its identifier. The unique
// identifier column serializes concurrent issues for the same email.
func (r *VerificationTokenRepository) Replace(ctx context.Context, t domain.VerificationToken) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO verification_tokens (identifier, token_hash, expires)
		VALUES ($1, $2, $3)
		ON CONFLICT (identifier) DO UPDATE
		SET token_hash = EXCLUDED.token_hash, expires = EXCLUDED.expires`,
		t.Identifier, t.TokenHash, t.Expires,
	)
	if err != nil {
		return fmt.Errorf("upsert token: %w", err)
	}
	return nil
}

func (r *VerificationTokenRepository) FindByHash(ctx context.Context, tokenHash string) (*domain.VerificationToken, error) {
	var t domain.VerificationToken
	err := r.pool.QueryRow(ctx,
		`SELECT identifier, token_hash, expires FROM verification_tokens WHERE token_hash = $1`,
		tokenHash,
	).Scan(&t.Identifier, &t.TokenHash, &t.Expires)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("find token: %w", err)
	}
	return &t, nil
}

// DeleteByHash is idempotent: deleting a missing token is not an error.
func (r *VerificationTokenRepository) DeleteByHash(ctx context.Context, tokenHash string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM verification_tokens WHERE token_hash = $1`, tokenHash); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// ConsumeAndVerify deletes the token and marks the user verified in one
// transaction. It returns domain.ErrTokenNotFound when the token is already
// gone and domain.ErrUserNotVerifiable when the user is missing or already
// verified; in both cases nothing is changed.
func (r *VerificationTokenRepository) ConsumeAndVerify(ctx context.Context, tokenHash, userID string, verifiedAt time.Time) (err error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return domain.ErrUserNotVerifiable
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// Deleting first claims the token; a concurrent consumer sees zero rows.
	tag, err := tx.Exec(ctx, `DELETE FROM verification_tokens WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return fmt.Errorf("consume token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		err = domain.ErrTokenNotFound
		return err
	}

	tag, err = tx.Exec(ctx,
		`UPDATE users SET email_verified = $2, updated_at = NOW()
		WHERE id = $1 AND email_verified IS NULL`,
		uid, verifiedAt,
	)
	if err != nil {
		return fmt.Errorf("mark email verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		err = domain.ErrUserNotVerifiable
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *VerificationTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM verification_tokens WHERE expires < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
