package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ErlanBelekov/prompt-studio/internal/domain"
	"github.com/ErlanBelekov/prompt-studio/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const userColumns = `id::text, email, password_hash, name, role, email_verified, created_at, updated_at`

type UserRepository struct {
	pool DBTX
}

func NewUserRepository(pool DBTX) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, input repository.CreateUserInput) (*domain.User, error) {
	role := input.Role
	if role == "" {
		role = domain.RoleUser
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		input.Email, input.PasswordHash, input.Name, role,
	)

	u, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, uid)
	return scanUser(row)
}

// Update applies only the non-nil fields of patch.
func (r *UserRepository) Update(ctx context.Context, id string, patch repository.UserPatch) (*domain.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	if patch.Empty() {
		return r.FindByID(ctx, id)
	}

	args := []any{uid}
	set := []string{"updated_at = NOW()"}

	if patch.Name != nil {
		args = append(args, *patch.Name)
		set = append(set, fmt.Sprintf("name = $%d", len(args)))
	}
	if patch.PasswordHash != nil {
		args = append(args, *patch.PasswordHash)
		set = append(set, fmt.Sprintf("password_hash = $%d", len(args)))
	}
	if patch.Role != nil {
		args = append(args, *patch.Role)
		set = append(set, fmt.Sprintf("role = $%d", len(args)))
	}
	if patch.EmailVerified != nil {
		args = append(args, *patch.EmailVerified)
		set = append(set, fmt.Sprintf("email_verified = $%d", len(args)))
	}

	query := `UPDATE users SET ` + strings.Join(set, ", ") + ` WHERE id = $1 RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, query, args...))
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
