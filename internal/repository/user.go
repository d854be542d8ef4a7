package repository

import (
	"context"
	"time"

	"github.com/ErlanBelekov/prompt-studio/internal/domain"
)

type CreateUserInput struct {
	Email        string
	PasswordHash string
	Name         *string
	Role         domain.Role
}

// UserPatch is a partial update: nil fields are left untouched.
type UserPatch struct {
	Name          *string
	PasswordHash  *string
	Role          *domain.Role
	EmailVerified *time.Time
}

func (p UserPatch) Empty() bool {
	return p.Name == nil && p.PasswordHash == nil && p.Role == nil && p.EmailVerified == nil
}

type UserRepository interface {
	Create(ctx context.Context, input CreateUserInput) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, id string, patch UserPatch) (*domain.User, error)
}
