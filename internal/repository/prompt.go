package repository

import (
	"context"

	"github.com/ErlanBelekov/prompt-studio/internal/domain"
)

type ListPromptsInput struct {
	TagSlugs           []string // any match, case-insensitive
	AuthorID           string
	Search             string
	Featured           *bool // nil = both
	IncludeUnpublished bool
	Limit              int
	Offset             int
}

type PromptRepository interface {
	// List and GetByID return prompts with Tags and Images populated; ViewCount is left zero.
	List(ctx context.Context, input ListPromptsInput) ([]*domain.Prompt, error)
	GetByID(ctx context.Context, id string) (*domain.Prompt, error)
	RecordView(ctx context.Context, view domain.ViewLog) error
	CountViews(ctx context.Context, promptIDs []string) (map[string]int, error)
	ListTagsWithUsage(ctx context.Context) ([]domain.TagUsage, error)
}
