package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ErlanBelekov/prompt-studio/internal/domain"
	"github.com/ErlanBelekov/prompt-studio/internal/repository"
)

const (
	defaultPromptLimit = 20
	maxPromptLimit     = 100
)

type ListPromptsInput = repository.ListPromptsInput

// Viewer identifies who is reading a prompt, for the view log.
type Viewer struct {
	UserID    string
	IPAddress string
	UserAgent string
}

type PromptUsecase struct {
	repo   repository.PromptRepository
	logger *slog.Logger
}

func NewPromptUsecase(repo repository.PromptRepository, logger *slog.Logger) *PromptUsecase {
	return &PromptUsecase{repo: repo, logger: logger.With("component", "prompts")}
}

// NormalizePage applies the default and maximum page size.
func NormalizePage(input ListPromptsInput) ListPromptsInput {
	if input.Limit <= 0 {
		input.Limit = defaultPromptLimit
	}
	input.Limit = min(input.Limit, maxPromptLimit)
	input.Offset = max(input.Offset, 0)
	return input
}

// List returns prompts newest first, each with its view count.
func (u *PromptUsecase) List(ctx context.Context, input ListPromptsInput) ([]*domain.Prompt, error) {
	input = NormalizePage(input)

	prompts, err := u.repo.List(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}

	ids := make([]string, len(prompts))
	for i, p := range prompts {
		ids[i] = p.ID
	}
	counts, err := u.ViewCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range prompts {
		p.ViewCount = counts[p.ID]
	}
	return prompts, nil
}

// Get returns one prompt and records a view of it. Failing to record the
// view does not fail the read.
func (u *PromptUsecase) Get(ctx context.Context, id string, viewer Viewer) (*domain.Prompt, error) {
	p, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get prompt: %w", err)
	}

	view := domain.ViewLog{PromptID: p.ID}
	if viewer.UserID != "" {
		view.UserID = &viewer.UserID
	}
	if viewer.IPAddress != "" {
		view.IPAddress = &viewer.IPAddress
	}
	if viewer.UserAgent != "" {
		view.UserAgent = &viewer.UserAgent
	}
	if err := u.repo.RecordView(ctx, view); err != nil {
		u.logger.WarnContext(ctx, "failed to record prompt view", "prompt_id", p.ID, "error", err)
	}

	counts, err := u.ViewCounts(ctx, []string{p.ID})
	if err != nil {
		return nil, err
	}
	p.ViewCount = counts[p.ID]
	return p, nil
}

func (u *PromptUsecase) Tags(ctx context.Context) ([]domain.TagUsage, error) {
	tags, err := u.repo.ListTagsWithUsage(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// ViewCounts maps prompt ID to number of recorded views. Prompts without
// views are absent from the map.
func (u *PromptUsecase) ViewCounts(ctx context.Context, ids []string) (map[string]int, error) {
	if len(ids) == 0 {
		return map[string]int{}, nil
	}
	counts, err := u.repo.CountViews(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count views: %w", err)
	}
	return counts, nil
}
