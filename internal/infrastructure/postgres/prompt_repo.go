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
)

const promptColumns = `p.id, p.user_id::text, p.title, p.description, p.content, p.model,
	p.temperature, p.published, p.featured, p.created_at, p.updated_at`

type PromptRepository struct {
	pool DBTX
}

func NewPromptRepository(pool DBTX) *PromptRepository {
	return &PromptRepository{pool: pool}
}

func (r *PromptRepository) List(ctx context.Context, input repository.ListPromptsInput) ([]*domain.Prompt, error) {
	var args []any
	var where []string

	if len(input.TagSlugs) > 0 {
		slugs := make([]string, len(input.TagSlugs))
		for i, s := range input.TagSlugs {
			slugs[i] = strings.ToLower(s)
		}
		args = append(args, slugs)
		where = append(where, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM prompt_tags pt JOIN tags t ON t.id = pt.tag_id
			WHERE pt.prompt_id = p.id AND lower(t.slug) = ANY($%d))`, len(args)))
	}
	if input.AuthorID != "" {
		authorID, err := uuid.Parse(input.AuthorID)
		if err != nil {
			// No user has a malformed id.
			return []*domain.Prompt{}, nil
		}
		args = append(args, authorID)
		where = append(where, fmt.Sprintf("p.user_id = $%d", len(args)))
	}
	if input.Featured != nil {
		args = append(args, *input.Featured)
		where = append(where, fmt.Sprintf("p.featured = $%d", len(args)))
	}
	if !input.IncludeUnpublished {
		where = append(where, "p.published")
	}
	if input.Search != "" {
		args = append(args, "%"+escapeLike(input.Search)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(p.title ILIKE $%d OR p.description ILIKE $%d OR p.content ILIKE $%d)", n, n, n))
	}

	query := `SELECT ` + promptColumns + ` FROM prompts p`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, input.Limit, input.Offset)
	query += fmt.Sprintf(` ORDER BY p.created_at DESC, p.id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	defer rows.Close()

	var prompts []*domain.Prompt
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, err
		}
		prompts = append(prompts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prompts: %w", err)
	}

	if err := r.attachRelations(ctx, prompts); err != nil {
		return nil, err
	}
	return prompts, nil
}

func (r *PromptRepository) GetByID(ctx context.Context, id string) (*domain.Prompt, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+promptColumns+` FROM prompts p WHERE p.id = $1`, id)
	p, err := scanPrompt(row)
	if err != nil {
		return nil, err
	}
	if err := r.attachRelations(ctx, []*domain.Prompt{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PromptRepository) RecordView(ctx context.Context, view domain.ViewLog) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO view_logs (prompt_id, user_id, ip_address, user_agent) VALUES ($1, $2::uuid, $3, $4)`,
		view.PromptID, view.UserID, view.IPAddress, view.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("record view: %w", err)
	}
	return nil
}

func (r *PromptRepository) CountViews(ctx context.Context, promptIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(promptIDs))
	if len(promptIDs) == 0 {
		return counts, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT prompt_id, COUNT(*) FROM view_logs WHERE prompt_id = ANY($1) GROUP BY prompt_id`,
		promptIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("count views: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan view count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

func (r *PromptRepository) ListTagsWithUsage(ctx context.Context) ([]domain.TagUsage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.name, t.slug, t.color, COUNT(pt.prompt_id)
		FROM tags t
		LEFT JOIN prompt_tags pt ON pt.tag_id = t.id
		GROUP BY t.id
		ORDER BY t.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []domain.TagUsage
	for rows.Next() {
		var tu domain.TagUsage
		if err := rows.Scan(&tu.ID, &tu.Name, &tu.Slug, &tu.Color, &tu.PromptCount); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tu)
	}
	return tags, rows.Err()
}

// attachRelations loads tags and images for all prompts with two queries.
func (r *PromptRepository) attachRelations(ctx context.Context, prompts []*domain.Prompt) error {
	if len(prompts) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Prompt, len(prompts))
	ids := make([]string, 0, len(prompts))
	for _, p := range prompts {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	tagRows, err := r.pool.Query(ctx, `
		SELECT pt.prompt_id, t.id, t.name, t.slug, t.color
		FROM prompt_tags pt JOIN tags t ON t.id = pt.tag_id
		WHERE pt.prompt_id = ANY($1)
		ORDER BY t.name ASC`, ids)
	if err != nil {
		return fmt.Errorf("load prompt tags: %w", err)
	}
	for tagRows.Next() {
		var promptID string
		var t domain.Tag
		if err := tagRows.Scan(&promptID, &t.ID, &t.Name, &t.Slug, &t.Color); err != nil {
			tagRows.Close()
			return fmt.Errorf("scan prompt tag: %w", err)
		}
		byID[promptID].Tags = append(byID[promptID].Tags, t)
	}
	tagRows.Close()
	if err := tagRows.Err(); err != nil {
		return fmt.Errorf("iterate prompt tags: %w", err)
	}

	imgRows, err := r.pool.Query(ctx, `
		SELECT id, prompt_id, url, alt, "order"
		FROM prompt_images
		WHERE prompt_id = ANY($1)
		ORDER BY "order" ASC`, ids)
	if err != nil {
		return fmt.Errorf("load prompt images: %w", err)
	}
	defer imgRows.Close()
	for imgRows.Next() {
		var img domain.Image
		if err := imgRows.Scan(&img.ID, &img.PromptID, &img.URL, &img.Alt, &img.Order); err != nil {
			return fmt.Errorf("scan prompt image: %w", err)
		}
		byID[img.PromptID].Images = append(byID[img.PromptID].Images, img)
	}
	return imgRows.Err()
}

func scanPrompt(row pgx.Row) (*domain.Prompt, error) {
	var p domain.Prompt
	err := row.Scan(
		&p.ID, &p.UserID, &p.Title, &p.Description, &p.Content, &p.Model,
		&p.Temperature, &p.Published, &p.Featured, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPromptNotFound
		}
		return nil, fmt.Errorf("scan prompt: %w", err)
	}
	return &p, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
