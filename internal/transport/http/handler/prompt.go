package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ErlanBelekov/prompt-studio/internal/clientip"
	"github.com/ErlanBelekov/prompt-studio/internal/domain"
	"github.com/ErlanBelekov/prompt-studio/internal/usecase"
	"github.com/gin-gonic/gin"
)

type promptUsecaser interface {
	List(ctx context.Context, input usecase.ListPromptsInput) ([]*domain.Prompt, error)
	Get(ctx context.Context, id string, viewer usecase.Viewer) (*domain.Prompt, error)
	Tags(ctx context.Context) ([]domain.TagUsage, error)
}

type PromptHandler struct {
	prompts promptUsecaser
	logger  *slog.Logger
}

func NewPromptHandler(prompts promptUsecaser, logger *slog.Logger) *PromptHandler {
	return &PromptHandler{prompts: prompts, logger: logger.With("component", "prompt_handler")}
}

type tagResponse struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Slug  string  `json:"slug"`
	Color *string `json:"color,omitempty"`
}

type tagUsageResponse struct {
	tagResponse
	PromptCount int `json:"prompt_count"`
}

type imageResponse struct {
	ID    string  `json:"id"`
	URL   string  `json:"url"`
	Alt   *string `json:"alt,omitempty"`
	Order int     `json:"order"`
}

type promptResponse struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Title       string          `json:"title"`
	Description *string         `json:"description,omitempty"`
	Content     string          `json:"content"`
	Model       string          `json:"model"`
	Temperature float64         `json:"temperature"`
	Published   bool            `json:"published"`
	Featured    bool            `json:"featured"`
	Tags        []tagResponse   `json:"tags"`
	Images      []imageResponse `json:"images"`
	ViewCount   int             `json:"view_count"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type listPromptsResponse struct {
	Prompts []promptResponse `json:"prompts"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

func toTagResponse(t domain.Tag) tagResponse {
	return tagResponse{ID: t.ID, Name: t.Name, Slug: t.Slug, Color: t.Color}
}

func toPromptResponse(p *domain.Prompt) promptResponse {
	resp := promptResponse{
		ID:          p.ID,
		UserID:      p.UserID,
		Title:       p.Title,
		Description: p.Description,
		Content:     p.Content,
		Model:       p.Model,
		Temperature: p.Temperature,
		Published:   p.Published,
		Featured:    p.Featured,
		Tags:        make([]tagResponse, len(p.Tags)),
		Images:      make([]imageResponse, len(p.Images)),
		ViewCount:   p.ViewCount,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	for i, t := range p.Tags {
		resp.Tags[i] = toTagResponse(t)
	}
	for i, img := range p.Images {
		resp.Images[i] = imageResponse{ID: img.ID, URL: img.URL, Alt: img.Alt, Order: img.Order}
	}
	return resp
}

// GET /prompts?tag=<slug>&author=<id>&q=<text>&featured=<bool>&limit=<n>&offset=<n>
func (h *PromptHandler) List(c *gin.Context) {
	input := usecase.ListPromptsInput{
		AuthorID: c.Query("author"),
		Search:   strings.TrimSpace(c.Query("q")),
	}
	for _, raw := range c.QueryArray("tag") {
		for _, slug := range strings.Split(raw, ",") {
			if slug = strings.TrimSpace(slug); slug != "" {
				input.TagSlugs = append(input.TagSlugs, slug)
			}
		}
	}

	if raw := c.Query("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidQuery + ": featured"})
			return
		}
		input.Featured = &featured
	}

	var err error
	if input.Limit, err = intQuery(c, "limit"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidQuery + ": limit"})
		return
	}
	if input.Offset, err = intQuery(c, "offset"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidQuery + ": offset"})
		return
	}

	input = usecase.NormalizePage(input)
	prompts, err := h.prompts.List(c.Request.Context(), input)
	if err != nil {
		serverError(c, h.logger, "list prompts", err)
		return
	}

	resp := listPromptsResponse{
		Prompts: make([]promptResponse, len(prompts)),
		Limit:   input.Limit,
		Offset:  input.Offset,
	}
	for i, p := range prompts {
		resp.Prompts[i] = toPromptResponse(p)
	}
	c.JSON(http.StatusOK, resp)
}

// GET /prompts/:id
// Records a view for the caller.
func (h *PromptHandler) Get(c *gin.Context) {
	viewer := usecase.Viewer{
		UserID:    c.GetString("userID"),
		IPAddress: clientip.FromRequest(c.Request),
		UserAgent: c.Request.UserAgent(),
	}

	p, err := h.prompts.Get(c.Request.Context(), c.Param("id"), viewer)
	if err != nil {
		if errors.Is(err, domain.ErrPromptNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errPromptNotFound})
			return
		}
		serverError(c, h.logger, "get prompt", err)
		return
	}
	c.JSON(http.StatusOK, toPromptResponse(p))
}

// GET /tags
func (h *PromptHandler) Tags(c *gin.Context) {
	tags, err := h.prompts.Tags(c.Request.Context())
	if err != nil {
		serverError(c, h.logger, "list tags", err)
		return
	}

	resp := make([]tagUsageResponse, len(tags))
	for i, t := range tags {
		resp[i] = tagUsageResponse{tagResponse: toTagResponse(t.Tag), PromptCount: t.PromptCount}
	}
	c.JSON(http.StatusOK, gin.H{"tags": resp})
}

func intQuery(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("invalid integer")
	}
	return n, nil
}
