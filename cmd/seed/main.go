// seed inserts demo users, tags, prompts and view logs into the local dev database.
// Safe to re-run. Run: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ErlanBelekov/prompt-studio/internal/domain"
	"github.com/ErlanBelekov/prompt-studio/internal/infrastructure/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type userSpec struct {
	email    string
	password string
	name     string
	role     domain.Role
}

var users = []userSpec{
	{"admin@promptstudio.dev", "AdminPass123!", "Admin User", domain.RoleAdmin},
	{"demo@promptstudio.dev", "DemoPass123!", "Demo User", domain.RoleUser},
}

type tagSpec struct {
	name, slug, color string
}

var tags = []tagSpec{
	{"Creative Writing", "creative-writing", "#EC4899"},
	{"Code Generation", "code-generation", "#8B5CF6"},
	{"Data Analysis", "data-analysis", "#10B981"},
	{"Marketing", "marketing", "#F59E0B"},
	{"Education", "education", "#3B82F6"},
	{"Productivity", "productivity", "#06B6D4"},
	{"Social Media", "social-media", "#F472B6"},
	{"SEO", "seo", "#6366F1"},
}

type imageSpec struct {
	url, alt string
}

type promptSpec struct {
	id          string
	author      string
	title       string
	description string
	content     string
	temperature float64
	featured    bool
	tags        []string
	images      []imageSpec
	views       int
}

var prompts = []promptSpec{
	{
		id:          "seed-prompt-1",
		author:      "admin@promptstudio.dev",
		title:       "Story Starter Generator",
		description: "Generate creative and engaging opening lines for short stories based on a genre and theme.",
		content: "You are a creative writing assistant specializing in crafting compelling story openings. " +
			"Generate 3 unique opening lines for a {{genre}} story with the theme of {{theme}}. " +
			"Each opening should hook the reader and establish a distinct tone.",
		temperature: 0.9,
		featured:    true,
		tags:        []string{"creative-writing"},
		images:      []imageSpec{{"https://images.unsplash.com/photo-1455390582262-044cdead277a", "Typewriter with paper"}},
		views:       3,
	},
	{
		id:          "seed-prompt-2",
		author:      "admin@promptstudio.dev",
		title:       "React Component Generator",
		description: "Generate production-ready React components with TypeScript, proper typing, and best practices.",
		content: "Create a React TypeScript component named {{componentName}} that {{description}}. Include:\n" +
			"1. Proper TypeScript types/interfaces\n2. Props validation\n3. Clear JSDoc comments\n" +
			"4. Responsive design with Tailwind CSS\n5. Accessibility attributes\n6. Error handling where appropriate",
		temperature: 0.3,
		featured:    true,
		tags:        []string{"code-generation", "productivity"},
		views:       2,
	},
	{
		id:          "seed-prompt-3",
		author:      "demo@promptstudio.dev",
		title:       "Data Insights Analyzer",
		description: "Analyze datasets and extract meaningful insights with visualizations recommendations.",
		content: "Analyze the following dataset: {{dataset}}. Provide:\n" +
			"1. Key statistical insights (mean, median, outliers)\n2. Notable trends and patterns\n" +
			"3. Correlations between variables\n4. Recommendations for visualizations\n5. Actionable business insights\n\n" +
			"Format your response with clear sections and bullet points.",
		temperature: 0.5,
		tags:        []string{"data-analysis", "productivity"},
		views:       1,
	},
	{
		id:          "seed-prompt-4",
		author:      "demo@promptstudio.dev",
		title:       "Email Campaign Optimizer",
		description: "Craft compelling marketing emails with high engagement potential.",
		content: "Create an email campaign for {{product}} targeting {{audience}}. Include:\n" +
			"1. Subject line (A/B test options)\n2. Preview text\n3. Email body with clear CTA\n" +
			"4. Personalization tokens\n5. Mobile-optimized formatting suggestions\n\nTone: {{tone}}",
		temperature: 0.7,
		tags:        []string{"marketing"},
		images:      []imageSpec{{"https://images.unsplash.com/photo-1563986768609-322da13575f3", "Email on laptop screen"}},
	},
}

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set, run: direnv allow")
	}

	if err := postgres.Migrate(dbURL); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	if err := seed(ctx, pool); err != nil {
		pool.Close()
		log.Fatalf("seed: %v", err)
	}

	fmt.Println("Seed complete")
	fmt.Println()
	for _, u := range users {
		fmt.Printf("  %-6s %s / %s\n", u.role, u.email, u.password)
	}
	fmt.Printf("  Tags:    %d\n", len(tags))
	fmt.Printf("  Prompts: %d\n", len(prompts))
	fmt.Println()
	fmt.Println("How to test:")
	fmt.Println()
	fmt.Println("  Step 1: sign in as the demo user:")
	fmt.Println()
	fmt.Printf("    curl -s -X POST http://localhost:8080/auth/login \\\n")
	fmt.Printf("      -H 'Content-Type: application/json' \\\n")
	fmt.Printf("      -d '{\"email\":\"%s\",\"password\":\"%s\"}'\n", users[1].email, users[1].password)
	fmt.Println("    # → {\"token\":\"eyJ...\",\"expires_at\":\"...\"}")
	fmt.Println()
	fmt.Println("  Step 2: browse prompts:")
	fmt.Println()
	fmt.Println("    export JWT=eyJ...")
	fmt.Println("    curl -s 'http://localhost:8080/prompts?tag=productivity' -H \"Authorization: Bearer $JWT\"")
	fmt.Println("    curl -s http://localhost:8080/prompts/seed-prompt-1 -H \"Authorization: Bearer $JWT\"")
	fmt.Println()
	fmt.Println("  Step 3: try the verification flow with a new account:")
	fmt.Println()
	fmt.Printf("    curl -s -X POST http://localhost:8080/auth/signup \\\n")
	fmt.Printf("      -H 'Content-Type: application/json' \\\n")
	fmt.Printf("      -d '{\"email\":\"you@example.com\",\"password\":\"password123\"}'\n")
	fmt.Println("    # ENV=local returns the token; then:")
	fmt.Println("    curl -s -X POST http://localhost:8080/auth/verify-email -d '{\"token\":\"TOKEN\"}'")
}

func seed(ctx context.Context, pool *pgxpool.Pool) (err error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	userIDs := make(map[string]string, len(users))
	for _, u := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), 12)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		var id string
		err = tx.QueryRow(ctx, `
			INSERT INTO users (email, name, role, password_hash, email_verified)
			VALUES ($1, $2, $3, $4, NOW())
			ON CONFLICT (email) DO UPDATE
			SET password_hash = EXCLUDED.password_hash,
			    email_verified = COALESCE(users.email_verified, NOW()),
			    updated_at = NOW()
			RETURNING id::text`,
			u.email, u.name, u.role, string(hash),
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("upsert user %s: %w", u.email, err)
		}
		userIDs[u.email] = id
	}

	tagIDs := make(map[string]string, len(tags))
	for _, t := range tags {
		var id string
		err := tx.QueryRow(ctx, `
			INSERT INTO tags (name, slug, color) VALUES ($1, $2, $3)
			ON CONFLICT (slug) DO UPDATE SET slug = EXCLUDED.slug
			RETURNING id`,
			t.name, t.slug, t.color,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("upsert tag %s: %w", t.slug, err)
		}
		tagIDs[t.slug] = id
	}

	// Stagger creation times so the newest-first listing is stable.
	base := time.Now().Add(-time.Hour)
	for i, p := range prompts {
		if err := seedPrompt(ctx, tx, p, userIDs[p.author], tagIDs, base.Add(time.Duration(i)*time.Minute)); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func seedPrompt(ctx context.Context, tx pgx.Tx, p promptSpec, userID string, tagIDs map[string]string, createdAt time.Time) error {
	// Existing prompts are left untouched.
	tag, err := tx.Exec(ctx, `
		INSERT INTO prompts (id, user_id, title, description, content, model, temperature, published, featured, created_at)
		VALUES ($1, $2::uuid, $3, $4, $5, 'gpt-4', $6, TRUE, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		p.id, userID, p.title, p.description, p.content, p.temperature, p.featured, createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert prompt %s: %w", p.id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil
	}

	for _, slug := range p.tags {
		if _, err := tx.Exec(ctx,
			`INSERT INTO prompt_tags (prompt_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			p.id, tagIDs[slug],
		); err != nil {
			return fmt.Errorf("tag prompt %s: %w", p.id, err)
		}
	}

	for i, img := range p.images {
		if _, err := tx.Exec(ctx,
			`INSERT INTO prompt_images (prompt_id, url, alt, "order") VALUES ($1, $2, $3, $4)`,
			p.id, img.url, img.alt, i,
		); err != nil {
			return fmt.Errorf("add image to prompt %s: %w", p.id, err)
		}
	}

	for range p.views {
		if _, err := tx.Exec(ctx, `INSERT INTO view_logs (prompt_id) VALUES ($1)`, p.id); err != nil {
			return fmt.Errorf("log view for prompt %s: %w", p.id, err)
		}
	}
	return nil
}
