package domain

import (
	"errors"
	"time"
)

var ErrPromptNotFound = errors.New("prompt not found")

type Prompt struct {
	ID          string
	UserID      string
	Title       string
	Description *string
	Content     string
	Model       string
	Temperature float64
	Published   bool
	Featured    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Tags      []Tag   // ordered by name
	Images    []Image // ordered by Order
	ViewCount int
}

type Tag struct {
	ID    string
	Name  string
	Slug  string
	Color *string
}

type TagUsage struct {
	Tag
	PromptCount int
}

type Image struct {
	ID       string
	PromptID string
	URL      string
	Alt      *string
	Order    int
}

type ViewLog struct {
	PromptID  string
	UserID    *string
	IPAddress *string
	UserAgent *string
}
