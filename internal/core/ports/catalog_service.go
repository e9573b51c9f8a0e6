package ports

import (
	"context"

	"github.com/modd3/ai-prompt-builder/internal/core/domain"
)

// CreatePromptInput carries all data needed to create a new prompt. Tags may
// arrive as separate entries or comma-joined strings; the service normalizes
// them either way.
type CreatePromptInput struct {
	AuthorID    string
	Title       string
	Content     string
	TargetModel string
	Tags        []string
	IsPublic    bool
}

// UpdatePromptInput is a partial update: nil fields are left untouched.
type UpdatePromptInput struct {
	Title       *string
	Content     *string
	TargetModel *string
	Tags        *[]string
	IsPublic    *bool
}

// ListPromptsInput carries all parameters for the list endpoint as received
// from the transport layer. ViewerID is empty for anonymous callers.
type ListPromptsInput struct {
	TargetModel string
	Tags        []string
	IsPublic    *bool
	AuthorID    string
	Search      string
	Sort        string
	Page        int
	Limit       int
	ViewerID    string
}

// ListPromptsResult is a single page plus the pagination envelope.
type ListPromptsResult struct {
	Items      []*domain.Prompt
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// CatalogService defines the use-case operations over the prompt catalog.
type CatalogService interface {
	ListPrompts(ctx context.Context, input ListPromptsInput) (*ListPromptsResult, error)
	CreatePrompt(ctx context.Context, input CreatePromptInput) (*domain.Prompt, error)
	GetPrompt(ctx context.Context, id, viewerID string) (*domain.Prompt, error)
	UpdatePrompt(ctx context.Context, id, actorID string, patch UpdatePromptInput) (*domain.Prompt, error)
	DeletePrompt(ctx context.Context, id, actorID string) error
	ListTags(ctx context.Context) ([]string, error)
}

// RatingResult reports the aggregate after a successful rating.
type RatingResult struct {
	Rating       float64
	RatingsCount int
}

// RatingService applies a single rating from a user to a prompt.
type RatingService interface {
	RatePrompt(ctx context.Context, promptID, raterID string, value int) (*RatingResult, error)
}
