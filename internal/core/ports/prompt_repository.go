package ports

import (
	"context"
	"time"

	"github.com/modd3/ai-prompt-builder/internal/core/domain"
)

// Sort criteria accepted by the list endpoint. Ties are always broken by id
// ascending so pagination is deterministic.
const (
	SortNewest     = "newest" // created_at desc (default)
	SortOldest     = "oldest" // created_at asc
	SortTopRated   = "rating" // rating desc
	SortMostViewed = "views"  // views desc
	SortTitleAsc   = "title_asc"
	SortTitleDesc  = "title_desc"
)

// TargetModelAll is the sentinel filter value meaning "any target model".
const TargetModelAll = "All"

// ListPromptsFilter carries the fully resolved query for the repository.
// Visibility has already been decided by the service layer:
//   - IsPublic == nil means "public prompts plus ViewerID's own", which the
//     repository expresses as an $or; an empty ViewerID collapses it to
//     public-only.
//   - IsPublic == &false is only ever passed with AuthorID == ViewerID; the
//     service answers mismatched private requests with an empty page itself.
type ListPromptsFilter struct {
	TargetModel string   // empty or TargetModelAll = no filter
	Tags        []string // match prompts carrying at least one of these
	IsPublic    *bool
	AuthorID    string // empty = any author
	Search      string // case-insensitive match on title, content, or tags
	Sort        string // one of the Sort* constants
	Page        int    // 1-based
	Limit       int    // max rows per page (capped by the service)
	ViewerID    string
}

// PromptPatch lists the fields an update may touch; nil means "leave as is".
// Tags are normalized by the service before they reach the repository.
type PromptPatch struct {
	Title       *string
	Content     *string
	TargetModel *domain.TargetModel
	Tags        *[]string
	IsPublic    *bool
}

// PromptRepository defines persistence operations for prompts.
type PromptRepository interface {
	Insert(ctx context.Context, p *domain.Prompt) error
	FindByID(ctx context.Context, id string) (*domain.Prompt, error)
	// List returns a page of prompts matching filter and the total match
	// count independent of pagination.
	List(ctx context.Context, filter ListPromptsFilter) ([]*domain.Prompt, int64, error)
	// Update applies patch and stamps updated_at, returning the new document.
	Update(ctx context.Context, id string, patch PromptPatch, now time.Time) (*domain.Prompt, error)
	Delete(ctx context.Context, id string) error
	// DistinctTags returns the sorted union of tags across public prompts.
	DistinctTags(ctx context.Context) ([]string, error)
	// ApplyRating performs the compare-and-swap write of the rating state:
	// it succeeds only if the stored version still equals version and raterID
	// is not yet in rated_by. The boolean reports whether the swap applied.
	ApplyRating(ctx context.Context, id string, version int64, raterID string, newAverage float64, newCount int, now time.Time) (bool, error)
}
