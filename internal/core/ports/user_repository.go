package ports

import (
	"context"

	"github.com/modd3/ai-prompt-builder/internal/core/domain"
)

// UserRepository defines persistence operations for user accounts and the
// denormalized prompt back-reference list.
type UserRepository interface {
	Insert(ctx context.Context, u *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// AppendPromptID adds promptID to the user's prompts list (idempotent).
	AppendPromptID(ctx context.Context, userID, promptID string) error
	// RemovePromptID removes promptID from the user's prompts list (idempotent).
	RemovePromptID(ctx context.Context, userID, promptID string) error
}
