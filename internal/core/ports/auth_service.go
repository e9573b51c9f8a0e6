package ports

import (
	"context"

	"github.com/modd3/ai-prompt-builder/internal/core/domain"
)

// AuthService is the identity-provider collaborator: it turns credentials
// into a verified user identity. The catalog core trusts the user ids it
// produces and never parses credentials itself.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*domain.User, string, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
}
