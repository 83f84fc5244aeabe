package ports

import (
	"context"

	"github.com/avachat/chat-widget/internal/core/domain"
)

// AuthGateway exchanges credentials for a bearer token.
type AuthGateway interface {
	SignUp(ctx context.Context, in domain.SignUpInput) (*domain.AuthResult, error)
	SignIn(ctx context.Context, in domain.SignInInput) (*domain.AuthResult, error)
}

// MessageGateway performs the authenticated message calls. A 401 answer must
// surface as an error satisfying errors.Is(err, domain.ErrUnauthorized).
type MessageGateway interface {
	ListMessages(ctx context.Context, token string) ([]domain.Message, error)
	// SendMessage returns every message the backend created for the request:
	// the user's own message and, on some backends, an immediate reply.
	SendMessage(ctx context.Context, token, content string) ([]domain.Message, error)
	// EditMessage returns the updated message, or nil when the backend
	// acknowledges the edit without echoing the entity.
	EditMessage(ctx context.Context, token string, id int64, content string) (*domain.Message, error)
	// DeleteMessage returns the tombstoned message, or nil when the backend
	// acknowledges the deletion without echoing the entity.
	DeleteMessage(ctx context.Context, token string, id int64) (*domain.Message, error)
}
