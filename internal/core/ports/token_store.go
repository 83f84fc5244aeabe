package ports

import "context"

// TokenStore is the durable client-side storage holding the bearer token
// under a single key.
type TokenStore interface {
	// Load returns the stored token. ok is false when nothing is stored.
	Load(ctx context.Context) (token string, ok bool, err error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
	Close() error
}
