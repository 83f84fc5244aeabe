package ports

import (
	"context"

	"github.com/avachat/chat-widget/internal/core/domain"
)

// Navigator receives the navigation transitions signalled by the session store.
type Navigator interface {
	Navigate(route domain.Route)
}

// SessionReader is the read-only projection of the session handed to
// consumers other than the session store itself.
type SessionReader interface {
	Snapshot() domain.SessionState
	// Subscribe registers fn to be called with every settled state. The
	// returned func removes the subscription.
	Subscribe(fn func(domain.SessionState)) (unsubscribe func())
}

// SessionGate is what the message synchronizer needs from the session: the
// read-only view plus the right to end the session on a 401.
type SessionGate interface {
	SessionReader
	Logout(ctx context.Context)
}
