package domain

// Route is a navigation target signalled by the session store.
type Route string

const (
	RouteMain Route = "main"
	RouteAuth Route = "auth"
)

// SessionState is the read-only projection of the credential handed to
// consumers. Authenticated is true if and only if Token is non-empty.
type SessionState struct {
	Token         string
	Authenticated bool
	Loading       bool
	// Generation changes on every login/logout. Responses dispatched under an
	// older generation must not be applied.
	Generation uint64
}
