// Package app is the composition root of the chat widget: it wires storage,
// the backend client and the core services together and keeps the message
// list in step with the session.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/avachat/chat-widget/internal/core/domain"
	"github.com/avachat/chat-widget/internal/core/ports"
	"github.com/avachat/chat-widget/internal/core/service"
	"github.com/avachat/chat-widget/internal/infrastructure/backend"
	"github.com/avachat/chat-widget/internal/infrastructure/config"
)

// Gateway is everything the widget needs from the backend.
type Gateway interface {
	ports.AuthGateway
	ports.MessageGateway
}

// Option overrides a dependency.
type Option func(*options)

type options struct {
	store   ports.TokenStore
	gateway Gateway
	log     zerolog.Logger
}

// WithTokenStore replaces the store selected by the configuration.
func WithTokenStore(s ports.TokenStore) Option { return func(o *options) { o.store = s } }

// WithGateway replaces the REST client.
func WithGateway(g Gateway) Option { return func(o *options) { o.gateway = g } }

// WithLogger sets the base logger; components derive children from it.
func WithLogger(l zerolog.Logger) Option { return func(o *options) { o.log = l } }

// App holds the wired widget.
type App struct {
	Config   *config.Config
	Router   *Router
	Session  *service.SessionStore
	Messages *service.MessageSynchronizer
	Auth     *service.AuthService
	Window   *service.ChatWindow

	store ports.TokenStore
	log   zerolog.Logger
	ctx   context.Context

	mu          sync.Mutex
	loadedGen   uint64
	unsubscribe func()
}

// New wires the widget. ctx bounds the automatic reloads that follow a login.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	store := o.store
	if store == nil {
		s, err := OpenTokenStore(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("open token store: %w", err)
		}
		store = s
	}
	gateway := o.gateway
	if gateway == nil {
		gateway = backend.New(backend.Config{BaseURL: cfg.APIURL, Timeout: cfg.HTTPTimeout}, child(o.log, "backend"))
	}

	a := &App{
		Config: cfg,
		Router: NewRouter(),
		Window: service.NewChatWindow(),
		store:  store,
		log:    o.log,
		ctx:    ctx,
	}
	a.Session = service.NewSessionStore(store, gateway, a.Router, child(o.log, "session"))
	a.Messages = service.NewMessageSynchronizer(a.Session, gateway, child(o.log, "messages"))
	a.Auth = service.NewAuthService(gateway, a.Session, child(o.log, "auth"))
	a.unsubscribe = a.Session.Subscribe(a.onSession)
	return a, nil
}

func child(log zerolog.Logger, component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Bootstrap verifies the stored token. When it is accepted the message list
// is loaded before Bootstrap returns.
func (a *App) Bootstrap(ctx context.Context) bool {
	return a.Session.Verify(ctx)
}

// RequireSession bootstraps and fails with domain.ErrNotAuthenticated when no
// valid token is stored.
func (a *App) RequireSession(ctx context.Context) error {
	if !a.Bootstrap(ctx) {
		return domain.ErrNotAuthenticated
	}
	return nil
}

// onSession reloads the list once per authenticated generation, so a fresh
// login always starts from the backend's full history.
func (a *App) onSession(st domain.SessionState) {
	if !st.Authenticated || st.Loading {
		return
	}
	a.mu.Lock()
	if st.Generation == a.loadedGen {
		a.mu.Unlock()
		return
	}
	a.loadedGen = st.Generation
	a.mu.Unlock()

	if err := a.Messages.Load(a.ctx); err != nil && !errors.Is(err, domain.ErrStaleSession) {
		a.log.Warn().Err(err).Msg("reload after login failed")
	}
}

// Store returns the client storage holding the bearer token.
func (a *App) Store() ports.TokenStore { return a.store }

// Close detaches the services and releases the token store.
func (a *App) Close() error {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	a.Messages.Close()
	return a.store.Close()
}
