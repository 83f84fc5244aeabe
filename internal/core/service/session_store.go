package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/avachat/chat-widget/internal/core/domain"
	"github.com/avachat/chat-widget/internal/core/ports"
	"github.com/avachat/chat-widget/internal/infrastructure/metrics"
)

// SessionStore is the single writer of the bearer credential. Other
// components observe it through ports.SessionReader.
type SessionStore struct {
	store    ports.TokenStore
	verifier ports.MessageGateway
	nav      ports.Navigator
	log      zerolog.Logger

	mu      sync.Mutex
	state   domain.SessionState
	nextSub int
	subs    map[int]func(domain.SessionState)
}

// NewSessionStore returns an unauthenticated store. verifier is used only by
// Verify to probe a protected endpoint with the stored token.
func NewSessionStore(store ports.TokenStore, verifier ports.MessageGateway, nav ports.Navigator, log zerolog.Logger) *SessionStore {
	return &SessionStore{
		store:    store,
		verifier: verifier,
		nav:      nav,
		log:      log,
		subs:     make(map[int]func(domain.SessionState)),
	}
}

// Snapshot returns the current state.
func (s *SessionStore) Snapshot() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn for every settled state change.
func (s *SessionStore) Subscribe(fn func(domain.SessionState)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Login adopts a token the caller has already obtained from the backend.
func (s *SessionStore) Login(ctx context.Context, token string) error {
	if token == "" {
		return domain.ErrInvalidCredentials
	}
	if err := s.store.Save(ctx, token); err != nil {
		s.log.Error().Err(err).Msg("failed to persist token")
		return err
	}

	s.mu.Lock()
	s.state = domain.SessionState{
		Token:         token,
		Authenticated: true,
		Generation:    s.state.Generation + 1,
	}
	st := s.state
	s.mu.Unlock()

	metrics.SessionTransitionsTotal.WithLabelValues("login").Inc()
	s.log.Info().Uint64("generation", st.Generation).Msg("session started")
	s.settle(st, domain.RouteMain)
	return nil
}

// Logout ends the session. It is safe to call on an unauthenticated store.
func (s *SessionStore) Logout(ctx context.Context) {
	if err := s.store.Clear(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to clear stored token")
	}

	s.mu.Lock()
	s.state = domain.SessionState{Generation: s.state.Generation + 1}
	st := s.state
	s.mu.Unlock()

	metrics.SessionTransitionsTotal.WithLabelValues("logout").Inc()
	s.log.Info().Uint64("generation", st.Generation).Msg("session ended")
	s.settle(st, domain.RouteAuth)
}

// Verify checks the stored token against a protected endpoint and adopts it on
// success. Every failure leaves the store idle and unauthenticated; nothing is
// returned beyond the resulting authenticated flag.
func (s *SessionStore) Verify(ctx context.Context) bool {
	s.mu.Lock()
	s.state.Loading = true
	startGen := s.state.Generation
	st := s.state
	s.mu.Unlock()
	s.notify(st)

	token, ok, err := s.store.Load(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to read stored token")
	}
	if err != nil || !ok || token == "" {
		metrics.SessionTransitionsTotal.WithLabelValues("verify_empty").Inc()
		return s.finishVerify(ctx, startGen, "", false)
	}

	if _, err := s.verifier.ListMessages(ctx, token); err != nil {
		metrics.SessionTransitionsTotal.WithLabelValues("verify_failed").Inc()
		s.log.Info().Err(err).Msg("stored token rejected")
		if s.Snapshot().Generation == startGen {
			if clearErr := s.store.Clear(ctx); clearErr != nil {
				s.log.Warn().Err(clearErr).Msg("failed to clear stored token")
			}
		}
		return s.finishVerify(ctx, startGen, "", false)
	}

	metrics.SessionTransitionsTotal.WithLabelValues("verify_ok").Inc()
	return s.finishVerify(ctx, startGen, token, true)
}

func (s *SessionStore) finishVerify(_ context.Context, startGen uint64, token string, ok bool) bool {
	s.mu.Lock()
	if s.state.Generation != startGen {
		// A login or logout won the race; its state stands.
		s.state.Loading = false
		st := s.state
		s.mu.Unlock()
		s.notify(st)
		return st.Authenticated
	}
	if ok {
		s.state = domain.SessionState{Token: token, Authenticated: true, Generation: startGen + 1}
	} else {
		gen := s.state.Generation
		if s.state.Authenticated {
			// Dropping a live credential is a session change like Logout.
			gen++
		}
		s.state = domain.SessionState{Generation: gen}
	}
	st := s.state
	s.mu.Unlock()

	route := domain.RouteAuth
	if ok {
		route = domain.RouteMain
	}
	s.settle(st, route)
	return ok
}

func (s *SessionStore) settle(st domain.SessionState, route domain.Route) {
	s.notify(st)
	if s.nav != nil {
		s.nav.Navigate(route)
	}
}

func (s *SessionStore) notify(st domain.SessionState) {
	s.mu.Lock()
	fns := make([]func(domain.SessionState), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}
