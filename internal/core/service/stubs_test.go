package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/avachat/chat-widget/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Stubs shared by the service tests
// ---------------------------------------------------------------------------

var errBoom = errors.New("boom")

func unauthorized(op string) error {
	return &domain.BackendError{Op: op, Status: http.StatusUnauthorized, Detail: "Could not validate credentials"}
}

type stubTokenStore struct {
	mu      sync.Mutex
	token   string
	saveErr error
	loadErr error
	cleared int
}

func (s *stubTokenStore) Load(context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return "", false, s.loadErr
	}
	return s.token, s.token != "", nil
}

func (s *stubTokenStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.token = token
	return nil
}

func (s *stubTokenStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.cleared++
	return nil
}

func (s *stubTokenStore) Close() error { return nil }

func (s *stubTokenStore) stored() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

type stubNavigator struct {
	mu     sync.Mutex
	routes []domain.Route
}

func (n *stubNavigator) Navigate(r domain.Route) {
	n.mu.Lock()
	n.routes = append(n.routes, r)
	n.mu.Unlock()
}

func (n *stubNavigator) last() domain.Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.routes) == 0 {
		return ""
	}
	return n.routes[len(n.routes)-1]
}

type stubGateway struct {
	mu       sync.Mutex
	calls    map[string]int
	tokens   []string
	listFn   func(token string) ([]domain.Message, error)
	sendFn   func(token, content string) ([]domain.Message, error)
	editFn   func(token string, id int64, content string) (*domain.Message, error)
	deleteFn func(token string, id int64) (*domain.Message, error)
	signUpFn func(in domain.SignUpInput) (*domain.AuthResult, error)
	signInFn func(in domain.SignInInput) (*domain.AuthResult, error)
}

func newStubGateway() *stubGateway {
	return &stubGateway{calls: make(map[string]int)}
}

func (g *stubGateway) record(op, token string) {
	g.mu.Lock()
	g.calls[op]++
	g.tokens = append(g.tokens, token)
	g.mu.Unlock()
}

func (g *stubGateway) count(op string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[op]
}

func (g *stubGateway) total() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		n += c
	}
	return n
}

func (g *stubGateway) ListMessages(_ context.Context, token string) ([]domain.Message, error) {
	g.record("list", token)
	if g.listFn == nil {
		return []domain.Message{}, nil
	}
	return g.listFn(token)
}

func (g *stubGateway) SendMessage(_ context.Context, token, content string) ([]domain.Message, error) {
	g.record("send", token)
	return g.sendFn(token, content)
}

func (g *stubGateway) EditMessage(_ context.Context, token string, id int64, content string) (*domain.Message, error) {
	g.record("edit", token)
	return g.editFn(token, id, content)
}

func (g *stubGateway) DeleteMessage(_ context.Context, token string, id int64) (*domain.Message, error) {
	g.record("delete", token)
	return g.deleteFn(token, id)
}

func (g *stubGateway) SignUp(_ context.Context, in domain.SignUpInput) (*domain.AuthResult, error) {
	g.record("signup", "")
	return g.signUpFn(in)
}

func (g *stubGateway) SignIn(_ context.Context, in domain.SignInInput) (*domain.AuthResult, error) {
	g.record("signin", "")
	return g.signInFn(in)
}

var fixedTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func msg(id int64, content string, sender domain.Sender) domain.Message {
	return domain.Message{ID: id, Content: content, Sender: sender, Timestamp: fixedTime, UserID: 1}
}
