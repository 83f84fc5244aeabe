// Package stubbackend is an in-process chat backend used by tests and local
// demos. It speaks the same REST contract as the production backend: bcrypt
// password hashes, HS256 bearer tokens, per-user message lists with soft
// deletes. Failures can be injected per operation.
package stubbackend

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/avachat/chat-widget/internal/core/domain"
	"github.com/avachat/chat-widget/internal/validation"
)

// Operation names used for failure injection and request counters.
const (
	OpSignUp = "signup"
	OpSignIn = "signin"
	OpList   = "list"
	OpSend   = "send"
	OpEdit   = "edit"
	OpDelete = "delete"
)

type account struct {
	id           int64
	email        string
	name         string
	passwordHash string
}

// Server is the stub backend. The zero value is not usable; call New.
type Server struct {
	echo     *echo.Echo
	tokenTTL time.Duration
	botReply bool
	ackOnly  bool
	editAck  bool
	now      func() time.Time
	log      zerolog.Logger

	mu       sync.Mutex
	secret   []byte
	accounts map[string]*account
	nextUser int64
	messages map[int64][]*domain.Message
	nextMsg  int64
	failures map[string]int
	requests map[string]int
}

// Option configures a Server.
type Option func(*Server)

// WithBotReply makes POST /api/messages answer with an array holding the
// user's message and an agent reply.
func WithBotReply() Option { return func(s *Server) { s.botReply = true } }

// WithDeleteAck makes DELETE answer {"detail": "Message deleted."} instead of
// the tombstoned message.
func WithDeleteAck() Option { return func(s *Server) { s.ackOnly = true } }

// WithEditAck makes PUT answer {"detail": "Message updated."} instead of the
// updated message.
func WithEditAck() Option { return func(s *Server) { s.editAck = true } }

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option { return func(s *Server) { s.now = now } }

// WithLogger attaches a logger to the request log.
func WithLogger(log zerolog.Logger) Option { return func(s *Server) { s.log = log } }

// New builds a Server with all routes registered.
func New(opts ...Option) *Server {
	s := &Server{
		tokenTTL: 24 * time.Hour,
		now:      func() time.Time { return time.Now().UTC() },
		log:      zerolog.Nop(),
		secret:   []byte("stub-secret-0"),
		accounts: make(map[string]*account),
		messages: make(map[int64][]*domain.Message),
		failures: make(map[string]int),
		requests: make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = newHTTPErrorHandler(s.log)

	e.Use(echomiddleware.Recover())
	e.Use(s.requestLog)

	e.POST("/api/auth/signup", s.count(OpSignUp, s.signUp))
	e.POST("/api/auth/signin", s.count(OpSignIn, s.signIn))

	e.GET("/api/messages", s.count(OpList, s.authenticate(s.listMessages)))
	e.POST("/api/messages", s.count(OpSend, s.authenticate(s.createMessage)))
	e.PUT("/api/messages/:id", s.count(OpEdit, s.authenticate(s.updateMessage)))
	e.DELETE("/api/messages/:id", s.count(OpDelete, s.authenticate(s.deleteMessage)))

	s.echo = e
	return s
}

// Handler returns the HTTP handler, for use with httptest.NewServer.
func (s *Server) Handler() http.Handler { return s.echo }

// Fail makes the next request of op answer with status.
func (s *Server) Fail(op string, status int) {
	s.mu.Lock()
	s.failures[op] = status
	s.mu.Unlock()
}

// ExpireTokens invalidates every token issued so far.
func (s *Server) ExpireTokens() {
	s.mu.Lock()
	s.secret = append([]byte(nil), s.secret...)
	s.secret[len(s.secret)-1]++
	s.mu.Unlock()
}

// Requests returns how many requests of op reached the server, including
// rejected ones.
func (s *Server) Requests(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[op]
}

// Messages returns a copy of the stored messages of the account with email.
func (s *Server) Messages(email string) []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[email]
	if !ok {
		return nil
	}
	out := make([]domain.Message, 0, len(s.messages[acc.id]))
	for _, m := range s.messages[acc.id] {
		out = append(out, *m)
	}
	return out
}

// count records the request and applies any injected failure.
func (s *Server) count(op string, next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		s.requests[op]++
		status, fail := s.failures[op]
		delete(s.failures, op)
		s.mu.Unlock()

		if fail {
			return echo.NewHTTPError(status, http.StatusText(status))
		}
		return next(c)
	}
}

func (s *Server) requestLog(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		s.log.Debug().
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Int("status", c.Response().Status).
			Dur("latency", time.Since(start)).
			Msg("stub request")
		return nil
	}
}
