package app

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avachat/chat-widget/internal/core/domain"
	"github.com/avachat/chat-widget/internal/infrastructure/config"
	"github.com/avachat/chat-widget/internal/infrastructure/db/memory"
	"github.com/avachat/chat-widget/internal/testing/stubbackend"
)

type harness struct {
	stub  *stubbackend.Server
	cfg   *config.Config
	store *memory.TokenStore
}

func newHarness(t *testing.T, opts ...stubbackend.Option) *harness {
	t.Helper()
	stub := stubbackend.New(opts...)
	srv := httptest.NewServer(stub.Handler())
	t.Cleanup(srv.Close)
	return &harness{
		stub: stub,
		cfg: &config.Config{
			APIURL:      srv.URL,
			HTTPTimeout: 5 * time.Second,
			TokenStore:  config.TokenStoreConfig{Driver: config.StoreMemory, Key: "authToken"},
		},
		store: memory.NewTokenStore(),
	}
}

func (h *harness) open(t *testing.T) *App {
	t.Helper()
	a, err := New(context.Background(), h.cfg, WithTokenStore(h.store))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func signUp(t *testing.T, a *App) {
	t.Helper()
	err := a.Auth.SignUp(context.Background(), domain.SignUpInput{Email: "a@x.com", Password: "p1", Name: "A"})
	require.NoError(t, err)
}

func TestApp_SignUpSendHi(t *testing.T) {
	h := newHarness(t)
	a := h.open(t)
	ctx := context.Background()

	require.False(t, a.Bootstrap(ctx))
	require.Equal(t, domain.RouteAuth, a.Router.Current())

	signUp(t, a)
	require.Equal(t, domain.RouteMain, a.Router.Current())
	require.NotNil(t, a.Messages.Entries(), "login must trigger a reload")
	require.Empty(t, a.Messages.Entries())

	_, err := a.Messages.Send(ctx, "hi")
	require.NoError(t, err)

	msgs := a.Messages.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "hi", msgs[0].Content)
	require.Equal(t, domain.SenderUser, msgs[0].Sender)
}

func TestApp_SignUpThenSignIn(t *testing.T) {
	h := newHarness(t)
	a := h.open(t)
	ctx := context.Background()

	signUp(t, a)
	a.Session.Logout(ctx)
	require.Nil(t, a.Messages.Entries())

	err := a.Auth.SignIn(ctx, domain.SignInInput{Email: "a@x.com", Password: "p1"})
	require.NoError(t, err)
	require.True(t, a.Session.Snapshot().Authenticated)
}

func TestApp_EditAndDelete(t *testing.T) {
	h := newHarness(t)
	a := h.open(t)
	ctx := context.Background()
	signUp(t, a)

	created, err := a.Messages.Send(ctx, "hello")
	require.NoError(t, err)
	id := created[0].ID

	edited, err := a.Messages.Edit(ctx, id, "bye")
	require.NoError(t, err)
	require.True(t, edited.IsEdited())

	_, err = a.Messages.Delete(ctx, id)
	require.NoError(t, err)
	msgs := a.Messages.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, domain.TombstoneText, msgs[0].DisplayContent())
	require.False(t, msgs[0].IsEdited())
}

func TestApp_RestartKeepsSession(t *testing.T) {
	h := newHarness(t, stubbackend.WithBotReply())
	first := h.open(t)
	signUp(t, first)
	_, err := first.Messages.Send(context.Background(), "hi")
	require.NoError(t, err)

	second := h.open(t)
	require.True(t, second.Bootstrap(context.Background()))
	require.Equal(t, domain.RouteMain, second.Router.Current())
	require.Len(t, second.Messages.Messages(), 2)
}

func TestApp_ExpiredTokenOnStartup(t *testing.T) {
	h := newHarness(t)
	signUp(t, h.open(t))
	h.stub.ExpireTokens()

	a := h.open(t)
	require.NotPanics(t, func() { require.False(t, a.Bootstrap(context.Background())) })

	st := a.Session.Snapshot()
	require.False(t, st.Authenticated)
	require.False(t, st.Loading)
	_, ok, _ := h.store.Load(context.Background())
	require.False(t, ok, "storage must be cleared")
	require.Equal(t, domain.RouteAuth, a.Router.Current())
}

func TestApp_ExpiredTokenMidSession(t *testing.T) {
	h := newHarness(t)
	a := h.open(t)
	signUp(t, a)
	h.stub.ExpireTokens()

	err := a.Messages.Load(context.Background())
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	require.False(t, a.Session.Snapshot().Authenticated)
	require.Equal(t, domain.RouteAuth, a.Router.Current())
	_, ok, _ := h.store.Load(context.Background())
	require.False(t, ok)
}

func TestApp_RequireSession(t *testing.T) {
	h := newHarness(t)
	a := h.open(t)
	require.ErrorIs(t, a.RequireSession(context.Background()), domain.ErrNotAuthenticated)
}

func TestOpenTokenStore_Memory(t *testing.T) {
	s, err := OpenTokenStore(context.Background(), &config.Config{
		TokenStore: config.TokenStoreConfig{Driver: config.StoreMemory, Key: "k"},
	})
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), "T"))
	require.NoError(t, s.Close())
}

func TestOpenTokenStore_Pebble(t *testing.T) {
	s, err := OpenTokenStore(context.Background(), &config.Config{
		TokenStore: config.TokenStoreConfig{Driver: config.StorePebble, Key: "k", Path: t.TempDir()},
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())
}
