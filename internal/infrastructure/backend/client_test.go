package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/avachat/chat-widget/internal/core/domain"
	"github.com/avachat/chat-widget/internal/testing/stubbackend"
)

func newTestClient(t *testing.T, opts ...stubbackend.Option) (*Client, *stubbackend.Server) {
	t.Helper()
	stub := stubbackend.New(opts...)
	srv := httptest.NewServer(stub.Handler())
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/", Timeout: 5 * time.Second}, zerolog.Nop()), stub
}

func signUp(t *testing.T, c *Client) string {
	t.Helper()
	res, err := c.SignUp(context.Background(), domain.SignUpInput{Email: "a@x.com", Password: "p1", Name: "A"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	require.Equal(t, "bearer", res.TokenType)
	return res.Token
}

func TestClient_SignUpThenSignIn(t *testing.T) {
	c, _ := newTestClient(t)
	signUp(t, c)

	res, err := c.SignIn(context.Background(), domain.SignInInput{Email: "a@x.com", Password: "p1"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)

	_, err = c.SignIn(context.Background(), domain.SignInInput{Email: "a@x.com", Password: "wrong"})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	require.False(t, errors.Is(err, domain.ErrUnauthorized), "auth rejections must not look like an expired session")

	var be *domain.BackendError
	require.ErrorAs(t, err, &be)
	require.Equal(t, "Incorrect email or password", be.Detail)
}

func TestClient_SignUpDuplicate(t *testing.T) {
	c, _ := newTestClient(t)
	signUp(t, c)

	_, err := c.SignUp(context.Background(), domain.SignUpInput{Email: "a@x.com", Password: "p2", Name: "B"})
	var be *domain.BackendError
	require.ErrorAs(t, err, &be)
	require.Equal(t, http.StatusBadRequest, be.Status)
	require.Equal(t, "Email already registered", be.Detail)
}

func TestClient_MessageRoundTrip(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()
	token := signUp(t, c)

	msgs, err := c.ListMessages(ctx, token)
	require.NoError(t, err)
	require.Empty(t, msgs)

	created, err := c.SendMessage(ctx, token, "hi")
	require.NoError(t, err)
	require.Len(t, created, 1)
	require.Equal(t, "hi", created[0].Content)
	require.Equal(t, domain.SenderUser, created[0].Sender)

	msgs, err = c.ListMessages(ctx, token)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "hi", msgs[0].Content)

	edited, err := c.EditMessage(ctx, token, created[0].ID, "bye")
	require.NoError(t, err)
	require.Equal(t, "bye", edited.Content)
	require.True(t, edited.IsEdited())

	deleted, err := c.DeleteMessage(ctx, token, created[0].ID)
	require.NoError(t, err)
	require.NotNil(t, deleted)
	require.True(t, deleted.IsDeleted())
	require.Equal(t, domain.TombstoneText, deleted.DisplayContent())
}

func TestClient_SendWithBotReply(t *testing.T) {
	c, _ := newTestClient(t, stubbackend.WithBotReply())
	token := signUp(t, c)

	created, err := c.SendMessage(context.Background(), token, "hello")
	require.NoError(t, err)
	require.Len(t, created, 2)
	require.Equal(t, domain.SenderAgent, created[1].Sender)
	require.Equal(t, stubbackend.AgentReply("hello"), created[1].Content)
}

func TestClient_DeleteAcknowledgement(t *testing.T) {
	c, _ := newTestClient(t, stubbackend.WithDeleteAck())
	ctx := context.Background()
	token := signUp(t, c)

	created, err := c.SendMessage(ctx, token, "hi")
	require.NoError(t, err)

	deleted, err := c.DeleteMessage(ctx, token, created[0].ID)
	require.NoError(t, err)
	require.Nil(t, deleted)
}

func TestClient_EditAcknowledgement(t *testing.T) {
	c, stub := newTestClient(t, stubbackend.WithEditAck())
	ctx := context.Background()
	token := signUp(t, c)

	created, err := c.SendMessage(ctx, token, "hi")
	require.NoError(t, err)

	edited, err := c.EditMessage(ctx, token, created[0].ID, "bye")
	require.NoError(t, err)
	require.Nil(t, edited)
	require.Equal(t, "bye", stub.Messages("a@x.com")[0].Content)
}

func TestClient_Unauthorized(t *testing.T) {
	c, stub := newTestClient(t)
	token := signUp(t, c)
	stub.ExpireTokens()

	_, err := c.ListMessages(context.Background(), token)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	var be *domain.BackendError
	require.ErrorAs(t, err, &be)
	require.Equal(t, "Could not validate credentials", be.Detail)
}

func TestClient_NotFound(t *testing.T) {
	c, _ := newTestClient(t)
	token := signUp(t, c)

	_, err := c.EditMessage(context.Background(), token, 99, "x")
	require.ErrorIs(t, err, domain.ErrMessageNotFound)
}

func TestClient_ServerError(t *testing.T) {
	c, stub := newTestClient(t)
	token := signUp(t, c)
	stub.Fail(stubbackend.OpSend, http.StatusInternalServerError)

	_, err := c.SendMessage(context.Background(), token, "hi")
	var be *domain.BackendError
	require.ErrorAs(t, err, &be)
	require.Equal(t, http.StatusInternalServerError, be.Status)
	require.False(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(Config{BaseURL: url, Timeout: time.Second}, zerolog.Nop())
	_, err := c.ListMessages(context.Background(), "T")
	require.Error(t, err)
	var be *domain.BackendError
	require.False(t, errors.As(err, &be))
}

func TestClient_CancelledContext(t *testing.T) {
	c, stub := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListMessages(ctx, "T")
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, stub.Requests(stubbackend.OpList))
}
