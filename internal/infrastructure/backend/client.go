// Package backend is the REST client for the chat backend. It implements
// ports.AuthGateway and ports.MessageGateway over valyala/fasthttp.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fastjson"

	"github.com/avachat/chat-widget/internal/core/domain"
	"github.com/avachat/chat-widget/internal/infrastructure/metrics"
)

const (
	PathSignUp   = "/api/auth/signup"
	PathSignIn   = "/api/auth/signin"
	PathMessages = "/api/messages"

	defaultTimeout = 30 * time.Second
)

const (
	opSignUp = "signup"
	opSignIn = "signin"
	opList   = "list"
	opSend   = "send"
	opEdit   = "edit"
	opDelete = "delete"
)

// Config captures the settings for reaching the backend.
type Config struct {
	BaseURL string
	// Timeout bounds each request when the context carries no earlier deadline.
	Timeout time.Duration
}

// Client talks to the chat backend. It is safe for concurrent use.
type Client struct {
	base    string
	timeout time.Duration
	http    *fasthttp.Client
	parsers fastjson.ParserPool
	log     zerolog.Logger
}

// New returns a Client for cfg. A default timeout is applied when none is
// provided.
func New(cfg Config, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		base:    strings.TrimRight(cfg.BaseURL, "/"),
		timeout: timeout,
		http: &fasthttp.Client{
			Name:         "chatwidget",
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		log: log,
	}
}

// ── Auth ──────────────────────────────────────────────────────────────────────

// SignUp registers a new account and returns its token.
func (c *Client) SignUp(ctx context.Context, in domain.SignUpInput) (*domain.AuthResult, error) {
	body, err := c.do(ctx, opSignUp, fasthttp.MethodPost, PathSignUp, "", in, true)
	if err != nil {
		return nil, err
	}
	return c.decodeAuth(opSignUp, body)
}

// SignIn exchanges credentials for a token.
func (c *Client) SignIn(ctx context.Context, in domain.SignInInput) (*domain.AuthResult, error) {
	body, err := c.do(ctx, opSignIn, fasthttp.MethodPost, PathSignIn, "", in, true)
	if err != nil {
		return nil, err
	}
	return c.decodeAuth(opSignIn, body)
}

// ── Messages ──────────────────────────────────────────────────────────────────

type contentBody struct {
	Content string `json:"content"`
}

// ListMessages returns every message of the caller, oldest first.
func (c *Client) ListMessages(ctx context.Context, token string) ([]domain.Message, error) {
	body, err := c.do(ctx, opList, fasthttp.MethodGet, PathMessages, token, nil, false)
	if err != nil {
		return nil, err
	}
	return c.decodeMessages(opList, body)
}

// SendMessage posts content. The backend answers with the created message or
// with an array holding it and any immediate reply.
func (c *Client) SendMessage(ctx context.Context, token, content string) ([]domain.Message, error) {
	body, err := c.do(ctx, opSend, fasthttp.MethodPost, PathMessages, token, contentBody{Content: content}, false)
	if err != nil {
		return nil, err
	}
	return c.decodeMessages(opSend, body)
}

// EditMessage replaces the content of message id. It returns nil without
// error when the backend acknowledges the edit without echoing the message.
func (c *Client) EditMessage(ctx context.Context, token string, id int64, content string) (*domain.Message, error) {
	body, err := c.do(ctx, opEdit, fasthttp.MethodPut, messagePath(id), token, contentBody{Content: content}, false)
	if err != nil {
		return nil, err
	}
	return c.decodeEntity(opEdit, body)
}

// DeleteMessage soft-deletes message id. It returns nil without error when
// the backend acknowledges the deletion without echoing the message.
func (c *Client) DeleteMessage(ctx context.Context, token string, id int64) (*domain.Message, error) {
	body, err := c.do(ctx, opDelete, fasthttp.MethodDelete, messagePath(id), token, nil, false)
	if err != nil {
		return nil, err
	}
	return c.decodeEntity(opDelete, body)
}

func messagePath(id int64) string {
	return PathMessages + "/" + strconv.FormatInt(id, 10)
}

// ── Transport ─────────────────────────────────────────────────────────────────

// do performs one request and returns a copy of the response body. Non-2xx
// answers become *domain.BackendError.
func (c *Client) do(ctx context.Context, op, method, path, token string, payload any, auth bool) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.base + path)
	req.Header.SetMethod(method)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if token != "" {
		req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+token)
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		req.Header.SetContentType("application/json")
		req.SetBodyRaw(raw)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	start := time.Now()
	err := c.http.DoDeadline(req, resp, deadline)
	metrics.BackendRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues(op, "error").Inc()
		c.log.Debug().Err(err).Str("op", op).Str("path", path).Msg("backend request failed")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	status := resp.StatusCode()
	metrics.BackendRequestsTotal.WithLabelValues(op, strconv.Itoa(status)).Inc()
	body := append([]byte(nil), resp.Body()...)

	c.log.Debug().Str("op", op).Str("method", method).Str("path", path).Int("status", status).Msg("backend response")

	if status < 200 || status >= 300 {
		return nil, &domain.BackendError{
			Op:     op,
			Status: status,
			Detail: c.errorDetail(body),
			Auth:   auth,
		}
	}
	return body, nil
}
