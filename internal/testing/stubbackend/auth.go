package stubbackend

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/avachat/chat-widget/internal/core/domain"
)

const ctxAccountID = "account_id"

type tokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
}

func (s *Server) signUp(c echo.Context) error {
	var req domain.SignUpInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if _, exists := s.accounts[req.Email]; exists {
		s.mu.Unlock()
		return errEmailTaken
	}
	s.nextUser++
	acc := &account{id: s.nextUser, email: req.Email, name: req.Name, passwordHash: string(hash)}
	s.accounts[req.Email] = acc
	s.mu.Unlock()

	token, err := s.issueToken(acc)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tokenResponse{Token: token, TokenType: "bearer"})
}

func (s *Server) signIn(c echo.Context) error {
	var req domain.SignInInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	s.mu.Lock()
	acc, ok := s.accounts[req.Email]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword([]byte(acc.passwordHash), []byte(req.Password)) != nil {
		return domain.ErrInvalidCredentials
	}

	token, err := s.issueToken(acc)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tokenResponse{Token: token, TokenType: "bearer"})
}

func (s *Server) issueToken(acc *account) (string, error) {
	claims := jwt.MapClaims{
		"sub":   acc.id,
		"email": acc.email,
		"exp":   s.now().Add(s.tokenTTL).Unix(),
	}
	s.mu.Lock()
	secret := s.secret
	s.mu.Unlock()

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

// authenticate validates the bearer token and stores the account id in the
// request context.
func (s *Server) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return domain.ErrUnauthorized
		}

		s.mu.Lock()
		secret := s.secret
		s.mu.Unlock()

		claims := jwt.MapClaims{}
		tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return secret, nil
		}, jwt.WithTimeFunc(s.now))
		if err != nil || !tkn.Valid {
			return domain.ErrUnauthorized
		}

		sub, ok := claims["sub"].(float64)
		if !ok {
			return domain.ErrUnauthorized
		}
		c.Set(ctxAccountID, int64(sub))
		return next(c)
	}
}

func accountID(c echo.Context) int64 {
	id, _ := c.Get(ctxAccountID).(int64)
	return id
}
