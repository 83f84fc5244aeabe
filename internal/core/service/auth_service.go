package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/avachat/chat-widget/internal/core/domain"
	"github.com/avachat/chat-widget/internal/core/ports"
	"github.com/avachat/chat-widget/internal/validation"
)

// fallbackAuthError is shown when the backend gave no usable detail.
const fallbackAuthError = "Authentication failed"

// Authenticator logs a token into the session. *SessionStore implements it.
type Authenticator interface {
	Login(ctx context.Context, token string) error
}

// AuthService implements the sign-up and sign-in form flow: validate locally,
// exchange credentials for a token, then start the session.
type AuthService struct {
	gateway   ports.AuthGateway
	session   Authenticator
	validator *validation.Validator
	log       zerolog.Logger
}

func NewAuthService(gateway ports.AuthGateway, session Authenticator, log zerolog.Logger) *AuthService {
	return &AuthService{
		gateway:   gateway,
		session:   session,
		validator: validation.New(),
		log:       log,
	}
}

// SignUp registers a new account and logs it in.
func (s *AuthService) SignUp(ctx context.Context, in domain.SignUpInput) error {
	if err := s.validator.Validate(in); err != nil {
		return err
	}
	res, err := s.gateway.SignUp(ctx, in)
	if err != nil {
		s.log.Info().Err(err).Str("email", in.Email).Msg("sign-up rejected")
		return fmt.Errorf("sign up: %w", err)
	}
	return s.start(ctx, res)
}

// SignIn authenticates an existing account and logs it in.
func (s *AuthService) SignIn(ctx context.Context, in domain.SignInInput) error {
	if err := s.validator.Validate(in); err != nil {
		return err
	}
	res, err := s.gateway.SignIn(ctx, in)
	if err != nil {
		s.log.Info().Err(err).Str("email", in.Email).Msg("sign-in rejected")
		return fmt.Errorf("sign in: %w", err)
	}
	return s.start(ctx, res)
}

func (s *AuthService) start(ctx context.Context, res *domain.AuthResult) error {
	if res == nil || res.Token == "" {
		return &domain.BackendError{Op: "auth", Status: 200, Detail: "response carried no token", Auth: true}
	}
	return s.session.Login(ctx, res.Token)
}

// FormError returns the message the auth form shows inline for err.
func FormError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, domain.ErrValidation) {
		return validation.Message(err)
	}
	var be *domain.BackendError
	if errors.As(err, &be) && be.Detail != "" {
		return be.Detail
	}
	return fallbackAuthError
}
