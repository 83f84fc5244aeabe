package validation

import (
	"errors"
	"testing"

	"github.com/avachat/chat-widget/internal/core/domain"
)

func TestValidate_SignUpOK(t *testing.T) {
	v := New()
	err := v.Validate(domain.SignUpInput{Email: "a@x.com", Password: "p1", Name: "A"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_MissingFields(t *testing.T) {
	v := New()
	err := v.Validate(domain.SignUpInput{Email: "a@x.com"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if got := Message(err); got != "password is required; name is required" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestValidate_BadEmail(t *testing.T) {
	v := New()
	err := v.Validate(domain.SignInInput{Email: "not-an-email", Password: "x"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if got := Message(err); got != "email must be a valid email" {
		t.Fatalf("unexpected message: %q", got)
	}
}
