package domain

// SignUpInput carries the sign-up form fields.
type SignUpInput struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name"     validate:"required"`
}

// SignInInput carries the sign-in form fields.
type SignInInput struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is the backend's answer to a successful sign-up or sign-in.
type AuthResult struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type,omitempty"`
}
