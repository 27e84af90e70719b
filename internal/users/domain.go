package users

import (
	"time"

	"github.com/odyssey-erp/accounts/internal/auth"
)

// User represents a stored account. PasswordHash never leaves the service.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RegisterInput carries the registration form.
type RegisterInput struct {
	Username string `validate:"required,max=255"`
	Email    string `validate:"required,max=255"`
	Password string `validate:"required,bcrypt_len"`
}

// LoginInput carries the sign-in form.
type LoginInput struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

// UpdateInput carries the mutable account fields.
type UpdateInput struct {
	Username string `json:"username" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,max=255"`
}

// Session is the outcome of a successful login.
type Session struct {
	User  *User
	Token auth.Token
}
