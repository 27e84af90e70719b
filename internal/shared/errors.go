package shared

import "errors"

var (
	// ErrInvalidRequest indicates a missing or malformed required field.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUsernameTaken indicates another account already owns the username.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrEmailTaken indicates another account already owns the email.
	ErrEmailTaken = errors.New("email already exists")
	// ErrInvalidCredentials indicates login failure. Unknown usernames and
	// wrong passwords both map here.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInternal indicates a persistence or infrastructure failure.
	ErrInternal = errors.New("internal error")
	// ErrUnauthenticated indicates a missing, invalid or expired session token.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// UserSafeMessage returns the caller-visible text for err. Unknown errors
// never leak their details.
func UserSafeMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "Invalid request"
	case errors.Is(err, ErrUsernameTaken):
		return "User with this username already exists"
	case errors.Is(err, ErrEmailTaken):
		return "User with this email already exists"
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid username or password"
	case errors.Is(err, ErrNotFound):
		return "User not found"
	case errors.Is(err, ErrUnauthenticated):
		return "Invalid session"
	default:
		return "Internal Server Error"
	}
}
