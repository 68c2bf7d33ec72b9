package entity

import "errors"

var (
	// ErrUserExists is returned when registering a username that is already taken.
	ErrUserExists = errors.New("user exists")
	// ErrUserNotFound is returned when no account has the requested username.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned when a username and password pair does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User is a registered account.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// Credentials are submitted to obtain an access token.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is submitted to create an account.
type Registration struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
}
