// Package auth signs users in against the Firebase Identity Toolkit REST API
// and keeps their ID token fresh.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mockt/mockt/internal/store"
)

// ErrNotSignedIn is returned when an operation needs a signed-in user and
// none is available.
var ErrNotSignedIn = errors.New("not signed in")

// User is the signed-in identity.
type User struct {
	UID          string
	Email        string
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
}

// Error is an error reported by the identity provider, e.g. EMAIL_NOT_FOUND
// or INVALID_PASSWORD.
type Error struct {
	StatusCode int
	Code       string
}

func (e *Error) Error() string {
	if msg, ok := friendlyMessages[e.Code]; ok {
		return msg
	}
	return fmt.Sprintf("identity provider error (%d): %s", e.StatusCode, e.Code)
}

var friendlyMessages = map[string]string{
	"EMAIL_NOT_FOUND":             "no account exists for that email",
	"INVALID_PASSWORD":            "incorrect password",
	"INVALID_LOGIN_CREDENTIALS":   "incorrect email or password",
	"USER_DISABLED":               "this account has been disabled",
	"EMAIL_EXISTS":                "an account already exists for that email",
	"WEAK_PASSWORD":               "password must be at least 6 characters",
	"INVALID_EMAIL":               "that email address is not valid",
	"TOKEN_EXPIRED":               "your session has expired, sign in again",
	"INVALID_REFRESH_TOKEN":       "your session has expired, sign in again",
	"TOO_MANY_ATTEMPTS_TRY_LATER": "too many attempts, try again later",
}

// newError builds an Error from the provider's message, which may carry a
// trailing explanation ("WEAK_PASSWORD : Password should be ...").
func newError(status int, message string) *Error {
	code, _, _ := strings.Cut(message, " ")
	if code == "" {
		code = "UNKNOWN"
	}
	return &Error{StatusCode: status, Code: code}
}

func userFromCredential(c *store.Credential) *User {
	return &User{
		UID:          c.UID,
		Email:        c.Email,
		IDToken:      c.IDToken,
		RefreshToken: c.RefreshToken,
		ExpiresAt:    c.ExpiresAt,
	}
}

func (u *User) credential() store.Credential {
	return store.Credential{
		UID:          u.UID,
		Email:        u.Email,
		IDToken:      u.IDToken,
		RefreshToken: u.RefreshToken,
		ExpiresAt:    u.ExpiresAt,
	}
}
