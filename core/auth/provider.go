package auth

import (
	"context"
	"errors"
)

var (
	// errors
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrSessionExpired     = errors.New("session expired")
)

type (
	// Account is an authentication identity held by the external auth provider.
	Account struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}

	// Session is an authenticated session issued by the provider.
	// AccessToken is opaque to callers; the provider knows how to read it back.
	Session struct {
		AccessToken string  `json:"access_token"`
		Account     Account `json:"user"`
	}

	EventKind string

	// Event is an auth-state change pushed by the provider at arbitrary times.
	Event struct {
		Kind    EventKind
		Session *Session // set for EventTokenRefreshed
	}

	// Provider abstracts the external auth service: password sign-in/up/out,
	// session retrieval, password update and the auth-state event stream.
	Provider interface {
		SignUp(ctx context.Context, email, password string, metadata map[string]interface{}) (Session, error)
		SignInWithPassword(ctx context.Context, email, password string) (Session, error)
		// SignOut invalidates the session behind the given access token.
		SignOut(ctx context.Context, accessToken string) error
		// Account resolves the account behind an access token,
		// returning ErrSessionExpired for a dead or invalid one.
		Account(ctx context.Context, accessToken string) (Account, error)
		UpdatePassword(ctx context.Context, accessToken, newPassword string) error
		// Events exposes the auth-state change stream (sign-outs, token refreshes).
		Events() <-chan Event
	}

	// PasswordResetter is implemented by providers that can reset an account's
	// password out-of-band, without the account holder's session. Reserved for
	// operator tooling.
	PasswordResetter interface {
		ResetPassword(ctx context.Context, email, newPassword string) error
	}
)

const (
	EventSignedOut      EventKind = "SIGNED_OUT"
	EventTokenRefreshed EventKind = "TOKEN_REFRESHED"
)
