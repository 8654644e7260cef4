// Package identity connects a visitor to an external identity provider:
// the provider contract, the session observer that reacts to its events and
// the sign-in/sign-up forms.
package identity

import (
	"context"
	"errors"
	"fmt"
)

// Provider error codes, in the identity provider's own vocabulary
const (
	CodeInvalidEmail       = "auth/invalid-email"
	CodeUserNotFound       = "auth/user-not-found"
	CodeWrongPassword      = "auth/wrong-password"
	CodeTooManyRequests    = "auth/too-many-requests"
	CodeEmailAlreadyInUse  = "auth/email-already-in-use"
	CodeWeakPassword       = "auth/weak-password"
	CodeInvalidCredential  = "auth/invalid-credential"
	CodeNetworkRequestFail = "auth/network-request-failed"
	CodeInternalError      = "auth/internal-error"
)

// Identity is a signed-in user as reported by the provider
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Token string `json:"-"`
}

// Session is the visitor's current authentication status
type Session struct {
	Authenticated bool      `json:"authenticated"`
	Identity      *Identity `json:"identity,omitempty"`
}

// SessionOf builds a Session from a provider event; nil means signed out.
func SessionOf(id *Identity) Session {
	if id == nil {
		return Session{}
	}
	c := *id
	return Session{Authenticated: true, Identity: &c}
}

// Provider is an external identity service scoped to one visitor.
//
// Subscribe registers a listener for auth-state changes and returns a func
// that removes it. SignIn, SignUp and SignOut notify listeners on success.
type Provider interface {
	Subscribe(onChange func(*Identity)) (unsubscribe func())
	SignIn(ctx context.Context, email, password string) (*Identity, error)
	SignUp(ctx context.Context, email, password string) (*Identity, error)
	SignOut(ctx context.Context) error
}

// Resumer is implemented by providers that can restore a session from a
// token issued earlier, the way a browser SDK restores persisted auth.
type Resumer interface {
	Resume(ctx context.Context, token string) (*Identity, error)
}

// ProviderError is a failure reported by the identity provider
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// ProviderCode extracts the provider code from err, if any.
func ProviderCode(err error) (string, bool) {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Code, true
	}
	return "", false
}
