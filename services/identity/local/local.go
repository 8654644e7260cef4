// Package local is a self-hosted identity provider: accounts live in
// postgres, passwords are bcrypt hashes and sessions are JWTs.
//
// Errors use the same codes as the hosted provider so the auth forms treat
// both alike.
package local

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sahilchouksey/edtech-checkout/model"
	"github.com/sahilchouksey/edtech-checkout/services/identity"
	"github.com/sahilchouksey/edtech-checkout/utils/auth"
	"github.com/sahilchouksey/edtech-checkout/utils/validation"
	"go.uber.org/zap"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

// Messages returned with provider errors
const (
	msgInvalidEmail    = "The email address is badly formatted."
	msgUserNotFound    = "There is no user record corresponding to this identifier."
	msgWrongPassword   = "The password is invalid or the user does not have a password."
	msgTooManyRequests = "Access to this account has been temporarily disabled due to many failed login attempts."
	msgEmailInUse      = "The email address is already in use by another account."
	msgWeakPassword    = "Password should be at least 6 characters"
	msgInvalidToken    = "The supplied auth credential is malformed or has expired."
)

// UserStore persists accounts
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id uint) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
}

// TokenRevoker blacklists identity tokens on sign-out
type TokenRevoker interface {
	RevokeToken(ctx context.Context, jti string, userID uint, expiresAt time.Time, reason string) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// AttemptLimiter throttles failed sign-ins per account
type AttemptLimiter interface {
	Locked(ctx context.Context, key string) (bool, error)
	Failed(ctx context.Context, key string) error
	Succeeded(ctx context.Context, key string) error
}

type Options struct {
	Users   UserStore
	Tokens  *auth.JWTManager
	Revoker TokenRevoker   // optional
	Limiter AttemptLimiter // optional
	// BcryptCost of 0 means auth.DefaultCost
	BcryptCost int
	Logger     *zap.Logger
}

// Backend is shared by every visitor. NewClient hands out per-visitor providers.
type Backend struct {
	opts Options
	log  *zap.Logger
}

func NewBackend(opts Options) *Backend {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Backend{opts: opts, log: log.Named("identity.local")}
}

// NewClient returns a signed-out provider for one visitor
func (b *Backend) NewClient() *Client {
	return &Client{backend: b}
}

// Client is the identity.Provider of a single visitor
type Client struct {
	identity.Hub

	backend *Backend

	mu      sync.Mutex
	current *auth.Claims
}

var (
	_ identity.Provider = (*Client)(nil)
	_ identity.Resumer  = (*Client)(nil)
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func providerErr(code, msg string) *identity.ProviderError {
	return &identity.ProviderError{Code: code, Message: msg}
}

func internalErr(err error) *identity.ProviderError {
	return providerErr(identity.CodeInternalError, err.Error())
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*identity.Identity, error) {
	b := c.backend
	email = normalizeEmail(email)
	if !validation.ValidateEmail(email) {
		return nil, providerErr(identity.CodeInvalidEmail, msgInvalidEmail)
	}

	if b.opts.Limiter != nil {
		locked, err := b.opts.Limiter.Locked(ctx, email)
		if err != nil {
			// a broken limiter must not lock everyone out
			b.log.Warn("attempt limiter unavailable", zap.Error(err))
		}
		if locked {
			return nil, providerErr(identity.CodeTooManyRequests, msgTooManyRequests)
		}
	}

	user, err := b.opts.Users.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, providerErr(identity.CodeUserNotFound, msgUserNotFound)
	}
	if err != nil {
		b.log.Error("user lookup failed", zap.Error(err))
		return nil, internalErr(err)
	}

	if err := auth.VerifyPassword(user.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, internalErr(err)
		}
		if b.opts.Limiter != nil {
			if lerr := b.opts.Limiter.Failed(ctx, email); lerr != nil {
				b.log.Warn("recording failed attempt", zap.Error(lerr))
			}
		}
		return nil, providerErr(identity.CodeWrongPassword, msgWrongPassword)
	}

	if b.opts.Limiter != nil {
		if lerr := b.opts.Limiter.Succeeded(ctx, email); lerr != nil {
			b.log.Warn("clearing failed attempts", zap.Error(lerr))
		}
	}

	return c.establish(user)
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*identity.Identity, error) {
	b := c.backend
	email = normalizeEmail(email)
	if !validation.ValidateEmail(email) {
		return nil, providerErr(identity.CodeInvalidEmail, msgInvalidEmail)
	}
	if !auth.IsPasswordValid(password) {
		return nil, providerErr(identity.CodeWeakPassword, msgWeakPassword)
	}

	hash, err := auth.HashPassword(password, b.opts.BcryptCost)
	if err != nil {
		return nil, internalErr(err)
	}

	user := &model.User{Email: email, PasswordHash: hash}
	if err := b.opts.Users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, providerErr(identity.CodeEmailAlreadyInUse, msgEmailInUse)
		}
		b.log.Error("creating user failed", zap.Error(err))
		return nil, internalErr(err)
	}

	b.log.Info("user signed up", zap.Uint("user_id", user.ID))
	return c.establish(user)
}

// Resume restores a session from a token issued by this backend
func (c *Client) Resume(ctx context.Context, token string) (*identity.Identity, error) {
	b := c.backend
	claims, err := b.opts.Tokens.ValidateToken(token)
	if err != nil {
		return nil, providerErr(identity.CodeInvalidCredential, msgInvalidToken)
	}

	if b.opts.Revoker != nil {
		revoked, err := b.opts.Revoker.IsTokenRevoked(ctx, claims.ID)
		if err != nil {
			return nil, internalErr(err)
		}
		if revoked {
			return nil, providerErr(identity.CodeInvalidCredential, msgInvalidToken)
		}
	}

	user, err := b.opts.Users.FindByID(ctx, claims.UserID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, providerErr(identity.CodeUserNotFound, msgUserNotFound)
	}
	if err != nil {
		return nil, internalErr(err)
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, providerErr(identity.CodeInvalidCredential, msgInvalidToken)
	}

	id := &identity.Identity{UID: strconv.FormatUint(uint64(user.ID), 10), Email: user.Email, Token: token}
	c.mu.Lock()
	c.current = claims
	c.mu.Unlock()

	c.Publish(id)
	return id, nil
}

// SignOut revokes the current token. Listeners are notified even when
// revocation fails.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	claims := c.current
	c.current = nil
	c.mu.Unlock()

	c.Publish(nil)

	if claims == nil || c.backend.opts.Revoker == nil {
		return nil
	}
	err := c.backend.opts.Revoker.RevokeToken(ctx, claims.ID, claims.UserID, claims.ExpiresAt.Time, model.RevokedOnSignOut)
	if err != nil {
		c.backend.log.Error("revoking token failed", zap.Error(err))
		return internalErr(err)
	}
	return nil
}

func (c *Client) establish(user *model.User) (*identity.Identity, error) {
	issued, err := c.backend.opts.Tokens.Issue(user.ID, user.Email, user.TokenVersion)
	if err != nil {
		return nil, internalErr(err)
	}
	claims, err := c.backend.opts.Tokens.ValidateToken(issued.Token)
	if err != nil {
		return nil, internalErr(err)
	}

	id := &identity.Identity{
		UID:   strconv.FormatUint(uint64(user.ID), 10),
		Email: user.Email,
		Token: issued.Token,
	}

	c.mu.Lock()
	c.current = claims
	c.mu.Unlock()

	c.Publish(id)
	return id, nil
}
