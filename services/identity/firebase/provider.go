package firebase

import (
	"context"
	"errors"

	"github.com/sahilchouksey/edtech-checkout/services/identity"
	"go.uber.org/zap"
)

// reasons maps Identity Toolkit error reasons to provider codes
var reasons = map[string]string{
	"INVALID_EMAIL":               identity.CodeInvalidEmail,
	"MISSING_EMAIL":               identity.CodeInvalidEmail,
	"EMAIL_NOT_FOUND":             identity.CodeUserNotFound,
	"USER_NOT_FOUND":              identity.CodeUserNotFound,
	"INVALID_PASSWORD":            identity.CodeWrongPassword,
	"TOO_MANY_ATTEMPTS_TRY_LATER": identity.CodeTooManyRequests,
	"EMAIL_EXISTS":                identity.CodeEmailAlreadyInUse,
	"WEAK_PASSWORD":               identity.CodeWeakPassword,
	"INVALID_LOGIN_CREDENTIALS":   identity.CodeInvalidCredential,
	"INVALID_ID_TOKEN":            identity.CodeInvalidCredential,
	"TOKEN_EXPIRED":               identity.CodeInvalidCredential,
}

// translate turns a client error into an identity.ProviderError
func translate(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		code, ok := reasons[apiErr.Reason()]
		if !ok {
			code = identity.CodeInternalError
		}
		return &identity.ProviderError{Code: code, Message: apiErr.Detail()}
	}
	return &identity.ProviderError{Code: identity.CodeNetworkRequestFail, Message: err.Error()}
}

// Provider is the identity.Provider of a single visitor. Sessions are kept
// in memory the way the browser SDK keeps them; sign-out is local only.
type Provider struct {
	identity.Hub

	client *Client
	log    *zap.Logger
}

var (
	_ identity.Provider = (*Provider)(nil)
	_ identity.Resumer  = (*Provider)(nil)
)

func NewProvider(client *Client, log *zap.Logger) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &Provider{client: client, log: log.Named("identity.firebase")}
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*identity.Identity, error) {
	resp, err := p.client.SignInWithPassword(ctx, email, password)
	if err != nil {
		p.log.Debug("sign in rejected", zap.Error(err))
		return nil, translate(err)
	}
	return p.establish(resp.LocalID, resp.Email, resp.IDToken), nil
}

func (p *Provider) SignUp(ctx context.Context, email, password string) (*identity.Identity, error) {
	resp, err := p.client.SignUp(ctx, email, password)
	if err != nil {
		p.log.Debug("sign up rejected", zap.Error(err))
		return nil, translate(err)
	}
	return p.establish(resp.LocalID, resp.Email, resp.IDToken), nil
}

func (p *Provider) Resume(ctx context.Context, token string) (*identity.Identity, error) {
	localID, email, err := p.client.Lookup(ctx, token)
	if err != nil {
		return nil, translate(err)
	}
	return p.establish(localID, email, token), nil
}

func (p *Provider) SignOut(ctx context.Context) error {
	p.Publish(nil)
	return nil
}

func (p *Provider) establish(localID, email, token string) *identity.Identity {
	id := &identity.Identity{UID: localID, Email: email, Token: token}
	p.Publish(id)
	return id
}
