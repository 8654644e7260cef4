package firebase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sahilchouksey/edtech-checkout/services/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type account struct {
	password string
	localID  string
}

// fakeToolkit mimics the subset of the Identity Toolkit API the provider uses
func fakeToolkit(t *testing.T, accounts map[string]account) *httptest.Server {
	t.Helper()

	fail := func(w http.ResponseWriter, msg string) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 400, "message": msg},
		})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/accounts:signInWithPassword", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		var req passwordRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		acc, ok := accounts[req.Email]
		switch {
		case req.Email == "locked@example.com":
			fail(w, "TOO_MANY_ATTEMPTS_TRY_LATER : Access to this account has been temporarily disabled")
		case !ok:
			fail(w, "EMAIL_NOT_FOUND")
		case acc.password != req.Password:
			fail(w, "INVALID_PASSWORD")
		default:
			json.NewEncoder(w).Encode(AuthResponse{LocalID: acc.localID, Email: req.Email, IDToken: "tok-" + acc.localID})
		}
	})
	mux.HandleFunc("/v1/accounts:signUp", func(w http.ResponseWriter, r *http.Request) {
		var req passwordRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		switch {
		case len(req.Password) < 6:
			fail(w, "WEAK_PASSWORD : Password should be at least 6 characters")
		case accounts[req.Email] != (account{}):
			fail(w, "EMAIL_EXISTS")
		default:
			accounts[req.Email] = account{password: req.Password, localID: "new"}
			json.NewEncoder(w).Encode(AuthResponse{LocalID: "new", Email: req.Email, IDToken: "tok-new"})
		}
	})
	mux.HandleFunc("/v1/accounts:lookup", func(w http.ResponseWriter, r *http.Request) {
		var req lookupRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		for email, acc := range accounts {
			if "tok-"+acc.localID == req.IDToken {
				json.NewEncoder(w).Encode(map[string]any{
					"users": []map[string]string{{"localId": acc.localID, "email": email}},
				})
				return
			}
		}
		fail(w, "INVALID_ID_TOKEN")
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newProvider(t *testing.T) *Provider {
	srv := fakeToolkit(t, map[string]account{
		"student@example.com": {password: "hunter22", localID: "uid-1"},
	})
	return NewProvider(NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}), nil)
}

func TestSignInPublishesIdentity(t *testing.T) {
	p := newProvider(t)
	var got *identity.Identity
	p.Subscribe(func(id *identity.Identity) { got = id })

	id, err := p.SignIn(context.Background(), "student@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", id.UID)
	assert.Equal(t, "tok-uid-1", id.Token)
	require.NotNil(t, got)
	assert.Equal(t, "student@example.com", got.Email)
}

func TestErrorReasonsMapToCodes(t *testing.T) {
	p := newProvider(t)
	ctx := context.Background()

	cases := []struct {
		name string
		call func() error
		code string
	}{
		{"unknown email", func() error { _, err := p.SignIn(ctx, "ghost@example.com", "x"); return err }, identity.CodeUserNotFound},
		{"wrong password", func() error { _, err := p.SignIn(ctx, "student@example.com", "x"); return err }, identity.CodeWrongPassword},
		{"locked", func() error { _, err := p.SignIn(ctx, "locked@example.com", "x"); return err }, identity.CodeTooManyRequests},
		{"taken", func() error { _, err := p.SignUp(ctx, "student@example.com", "hunter22"); return err }, identity.CodeEmailAlreadyInUse},
		{"weak", func() error { _, err := p.SignUp(ctx, "new@example.com", "123"); return err }, identity.CodeWeakPassword},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, ok := identity.ProviderCode(tc.call())
			require.True(t, ok)
			assert.Equal(t, tc.code, code)
		})
	}
}

func TestWeakPasswordKeepsDetail(t *testing.T) {
	p := newProvider(t)

	_, err := p.SignUp(context.Background(), "new@example.com", "123")
	var perr *identity.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "Password should be at least 6 characters", perr.Message)
}

func TestSignUpAndResume(t *testing.T) {
	p := newProvider(t)
	ctx := context.Background()

	id, err := p.SignUp(ctx, "new@example.com", "hunter22")
	require.NoError(t, err)

	fresh := NewProvider(p.client, nil)
	resumed, err := fresh.Resume(ctx, id.Token)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", resumed.Email)

	_, err = fresh.Resume(ctx, "forged")
	code, _ := identity.ProviderCode(err)
	assert.Equal(t, identity.CodeInvalidCredential, code)
}

func TestSignOutIsLocal(t *testing.T) {
	p := newProvider(t)
	signedOut := false
	p.Subscribe(func(id *identity.Identity) { signedOut = id == nil })

	require.NoError(t, p.SignOut(context.Background()))
	assert.True(t, signedOut)
}

func TestUnreachableIsNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	p := NewProvider(NewClient(Config{APIKey: "k", BaseURL: srv.URL}), nil)

	_, err := p.SignIn(context.Background(), "a@b.co", "pw")
	code, _ := identity.ProviderCode(err)
	assert.Equal(t, identity.CodeNetworkRequestFail, code)
}
