package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider answers SignIn/SignUp with a canned result and counts calls.
type stubProvider struct {
	Hub
	err   error
	calls int
}

func (p *stubProvider) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	return p.answer(email)
}

func (p *stubProvider) SignUp(ctx context.Context, email, password string) (*Identity, error) {
	return p.answer(email)
}

func (p *stubProvider) SignOut(ctx context.Context) error {
	p.Publish(nil)
	return nil
}

func (p *stubProvider) answer(email string) (*Identity, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	id := &Identity{UID: "u1", Email: email}
	p.Publish(id)
	return id, nil
}

func TestHubUnsubscribeIsIdempotent(t *testing.T) {
	var h Hub
	var got []*Identity
	unsubscribe := h.Subscribe(func(id *Identity) { got = append(got, id) })
	assert.Equal(t, 1, h.Len())

	h.Publish(&Identity{UID: "a"})
	unsubscribe()
	unsubscribe()
	h.Publish(&Identity{UID: "b"})

	assert.Equal(t, 0, h.Len())
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].UID)
}

func TestObserverTracksSession(t *testing.T) {
	p := &stubProvider{}
	resets := 0
	o := NewObserver(p, func() { resets++ })
	defer o.Close()

	assert.Equal(t, 1, p.Len())
	assert.False(t, o.Authenticated())

	var seen []Session
	o.Subscribe(func(s Session) { seen = append(seen, s) })

	p.Publish(&Identity{UID: "u1", Email: "a@b.co"})
	assert.True(t, o.Authenticated())
	assert.Equal(t, "a@b.co", o.Session().Identity.Email)
	assert.Equal(t, 0, resets)

	p.Publish(nil)
	assert.False(t, o.Authenticated())
	assert.Equal(t, 1, resets)

	require.Len(t, seen, 2)
	assert.True(t, seen[0].Authenticated)
	assert.False(t, seen[1].Authenticated)
}

func TestObserverUserSwitchDoesNotReset(t *testing.T) {
	p := &stubProvider{}
	resets := 0
	o := NewObserver(p, func() { resets++ })
	defer o.Close()

	p.Publish(&Identity{UID: "u1", Email: "a@b.co"})
	p.Publish(&Identity{UID: "u2", Email: "c@d.co"})

	assert.Equal(t, 0, resets)
	assert.Equal(t, "u2", o.Session().Identity.UID)
}

func TestObserverSessionIsACopy(t *testing.T) {
	p := &stubProvider{}
	o := NewObserver(p, nil)
	defer o.Close()

	id := &Identity{UID: "u1", Email: "a@b.co"}
	p.Publish(id)
	id.Email = "changed@b.co"

	assert.Equal(t, "a@b.co", o.Session().Identity.Email)
}

func TestObserverCloseDetachesOnce(t *testing.T) {
	p := &stubProvider{}
	resets := 0
	o := NewObserver(p, func() { resets++ })

	o.Close()
	o.Close()
	assert.Equal(t, 0, p.Len())

	p.Publish(&Identity{UID: "u1"})
	p.Publish(nil)
	assert.False(t, o.Authenticated())
	assert.Equal(t, 0, resets)
}

func TestSignInFormMissingCredentials(t *testing.T) {
	p := &stubProvider{}
	form := NewSignInForm(p, nil)

	for _, c := range []struct{ email, password string }{
		{"", "secret"},
		{"a@b.co", ""},
		{"", ""},
	} {
		err := form.Submit(context.Background(), c.email, c.password)
		assert.Equal(t, KindMissingCredentials, KindOf(err))
		assert.EqualError(t, err, "Email and password are required")
	}
	assert.Equal(t, 0, p.calls)
}

func TestSignInFormMapsProviderCodes(t *testing.T) {
	cases := []struct {
		code    string
		kind    AuthErrorKind
		message string
	}{
		{CodeInvalidEmail, KindInvalidEmail, "Invalid email address."},
		{CodeUserNotFound, KindUserNotFound, "No user found with this email."},
		{CodeWrongPassword, KindWrongPassword, "Incorrect password."},
		{CodeTooManyRequests, KindTooManyAttempts, "Too many failed login attempts. Please try again later."},
		{CodeEmailAlreadyInUse, KindUnknown, "raw provider text"},
		{CodeInternalError, KindUnknown, "raw provider text"},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			closed := false
			p := &stubProvider{err: &ProviderError{Code: tc.code, Message: "raw provider text"}}
			err := NewSignInForm(p, func() { closed = true }).Submit(context.Background(), "a@b.co", "pw")

			assert.Equal(t, tc.kind, KindOf(err))
			assert.EqualError(t, err, tc.message)
			assert.False(t, closed)
		})
	}
}

func TestSignUpFormMapsProviderCodes(t *testing.T) {
	cases := []struct {
		code    string
		kind    AuthErrorKind
		message string
	}{
		{CodeInvalidEmail, KindInvalidEmail, "Invalid email address."},
		{CodeEmailAlreadyInUse, KindEmailAlreadyInUse, "Email already in use. Please use a different email."},
		{CodeWeakPassword, KindWeakPassword, "Password is too weak. Please choose a stronger password."},
		{CodeWrongPassword, KindUnknown, "raw provider text"},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			p := &stubProvider{err: &ProviderError{Code: tc.code, Message: "raw provider text"}}
			err := NewSignUpForm(p, nil).Submit(context.Background(), "a@b.co", "pw")

			assert.Equal(t, tc.kind, KindOf(err))
			assert.EqualError(t, err, tc.message)
		})
	}
}

func TestFormNonProviderErrorIsUnknown(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	p := &stubProvider{err: cause}

	err := NewSignInForm(p, nil).Submit(context.Background(), "a@b.co", "pw")
	assert.Equal(t, KindUnknown, KindOf(err))
	assert.ErrorIs(t, err, cause)
}

func TestFormSuccessClosesAndNotifies(t *testing.T) {
	p := &stubProvider{}
	o := NewObserver(p, nil)
	defer o.Close()

	closed := false
	require.NoError(t, NewSignUpForm(p, func() { closed = true }).Submit(context.Background(), "new@b.co", "pw"))

	assert.True(t, closed)
	assert.True(t, o.Authenticated())
	assert.Equal(t, "new@b.co", o.Session().Identity.Email)
}

func TestProviderCode(t *testing.T) {
	code, ok := ProviderCode(errors.Join(errors.New("ctx"), &ProviderError{Code: CodeWeakPassword}))
	assert.True(t, ok)
	assert.Equal(t, CodeWeakPassword, code)

	_, ok = ProviderCode(errors.New("plain"))
	assert.False(t, ok)
}
