package identity

import (
	"context"
	"errors"
)

// AuthErrorKind is the user-facing category of a failed form submission
type AuthErrorKind string

const (
	KindMissingCredentials AuthErrorKind = "missing_credentials"
	KindInvalidEmail       AuthErrorKind = "invalid_email"
	KindUserNotFound       AuthErrorKind = "user_not_found"
	KindWrongPassword      AuthErrorKind = "wrong_password"
	KindTooManyAttempts    AuthErrorKind = "too_many_attempts"
	KindEmailAlreadyInUse  AuthErrorKind = "email_already_in_use"
	KindWeakPassword       AuthErrorKind = "weak_password"
	KindUnknown            AuthErrorKind = "unknown"
)

const (
	MsgSignInSuccess = "Login successful!"
	MsgSignUpSuccess = "Sign up successful!"
)

// AuthError is returned by form submissions. Message is shown to the user as is.
type AuthError struct {
	Kind    AuthErrorKind
	Message string
	Cause   error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Cause
}

// KindOf returns the AuthErrorKind of err, or "" when err is not an AuthError.
func KindOf(err error) AuthErrorKind {
	var aerr *AuthError
	if errors.As(err, &aerr) {
		return aerr.Kind
	}
	return ""
}

type mapping struct {
	kind    AuthErrorKind
	message string
}

var signInErrors = map[string]mapping{
	CodeInvalidEmail:    {KindInvalidEmail, "Invalid email address."},
	CodeUserNotFound:    {KindUserNotFound, "No user found with this email."},
	CodeWrongPassword:   {KindWrongPassword, "Incorrect password."},
	CodeTooManyRequests: {KindTooManyAttempts, "Too many failed login attempts. Please try again later."},
}

var signUpErrors = map[string]mapping{
	CodeInvalidEmail:      {KindInvalidEmail, "Invalid email address."},
	CodeEmailAlreadyInUse: {KindEmailAlreadyInUse, "Email already in use. Please use a different email."},
	CodeWeakPassword:      {KindWeakPassword, "Password is too weak. Please choose a stronger password."},
}

func translate(err error, table map[string]mapping) *AuthError {
	var perr *ProviderError
	if !errors.As(err, &perr) {
		return &AuthError{Kind: KindUnknown, Message: err.Error(), Cause: err}
	}
	if m, ok := table[perr.Code]; ok {
		return &AuthError{Kind: m.kind, Message: m.message, Cause: err}
	}
	return &AuthError{Kind: KindUnknown, Message: perr.Message, Cause: err}
}

type submitFunc func(ctx context.Context, email, password string) (*Identity, error)

func submit(ctx context.Context, email, password, missing string, call submitFunc, table map[string]mapping, onClose func()) error {
	if email == "" || password == "" {
		return &AuthError{Kind: KindMissingCredentials, Message: missing}
	}

	if _, err := call(ctx, email, password); err != nil {
		return translate(err, table)
	}

	if onClose != nil {
		onClose()
	}
	return nil
}

// SignInForm collects credentials for an existing account
type SignInForm struct {
	provider Provider
	onClose  func()
}

func NewSignInForm(provider Provider, onClose func()) *SignInForm {
	return &SignInForm{provider: provider, onClose: onClose}
}

// Submit signs in through the provider. On success the form closes itself.
func (f *SignInForm) Submit(ctx context.Context, email, password string) error {
	return submit(ctx, email, password, "Email and password are required",
		f.provider.SignIn, signInErrors, f.onClose)
}

// SignUpForm collects credentials for a new account
type SignUpForm struct {
	provider Provider
	onClose  func()
}

func NewSignUpForm(provider Provider, onClose func()) *SignUpForm {
	return &SignUpForm{provider: provider, onClose: onClose}
}

// Submit creates the account through the provider. On success the form closes itself.
func (f *SignUpForm) Submit(ctx context.Context, email, password string) error {
	return submit(ctx, email, password, "Email and password are required.",
		f.provider.SignUp, signUpErrors, f.onClose)
}
