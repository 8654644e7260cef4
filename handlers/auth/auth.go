package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/edtech-checkout/handlers"
	"github.com/sahilchouksey/edtech-checkout/services/identity"
	"github.com/sahilchouksey/edtech-checkout/utils/middleware"
	"github.com/sahilchouksey/edtech-checkout/utils/response"
	"github.com/sahilchouksey/edtech-checkout/utils/validation"
)

// AuthHandler serves the sign-in and sign-up forms and sign out
type AuthHandler struct {
	secureCookies bool
}

func NewAuthHandler(secureCookies bool) *AuthHandler {
	return &AuthHandler{secureCookies: secureCookies}
}

// CredentialsRequest is the body of both forms. Empty fields are left to the
// form, which answers them with its own message.
type CredentialsRequest struct {
	Email    string `json:"email" validate:"max=254"`
	Password string `json:"password" validate:"max=128"`
}

type submitFunc func(ctx context.Context, email, password string) error

// SignIn handles POST /api/v1/auth/sign-in
func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	s, ok := middleware.GetStorefront(c)
	if !ok {
		return response.InternalServerError(c, "")
	}
	return h.submit(c, s.SignIn, identity.MsgSignInSuccess)
}

// SignUp handles POST /api/v1/auth/sign-up
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	s, ok := middleware.GetStorefront(c)
	if !ok {
		return response.InternalServerError(c, "")
	}
	return h.submit(c, s.SignUp, identity.MsgSignUpSuccess)
}

func (h *AuthHandler) submit(c *fiber.Ctx, form submitFunc, success string) error {
	var req CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.Summary(err))
	}

	if err := form(c.UserContext(), req.Email, req.Password); err != nil {
		return handlers.RespondError(c, err)
	}

	s, _ := middleware.GetStorefront(c)
	if session := s.Session(); session.Identity != nil && session.Identity.Token != "" {
		middleware.SetIdentityCookie(c, session.Identity.Token, h.secureCookies)
	}
	return response.SuccessWithMessage(c, success, s.View())
}

// SignOut handles POST /api/v1/auth/sign-out. The checkout is reset and the
// identity cookie cleared even if the provider call fails.
func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	s, ok := middleware.GetStorefront(c)
	if !ok {
		return response.InternalServerError(c, "")
	}

	middleware.ClearIdentityCookie(c, h.secureCookies)
	if err := s.SignOut(c.UserContext()); err != nil {
		return handlers.RespondError(c, err)
	}
	return response.SuccessWithMessage(c, "Logged out", s.View())
}
