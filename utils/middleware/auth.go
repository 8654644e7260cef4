package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/edtech-checkout/services/identity"
	"github.com/sahilchouksey/edtech-checkout/services/storefront"
	"github.com/sahilchouksey/edtech-checkout/utils/response"
)

// RequireSession rejects visitors who are not signed in. It must run after
// StorefrontMiddleware.Attach.
func RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, ok := GetStorefront(c)
		if !ok {
			return response.InternalServerError(c, "storefront not attached")
		}

		session := s.Session()
		if !session.Authenticated {
			return response.Unauthorized(c, storefront.MsgNotAuthenticated)
		}

		setUser(c, session.Identity)
		return c.Next()
	}
}

// OptionalSession exposes the signed-in user when there is one but never rejects.
func OptionalSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if s, ok := GetStorefront(c); ok {
			if session := s.Session(); session.Authenticated {
				setUser(c, session.Identity)
			}
		}
		return c.Next()
	}
}

func setUser(c *fiber.Ctx, id *identity.Identity) {
	c.Locals("user_id", id.UID)
	c.Locals("user_email", id.Email)
}

// GetUserID extracts user id from context
func GetUserID(c *fiber.Ctx) (string, bool) {
	uid, ok := c.Locals("user_id").(string)
	return uid, ok
}

// GetUserEmail extracts user email from context
func GetUserEmail(c *fiber.Ctx) (string, bool) {
	email, ok := c.Locals("user_email").(string)
	return email, ok
}
