package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sahilchouksey/edtech-checkout/services/storefront"
	"go.uber.org/zap"
)

const (
	StorefrontCookie = "storefront_id"
	IdentityCookie   = "identity_token"

	storefrontKey = "storefront"
)

// StorefrontMiddleware attaches the visitor's storefront to every request
type StorefrontMiddleware struct {
	registry *storefront.Registry
	secure   bool
	log      *zap.Logger
}

func NewStorefrontMiddleware(registry *storefront.Registry, secureCookies bool, log *zap.Logger) *StorefrontMiddleware {
	if log == nil {
		log = zap.NewNop()
	}
	return &StorefrontMiddleware{registry: registry, secure: secureCookies, log: log}
}

// Attach identifies the visitor by cookie, issuing one if missing, and mounts
// their storefront. A fresh storefront resumes the session from the identity
// cookie when the provider supports it.
func (m *StorefrontMiddleware) Attach() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Cookies(StorefrontCookie)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
			c.Cookie(&fiber.Cookie{
				Name:     StorefrontCookie,
				Value:    id,
				Path:     "/",
				HTTPOnly: true,
				Secure:   m.secure,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		}

		s, created := m.registry.GetOrCreate(id)
		if token := c.Cookies(IdentityCookie); created && token != "" {
			if err := s.Resume(c.UserContext(), token); err != nil {
				m.log.Debug("session not resumed", zap.String("storefront_id", id), zap.Error(err))
				ClearIdentityCookie(c, m.secure)
			}
		}

		c.Locals(storefrontKey, s)
		return c.Next()
	}
}

// GetStorefront returns the storefront attached by Attach
func GetStorefront(c *fiber.Ctx) (*storefront.Storefront, bool) {
	s, ok := c.Locals(storefrontKey).(*storefront.Storefront)
	return s, ok
}

// SetIdentityCookie stores the provider token so a later storefront can resume the session
func SetIdentityCookie(c *fiber.Ctx, token string, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     IdentityCookie,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func ClearIdentityCookie(c *fiber.Ctx, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     IdentityCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
