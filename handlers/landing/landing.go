package landing

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/edtech-checkout/utils/middleware"
	"github.com/sahilchouksey/edtech-checkout/utils/response"
)

const (
	Title       = "EdTech Product"
	Headline    = "Empower Your Learning With Our EdTech Solutions"
	Tagline     = "Join our community and unlock the potential within you. Learn at your own pace with our tailored courses."
	CheckoutCTA = "Choose your payment method and enter any coupon codes you have."
)

// Action is a header button
type Action struct {
	Label  string `json:"label"`
	Method string `json:"method"`
	Path   string `json:"path"`
}

type Page struct {
	Title      string   `json:"title"`
	Headline   string   `json:"headline"`
	Tagline    string   `json:"tagline"`
	LoggedInAs string   `json:"logged_in_as,omitempty"`
	Actions    []Action `json:"actions"`
	Checkout   string   `json:"checkout,omitempty"`
}

var (
	loginAction  = Action{Label: "Login", Method: fiber.MethodPost, Path: "/api/v1/auth/sign-in"}
	signUpAction = Action{Label: "Sign Up", Method: fiber.MethodPost, Path: "/api/v1/auth/sign-up"}
	logoutAction = Action{Label: "Logout", Method: fiber.MethodPost, Path: "/api/v1/auth/sign-out"}
)

// GetLanding handles GET /api/v1/landing. It must run after middleware.OptionalSession.
func GetLanding(c *fiber.Ctx) error {
	page := Page{
		Title:    Title,
		Headline: Headline,
		Tagline:  Tagline,
		Actions:  []Action{loginAction, signUpAction},
	}

	if email, ok := middleware.GetUserEmail(c); ok {
		page.LoggedInAs = "Logged in as: " + email
		page.Actions = []Action{logoutAction}
		page.Checkout = CheckoutCTA
	}

	return response.Success(c, page)
}
