package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/edtech-checkout/database"
	"github.com/sahilchouksey/edtech-checkout/handlers"
	auth_handlers "github.com/sahilchouksey/edtech-checkout/handlers/auth"
	catalog_handlers "github.com/sahilchouksey/edtech-checkout/handlers/catalog"
	checkout_handlers "github.com/sahilchouksey/edtech-checkout/handlers/checkout"
	landing_handlers "github.com/sahilchouksey/edtech-checkout/handlers/landing"
	"github.com/sahilchouksey/edtech-checkout/services/storefront"
	"github.com/sahilchouksey/edtech-checkout/utils"
	"github.com/sahilchouksey/edtech-checkout/utils/middleware"
	"go.uber.org/zap"
)

type Deps struct {
	Store    database.Storage // nil when no database is configured
	Cache    handlers.Pinger  // nil when redis is not configured
	Registry *storefront.Registry
	// Attempts backs the per-IP sign-in guard; nil disables it
	Attempts       middleware.AttemptStore
	AllowedOrigins string
	PublicBaseURL  string
	SecureCookies  bool
	// RateLimitRequests of 0 disables the global limiter
	RateLimitRequests int
	Logger            *zap.Logger
}

func SetupRoutes(app *fiber.App, deps Deps) {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    deps.AllowedOrigins,
		RateLimitRequests: deps.RateLimitRequests,
		RateLimitWindow:   time.Minute,
	})

	// Health check
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HealthCheck(deps.Cache), deps.Store))

	storefronts := middleware.NewStorefrontMiddleware(deps.Registry, deps.SecureCookies, log)
	api := app.Group("/api/v1", storefronts.Attach())

	api.Get("/landing", middleware.OptionalSession(), landing_handlers.GetLanding)

	// Auth routes
	authHandler := auth_handlers.NewAuthHandler(deps.SecureCookies)
	authGroup := api.Group("/auth")
	if deps.Attempts != nil {
		bruteForceProtection := middleware.NewBruteForceProtection(deps.Attempts, log)
		authGroup.Post("/sign-in", bruteForceProtection.CheckAndRecordAttempt(), authHandler.SignIn)
	} else {
		authGroup.Post("/sign-in", authHandler.SignIn)
	}
	authGroup.Post("/sign-up", authHandler.SignUp)
	authGroup.Post("/sign-out", authHandler.SignOut)

	// Catalog and checkout are only shown to signed-in visitors
	api.Get("/catalog", middleware.RequireSession(), catalog_handlers.ListCourses)

	checkoutHandler := checkout_handlers.NewCheckoutHandler(deps.PublicBaseURL, log)
	checkout := api.Group("/checkout")
	checkout.Get("/", checkoutHandler.GetView)
	checkout.Get("/events", checkoutHandler.Events)
	checkout.Post("/course", middleware.RequireSession(), checkoutHandler.SelectCourse)
	checkout.Post("/coupon", middleware.RequireSession(), checkoutHandler.ApplyCoupon)
	checkout.Post("/payment", middleware.RequireSession(), checkoutHandler.ChoosePayment)

	// Widget delegate callbacks
	paypal := checkout.Group("/paypal", middleware.RequireSession())
	paypal.Post("/orders", checkoutHandler.CreatePayPalOrder)
	paypal.Post("/orders/:id/capture", checkoutHandler.CapturePayPalOrder)
	paypal.Post("/error", checkoutHandler.PayPalWidgetError)

	// Redirect delegate
	stripe := checkout.Group("/stripe", middleware.RequireSession())
	stripe.Post("/session", checkoutHandler.StartStripeCheckout)
	stripe.Get("/return", checkoutHandler.ReturnFromStripe)
}
