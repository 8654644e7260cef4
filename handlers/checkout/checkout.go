package checkout

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/edtech-checkout/handlers"
	"github.com/sahilchouksey/edtech-checkout/services/checkout"
	"github.com/sahilchouksey/edtech-checkout/services/payment"
	"github.com/sahilchouksey/edtech-checkout/services/payment/paypalorder"
	"github.com/sahilchouksey/edtech-checkout/services/payment/stripecheckout"
	"github.com/sahilchouksey/edtech-checkout/services/storefront"
	"github.com/sahilchouksey/edtech-checkout/utils/middleware"
	"github.com/sahilchouksey/edtech-checkout/utils/response"
	"github.com/sahilchouksey/edtech-checkout/utils/validation"
	"go.uber.org/zap"
)

const stripeReturnPath = "/api/v1/checkout/stripe/return"

// CheckoutHandler serves the checkout section of the page
type CheckoutHandler struct {
	publicBaseURL string
	log           *zap.Logger
}

func NewCheckoutHandler(publicBaseURL string, log *zap.Logger) *CheckoutHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CheckoutHandler{publicBaseURL: publicBaseURL, log: log}
}

type SelectCourseRequest struct {
	CourseID int `json:"course_id" validate:"required,gt=0"`
}

type ApplyCouponRequest struct {
	Code string `json:"code" validate:"max=64"`
}

type ChoosePaymentRequest struct {
	Method string `json:"method" validate:"required,oneof=paypal stripe"`
}

type WidgetErrorRequest struct {
	Message string `json:"message" validate:"max=500"`
}

// PaymentResult is returned by the endpoints that finish a payment
type PaymentResult struct {
	Outcome payment.Outcome `json:"outcome"`
	View    storefront.View `json:"view"`
}

func storefrontOf(c *fiber.Ctx) (*storefront.Storefront, error) {
	s, ok := middleware.GetStorefront(c)
	if !ok {
		return nil, response.InternalServerError(c, "storefront not attached")
	}
	return s, nil
}

func (h *CheckoutHandler) logOutcome(c *fiber.Ctx, method checkout.PaymentChoice, outcome payment.Outcome) {
	uid, _ := middleware.GetUserID(c)
	h.log.Info("payment finished",
		zap.String("user_id", uid),
		zap.String("method", string(method)),
		zap.Bool("success", outcome.Success),
		zap.String("reason", outcome.Reason),
	)
}

// parse binds and validates the body into req; on failure the response is already written.
func parse(c *fiber.Ctx, req interface{}) bool {
	if err := c.BodyParser(req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return false
	}
	if err := validation.ValidateStruct(req); err != nil {
		response.ValidationError(c, validation.Summary(err))
		return false
	}
	return true
}

// GetView handles GET /api/v1/checkout
func (h *CheckoutHandler) GetView(c *fiber.Ctx) error {
	s, err := storefrontOf(c)
	if s == nil {
		return err
	}
	return response.Success(c, s.View())
}

// SelectCourse handles POST /api/v1/checkout/course
func (h *CheckoutHandler) SelectCourse(c *fiber.Ctx) error {
	s, err := storefrontOf(c)
	if s == nil {
		return err
	}

	var req SelectCourseRequest
	if !parse(c, &req) {
		return nil
	}
	if err := s.SelectCourse(req.CourseID); err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, s.View())
}

// ApplyCoupon handles POST /api/v1/checkout/coupon
func (h *CheckoutHandler) ApplyCoupon(c *fiber.Ctx) error {
	s, err := storefrontOf(c)
	if s == nil {
		return err
	}

	var req ApplyCouponRequest
	if !parse(c, &req) {
		return nil
	}
	if err := s.ApplyCoupon(req.Code); err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, s.View())
}

// ChoosePayment handles POST /api/v1/checkout/payment
func (h *CheckoutHandler) ChoosePayment(c *fiber.Ctx) error {
	s, err := storefrontOf(c)
	if s == nil {
		return err
	}

	var req ChoosePaymentRequest
	if !parse(c, &req) {
		return nil
	}
	method, err := checkout.ParsePaymentChoice(req.Method)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	if err := s.ChoosePayment(method); err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, s.View())
}

// CreatePayPalOrder handles POST /api/v1/checkout/paypal/orders
func (h *CheckoutHandler) CreatePayPalOrder(c *fiber.Ctx) error {
	s, err := storefrontOf(c)
	if s == nil {
		return err
	}

	orderID, err := s.CreatePayPalOrder()
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, fiber.Map{"order_id": orderID})
}

// CapturePayPalOrder handles POST /api/v1/checkout/paypal/orders/:id/capture
func (h *CheckoutHandler) CapturePayPalOrder(c *fiber.Ctx) error {
	s, err := storefrontOf(c)
	if s == nil {
		return err
	}

	outcome, err := s.CapturePayPalOrder(c.Params("id"))
	if err != nil {
		return handlers.RespondError(c, err)
	}
	h.logOutcome(c, checkout.PaymentPayPal, outcome)
	return response.Success(c, PaymentResult{Outcome: outcome, View: s.View()})
}

// PayPalWidgetError handles POST /api/v1/checkout/paypal/error
func (h *CheckoutHandler) PayPalWidgetError(c *fiber.Ctx) error {
	s, err := storefrontOf(c)
	if s == nil {
		return err
	}

	var req WidgetErrorRequest
	if !parse(c, &req) {
		return nil
	}
	outcome := paypalorder.WidgetError(req.Message)
	if err := s.PayPalWidgetError(outcome); err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, PaymentResult{Outcome: outcome, View: s.View()})
}

// StartStripeCheckout handles POST /api/v1/checkout/stripe/session
func (h *CheckoutHandler) StartStripeCheckout(c *fiber.Ctx) error {
	s, err := storefrontOf(c)
	if s == nil {
		return err
	}

	returnURL := h.publicBaseURL + stripeReturnPath
	successURL := returnURL + "?session_id=" + stripecheckout.SessionPlaceholder
	cancelURL := returnURL + "?canceled=true"

	co, err := s.StartStripeCheckout(successURL, cancelURL)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, co)
}

// ReturnFromStripe handles GET /api/v1/checkout/stripe/return
func (h *CheckoutHandler) ReturnFromStripe(c *fiber.Ctx) error {
	s, err := storefrontOf(c)
	if s == nil {
		return err
	}

	outcome, err := s.ReturnFromStripe(c.Query("session_id"), c.QueryBool("canceled"))
	if err != nil {
		return handlers.RespondError(c, err)
	}
	h.logOutcome(c, checkout.PaymentStripe, outcome)
	return response.Success(c, PaymentResult{Outcome: outcome, View: s.View()})
}
