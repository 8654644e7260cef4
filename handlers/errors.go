package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/edtech-checkout/services/catalog"
	"github.com/sahilchouksey/edtech-checkout/services/checkout"
	"github.com/sahilchouksey/edtech-checkout/services/identity"
	"github.com/sahilchouksey/edtech-checkout/services/payment"
	"github.com/sahilchouksey/edtech-checkout/services/storefront"
	"github.com/sahilchouksey/edtech-checkout/utils/response"
)

var authStatus = map[identity.AuthErrorKind]int{
	identity.KindMissingCredentials: fiber.StatusBadRequest,
	identity.KindInvalidEmail:       fiber.StatusUnprocessableEntity,
	identity.KindWeakPassword:       fiber.StatusUnprocessableEntity,
	identity.KindUserNotFound:       fiber.StatusUnauthorized,
	identity.KindWrongPassword:      fiber.StatusUnauthorized,
	identity.KindTooManyAttempts:    fiber.StatusTooManyRequests,
	identity.KindEmailAlreadyInUse:  fiber.StatusConflict,
}

// RespondError writes the envelope for an error returned by a storefront operation
func RespondError(c *fiber.Ctx, err error) error {
	message := storefront.MessageFor(err)

	var aerr *identity.AuthError
	if errors.As(err, &aerr) {
		if status, ok := authStatus[aerr.Kind]; ok {
			return response.Error(c, status, message, string(aerr.Kind))
		}
		switch code, _ := identity.ProviderCode(err); code {
		case identity.CodeNetworkRequestFail:
			return response.BadGateway(c, message)
		case identity.CodeInvalidCredential:
			return response.Error(c, fiber.StatusUnauthorized, message, string(identity.KindUnknown))
		}
		return response.Error(c, fiber.StatusBadRequest, message, string(identity.KindUnknown))
	}

	switch {
	case errors.Is(err, checkout.ErrNotAuthenticated):
		return response.Unauthorized(c, message)
	case errors.Is(err, checkout.ErrInvalidCoupon):
		return response.UnprocessableEntity(c, message, "INVALID_COUPON")
	case errors.Is(err, checkout.ErrNoSelection),
		errors.Is(err, checkout.ErrNoChargeableAmount):
		return response.UnprocessableEntity(c, message, "NOTHING_TO_PAY")
	case errors.Is(err, checkout.ErrPaymentPending),
		errors.Is(err, checkout.ErrNoPaymentPending),
		errors.Is(err, storefront.ErrWrongPaymentMethod),
		errors.Is(err, storefront.ErrStaleResult):
		return response.Conflict(c, message)
	case errors.Is(err, checkout.ErrUnknownPaymentMethod):
		return response.BadRequest(c, message)
	case errors.Is(err, catalog.ErrCourseNotFound),
		errors.Is(err, storefront.ErrUnknownPayment):
		return response.NotFound(c, message)
	case errors.Is(err, storefront.ErrDelegateUnavailable):
		return response.ServiceUnavailable(c, message)
	case errors.Is(err, storefront.ErrClosed):
		return response.Error(c, fiber.StatusGone, "Session expired, reload the page", "STOREFRONT_CLOSED")
	}

	switch payment.KindOf(err) {
	case payment.DispatchFailed:
		return response.BadGateway(c, message)
	case payment.ProviderDeclined:
		return response.UnprocessableEntity(c, message, "PAYMENT_DECLINED")
	}

	return response.InternalServerError(c, message)
}
