package storefront

import (
	"errors"

	"github.com/sahilchouksey/edtech-checkout/services/checkout"
	"github.com/sahilchouksey/edtech-checkout/services/identity"
)

type NoticeLevel string

const (
	LevelSuccess NoticeLevel = "success"
	LevelError   NoticeLevel = "error"
)

// Notice is a transient message for the visitor, shown once
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

const (
	MsgInvalidCoupon     = "Invalid coupon code"
	MsgPaymentSuccessful = "Payment successful"
	MsgPaymentFailed     = "Payment failed: "
	MsgNotAuthenticated  = "Please log in to continue"
	MsgPaymentUnverified = "Could not verify the payment yet. Please try again."
)

// MessageFor returns the text shown to the visitor for err
func MessageFor(err error) string {
	var aerr *identity.AuthError
	switch {
	case errors.As(err, &aerr):
		return aerr.Message
	case errors.Is(err, checkout.ErrInvalidCoupon):
		return MsgInvalidCoupon
	case errors.Is(err, checkout.ErrNotAuthenticated):
		return MsgNotAuthenticated
	case errors.Is(err, checkout.ErrNoSelection):
		return "Select a course first"
	case errors.Is(err, checkout.ErrNoChargeableAmount):
		return "Nothing to pay for"
	case errors.Is(err, checkout.ErrPaymentPending):
		return "A payment is already in progress"
	}
	return err.Error()
}
