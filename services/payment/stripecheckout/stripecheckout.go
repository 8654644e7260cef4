// Package stripecheckout is the redirect payment delegate: the visitor is
// sent to a hosted Stripe Checkout page and comes back to a return URL.
package stripecheckout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sahilchouksey/edtech-checkout/services/payment"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"go.uber.org/zap"
)

// SessionPlaceholder is substituted by Stripe with the session id in the success URL
const SessionPlaceholder = "{CHECKOUT_SESSION_ID}"

var ErrCanceled = errors.New("checkout canceled")

// SessionAPI is the part of the Stripe checkout session client used here
type SessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Expire(id string, params *stripe.CheckoutSessionExpireParams) (*stripe.CheckoutSession, error)
}

var _ SessionAPI = (*session.Client)(nil)

// Checkout is a created hosted checkout page
type Checkout struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type Delegate struct {
	sessions SessionAPI
	log      *zap.Logger
}

// New builds a delegate talking to the Stripe API with secretKey
func New(secretKey string, log *zap.Logger) *Delegate {
	client := &session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey}
	return NewWithAPI(client, log)
}

func NewWithAPI(api SessionAPI, log *zap.Logger) *Delegate {
	if log == nil {
		log = zap.NewNop()
	}
	return &Delegate{sessions: api, log: log.Named("payment.stripe")}
}

// StartCheckout creates a one-item checkout session charging item.Amount.
func (d *Delegate) StartCheckout(ctx context.Context, item payment.LineItem, successURL, cancelURL string) (Checkout, error) {
	if !item.Amount.IsPositive() {
		return Checkout{}, payment.Dispatch(fmt.Errorf("amount must be positive, got %s", item.Amount))
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(strings.ToLower(item.Currency)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(item.Name),
					},
					UnitAmount: stripe.Int64(payment.MinorUnits(item.Amount)),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx

	sess, err := d.sessions.New(params)
	if err != nil {
		d.log.Error("creating checkout session failed", zap.Error(err))
		return Checkout{}, classify(err)
	}

	d.log.Info("checkout session created",
		zap.String("session_id", sess.ID),
		zap.Int64("unit_amount", payment.MinorUnits(item.Amount)),
	)
	return Checkout{ID: sess.ID, URL: sess.URL}, nil
}

// Confirm looks up a session after the visitor returns and reports whether
// it was paid. A lookup that never reached Stripe is returned as an error
// instead of an outcome, because the visitor may have paid already.
func (d *Delegate) Confirm(ctx context.Context, sessionID string) (payment.Outcome, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := d.sessions.Get(sessionID, params)
	if err != nil {
		d.log.Error("retrieving checkout session failed", zap.String("session_id", sessionID), zap.Error(err))
		cerr := classify(err)
		if payment.KindOf(cerr) == payment.DispatchFailed {
			return payment.Outcome{}, cerr
		}
		return payment.OutcomeOf(cerr), nil
	}

	switch sess.PaymentStatus {
	case stripe.CheckoutSessionPaymentStatusPaid, stripe.CheckoutSessionPaymentStatusNoPaymentRequired:
		return payment.Succeeded(), nil
	}
	if sess.Status == stripe.CheckoutSessionStatusExpired {
		return payment.OutcomeOf(payment.Declined("checkout session expired")), nil
	}
	return payment.OutcomeOf(payment.Declined(fmt.Sprintf("payment status %s", sess.PaymentStatus))), nil
}

// Expire closes an open session so its hosted page can no longer take a payment.
func (d *Delegate) Expire(ctx context.Context, sessionID string) error {
	params := &stripe.CheckoutSessionExpireParams{}
	params.Context = ctx

	if _, err := d.sessions.Expire(sessionID, params); err != nil {
		d.log.Warn("expiring checkout session failed", zap.String("session_id", sessionID), zap.Error(err))
		return classify(err)
	}
	d.log.Info("checkout session expired", zap.String("session_id", sessionID))
	return nil
}

// Canceled is the outcome of a visitor coming back through the cancel URL
func Canceled() payment.Outcome {
	return payment.OutcomeOf(payment.Declined(ErrCanceled.Error()))
}

// classify separates card declines from transport and API failures
func classify(err error) error {
	var serr *stripe.Error
	if errors.As(err, &serr) && serr.Type == stripe.ErrorTypeCard {
		reason := serr.Msg
		if serr.DeclineCode != "" {
			reason = string(serr.DeclineCode)
		}
		return payment.Declined(reason)
	}
	return payment.Dispatch(err)
}
