// Package checkout holds the state machine that decides what a visitor is
// about to buy and how much they will be charged for it.
//
// A Machine is not safe for concurrent use. The storefront owning it
// serializes every event.
package checkout

import (
	"errors"

	"github.com/sahilchouksey/edtech-checkout/services/catalog"
	"github.com/sahilchouksey/edtech-checkout/services/payment"
	"github.com/shopspring/decimal"
)

var (
	ErrNotAuthenticated     = errors.New("you must be logged in to do that")
	ErrNoSelection          = errors.New("no course selected")
	ErrNoChargeableAmount   = errors.New("nothing to pay for")
	ErrInvalidCoupon        = errors.New("invalid coupon code")
	ErrPaymentPending       = errors.New("a payment is already in progress")
	ErrNoPaymentPending     = errors.New("no payment in progress")
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
)

// PaymentChoice names the active payment delegate
type PaymentChoice string

const (
	PaymentNone   PaymentChoice = ""
	PaymentPayPal PaymentChoice = "paypal"
	PaymentStripe PaymentChoice = "stripe"
)

// ParsePaymentChoice accepts "paypal" or "stripe"
func ParsePaymentChoice(s string) (PaymentChoice, error) {
	switch PaymentChoice(s) {
	case PaymentPayPal, PaymentStripe:
		return PaymentChoice(s), nil
	}
	return PaymentNone, ErrUnknownPaymentMethod
}

// Phase is the derived position of the machine
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseSelected       Phase = "selected"
	PhaseCouponApplied  Phase = "coupon_applied"
	PhasePaymentPending Phase = "payment_pending"
)

// SessionSource reports whether the visitor is currently signed in
type SessionSource interface {
	Authenticated() bool
}

// State is a snapshot of the machine
type State struct {
	Selection     *catalog.Course `json:"selection"`
	Coupon        string          `json:"coupon"`
	ChargeAmount  decimal.Decimal `json:"charge_amount"`
	PaymentChoice PaymentChoice   `json:"payment_choice"`
}

type Machine struct {
	session SessionSource
	policy  CouponPolicy
	state   State
}

func New(session SessionSource, policy CouponPolicy) *Machine {
	return &Machine{session: session, policy: policy}
}

// State returns a copy of the current state
func (m *Machine) State() State {
	s := m.state
	if s.Selection != nil {
		c := *s.Selection
		s.Selection = &c
	}
	return s
}

func (m *Machine) Phase() Phase {
	switch {
	case m.state.Selection == nil:
		return PhaseIdle
	case m.state.PaymentChoice != PaymentNone:
		return PhasePaymentPending
	case m.state.Coupon != "":
		return PhaseCouponApplied
	default:
		return PhaseSelected
	}
}

// SelectCourse starts a purchase of c at its list price.
func (m *Machine) SelectCourse(c catalog.Course) error {
	if !m.session.Authenticated() {
		return ErrNotAuthenticated
	}
	if m.state.PaymentChoice != PaymentNone {
		return ErrPaymentPending
	}

	m.state = State{
		Selection:    &c,
		ChargeAmount: c.Price,
	}
	return nil
}

// ApplyCoupon recomputes the charge from the selected course price. An
// unrecognized code leaves the state untouched.
func (m *Machine) ApplyCoupon(code string) error {
	if !m.session.Authenticated() {
		return ErrNotAuthenticated
	}
	if m.state.Selection == nil {
		return ErrNoSelection
	}
	if m.state.PaymentChoice != PaymentNone {
		return ErrPaymentPending
	}

	amount, ok := m.policy.Apply(code, m.state.Selection.Price)
	if !ok {
		return ErrInvalidCoupon
	}

	m.state.Coupon = code
	m.state.ChargeAmount = amount
	return nil
}

// ChoosePayment activates a payment delegate. Choosing again while a payment
// is pending switches the delegate.
func (m *Machine) ChoosePayment(method PaymentChoice) error {
	if !m.state.ChargeAmount.IsPositive() {
		return ErrNoChargeableAmount
	}
	if _, err := ParsePaymentChoice(string(method)); err != nil {
		return err
	}

	m.state.PaymentChoice = method
	return nil
}

// OnPaymentResult applies a delegate outcome. Success finishes the purchase and
// returns to idle; failure drops back to the pre-payment state.
func (m *Machine) OnPaymentResult(outcome payment.Outcome) error {
	if m.state.PaymentChoice == PaymentNone {
		return ErrNoPaymentPending
	}

	if outcome.Success {
		m.Reset()
		return nil
	}

	m.state.PaymentChoice = PaymentNone
	return nil
}

// Reset returns the machine to idle
func (m *Machine) Reset() {
	m.state = State{}
}

// Logout is Reset, named for the user action.
func (m *Machine) Logout() {
	m.Reset()
}
