// Package payment defines what the payment delegates report back to checkout.
package payment

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrorKind classifies a delegate failure
type ErrorKind string

const (
	// DispatchFailed means the provider could not be reached or rejected the request itself.
	DispatchFailed ErrorKind = "dispatch_failed"
	// ProviderDeclined means the provider processed the payment and refused it.
	ProviderDeclined ErrorKind = "provider_declined"
)

// Error is returned by payment delegates
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Dispatch(err error) *Error {
	return &Error{Kind: DispatchFailed, Err: err}
}

func Declined(reason string) *Error {
	return &Error{Kind: ProviderDeclined, Err: errors.New(reason)}
}

// KindOf returns the kind of a payment error, or "" for anything else.
func KindOf(err error) ErrorKind {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return ""
}

// Outcome is the terminal result of a payment attempt
type Outcome struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

func Succeeded() Outcome {
	return Outcome{Success: true}
}

func Failed(reason string) Outcome {
	return Outcome{Reason: reason}
}

// OutcomeOf converts a delegate error into a failed outcome
func OutcomeOf(err error) Outcome {
	if err == nil {
		return Succeeded()
	}
	var perr *Error
	if errors.As(err, &perr) && perr.Err != nil {
		return Failed(perr.Err.Error())
	}
	return Failed(err.Error())
}

// LineItem is what gets checked out: one unit of a named product at Amount.
type LineItem struct {
	Name     string
	Amount   decimal.Decimal
	Currency string
}

// MinorUnits converts an amount to cents, rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
