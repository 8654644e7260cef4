// Package paypalorder is the widget payment delegate. The browser widget
// asks the server to create an order, the buyer approves it in the PayPal
// popup, then the server captures it.
package paypalorder

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/plutov/paypal/v4"
	"github.com/sahilchouksey/edtech-checkout/services/payment"
	"go.uber.org/zap"
)

// StatusCompleted is the capture status of a paid order
const StatusCompleted = "COMPLETED"

// OrdersAPI is the part of the PayPal client used here
type OrdersAPI interface {
	CreateOrder(ctx context.Context, intent string, units []paypal.PurchaseUnitRequest, source *paypal.PaymentSource, app *paypal.ApplicationContext) (*paypal.Order, error)
	CaptureOrder(ctx context.Context, orderID string, req paypal.CaptureOrderRequest) (*paypal.CaptureOrderResponse, error)
}

var _ OrdersAPI = (*paypal.Client)(nil)

type Delegate struct {
	orders OrdersAPI
	log    *zap.Logger
}

// New builds a delegate for the PayPal REST API at apiBase
// (paypal.APIBaseSandBox or paypal.APIBaseLive).
func New(clientID, secret, apiBase string, log *zap.Logger) (*Delegate, error) {
	if apiBase == "" {
		apiBase = paypal.APIBaseSandBox
	}
	client, err := paypal.NewClient(clientID, secret, apiBase)
	if err != nil {
		return nil, fmt.Errorf("paypal client: %w", err)
	}
	return NewWithAPI(client, log), nil
}

func NewWithAPI(api OrdersAPI, log *zap.Logger) *Delegate {
	if log == nil {
		log = zap.NewNop()
	}
	return &Delegate{orders: api, log: log.Named("payment.paypal")}
}

// CreateOrder opens a CAPTURE order for exactly item.Amount and returns its id.
func (d *Delegate) CreateOrder(ctx context.Context, item payment.LineItem) (string, error) {
	if !item.Amount.IsPositive() {
		return "", payment.Dispatch(fmt.Errorf("amount must be positive, got %s", item.Amount))
	}

	units := []paypal.PurchaseUnitRequest{
		{
			Description: item.Name,
			Amount: &paypal.PurchaseUnitAmount{
				Currency: strings.ToUpper(item.Currency),
				Value:    item.Amount.StringFixed(2),
			},
		},
	}

	order, err := d.orders.CreateOrder(ctx, paypal.OrderIntentCapture, units, nil, nil)
	if err != nil {
		d.log.Error("creating order failed", zap.Error(err))
		return "", classify(err)
	}

	d.log.Info("order created", zap.String("order_id", order.ID), zap.String("value", item.Amount.StringFixed(2)))
	return order.ID, nil
}

// Capture collects an approved order. Only a COMPLETED capture is a success.
func (d *Delegate) Capture(ctx context.Context, orderID string) payment.Outcome {
	resp, err := d.orders.CaptureOrder(ctx, orderID, paypal.CaptureOrderRequest{})
	if err != nil {
		d.log.Error("capturing order failed", zap.String("order_id", orderID), zap.Error(err))
		return payment.OutcomeOf(classify(err))
	}

	if resp.Status != StatusCompleted {
		d.log.Warn("order not completed", zap.String("order_id", orderID), zap.String("status", resp.Status))
		return payment.OutcomeOf(payment.Declined(fmt.Sprintf("order status %s", resp.Status)))
	}
	return payment.Succeeded()
}

// WidgetError is the outcome of the browser widget reporting an error
func WidgetError(message string) payment.Outcome {
	if message == "" {
		message = "PayPal checkout error"
	}
	return payment.OutcomeOf(payment.Declined(message))
}

// classify treats 422 responses (declined instruments, unapproved orders)
// as provider declines and everything else as dispatch failures.
func classify(err error) error {
	var perr *paypal.ErrorResponse
	if errors.As(err, &perr) && perr.Response != nil && perr.Response.StatusCode == http.StatusUnprocessableEntity {
		reason := perr.Name
		if len(perr.Details) > 0 && perr.Details[0].Issue != "" {
			reason = perr.Details[0].Issue
		}
		return payment.Declined(reason)
	}
	return payment.Dispatch(err)
}
