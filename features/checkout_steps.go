// Package features holds the acceptance suite for the checkout flow.
package features

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cucumber/godog"
	"github.com/sahilchouksey/edtech-checkout/services/checkout"
	"github.com/sahilchouksey/edtech-checkout/services/identity"
	"github.com/sahilchouksey/edtech-checkout/services/payment"
	"github.com/sahilchouksey/edtech-checkout/services/payment/stripecheckout"
	"github.com/sahilchouksey/edtech-checkout/services/storefront"
	"github.com/shopspring/decimal"
)

const stepTimeout = 2 * time.Second

type provider struct {
	identity.Hub
}

func (p *provider) SignIn(ctx context.Context, email, password string) (*identity.Identity, error) {
	id := &identity.Identity{UID: "uid-" + email, Email: email}
	p.Publish(id)
	return id, nil
}

func (p *provider) SignUp(ctx context.Context, email, password string) (*identity.Identity, error) {
	return p.SignIn(ctx, email, password)
}

func (p *provider) SignOut(ctx context.Context) error {
	p.Publish(nil)
	return nil
}

type stripeStub struct{}

func (stripeStub) StartCheckout(ctx context.Context, item payment.LineItem, successURL, cancelURL string) (stripecheckout.Checkout, error) {
	return stripecheckout.Checkout{ID: "cs_1", URL: "https://checkout.stripe.test/cs_1"}, nil
}

func (stripeStub) Confirm(ctx context.Context, sessionID string) (payment.Outcome, error) {
	return payment.Succeeded(), nil
}

func (stripeStub) Expire(ctx context.Context, sessionID string) error {
	return nil
}

// paypalStub blocks CreateOrder while a gate is armed
type paypalStub struct {
	entered chan struct{}
	release chan struct{}
}

func (p *paypalStub) arm() {
	p.entered = make(chan struct{})
	p.release = make(chan struct{})
}

func (p *paypalStub) CreateOrder(ctx context.Context, item payment.LineItem) (string, error) {
	if p.entered != nil {
		close(p.entered)
		select {
		case <-p.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "ORDER-1", nil
}

func (p *paypalStub) Capture(ctx context.Context, orderID string) payment.Outcome {
	return payment.Succeeded()
}

type orderResult struct {
	id  string
	err error
}

type checkoutContext struct {
	policy   checkout.CouponPolicy
	provider *provider
	paypal   *paypalStub
	front    *storefront.Storefront

	lastErr error
	pending chan orderResult
	notices []storefront.Notice
}

func (c *checkoutContext) close() {
	if c.front != nil {
		c.front.Close()
	}
}

// view renders the page and keeps the notices it hands over
func (c *checkoutContext) view() storefront.View {
	v := c.storefront().View()
	c.notices = append(c.notices, v.Notices...)
	return v
}

func (c *checkoutContext) storefront() *storefront.Storefront {
	if c.front == nil {
		c.provider = &provider{}
		c.front = storefront.New("visitor", c.provider, storefront.Deps{
			Policy: c.policy,
			Stripe: stripeStub{},
			PayPal: c.paypal,
		})
	}
	return c.front
}

func (c *checkoutContext) couponTakesOff(code string, amount int) error {
	c.policy = checkout.FlatDiscount{Code: code, Amount: decimal.NewFromInt(int64(amount))}
	return nil
}

func (c *checkoutContext) providersAvailable() error {
	c.paypal = &paypalStub{}
	return nil
}

func (c *checkoutContext) signedInAs(email string) error {
	return c.storefront().SignIn(context.Background(), email, "secret")
}

func (c *checkoutContext) signedOut() error {
	if c.storefront().Session().Authenticated {
		return errors.New("expected a signed-out visitor")
	}
	return nil
}

func (c *checkoutContext) selectCourse(id int) error {
	c.lastErr = c.storefront().SelectCourse(id)
	return nil
}

func (c *checkoutContext) applyCoupon(code string) error {
	c.lastErr = c.storefront().ApplyCoupon(code)
	return nil
}

func (c *checkoutContext) choosePayment(method string) error {
	c.lastErr = c.storefront().ChoosePayment(checkout.PaymentChoice(method))
	return nil
}

func (c *checkoutContext) completeStripe() error {
	s := c.storefront()
	co, err := s.StartStripeCheckout("https://shop.test/ok", "https://shop.test/cancel")
	if err != nil {
		return err
	}
	outcome, err := s.ReturnFromStripe(co.ID, false)
	if err != nil {
		return err
	}
	if !outcome.Success {
		return fmt.Errorf("payment failed: %s", outcome.Reason)
	}
	return nil
}

func (c *checkoutContext) cancelStripe() error {
	s := c.storefront()
	co, err := s.StartStripeCheckout("https://shop.test/ok", "https://shop.test/cancel")
	if err != nil {
		return err
	}
	_, err = s.ReturnFromStripe(co.ID, true)
	return err
}

func (c *checkoutContext) orderBeingCreated() error {
	c.paypal.arm()
	c.pending = make(chan orderResult, 1)
	s := c.storefront()
	go func() {
		id, err := s.CreatePayPalOrder()
		c.pending <- orderResult{id: id, err: err}
	}()

	select {
	case <-c.paypal.entered:
		return nil
	case <-time.After(stepTimeout):
		return errors.New("PayPal order was never requested")
	}
}

func (c *checkoutContext) orderFinishes() error {
	close(c.paypal.release)
	select {
	case res := <-c.pending:
		c.lastErr = res.err
		return nil
	case <-time.After(stepTimeout):
		return errors.New("PayPal order did not finish")
	}
}

func (c *checkoutContext) providerSignsOut() error {
	c.provider.Publish(nil)
	return nil
}

func (c *checkoutContext) lateResultIgnored() error {
	if !errors.Is(c.lastErr, storefront.ErrStaleResult) {
		return fmt.Errorf("expected the result to be dropped, got %v", c.lastErr)
	}
	return nil
}

func (c *checkoutContext) chargeAmountIs(amount int) error {
	got := c.view().ChargeAmount
	if !got.Equal(decimal.NewFromInt(int64(amount))) {
		return fmt.Errorf("charge amount is %s, want %d", got, amount)
	}
	return nil
}

func (c *checkoutContext) activePaymentIs(method string) error {
	if got := c.view().ActivePayment; string(got) != method {
		return fmt.Errorf("active payment is %q, want %q", got, method)
	}
	return nil
}

func (c *checkoutContext) noPaymentActive() error {
	return c.activePaymentIs("")
}

func (c *checkoutContext) phaseIs(phase string) error {
	if got := c.view().Phase; string(got) != phase {
		return fmt.Errorf("phase is %q, want %q", got, phase)
	}
	return nil
}

// toldThat looks for message among the notices shown so far and consumes them
func (c *checkoutContext) toldThat(message string) error {
	c.view()
	notices := c.notices
	c.notices = nil
	for _, n := range notices {
		if n.Message == message {
			return nil
		}
	}
	return fmt.Errorf("no notice %q in %v", message, notices)
}

// InitCheckoutSteps registers the checkout step definitions
func InitCheckoutSteps(ctx *godog.ScenarioContext) {
	cc := &checkoutContext{}

	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		cc.close()
		return ctx, nil
	})

	ctx.Step(`^the coupon "([^"]*)" takes (\d+) off the course price$`, cc.couponTakesOff)
	ctx.Step(`^PayPal and Stripe are available$`, cc.providersAvailable)
	ctx.Step(`^I am signed in as "([^"]*)"$`, cc.signedInAs)
	ctx.Step(`^I am signed out$`, cc.signedOut)
	ctx.Step(`^I select course (\d+)$`, cc.selectCourse)
	ctx.Step(`^I apply the coupon "([^"]*)"$`, cc.applyCoupon)
	ctx.Step(`^I choose to pay with "([^"]*)"$`, cc.choosePayment)
	ctx.Step(`^I complete the Stripe checkout$`, cc.completeStripe)
	ctx.Step(`^I cancel the Stripe checkout$`, cc.cancelStripe)
	ctx.Step(`^the PayPal order is being created$`, cc.orderBeingCreated)
	ctx.Step(`^PayPal finishes creating the order$`, cc.orderFinishes)
	ctx.Step(`^the identity provider signs me out$`, cc.providerSignsOut)
	ctx.Step(`^the late result is ignored$`, cc.lateResultIgnored)
	ctx.Step(`^the charge amount is (\d+)$`, cc.chargeAmountIs)
	ctx.Step(`^the active payment is "([^"]*)"$`, cc.activePaymentIs)
	ctx.Step(`^no payment is active$`, cc.noPaymentActive)
	ctx.Step(`^the phase is "([^"]*)"$`, cc.phaseIs)
	ctx.Step(`^I am told "([^"]*)"$`, cc.toldThat)
}
