// Package storefront composes one visitor's page: the session observer, the
// auth forms, the catalog, the checkout machine and the payment delegates.
//
// Every event is applied under the storefront lock, one at a time. Calls to
// the identity provider and the payment providers run outside the lock; a
// payment result is applied only if nothing invalidated the attempt while
// it was in flight.
package storefront

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sahilchouksey/edtech-checkout/services/catalog"
	"github.com/sahilchouksey/edtech-checkout/services/checkout"
	"github.com/sahilchouksey/edtech-checkout/services/identity"
	"github.com/sahilchouksey/edtech-checkout/services/payment"
	"github.com/sahilchouksey/edtech-checkout/services/payment/stripecheckout"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrClosed              = errors.New("storefront closed")
	ErrStaleResult         = errors.New("payment result no longer applies")
	ErrWrongPaymentMethod  = errors.New("payment method is not active")
	ErrUnknownPayment      = errors.New("unknown payment reference")
	ErrResumeUnsupported   = errors.New("identity provider cannot resume sessions")
	ErrDelegateUnavailable = errors.New("payment method not configured")
)

// StripeDelegate is the redirect delegate
type StripeDelegate interface {
	StartCheckout(ctx context.Context, item payment.LineItem, successURL, cancelURL string) (stripecheckout.Checkout, error)
	Confirm(ctx context.Context, sessionID string) (payment.Outcome, error)
	Expire(ctx context.Context, sessionID string) error
}

// PayPalDelegate is the widget delegate
type PayPalDelegate interface {
	CreateOrder(ctx context.Context, item payment.LineItem) (string, error)
	Capture(ctx context.Context, orderID string) payment.Outcome
}

// Deps are shared by every storefront
type Deps struct {
	Policy   checkout.CouponPolicy
	Stripe   StripeDelegate
	PayPal   PayPalDelegate
	Currency string
	Logger   *zap.Logger
	Now      func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Currency == "" {
		d.Currency = "USD"
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

type Storefront struct {
	id       string
	provider identity.Provider
	deps     Deps
	log      *zap.Logger

	observer *identity.Observer
	signIn   *identity.SignInForm
	signUp   *identity.SignUpForm

	// lifetime of in-flight provider calls
	ctx    context.Context
	cancel context.CancelFunc

	lastSeen  atomic.Int64
	closeOnce sync.Once

	mu         sync.Mutex
	closed     bool
	machine    *checkout.Machine
	generation uint64
	pendingRef string // stripe session or paypal order of the current attempt
	notices    []Notice
	fresh      []Notice // notices not yet pushed to watchers
	watchers   map[chan View]struct{}
}

// New mounts a storefront for visitor id on top of provider
func New(id string, provider identity.Provider, deps Deps) *Storefront {
	deps = deps.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	s := &Storefront{
		id:       id,
		provider: provider,
		deps:     deps,
		log:      deps.Logger.With(zap.String("storefront_id", id)),
		ctx:      ctx,
		cancel:   cancel,
		watchers: make(map[chan View]struct{}),
	}
	s.touch()

	s.observer = identity.NewObserver(provider, s.onSignedOut)
	s.machine = checkout.New(s.observer, deps.Policy)
	s.signIn = identity.NewSignInForm(provider, func() { s.notify(LevelSuccess, identity.MsgSignInSuccess) })
	s.signUp = identity.NewSignUpForm(provider, func() { s.notify(LevelSuccess, identity.MsgSignUpSuccess) })
	s.observer.Subscribe(func(identity.Session) { s.changed() })

	return s
}

func (s *Storefront) ID() string { return s.id }

func (s *Storefront) touch() {
	s.lastSeen.Store(s.deps.Now().UnixNano())
}

// LastSeen is the time of the last visitor action
func (s *Storefront) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// Session is the visitor's current session
func (s *Storefront) Session() identity.Session {
	return s.observer.Session()
}

// onSignedOut runs for every unauthenticated provider event
func (s *Storefront) onSignedOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.resetLocked()
}

func (s *Storefront) resetLocked() {
	s.machine.Logout()
	s.generation++
	s.pendingRef = ""
}

// Close unmounts the storefront. In-flight calls are canceled and their
// results dropped. Safe to call more than once.
func (s *Storefront) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		s.observer.Close()

		s.mu.Lock()
		s.closed = true
		s.generation++
		for ch := range s.watchers {
			close(ch)
			delete(s.watchers, ch)
		}
		s.mu.Unlock()

		s.log.Debug("storefront closed")
	})
}

// Closed reports whether Close has been called
func (s *Storefront) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Storefront) notify(level NoticeLevel, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noticeLocked(level, message)
	s.changedLocked()
}

func (s *Storefront) noticeLocked(level NoticeLevel, message string) {
	n := Notice{Level: level, Message: message}
	s.notices = append(s.notices, n)
	s.fresh = append(s.fresh, n)
}

// fail records err as an error notice and returns it
func (s *Storefront) failLocked(err error) error {
	s.noticeLocked(LevelError, MessageFor(err))
	s.changedLocked()
	return err
}

// SignIn submits the sign-in form
func (s *Storefront) SignIn(ctx context.Context, email, password string) error {
	return s.submit(ctx, s.signIn.Submit, email, password)
}

// SignUp submits the sign-up form
func (s *Storefront) SignUp(ctx context.Context, email, password string) error {
	return s.submit(ctx, s.signUp.Submit, email, password)
}

func (s *Storefront) submit(ctx context.Context, form func(context.Context, string, string) error, email, password string) error {
	s.touch()
	if s.Closed() {
		return ErrClosed
	}
	if err := form(ctx, email, password); err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.failLocked(err)
	}
	return nil
}

// Resume restores a session from a token the provider issued earlier
func (s *Storefront) Resume(ctx context.Context, token string) error {
	resumer, ok := s.provider.(identity.Resumer)
	if !ok {
		return ErrResumeUnsupported
	}
	if s.Closed() {
		return ErrClosed
	}
	_, err := resumer.Resume(ctx, token)
	return err
}

// SignOut signs out at the provider and resets checkout. The local reset
// happens even when the provider call fails. An open Stripe session of the
// reset attempt is expired.
func (s *Storefront) SignOut(ctx context.Context) error {
	s.touch()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	openSession := s.openStripeSessionLocked()
	s.mu.Unlock()

	err := s.provider.SignOut(ctx)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.resetLocked()
	if err != nil {
		s.log.Warn("provider sign out failed", zap.Error(err))
		err = s.failLocked(err)
	} else {
		s.changedLocked()
	}
	s.mu.Unlock()

	s.expireStripe(openSession)
	return err
}

// Catalog lists the courses; only signed-in visitors see them.
func (s *Storefront) Catalog() ([]catalog.Course, error) {
	s.touch()
	if !s.observer.Authenticated() {
		return nil, checkout.ErrNotAuthenticated
	}
	return catalog.List(), nil
}

func (s *Storefront) SelectCourse(courseID int) error {
	s.touch()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	course, err := catalog.Find(courseID)
	if err != nil {
		return s.failLocked(err)
	}
	if err := s.machine.SelectCourse(course); err != nil {
		return s.failLocked(err)
	}
	s.changedLocked()
	return nil
}

func (s *Storefront) ApplyCoupon(code string) error {
	s.touch()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if err := s.machine.ApplyCoupon(code); err != nil {
		return s.failLocked(err)
	}
	s.changedLocked()
	return nil
}

// ChoosePayment activates a delegate. Results of any earlier attempt are
// dropped and an open Stripe session of that attempt is expired.
func (s *Storefront) ChoosePayment(method checkout.PaymentChoice) error {
	s.touch()
	s.mu.Lock()
	superseded, err := s.choosePaymentLocked(method)
	s.mu.Unlock()

	s.expireStripe(superseded)
	return err
}

func (s *Storefront) choosePaymentLocked(method checkout.PaymentChoice) (string, error) {
	if s.closed {
		return "", ErrClosed
	}
	if !s.configured(method) {
		return "", s.failLocked(ErrDelegateUnavailable)
	}

	openSession := s.openStripeSessionLocked()
	if err := s.machine.ChoosePayment(method); err != nil {
		return "", s.failLocked(err)
	}
	s.generation++
	s.pendingRef = ""
	s.changedLocked()
	return openSession, nil
}

// openStripeSessionLocked is the hosted page of the current attempt, if any
func (s *Storefront) openStripeSessionLocked() string {
	if s.machine.State().PaymentChoice != checkout.PaymentStripe {
		return ""
	}
	return s.pendingRef
}

// expireStripe closes a superseded hosted page so it cannot take a payment
// nobody will apply. Failures are only logged.
func (s *Storefront) expireStripe(sessionID string) {
	if sessionID == "" || s.deps.Stripe == nil {
		return
	}
	if err := s.deps.Stripe.Expire(s.ctx, sessionID); err != nil {
		s.log.Warn("superseded checkout session left open", zap.String("session_id", sessionID), zap.Error(err))
	}
}

func (s *Storefront) configured(method checkout.PaymentChoice) bool {
	switch method {
	case checkout.PaymentStripe:
		return s.deps.Stripe != nil
	case checkout.PaymentPayPal:
		return s.deps.PayPal != nil
	}
	// unknown methods are rejected by the machine
	return true
}

// attempt is a payment call captured under the lock
type attempt struct {
	generation uint64
	item       payment.LineItem
	ref        string
}

func (s *Storefront) beginLocked(method checkout.PaymentChoice) (attempt, error) {
	if s.closed {
		return attempt{}, ErrClosed
	}
	st := s.machine.State()
	if st.PaymentChoice != method {
		return attempt{}, ErrWrongPaymentMethod
	}
	return attempt{
		generation: s.generation,
		item: payment.LineItem{
			Name:     st.Selection.Name,
			Amount:   st.ChargeAmount,
			Currency: s.deps.Currency,
		},
		ref: s.pendingRef,
	}, nil
}

// currentLocked reports whether a result of a is still wanted
func (s *Storefront) currentLocked(a attempt) bool {
	return !s.closed && a.generation == s.generation
}

// finishLocked applies a terminal payment result of the current attempt
func (s *Storefront) finishLocked(outcome payment.Outcome) error {
	if err := s.machine.OnPaymentResult(outcome); err != nil {
		return err
	}
	s.generation++
	s.pendingRef = ""

	if outcome.Success {
		s.log.Info("payment succeeded")
		s.noticeLocked(LevelSuccess, MsgPaymentSuccessful)
	} else {
		s.log.Info("payment failed", zap.String("reason", outcome.Reason))
		s.noticeLocked(LevelError, MsgPaymentFailed+outcome.Reason)
	}
	s.changedLocked()
	return nil
}

// deliver applies outcome if a is still current
func (s *Storefront) deliver(a attempt, outcome payment.Outcome) (payment.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.currentLocked(a) {
		s.log.Debug("dropping stale payment result", zap.Bool("success", outcome.Success))
		return outcome, ErrStaleResult
	}
	return outcome, s.finishLocked(outcome)
}

// StartStripeCheckout creates the hosted checkout page for the charge amount.
func (s *Storefront) StartStripeCheckout(successURL, cancelURL string) (stripecheckout.Checkout, error) {
	s.touch()
	s.mu.Lock()
	a, err := s.beginLocked(checkout.PaymentStripe)
	s.mu.Unlock()
	if err != nil {
		return stripecheckout.Checkout{}, err
	}

	co, err := s.deps.Stripe.StartCheckout(s.ctx, a.item, successURL, cancelURL)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.currentLocked(a) {
		return stripecheckout.Checkout{}, ErrStaleResult
	}
	if err != nil {
		if ferr := s.finishLocked(payment.OutcomeOf(err)); ferr != nil {
			return stripecheckout.Checkout{}, ferr
		}
		return stripecheckout.Checkout{}, err
	}
	s.pendingRef = co.ID
	return co, nil
}

// ReturnFromStripe handles the visitor coming back from the hosted page.
// A canceled return fails the attempt without asking Stripe. When Stripe
// cannot be reached the attempt stays pending so the return can be retried.
func (s *Storefront) ReturnFromStripe(sessionID string, canceled bool) (payment.Outcome, error) {
	s.touch()
	s.mu.Lock()
	a, err := s.beginLocked(checkout.PaymentStripe)
	s.mu.Unlock()
	if err != nil {
		return payment.Outcome{}, err
	}
	if sessionID == "" {
		sessionID = a.ref
	}
	if a.ref == "" || sessionID != a.ref {
		return payment.Outcome{}, ErrUnknownPayment
	}

	if canceled {
		return s.deliver(a, stripecheckout.Canceled())
	}

	outcome, err := s.deps.Stripe.Confirm(s.ctx, sessionID)
	if err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.currentLocked(a) {
			return payment.Outcome{}, ErrStaleResult
		}
		s.log.Warn("checkout session lookup failed, payment still pending",
			zap.String("session_id", sessionID), zap.Error(err))
		s.noticeLocked(LevelError, MsgPaymentUnverified)
		s.changedLocked()
		return payment.Outcome{}, err
	}
	return s.deliver(a, outcome)
}

// CreatePayPalOrder is the widget's createOrder callback
func (s *Storefront) CreatePayPalOrder() (string, error) {
	s.touch()
	s.mu.Lock()
	a, err := s.beginLocked(checkout.PaymentPayPal)
	s.mu.Unlock()
	if err != nil {
		return "", err
	}

	orderID, err := s.deps.PayPal.CreateOrder(s.ctx, a.item)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.currentLocked(a) {
		return "", ErrStaleResult
	}
	if err != nil {
		if ferr := s.finishLocked(payment.OutcomeOf(err)); ferr != nil {
			return "", ferr
		}
		return "", err
	}
	s.pendingRef = orderID
	return orderID, nil
}

// CapturePayPalOrder is the widget's onApprove callback
func (s *Storefront) CapturePayPalOrder(orderID string) (payment.Outcome, error) {
	s.touch()
	s.mu.Lock()
	a, err := s.beginLocked(checkout.PaymentPayPal)
	s.mu.Unlock()
	if err != nil {
		return payment.Outcome{}, err
	}
	if a.ref == "" || orderID != a.ref {
		return payment.Outcome{}, ErrUnknownPayment
	}

	return s.deliver(a, s.deps.PayPal.Capture(s.ctx, orderID))
}

// PayPalWidgetError is the widget's onError callback
func (s *Storefront) PayPalWidgetError(outcome payment.Outcome) error {
	s.touch()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.beginLocked(checkout.PaymentPayPal); err != nil {
		return err
	}
	return s.finishLocked(outcome)
}

// View is what the visitor's page renders
type View struct {
	Session        identity.Session       `json:"session"`
	ShowCheckout   bool                   `json:"show_checkout"`
	Selection      *catalog.Course        `json:"selection"`
	Coupon         string                 `json:"coupon"`
	ChargeAmount   decimal.Decimal        `json:"charge_amount"`
	PaymentButtons bool                   `json:"payment_buttons"`
	ActivePayment  checkout.PaymentChoice `json:"active_payment"`
	Phase          checkout.Phase         `json:"phase"`
	Notices        []Notice               `json:"notices,omitempty"`
}

func (s *Storefront) viewLocked() View {
	st := s.machine.State()
	session := s.observer.Session()
	return View{
		Session:        session,
		ShowCheckout:   session.Authenticated,
		Selection:      st.Selection,
		Coupon:         st.Coupon,
		ChargeAmount:   st.ChargeAmount,
		PaymentButtons: st.ChargeAmount.IsPositive(),
		ActivePayment:  st.PaymentChoice,
		Phase:          s.machine.Phase(),
	}
}

// View renders the page and hands over queued notices
func (s *Storefront) View() View {
	s.touch()
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.viewLocked()
	v.Notices = s.notices
	s.notices = nil
	return v
}

// Watch streams a View after every change. The channel is closed when the
// storefront closes or stop is called. Slow watchers miss updates.
func (s *Storefront) Watch() (<-chan View, func()) {
	ch := make(chan View, 8)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.watchers[ch] = struct{}{}
	ch <- s.viewLocked()
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.watchers[ch]; ok {
				delete(s.watchers, ch)
				close(ch)
			}
		})
	}
}

// Watching reports whether anyone is watching
func (s *Storefront) Watching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.watchers) > 0
}

func (s *Storefront) changed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changedLocked()
}

func (s *Storefront) changedLocked() {
	if s.closed || len(s.watchers) == 0 {
		s.fresh = nil
		return
	}
	v := s.viewLocked()
	v.Notices = s.fresh
	s.fresh = nil

	for ch := range s.watchers {
		select {
		case ch <- v:
		default:
			s.log.Debug("watcher lagging, update dropped")
		}
	}
}
