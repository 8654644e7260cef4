package identity

import "sync"

// Observer tracks the visitor's Session by listening to a Provider.
//
// It subscribes exactly once at construction and unsubscribes exactly once
// on Close. Every signed-out event invokes the onSignedOut hook before the
// new Session is emitted to subscribers. Only signed-out events reset: a
// switch straight to another signed-in user keeps the hook silent, so that
// user inherits the selection and coupon in progress.
type Observer struct {
	deliver sync.Mutex // serializes event handling

	mu          sync.Mutex
	session     Session
	closed      bool
	unsubscribe func()
	closeOnce   sync.Once

	onSignedOut func()
	subscribers sessionHub
}

// NewObserver attaches to provider. onSignedOut may be nil.
func NewObserver(provider Provider, onSignedOut func()) *Observer {
	o := &Observer{onSignedOut: onSignedOut}
	o.unsubscribe = provider.Subscribe(o.handle)
	return o
}

func (o *Observer) handle(id *Identity) {
	o.deliver.Lock()
	defer o.deliver.Unlock()

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	session := SessionOf(id)
	o.session = session
	o.mu.Unlock()

	if !session.Authenticated && o.onSignedOut != nil {
		o.onSignedOut()
	}
	o.subscribers.publish(session)
}

// Session returns the latest session
func (o *Observer) Session() Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session
}

// Authenticated reports whether the latest session is signed in
func (o *Observer) Authenticated() bool {
	return o.Session().Authenticated
}

// Subscribe registers fn for every session change after this call.
func (o *Observer) Subscribe(fn func(Session)) func() {
	return o.subscribers.subscribe(fn)
}

// Close detaches from the provider. Safe to call more than once.
func (o *Observer) Close() {
	o.closeOnce.Do(func() {
		o.mu.Lock()
		o.closed = true
		o.mu.Unlock()
		o.unsubscribe()
	})
}

type sessionHub struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]func(Session)
}

func (h *sessionHub) subscribe(fn func(Session)) func() {
	h.mu.Lock()
	if h.listeners == nil {
		h.listeners = make(map[int]func(Session))
	}
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.listeners, id)
			h.mu.Unlock()
		})
	}
}

func (h *sessionHub) publish(s Session) {
	h.mu.Lock()
	snapshot := make([]func(Session), 0, len(h.listeners))
	for _, fn := range h.listeners {
		snapshot = append(snapshot, fn)
	}
	h.mu.Unlock()

	for _, fn := range snapshot {
		fn(s)
	}
}
