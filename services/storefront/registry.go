package storefront

import (
	"sync"
	"time"

	"github.com/sahilchouksey/edtech-checkout/services/identity"
	"go.uber.org/zap"
)

// ProviderFactory returns a fresh, signed-out provider for one visitor
type ProviderFactory func() identity.Provider

// Registry holds the mounted storefront of every active visitor
type Registry struct {
	newProvider ProviderFactory
	deps        Deps
	log         *zap.Logger

	mu     sync.Mutex
	stores map[string]*Storefront
}

func NewRegistry(newProvider ProviderFactory, deps Deps) *Registry {
	deps = deps.withDefaults()
	return &Registry{
		newProvider: newProvider,
		deps:        deps,
		log:         deps.Logger.Named("storefront"),
		stores:      make(map[string]*Storefront),
	}
}

// Get returns the storefront of visitor id, if mounted
func (r *Registry) Get(id string) (*Storefront, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stores[id]
	return s, ok
}

// GetOrCreate returns the storefront of visitor id, mounting one if needed.
// created is true when a new storefront was mounted.
func (r *Registry) GetOrCreate(id string) (s *Storefront, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.stores[id]; ok && !s.Closed() {
		return s, false
	}

	deps := r.deps
	deps.Logger = r.log
	s = New(id, r.newProvider(), deps)
	r.stores[id] = s
	return s, true
}

// Remove unmounts the storefront of visitor id
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	s, ok := r.stores[id]
	delete(r.stores, id)
	r.mu.Unlock()

	if ok {
		s.Close()
	}
}

// Sweep unmounts storefronts without watchers that have been idle longer
// than idle, and returns how many were closed.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.deps.Now().Add(-idle)

	r.mu.Lock()
	var stale []*Storefront
	for id, s := range r.stores {
		if s.Closed() || (s.LastSeen().Before(cutoff) && !s.Watching()) {
			stale = append(stale, s)
			delete(r.stores, id)
		}
	}
	r.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	if len(stale) > 0 {
		r.log.Info("swept idle storefronts", zap.Int("closed", len(stale)))
	}
	return len(stale)
}

// CloseAll unmounts every storefront
func (r *Registry) CloseAll() {
	r.mu.Lock()
	stores := r.stores
	r.stores = make(map[string]*Storefront)
	r.mu.Unlock()

	for _, s := range stores {
		s.Close()
	}
}

// Len reports the number of mounted storefronts
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}
