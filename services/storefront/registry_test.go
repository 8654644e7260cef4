package storefront

import (
	"sync"
	"testing"
	"time"

	"github.com/sahilchouksey/edtech-checkout/services/checkout"
	"github.com/sahilchouksey/edtech-checkout/services/identity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newRegistry(c *clock) *Registry {
	return NewRegistry(func() identity.Provider { return &fakeProvider{} }, Deps{
		Policy: checkout.FlatDiscount{Code: "edu24", Amount: decimal.NewFromInt(20)},
		Now:    c.Now,
	})
}

func TestRegistryGetOrCreate(t *testing.T) {
	r := newRegistry(&clock{now: time.Now()})
	defer r.CloseAll()

	a, created := r.GetOrCreate("a")
	assert.True(t, created)
	again, created := r.GetOrCreate("a")
	assert.False(t, created)
	assert.Same(t, a, again)

	b, _ := r.GetOrCreate("b")
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, r.Len())

	r.Remove("a")
	assert.True(t, a.Closed())
	_, ok := r.Get("a")
	assert.False(t, ok)
}

func TestRegistrySweep(t *testing.T) {
	c := &clock{now: time.Now()}
	r := newRegistry(c)
	defer r.CloseAll()

	idle, _ := r.GetOrCreate("idle")
	watched, _ := r.GetOrCreate("watched")
	_, stop := watched.Watch()
	defer stop()

	c.advance(20 * time.Minute)
	active, _ := r.GetOrCreate("active")

	assert.Equal(t, 1, r.Sweep(15*time.Minute))
	assert.True(t, idle.Closed())
	assert.False(t, watched.Closed())
	assert.False(t, active.Closed())

	fresh, created := r.GetOrCreate("idle")
	assert.True(t, created)
	assert.NotSame(t, idle, fresh)
}

func TestRegistryCloseAll(t *testing.T) {
	r := newRegistry(&clock{now: time.Now()})
	a, _ := r.GetOrCreate("a")
	b, _ := r.GetOrCreate("b")

	r.CloseAll()
	assert.True(t, a.Closed())
	assert.True(t, b.Closed())
	assert.Equal(t, 0, r.Len())
}
