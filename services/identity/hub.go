package identity

import "sync"

// Hub fans provider auth-state changes out to listeners. Providers embed it
// to implement Subscribe.
type Hub struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]func(*Identity)
}

// Subscribe registers onChange. The returned func is safe to call more than once.
func (h *Hub) Subscribe(onChange func(*Identity)) func() {
	h.mu.Lock()
	if h.listeners == nil {
		h.listeners = make(map[int]func(*Identity))
	}
	id := h.nextID
	h.nextID++
	h.listeners[id] = onChange
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

// Publish delivers id to every current listener. Listeners run on the
// caller's goroutine, outside the hub lock.
func (h *Hub) Publish(id *Identity) {
	h.mu.Lock()
	snapshot := make([]func(*Identity), 0, len(h.listeners))
	for _, fn := range h.listeners {
		snapshot = append(snapshot, fn)
	}
	h.mu.Unlock()

	for _, fn := range snapshot {
		fn(id)
	}
}

// Len reports the number of registered listeners
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}
