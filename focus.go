package formstate

import (
	"sync"

	"github.com/goliatone/go-formstate/pkg/path"
)

type focusEntry struct {
	id uint64
	fn func()
}

// focusRegistry maps joined paths to the callback that focuses the field.
// Registering a path again replaces the previous callback.
type focusRegistry struct {
	mu      sync.Mutex
	nextID  uint64
	entries map[string]focusEntry
}

func (r *focusRegistry) register(key string, fn func()) (unregister func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries == nil {
		r.entries = map[string]focusEntry{}
	}
	r.nextID++
	id := r.nextID
	r.entries[key] = focusEntry{id: id, fn: fn}

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if entry, ok := r.entries[key]; ok && entry.id == id {
				delete(r.entries, key)
			}
		})
	}
}

func (r *focusRegistry) focus(key string) bool {
	r.mu.Lock()
	entry, ok := r.entries[key]
	r.mu.Unlock()
	if !ok || entry.fn == nil {
		return false
	}
	entry.fn()
	return true
}

// RegisterFocus registers fn as the focus callback for p.
func (f *Form) RegisterFocus(p path.Path, fn func()) (unregister func()) {
	if fn == nil {
		return func() {}
	}
	return f.focus.register(p.String(), fn)
}

// Focus invokes the focus callback registered for p. It reports false and
// does nothing when no callback is registered.
func (f *Form) Focus(p path.Path) bool {
	return f.focus.focus(p.String())
}
