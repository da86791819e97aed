package blocks

import (
	"sync"

	"github.com/google/uuid"
)

// WrapFunc upgrades a generic element to a schema-specific representation.
// It may fail; failures propagate out of the conversion rather than being
// swallowed, because they indicate a broken model registration.
type WrapFunc func(*Element) (PublishedElement, error)

// ModelTypeRegistry maps content-type keys to wrapper constructors. It is
// the Go counterpart of a runtime model-type lookup: registrations are made
// at startup (or whenever generated models are reloaded), and the factory
// caches capture the registered constructors. Those caches must therefore be
// cleared when a registration is repointed.
type ModelTypeRegistry struct {
	mu       sync.RWMutex
	wrappers map[uuid.UUID]WrapFunc
}

// NewModelTypeRegistry creates an empty registry.
func NewModelTypeRegistry() *ModelTypeRegistry {
	return &ModelTypeRegistry{wrappers: make(map[uuid.UUID]WrapFunc)}
}

// Register installs (or repoints) the wrapper constructor for a content type.
// Registering a nil constructor is a structural invariant violation and is
// reported lazily, as a panic, the first time a factory is built for the key.
func (r *ModelTypeRegistry) Register(key uuid.UUID, fn WrapFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wrappers[key] = fn
}

// Deregister removes the wrapper constructor for a content type.
func (r *ModelTypeRegistry) Deregister(key uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.wrappers, key)
}

// Lookup returns the registered wrapper for key. ok is false when no
// registration exists, in which case callers fall back to the generic
// element.
func (r *ModelTypeRegistry) Lookup(key uuid.UUID) (fn WrapFunc, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok = r.wrappers[key]
	return fn, ok
}
