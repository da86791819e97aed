package blocks

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/starford/berkano/internal/schema"
)

// CacheRegistry owns every flavor's factory cache so schema-change handling
// has one explicit place to invalidate them all. It replaces ambient static
// caches: whoever dispatches schema-change events is handed the registry.
type CacheRegistry struct {
	mu     sync.Mutex
	caches []*FactoryCache
	logger *slog.Logger
}

// NewCacheRegistry creates an empty registry. logger may be nil.
func NewCacheRegistry(logger *slog.Logger) *CacheRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheRegistry{logger: logger}
}

// Add registers a cache for invalidation.
func (r *CacheRegistry) Add(c *FactoryCache) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.caches = append(r.caches, c)
}

// InvalidateAll clears every registered cache. Each cache clears with an
// atomic swap, so in-flight conversions observe either the old entries or
// an empty cache, never a partially cleared one.
func (r *CacheRegistry) InvalidateAll() {
	r.mu.Lock()
	caches := make([]*FactoryCache, len(r.caches))
	copy(caches, r.caches)
	r.mu.Unlock()

	for _, c := range caches {
		c.Clear()
	}
}

// OnSchemaChange is the schema-change listener: generated model types for
// an alias may have been regenerated or repointed by a content-type or
// data-type change, so every cached factory is dropped. It matches
// schema.ChangeCallback.
func (r *CacheRegistry) OnSchemaChange(kind schema.ChangeKind, key uuid.UUID) {
	r.logger.Debug("blocks: invalidating factory caches",
		slog.String("kind", string(kind)),
		slog.String("key", key.String()))
	r.InvalidateAll()
}

// Engine bundles the resolver, the per-flavor converters and their caches,
// and the cache registry into one materialization engine.
type Engine struct {
	resolver   *ElementResolver
	registry   *CacheRegistry
	modelTypes *ModelTypeRegistry
	converters map[string]*Converter
}

// NewEngine wires a converter (with its own factory cache) for every
// flavor over the given schema resolver, locale source and model-type
// registry.
func NewEngine(sr schema.Resolver, locales schema.LocaleSource, modelTypes *ModelTypeRegistry, logger *slog.Logger) *Engine {
	resolver := NewElementResolver(sr, locales)
	registry := NewCacheRegistry(logger)

	converters := make(map[string]*Converter)
	for _, flavor := range Flavors() {
		cache := NewFactoryCache(modelTypes)
		registry.Add(cache)
		converters[flavor.Name] = NewConverter(flavor, resolver, cache)
	}

	return &Engine{
		resolver:   resolver,
		registry:   registry,
		modelTypes: modelTypes,
		converters: converters,
	}
}

// Converter returns the converter for a flavor name.
func (e *Engine) Converter(name string) (*Converter, bool) {
	c, ok := e.converters[name]
	return c, ok
}

// ModelTypes returns the engine's model-type registry.
func (e *Engine) ModelTypes() *ModelTypeRegistry { return e.modelTypes }

// Registry returns the engine's cache registry, for wiring into the
// schema-change dispatcher.
func (e *Engine) Registry() *CacheRegistry { return e.registry }
