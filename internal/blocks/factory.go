package blocks

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/starford/berkano/internal/models"
)

// FactoryKey identifies one cached item factory: a content type paired with
// an optional settings type (uuid.Nil when the block has no settings).
type FactoryKey struct {
	ContentType  uuid.UUID
	SettingsType uuid.UUID
}

// ItemFactory constructs the typed item wrapper for one layout node from
// already-resolved elements. The factory captures the model-type wrappers
// that were registered when it was built; a factory therefore goes stale
// when a registration is repointed, and the cache holding it must be
// cleared on schema changes.
type ItemFactory func(content *Element, settings *Element) (*Item, error)

// FactoryCache is the process-lifetime cache of item factories for one
// flavor, keyed by (content type, settings type).
//
// Reads go through an atomic pointer so invalidation can swap in a fresh
// map: readers observe either the old or the empty cache, never a partially
// cleared one. Concurrent misses for the same key may race to build
// independent, behaviorally identical factories; last write wins.
type FactoryCache struct {
	registry *ModelTypeRegistry

	mu      sync.Mutex // guards copy-on-write inserts
	entries atomic.Pointer[map[FactoryKey]ItemFactory]
}

// NewFactoryCache creates an empty cache backed by the given registry.
func NewFactoryCache(registry *ModelTypeRegistry) *FactoryCache {
	c := &FactoryCache{registry: registry}
	empty := make(map[FactoryKey]ItemFactory)
	c.entries.Store(&empty)
	return c
}

// GetOrCreate returns the factory for the type pair, building and caching
// it on a miss.
func (c *FactoryCache) GetOrCreate(contentType, settingsType uuid.UUID) ItemFactory {
	key := FactoryKey{ContentType: contentType, SettingsType: settingsType}
	if f, ok := (*c.entries.Load())[key]; ok {
		return f
	}

	f := c.build(key)

	c.mu.Lock()
	old := *c.entries.Load()
	next := make(map[FactoryKey]ItemFactory, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	next[key] = f
	c.entries.Store(&next)
	c.mu.Unlock()

	return f
}

// build binds the registered model-type wrappers for the pair into a
// reusable constructor. A registration that exists but holds a nil
// constructor is a structural invariant violation in the generated models,
// not a data problem, so it panics instead of being suppressed.
func (c *FactoryCache) build(key FactoryKey) ItemFactory {
	wrapContent := c.bindWrapper(key.ContentType)
	wrapSettings := c.bindWrapper(key.SettingsType)

	return func(content *Element, settings *Element) (*Item, error) {
		item := &Item{}

		published, err := wrapContent(content)
		if err != nil {
			return nil, fmt.Errorf("blocks: materialize content %s: %w", content.Key(), err)
		}
		item.ContentKey = content.Key()
		item.ContentUdi = models.NewElementUdi(content.Key())
		item.Content = published

		if settings != nil {
			published, err := wrapSettings(settings)
			if err != nil {
				return nil, fmt.Errorf("blocks: materialize settings %s: %w", settings.Key(), err)
			}
			item.SettingsKey = settings.Key()
			item.SettingsUdi = models.NewElementUdi(settings.Key())
			item.Settings = published
		}

		return item, nil
	}
}

func (c *FactoryCache) bindWrapper(typeKey uuid.UUID) WrapFunc {
	if typeKey == uuid.Nil {
		return passthroughWrap
	}
	fn, ok := c.registry.Lookup(typeKey)
	if !ok {
		// No generated model for this type: the generic element is the
		// published representation.
		return passthroughWrap
	}
	if fn == nil {
		panic(fmt.Sprintf("blocks: model type registry holds nil constructor for %s", typeKey))
	}
	return fn
}

func passthroughWrap(e *Element) (PublishedElement, error) {
	return e, nil
}

// Clear atomically swaps in an empty cache.
func (c *FactoryCache) Clear() {
	c.mu.Lock()
	empty := make(map[FactoryKey]ItemFactory)
	c.entries.Store(&empty)
	c.mu.Unlock()
}

// Len returns the number of cached factories.
func (c *FactoryCache) Len() int {
	return len(*c.entries.Load())
}
