package blocks

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/starford/berkano/internal/models"
)

// namedElement is a minimal schema-specific wrapper used to observe which
// registration a cached factory captured.
type namedElement struct {
	*Element
	label string
}

func labelWrapper(label string) WrapFunc {
	return func(e *Element) (PublishedElement, error) {
		return &namedElement{Element: e, label: label}, nil
	}
}

func newHeroElement(t *testing.T) *Element {
	t.Helper()
	ct := heroType()
	return NewElement(uuid.New(), &ct, nil, models.CacheLevelElement, false)
}

func TestFactoryCacheCachesPerTypePair(t *testing.T) {
	cache := NewFactoryCache(NewModelTypeRegistry())

	cache.GetOrCreate(heroTypeKey, uuid.Nil)
	cache.GetOrCreate(heroTypeKey, uuid.Nil)
	if cache.Len() != 1 {
		t.Fatalf("cache len = %d, want 1", cache.Len())
	}

	cache.GetOrCreate(heroTypeKey, spacingTypeKey)
	if cache.Len() != 2 {
		t.Fatalf("cache len = %d, want 2 (settings type is part of the key)", cache.Len())
	}
}

func TestFactoryProducesItem(t *testing.T) {
	cache := NewFactoryCache(NewModelTypeRegistry())
	content := newHeroElement(t)

	factory := cache.GetOrCreate(heroTypeKey, uuid.Nil)
	item, err := factory(content, nil)
	if err != nil {
		t.Fatal(err)
	}
	if item.ContentKey != content.Key() {
		t.Errorf("content key = %s, want %s", item.ContentKey, content.Key())
	}
	if item.ContentUdi != models.NewElementUdi(content.Key()) {
		t.Errorf("content udi = %s", item.ContentUdi)
	}
	if item.Content != content {
		t.Error("unregistered type should pass the generic element through")
	}
	if item.Settings != nil || item.SettingsKey != uuid.Nil {
		t.Error("item without settings must not carry settings fields")
	}
}

func TestFactoryCapturesRegistrationAtBuildTime(t *testing.T) {
	registry := NewModelTypeRegistry()
	registry.Register(heroTypeKey, labelWrapper("v1"))
	cache := NewFactoryCache(registry)
	content := newHeroElement(t)

	factory := cache.GetOrCreate(heroTypeKey, uuid.Nil)
	item, err := factory(content, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := item.Content.(*namedElement).label; got != "v1" {
		t.Fatalf("label = %q, want v1", got)
	}

	// Repointing the registration does not affect the already-cached factory.
	registry.Register(heroTypeKey, labelWrapper("v2"))
	item, err = cache.GetOrCreate(heroTypeKey, uuid.Nil)(content, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := item.Content.(*namedElement).label; got != "v1" {
		t.Fatalf("stale factory label = %q, want v1", got)
	}

	// Clearing the cache makes the next factory pick up the new registration.
	cache.Clear()
	if cache.Len() != 0 {
		t.Fatalf("cache len after clear = %d, want 0", cache.Len())
	}
	item, err = cache.GetOrCreate(heroTypeKey, uuid.Nil)(content, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := item.Content.(*namedElement).label; got != "v2" {
		t.Fatalf("rebuilt factory label = %q, want v2", got)
	}
}

func TestFactoryWrapperErrorPropagates(t *testing.T) {
	wrapErr := errors.New("broken model")
	registry := NewModelTypeRegistry()
	registry.Register(heroTypeKey, func(e *Element) (PublishedElement, error) {
		return nil, wrapErr
	})
	cache := NewFactoryCache(registry)

	_, err := cache.GetOrCreate(heroTypeKey, uuid.Nil)(newHeroElement(t), nil)
	if !errors.Is(err, wrapErr) {
		t.Fatalf("err = %v, want wrapped %v", err, wrapErr)
	}
}

func TestFactoryNilRegistrationPanics(t *testing.T) {
	registry := NewModelTypeRegistry()
	registry.Register(heroTypeKey, nil)
	cache := NewFactoryCache(registry)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for nil registered constructor")
		}
	}()
	cache.GetOrCreate(heroTypeKey, uuid.Nil)
}

func TestFactoryCacheConcurrentAccess(t *testing.T) {
	cache := NewFactoryCache(NewModelTypeRegistry())
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				key := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%d", j%5)))
				cache.GetOrCreate(key, uuid.Nil)
				if i == 0 && j%25 == 0 {
					cache.Clear()
				}
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
