// Package testutil provides shared test helpers for setting up schema
// stores and in-memory schema resolvers.
package testutil

import (
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/starford/berkano/internal/schema"
)

// TestStore creates a temporary SQLite schema store that is automatically
// cleaned up.
func TestStore(t *testing.T) *schema.Store {
	t.Helper()
	dbFile, err := os.CreateTemp("", "berkano-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	store, err := schema.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// Resolver is an in-memory schema.Resolver for engine tests.
type Resolver struct {
	types map[uuid.UUID]*schema.ContentType
}

// NewResolver creates a resolver holding the given content types.
func NewResolver(types ...schema.ContentType) *Resolver {
	r := &Resolver{types: make(map[uuid.UUID]*schema.ContentType, len(types))}
	for i := range types {
		ct := types[i]
		r.types[ct.Key] = &ct
	}
	return r
}

// Add inserts or replaces a content type.
func (r *Resolver) Add(ct schema.ContentType) {
	r.types[ct.Key] = &ct
}

// ContentType implements schema.Resolver.
func (r *Resolver) ContentType(key uuid.UUID) (*schema.ContentType, bool) {
	ct, ok := r.types[key]
	return ct, ok
}

// ElementType builds an element content type with invariant properties.
func ElementType(key uuid.UUID, alias string, propAliases ...string) schema.ContentType {
	ct := schema.ContentType{Key: key, Alias: alias, IsElement: true}
	for _, a := range propAliases {
		ct.Properties = append(ct.Properties, schema.PropertyDefinition{Alias: a})
	}
	return ct
}
