// Package blocks implements the block-content materialization engine: it
// turns a serialized block property value into a render-ready object graph
// of schema-typed items, with variance alignment and process-wide factory
// caching.
package blocks

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/starford/berkano/internal/models"
	"github.com/starford/berkano/internal/schema"
)

// PublishedElement is a resolved, schema-typed, read-only materialization of
// a content record, ready for rendering.
type PublishedElement interface {
	// Key is the element's identity within its record set.
	Key() uuid.UUID
	// ContentType is the resolved schema descriptor.
	ContentType() *schema.ContentType
	// HasValue reports whether a schema-validated value exists for alias.
	HasValue(alias string) bool
	// Value returns the schema-validated value for alias, or nil.
	Value(alias string) any
}

// Element is the generic PublishedElement produced by the resolver. The
// model-type registry may upgrade it to a schema-specific wrapper.
type Element struct {
	key         uuid.UUID
	contentType *schema.ContentType
	values      map[string]any
	cacheLevel  models.CacheLevel
	preview     bool
}

var _ PublishedElement = (*Element)(nil)

// NewElement constructs a generic element. values is retained, not copied.
func NewElement(key uuid.UUID, ct *schema.ContentType, values map[string]any, level models.CacheLevel, preview bool) *Element {
	if values == nil {
		values = map[string]any{}
	}
	return &Element{key: key, contentType: ct, values: values, cacheLevel: level, preview: preview}
}

// Key returns the element's identity key.
func (e *Element) Key() uuid.UUID { return e.key }

// ContentType returns the resolved schema descriptor.
func (e *Element) ContentType() *schema.ContentType { return e.contentType }

// HasValue reports whether a value survived schema filtering for alias.
func (e *Element) HasValue(alias string) bool {
	_, ok := e.values[alias]
	return ok
}

// Value returns the filtered value for alias, or nil.
func (e *Element) Value(alias string) any {
	return e.values[alias]
}

// CacheLevel returns the granularity the element was resolved at.
func (e *Element) CacheLevel() models.CacheLevel { return e.cacheLevel }

// Preview reports whether the element was resolved in preview mode.
func (e *Element) Preview() bool { return e.preview }

// Aliases returns the aliases that survived schema filtering, in no
// particular order.
func (e *Element) Aliases() []string {
	out := make([]string, 0, len(e.values))
	for a := range e.values {
		out = append(out, a)
	}
	return out
}

type elementJSON struct {
	Key         uuid.UUID      `json:"key"`
	ContentType string         `json:"contentType"`
	Values      map[string]any `json:"values"`
}

// MarshalJSON renders the element for API responses.
func (e *Element) MarshalJSON() ([]byte, error) {
	return json.Marshal(elementJSON{
		Key:         e.key,
		ContentType: e.contentType.Alias,
		Values:      e.values,
	})
}
