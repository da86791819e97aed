package blocks

import (
	"github.com/google/uuid"
	"github.com/spf13/cast"

	"github.com/starford/berkano/internal/models"
	"github.com/starford/berkano/internal/schema"
)

// VarianceContext carries the requested culture and segment for one
// conversion. The zero value targets the default locale and no segment.
type VarianceContext struct {
	Culture string `json:"culture,omitempty"`
	Segment string `json:"segment,omitempty"`
}

// ElementResolver materializes one content or settings record into a
// generic published element, applying schema filtering and variance
// alignment.
type ElementResolver struct {
	schema  schema.Resolver
	locales schema.LocaleSource
}

// NewElementResolver creates a resolver over the given schema lookup and
// locale source.
func NewElementResolver(sr schema.Resolver, locales schema.LocaleSource) *ElementResolver {
	return &ElementResolver{schema: sr, locales: locales}
}

// Resolve materializes rec. It returns nil when the record cannot produce a
// published element: unknown content type, a type that is not an element
// type, or no resolvable identity key. These are expected data conditions
// (authored data going stale against an evolving schema), not errors.
func (r *ElementResolver) Resolve(rec models.ContentRecord, vctx VarianceContext, level models.CacheLevel, preview bool) *Element {
	ct, ok := r.schema.ContentType(rec.ContentTypeKey)
	if !ok || !ct.IsElement {
		return nil
	}

	defaultLocale := r.locales.DefaultLocale()

	values := make(map[string]any, len(rec.Values))
	for _, v := range rec.Values {
		prop, ok := ct.Property(v.Alias)
		if !ok {
			// Unknown alias: stale authored data, dropped for forward and
			// backward schema compatibility.
			continue
		}
		required := ct.Variation.Intersect(prop.Variation)
		aligned := AlignPublished(v, required, defaultLocale)

		wantCulture := requiredCultureTag(required.VariesByCulture(), vctx.Culture, defaultLocale)
		wantSegment := requiredSegmentTag(required.VariesBySegment(), vctx.Segment)
		if !tagEqual(aligned.Culture, wantCulture) || !tagEqual(aligned.Segment, wantSegment) {
			continue
		}
		values[v.Alias] = aligned.Value
	}

	key := rec.Key
	if key == uuid.Nil {
		key = keyFromPayload(rec.Values)
	}
	if key == uuid.Nil {
		return nil
	}

	return NewElement(key, ct, values, level, preview)
}

// keyFromPayload is the identity fallback: a payload property literally
// aliased "key" whose value parses as a UUID. It reads the raw payload, not
// the filtered values, so the fallback works even when the schema has no
// such property.
func keyFromPayload(values []models.PropertyValue) uuid.UUID {
	for _, v := range values {
		if v.Alias != "key" {
			continue
		}
		s, err := cast.ToStringE(v.Value)
		if err != nil {
			continue
		}
		if key, err := uuid.Parse(s); err == nil {
			return key
		}
	}
	return uuid.Nil
}
