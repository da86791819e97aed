// Package schema provides the runtime content-type schema: YAML manifests
// loaded into a SQLite-backed store, with change notifications driven by a
// file-system watcher.
package schema

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/starford/berkano/internal/models"
)

// Variation describes whether values of a content type or property are
// tracked per culture and/or per segment.
type Variation int

const (
	// VariationNothing means a single shared value.
	VariationNothing Variation = 0
	// VariationCulture means one value per culture (locale).
	VariationCulture Variation = 1 << 0
	// VariationSegment means one value per audience segment.
	VariationSegment Variation = 1 << 1
	// VariationCultureAndSegment means one value per culture+segment pair.
	VariationCultureAndSegment = VariationCulture | VariationSegment
)

// VariesByCulture reports whether the culture bit is set.
func (v Variation) VariesByCulture() bool { return v&VariationCulture != 0 }

// VariesBySegment reports whether the segment bit is set.
func (v Variation) VariesBySegment() bool { return v&VariationSegment != 0 }

// Intersect returns the variation both v and other agree on. A property only
// actually varies when its own variation and its owner's variation both
// carry the bit.
func (v Variation) Intersect(other Variation) Variation { return v & other }

// String renders the canonical manifest spelling.
func (v Variation) String() string {
	switch v {
	case VariationCulture:
		return "culture"
	case VariationSegment:
		return "segment"
	case VariationCultureAndSegment:
		return "culture+segment"
	default:
		return "nothing"
	}
}

// ParseVariation parses the manifest spelling of a variation.
func ParseVariation(s string) (Variation, error) {
	out := VariationNothing
	for _, part := range strings.Split(s, "+") {
		switch strings.TrimSpace(strings.ToLower(part)) {
		case "", "nothing":
		case "culture":
			out |= VariationCulture
		case "segment":
			out |= VariationSegment
		default:
			return 0, fmt.Errorf("schema: unknown variation %q", s)
		}
	}
	return out, nil
}

// UnmarshalYAML decodes a variation from its manifest spelling.
func (v *Variation) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseVariation(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalYAML encodes a variation as its manifest spelling.
func (v Variation) MarshalYAML() (any, error) { return v.String(), nil }

// PropertyDefinition is the schema for one property of a content type.
type PropertyDefinition struct {
	Alias     string    `yaml:"alias" json:"alias"`
	Variation Variation `yaml:"variation" json:"variation"`
}

// ContentType is the runtime schema of one content type. Only element types
// (IsElement) may be materialized as blocks.
type ContentType struct {
	Key        uuid.UUID            `yaml:"key" json:"key"`
	Alias      string               `yaml:"alias" json:"alias"`
	IsElement  bool                 `yaml:"isElement" json:"isElement"`
	Variation  Variation            `yaml:"variation" json:"variation"`
	Properties []PropertyDefinition `yaml:"properties" json:"properties"`
}

// Property returns the property definition for alias, if present.
func (ct *ContentType) Property(alias string) (PropertyDefinition, bool) {
	for _, p := range ct.Properties {
		if p.Alias == alias {
			return p, true
		}
	}
	return PropertyDefinition{}, false
}

// DataType is one configured block editor: the editor flavor plus the
// allow-list of block configurations the editor accepts.
type DataType struct {
	Key         uuid.UUID                   `yaml:"key" json:"key"`
	Alias       string                      `yaml:"alias" json:"alias"`
	EditorAlias string                      `yaml:"editorAlias" json:"editorAlias"`
	Blocks      []models.BlockConfiguration `yaml:"blocks" json:"blocks"`
}

// Resolver is the schema lookup the materialization engine depends on.
// Consumers should depend on this interface rather than the concrete *Store
// to facilitate testing with in-memory fakes.
type Resolver interface {
	ContentType(key uuid.UUID) (*ContentType, bool)
}

// LocaleSource supplies the install's default locale. The aligner calls it
// synchronously on every conversion, so implementations must be cheap.
type LocaleSource interface {
	DefaultLocale() string
}

// StaticLocale is a LocaleSource with a fixed default locale.
type StaticLocale string

// DefaultLocale returns the fixed locale.
func (l StaticLocale) DefaultLocale() string { return string(l) }
