// Package models defines the domain types for Berkano.
package models

import "github.com/google/uuid"

// CacheLevel is the granularity at which a converted property value may be
// memoized by the surrounding published-content cache.
type CacheLevel int

const (
	// CacheLevelElement means the converted value only depends on the owning
	// element and can be reused until that element's cache entry is dropped.
	CacheLevelElement CacheLevel = iota + 1
	// CacheLevelSnapshot means the converted value depends on ambient
	// published state (e.g. link resolution inside rich text) and must be
	// recomputed whenever the whole snapshot changes.
	CacheLevelSnapshot
)

// MarshalJSON renders the cache level by name.
func (l CacheLevel) MarshalJSON() ([]byte, error) {
	return []byte(`"` + l.String() + `"`), nil
}

// String returns the cache level name for logging.
func (l CacheLevel) String() string {
	switch l {
	case CacheLevelElement:
		return "element"
	case CacheLevelSnapshot:
		return "snapshot"
	default:
		return "unknown"
	}
}

// PropertyValue is one raw authored value for a property, before schema
// validation. Culture and Segment are nil for invariant values.
type PropertyValue struct {
	Alias   string  `json:"alias"`
	Culture *string `json:"culture,omitempty"`
	Segment *string `json:"segment,omitempty"`
	Value   any     `json:"value"`
}

// ContentRecord is one authored content or settings block instance as it
// appears in a block payload. Keys are unique within the content-record set
// and within the settings-record set of a single property value.
type ContentRecord struct {
	Key            uuid.UUID
	Udi            Udi
	ContentTypeKey uuid.UUID
	Values         []PropertyValue
}

// LayoutItem is one node of a block layout. ContentUdi is always present;
// SettingsUdi is optional. The grid fields (spans, force flags, areas) are
// only populated by the grid flavor.
type LayoutItem struct {
	ContentUdi  Udi          `json:"contentUdi"`
	SettingsUdi Udi          `json:"settingsUdi,omitempty"`
	RowSpan     int          `json:"rowSpan,omitempty"`
	ColumnSpan  int          `json:"columnSpan,omitempty"`
	ForceLeft   bool         `json:"forceLeft,omitempty"`
	ForceRight  bool         `json:"forceRight,omitempty"`
	Areas       []LayoutArea `json:"areas,omitempty"`
}

// LayoutArea is a named region of a grid layout item holding nested items.
type LayoutArea struct {
	Key   string       `json:"key"`
	Items []LayoutItem `json:"items"`
}

// AreaConfiguration restricts which blocks may be placed inside a grid area.
type AreaConfiguration struct {
	Key   string `yaml:"key" json:"key"`
	Alias string `yaml:"alias" json:"alias"`
}

// BlockConfiguration is the schema-side allow-list for one block type,
// derived from the owning property's data-type configuration. It is supplied
// by the caller, never by the payload.
type BlockConfiguration struct {
	ContentTypeKey  uuid.UUID           `yaml:"contentTypeKey" json:"contentTypeKey"`
	SettingsTypeKey uuid.UUID           `yaml:"settingsTypeKey,omitempty" json:"settingsTypeKey,omitempty"`
	Areas           []AreaConfiguration `yaml:"areas,omitempty" json:"areas,omitempty"`
}

// HasSettings reports whether the configuration declares a settings type.
func (c BlockConfiguration) HasSettings() bool {
	return c.SettingsTypeKey != uuid.Nil
}
