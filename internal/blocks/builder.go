package blocks

import (
	"github.com/google/uuid"

	"github.com/starford/berkano/internal/models"
)

// Item is the typed wrapper for one materialized block: resolved content,
// optional resolved settings, and layout-derived presentation fields (grid
// flavor only).
type Item struct {
	ContentKey  uuid.UUID        `json:"contentKey"`
	ContentUdi  models.Udi       `json:"contentUdi"`
	Content     PublishedElement `json:"content"`
	SettingsKey uuid.UUID        `json:"settingsKey,omitempty"`
	SettingsUdi models.Udi       `json:"settingsUdi,omitempty"`
	Settings    PublishedElement `json:"settings,omitempty"`

	RowSpan    int    `json:"rowSpan,omitempty"`
	ColumnSpan int    `json:"columnSpan,omitempty"`
	ForceLeft  bool   `json:"forceLeft,omitempty"`
	ForceRight bool   `json:"forceRight,omitempty"`
	Areas      []Area `json:"areas,omitempty"`
}

// Area is one named region of a grid item holding nested items.
type Area struct {
	Alias string  `json:"alias"`
	Items []*Item `json:"items"`
}

// Model is the materialized output of one conversion: the flavor's items in
// authored order. Single-item flavors hold zero or one item.
type Model struct {
	Flavor     string            `json:"flavor"`
	CacheLevel models.CacheLevel `json:"cacheLevel"`
	Items      []*Item           `json:"items"`
}

// First returns the first item, or nil for an empty model.
func (m *Model) First() *Item {
	if len(m.Items) == 0 {
		return nil
	}
	return m.Items[0]
}

// Flavor is the strategy bundle that specializes the shared conversion
// algorithm for one block editor: where the layout lives, how deep it
// nests, which cache granularity applies, and how the final model is
// assembled.
type Flavor struct {
	Name        string
	EditorAlias string
	// CacheLevel is the granularity consumers may memoize converted values
	// at. Flavors whose output is interpolated against ambient context
	// (rich text) must declare snapshot granularity.
	CacheLevel models.CacheLevel
	// Recurse enables grid-style area recursion.
	Recurse bool
	// Assemble trims the ordered items into the flavor's final shape.
	Assemble func(items []*Item) []*Item
}

// The four block editor flavors.
var (
	FlavorList = Flavor{
		Name:        "list",
		EditorAlias: "Berkano.BlockList",
		CacheLevel:  models.CacheLevelElement,
		Assemble:    assembleAll,
	}
	FlavorGrid = Flavor{
		Name:        "grid",
		EditorAlias: "Berkano.BlockGrid",
		CacheLevel:  models.CacheLevelElement,
		Recurse:     true,
		Assemble:    assembleAll,
	}
	FlavorSingle = Flavor{
		Name:        "single",
		EditorAlias: "Berkano.SingleBlock",
		CacheLevel:  models.CacheLevelElement,
		Assemble:    assembleFirst,
	}
	// Rich-text embedded blocks are rendered inside markup whose link and
	// macro resolution depends on the whole published snapshot, hence the
	// coarser granularity.
	FlavorRichText = Flavor{
		Name:        "richtext",
		EditorAlias: "Berkano.RichText",
		CacheLevel:  models.CacheLevelSnapshot,
		Assemble:    assembleAll,
	}
)

func assembleAll(items []*Item) []*Item { return items }

func assembleFirst(items []*Item) []*Item {
	if len(items) == 0 {
		return nil
	}
	return items[:1]
}

// Flavors returns all flavors in a stable order.
func Flavors() []Flavor {
	return []Flavor{FlavorList, FlavorGrid, FlavorSingle, FlavorRichText}
}

// FlavorByName returns the flavor with the given name.
func FlavorByName(name string) (Flavor, bool) {
	for _, f := range Flavors() {
		if f.Name == name {
			return f, true
		}
	}
	return Flavor{}, false
}

// FlavorByEditorAlias returns the flavor registered for a block editor
// alias, as declared by a data type.
func FlavorByEditorAlias(alias string) (Flavor, bool) {
	for _, f := range Flavors() {
		if f.EditorAlias == alias {
			return f, true
		}
	}
	return Flavor{}, false
}

// Converter materializes payloads of one flavor. It is safe for concurrent
// use; all per-call state is call-local and the factory cache tolerates
// concurrent access.
type Converter struct {
	flavor   Flavor
	resolver *ElementResolver
	cache    *FactoryCache
}

// NewConverter creates a converter for flavor using the given resolver and
// factory cache.
func NewConverter(flavor Flavor, resolver *ElementResolver, cache *FactoryCache) *Converter {
	return &Converter{flavor: flavor, resolver: resolver, cache: cache}
}

// Flavor returns the converter's flavor.
func (c *Converter) Flavor() Flavor { return c.flavor }

// Cache returns the converter's factory cache.
func (c *Converter) Cache() *FactoryCache { return c.cache }

// Parse decodes a raw payload into the normalized triple for this flavor.
func (c *Converter) Parse(raw []byte) (*Parsed, error) {
	return ParsePayload(raw, c.flavor.EditorAlias)
}

// Convert parses raw and builds the materialized model in one step.
func (c *Converter) Convert(raw []byte, configs []models.BlockConfiguration, vctx VarianceContext, preview bool) (*Model, error) {
	parsed, err := c.Parse(raw)
	if err != nil {
		return nil, err
	}
	return c.Build(parsed, configs, vctx, preview)
}

// Build walks the parsed layout in authored order and assembles the model.
// Any single broken reference drops exactly that node; it never aborts the
// whole conversion. Order is preserved at every nesting level.
func (c *Converter) Build(parsed *Parsed, configs []models.BlockConfiguration, vctx VarianceContext, preview bool) (*Model, error) {
	model := &Model{Flavor: c.flavor.Name, CacheLevel: c.flavor.CacheLevel}
	if parsed.IsEmpty() {
		return model, nil
	}

	// Allow-list of block configurations by content type.
	configIndex := make(map[uuid.UUID]models.BlockConfiguration, len(configs))
	settingsTypes := make(map[uuid.UUID]struct{})
	for _, cfg := range configs {
		configIndex[cfg.ContentTypeKey] = cfg
		if cfg.HasSettings() {
			settingsTypes[cfg.SettingsTypeKey] = struct{}{}
		}
	}

	// Resolve all content records up front; the indexes are shared across
	// every nesting level so an element is never re-resolved per area.
	contentIndex := make(map[uuid.UUID]*Element, len(parsed.ContentData))
	for _, rec := range parsed.ContentData {
		if _, ok := configIndex[rec.ContentTypeKey]; !ok {
			continue
		}
		if el := c.resolver.Resolve(rec, vctx, c.flavor.CacheLevel, preview); el != nil {
			contentIndex[el.Key()] = el
		}
	}
	if len(contentIndex) == 0 {
		// Nothing in the layout can reference a valid element.
		return model, nil
	}

	settingsIndex := make(map[uuid.UUID]*Element, len(parsed.SettingsData))
	for _, rec := range parsed.SettingsData {
		if _, ok := settingsTypes[rec.ContentTypeKey]; !ok {
			continue
		}
		if el := c.resolver.Resolve(rec, vctx, c.flavor.CacheLevel, preview); el != nil {
			settingsIndex[el.Key()] = el
		}
	}

	items, err := c.buildItems(parsed.Layout, configIndex, contentIndex, settingsIndex)
	if err != nil {
		return nil, err
	}
	model.Items = c.flavor.Assemble(items)
	return model, nil
}

func (c *Converter) buildItems(
	layout []models.LayoutItem,
	configIndex map[uuid.UUID]models.BlockConfiguration,
	contentIndex, settingsIndex map[uuid.UUID]*Element,
) ([]*Item, error) {
	var items []*Item
	for _, node := range layout {
		contentKey, ok := node.ContentUdi.Key()
		if !ok {
			continue
		}
		content, ok := contentIndex[contentKey]
		if !ok {
			// Dangling layout reference: drop this node only.
			continue
		}
		cfg, ok := configIndex[content.ContentType().Key]
		if !ok {
			continue
		}

		settings := c.resolveSettings(node, cfg, settingsIndex)

		settingsType := uuid.Nil
		if settings != nil {
			settingsType = cfg.SettingsTypeKey
		}
		factory := c.cache.GetOrCreate(cfg.ContentTypeKey, settingsType)
		item, err := factory(content, settings)
		if err != nil {
			return nil, err
		}

		if c.flavor.Recurse {
			if err := c.enrichGrid(item, node, cfg, configIndex, contentIndex, settingsIndex); err != nil {
				return nil, err
			}
		}

		items = append(items, item)
	}
	return items, nil
}

// resolveSettings returns the settings element for a node, or nil. Settings
// whose resolved type does not match the configuration's declared settings
// type are discarded; the item just has no settings.
func (c *Converter) resolveSettings(node models.LayoutItem, cfg models.BlockConfiguration, settingsIndex map[uuid.UUID]*Element) *Element {
	if node.SettingsUdi.IsEmpty() || !cfg.HasSettings() {
		return nil
	}
	key, ok := node.SettingsUdi.Key()
	if !ok {
		return nil
	}
	settings, ok := settingsIndex[key]
	if !ok {
		return nil
	}
	if settings.ContentType().Key != cfg.SettingsTypeKey {
		return nil
	}
	return settings
}

// enrichGrid attaches the node's presentation fields and recursively builds
// each configured area's sub-tree against the shared indexes.
func (c *Converter) enrichGrid(
	item *Item,
	node models.LayoutItem,
	cfg models.BlockConfiguration,
	configIndex map[uuid.UUID]models.BlockConfiguration,
	contentIndex, settingsIndex map[uuid.UUID]*Element,
) error {
	item.RowSpan = node.RowSpan
	item.ColumnSpan = node.ColumnSpan
	item.ForceLeft = node.ForceLeft
	item.ForceRight = node.ForceRight

	allowed := allowedAreas(cfg)
	for _, area := range node.Areas {
		if allowed != nil {
			if _, ok := allowed[area.Key]; !ok {
				continue
			}
		}
		nested, err := c.buildItems(area.Items, configIndex, contentIndex, settingsIndex)
		if err != nil {
			return err
		}
		item.Areas = append(item.Areas, Area{Alias: area.Key, Items: nested})
	}
	return nil
}

// allowedAreas returns the configured area allow-list, or nil when the
// configuration does not restrict areas.
func allowedAreas(cfg models.BlockConfiguration) map[string]struct{} {
	if len(cfg.Areas) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(cfg.Areas))
	for _, a := range cfg.Areas {
		out[a.Key] = struct{}{}
		if a.Alias != "" {
			out[a.Alias] = struct{}{}
		}
	}
	return out
}
