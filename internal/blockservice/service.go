// Package blockservice coordinates the schema store and the materialization
// engine for the API and MCP layers.
package blockservice

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/starford/berkano/internal/apperr"
	"github.com/starford/berkano/internal/blocks"
	"github.com/starford/berkano/internal/checksum"
	"github.com/starford/berkano/internal/models"
	"github.com/starford/berkano/internal/schema"
)

// RenderRequest is one conversion request. Either DataType (an alias whose
// stored configuration supplies the block allow-list and flavor) or an
// explicit Flavor+Blocks pair must be given.
type RenderRequest struct {
	Flavor   string                      `json:"flavor,omitempty"`
	DataType string                      `json:"dataType,omitempty"`
	Blocks   []models.BlockConfiguration `json:"blocks,omitempty"`
	Value    json.RawMessage             `json:"value"`
	Culture  string                      `json:"culture,omitempty"`
	Segment  string                      `json:"segment,omitempty"`
	Preview  bool                        `json:"preview,omitempty"`
}

// RenderResult is the materialized model plus a checksum of the source
// payload, usable as an ETag.
type RenderResult struct {
	Model    *blocks.Model `json:"model"`
	Checksum string        `json:"checksum"`
}

// Service coordinates schema lookups and block conversion.
type Service struct {
	store   *schema.Store
	engine  *blocks.Engine
	locales schema.LocaleSource
}

// NewService creates a new block service.
func NewService(store *schema.Store, engine *blocks.Engine, locales schema.LocaleSource) *Service {
	return &Service{store: store, engine: engine, locales: locales}
}

// Render converts one serialized block property value into its materialized
// model. Malformed payloads are reported as apperr.ErrInvalidPayload; data
// that merely fails to resolve (dangling references, stale types) silently
// drops the affected nodes instead.
func (s *Service) Render(_ context.Context, req RenderRequest) (*RenderResult, error) {
	flavorName := req.Flavor
	configs := req.Blocks

	if req.DataType != "" {
		dt, ok := s.store.DataTypeByAlias(req.DataType)
		if !ok {
			return nil, fmt.Errorf("%w: data type %q", apperr.ErrNotFound, req.DataType)
		}
		configs = dt.Blocks
		if flavorName == "" {
			flavor, ok := blocks.FlavorByEditorAlias(dt.EditorAlias)
			if !ok {
				return nil, fmt.Errorf("%w: editor alias %q", apperr.ErrUnknownFlavor, dt.EditorAlias)
			}
			flavorName = flavor.Name
		}
	}

	converter, ok := s.engine.Converter(flavorName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperr.ErrUnknownFlavor, flavorName)
	}

	vctx := blocks.VarianceContext{Culture: req.Culture, Segment: req.Segment}
	model, err := converter.Convert(req.Value, configs, vctx, req.Preview)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrInvalidPayload, err)
	}

	return &RenderResult{
		Model:    model,
		Checksum: checksum.Sum(req.Value),
	}, nil
}

// Normalize applies editable-variance alignment to a record's values: a
// value missing a required culture tag is assigned the default locale, and
// tags the schema no longer allows are cleared. Values for aliases unknown
// to the schema are returned unchanged.
func (s *Service) Normalize(_ context.Context, rec models.ContentRecord) ([]models.PropertyValue, error) {
	ct, ok := s.store.ContentType(rec.ContentTypeKey)
	if !ok {
		return nil, fmt.Errorf("%w: content type %s", apperr.ErrNotFound, rec.ContentTypeKey)
	}

	defaultLocale := s.locales.DefaultLocale()
	out := make([]models.PropertyValue, len(rec.Values))
	for i, v := range rec.Values {
		prop, known := ct.Property(v.Alias)
		if !known {
			out[i] = v
			continue
		}
		out[i] = blocks.AlignEditable(v, ct.Variation.Intersect(prop.Variation), defaultLocale)
	}
	return out, nil
}

// ContentTypes lists every stored content type.
func (s *Service) ContentTypes(_ context.Context) ([]schema.ContentType, error) {
	return s.store.ListContentTypes()
}

// ContentType fetches one content type by key or alias.
func (s *Service) ContentType(_ context.Context, keyOrAlias string) (*schema.ContentType, error) {
	if key, err := uuid.Parse(keyOrAlias); err == nil {
		if ct, ok := s.store.ContentType(key); ok {
			return ct, nil
		}
		return nil, apperr.ErrNotFound
	}
	if ct, ok := s.store.ContentTypeByAlias(keyOrAlias); ok {
		return ct, nil
	}
	return nil, apperr.ErrNotFound
}

// DataTypes lists every stored data type.
func (s *Service) DataTypes(_ context.Context) ([]schema.DataType, error) {
	return s.store.ListDataTypes()
}
