package api

import (
	"encoding/json"

	"github.com/starford/berkano/internal/blocks"
	"github.com/starford/berkano/internal/blockservice"
	"github.com/starford/berkano/internal/models"
	"github.com/starford/berkano/internal/schema"
)

// RenderRequest is the request body for a render call (aliased from the
// domain layer).
type RenderRequest = blockservice.RenderRequest

// RenderResponse is the materialized model plus the payload checksum.
type RenderResponse struct {
	Flavor   string        `json:"flavor" validate:"required"`
	Model    *blocks.Model `json:"model" validate:"required"`
	Checksum string        `json:"checksum" validate:"required"`
}

// NormalizeRequest is the request body for editable-variance normalization.
type NormalizeRequest struct {
	ContentTypeKey string            `json:"contentTypeKey" validate:"required"`
	Values         []normalizeValue  `json:"values" validate:"required"`
}

type normalizeValue struct {
	Alias   string          `json:"alias"`
	Culture *string         `json:"culture"`
	Segment *string         `json:"segment"`
	Value   json.RawMessage `json:"value"`
}

// NormalizeResponse carries the aligned values.
type NormalizeResponse struct {
	Values []models.PropertyValue `json:"values" validate:"required"`
}

// ContentTypeListResponse wraps content type listings.
type ContentTypeListResponse struct {
	ContentTypes []schema.ContentType `json:"contentTypes" validate:"required"`
	Total        int                  `json:"total" validate:"required"`
}

// DataTypeListResponse wraps data type listings.
type DataTypeListResponse struct {
	DataTypes []schema.DataType `json:"dataTypes" validate:"required"`
	Total     int               `json:"total" validate:"required"`
}
