package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/starford/berkano/internal/apperr"
	"github.com/starford/berkano/internal/blockservice"
	"github.com/starford/berkano/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc *blockservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *blockservice.Service) *Handler {
	return &Handler{svc: svc}
}

// Render handles POST /api/render/{flavor}.
//
//	@Summary		Materialize a serialized block property value
//	@Tags			render
//	@Accept			json
//	@Produce		json
//	@Param			flavor	path		string			true	"Block flavor"	Enums(list, grid, single, richtext)
//	@Param			body	body		RenderRequest	true	"Payload to convert"
//	@Success		200		{object}	RenderResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/render/{flavor} [post]
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)

	var req RenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	if flavor := chi.URLParam(r, "flavor"); flavor != "" {
		req.Flavor = flavor
	}

	res, err := h.svc.Render(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrUnknownFlavor):
			writeJSON(w, http.StatusBadRequest, errorBody("unknown flavor"))
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrInvalidPayload):
			// The parser propagates malformed payloads instead of
			// swallowing them; this boundary logs and reports them.
			slog.Warn("render: malformed payload", slog.String("error", err.Error()))
			writeJSON(w, http.StatusBadRequest, errorBody("malformed payload"))
		default:
			slog.Error("render failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}

	w.Header().Set("ETag", `"`+res.Checksum+`"`)
	writeJSON(w, http.StatusOK, RenderResponse{
		Flavor:   res.Model.Flavor,
		Model:    res.Model,
		Checksum: res.Checksum,
	})
}

// Normalize handles POST /api/normalize.
//
//	@Summary		Align authored value tags to the current schema variance
//	@Tags			render
//	@Accept			json
//	@Produce		json
//	@Param			body	body		NormalizeRequest	true	"Values to normalize"
//	@Success		200		{object}	NormalizeResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/normalize [post]
func (h *Handler) Normalize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)

	var req NormalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	typeKey, err := uuid.Parse(req.ContentTypeKey)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("contentTypeKey must be a UUID"))
		return
	}

	rec := models.ContentRecord{ContentTypeKey: typeKey}
	for _, v := range req.Values {
		var value any
		if len(v.Value) > 0 {
			if err := json.Unmarshal(v.Value, &value); err != nil {
				writeJSON(w, http.StatusBadRequest, errorBody("invalid value for "+v.Alias))
				return
			}
		}
		rec.Values = append(rec.Values, models.PropertyValue{
			Alias:   v.Alias,
			Culture: v.Culture,
			Segment: v.Segment,
			Value:   value,
		})
	}

	values, err := h.svc.Normalize(r.Context(), rec)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("normalize failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, NormalizeResponse{Values: values})
}

// ListContentTypes handles GET /api/types.
//
//	@Summary		List content types
//	@Tags			schema
//	@Produce		json
//	@Success		200	{object}	ContentTypeListResponse
//	@Security		BearerAuth
//	@Router			/types [get]
func (h *Handler) ListContentTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.svc.ContentTypes(r.Context())
	if err != nil {
		slog.Error("list content types failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, ContentTypeListResponse{ContentTypes: types, Total: len(types)})
}

// GetContentType handles GET /api/types/{keyOrAlias}.
//
//	@Summary		Get a content type by key or alias
//	@Tags			schema
//	@Produce		json
//	@Param			keyOrAlias	path		string	true	"Content type key or alias"
//	@Success		200			{object}	schema.ContentType
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/types/{keyOrAlias} [get]
func (h *Handler) GetContentType(w http.ResponseWriter, r *http.Request) {
	keyOrAlias := chi.URLParam(r, "keyOrAlias")
	if keyOrAlias == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("key or alias is required"))
		return
	}
	ct, err := h.svc.ContentType(r.Context(), keyOrAlias)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get content type failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, ct)
}

// ListDataTypes handles GET /api/datatypes.
//
//	@Summary		List data types (block editor configurations)
//	@Tags			schema
//	@Produce		json
//	@Success		200	{object}	DataTypeListResponse
//	@Security		BearerAuth
//	@Router			/datatypes [get]
func (h *Handler) ListDataTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.svc.DataTypes(r.Context())
	if err != nil {
		slog.Error("list data types failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, DataTypeListResponse{DataTypes: types, Total: len(types)})
}
