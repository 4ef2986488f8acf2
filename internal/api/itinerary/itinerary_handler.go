package itinerary

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/voyplan/itinerary-api/internal/api"
	"github.com/voyplan/itinerary-api/internal/api/auth"
	"github.com/voyplan/itinerary-api/internal/types"
)

type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// AddItemRequest is the JSON body for adding a place to the session.
type AddItemRequest struct {
	Place    types.Place         `json:"place"`
	Category types.PlaceCategory `json:"category"`
}

// RemoveItemRequest is the JSON body for removing a place from the session.
type RemoveItemRequest struct {
	ID       string              `json:"id"`
	Category types.PlaceCategory `json:"category"`
}

// MoveItemRequest is the JSON body for reordering the session lists. Cross-
// category moves are allowed.
type MoveItemRequest struct {
	FromCategory types.PlaceCategory `json:"from_category"`
	Index        int                 `json:"index"`
	ToCategory   types.PlaceCategory `json:"to_category"`
	ToIndex      int                 `json:"to_index"`
}

// SetCityRequest is the JSON body for recording the active city context after
// a search.
type SetCityRequest struct {
	CityName        string            `json:"city_name"`
	CityCoordinates types.Coordinates `json:"city_coordinates"`
}

// ownerID pulls the authenticated user out of the request context. The core
// trusts this identity; authorization happened in the middleware.
func (h *Handler) ownerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userIDStr, ok := auth.GetUserIDFromContext(r.Context())
	if !ok || userIDStr == "" {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid user ID format")
		return uuid.Nil, false
	}
	return userID, true
}

// SaveItinerary handles POST /itineraries. Every save creates a new record;
// saving the same city twice yields two records.
func (h *Handler) SaveItinerary(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "SaveItinerary", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/itineraries"),
	))
	defer span.End()
	r = r.WithContext(ctx)

	l := h.logger.With(slog.String("handler", "SaveItinerary"))

	userID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	var req types.SaveItineraryRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.ErrorContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	it, err := h.service.Save(ctx, userID, req)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, types.ErrEmptySelection) {
			api.ErrorResponse(w, r, http.StatusBadRequest, "Add at least one place or restaurant before saving")
			return
		}
		l.ErrorContext(ctx, "Failed to save itinerary", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to save itinerary")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, it)
}

// ListItineraries handles GET /itineraries, newest first.
func (h *Handler) ListItineraries(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "ListItineraries", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/itineraries"),
	))
	defer span.End()
	r = r.WithContext(ctx)

	userID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	itineraries, err := h.service.ListForOwner(ctx, userID)
	if err != nil {
		span.RecordError(err)
		h.logger.ErrorContext(ctx, "Failed to list itineraries", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to retrieve itineraries")
		return
	}
	if itineraries == nil {
		itineraries = []types.Itinerary{}
	}

	api.WriteJSONResponse(w, r, http.StatusOK, itineraries)
}

// GetSession handles GET /session.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ownerID(w, r)
	if !ok {
		return
	}
	state := h.service.Sessions().Get(userID.String()).Snapshot()
	api.WriteJSONResponse(w, r, http.StatusOK, state)
}

// SetCity handles POST /session/city: records which city the session's lists
// belong to. The client calls this after a successful search; a save is only
// accepted once the city context is set.
func (h *Handler) SetCity(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	var req SetCityRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.CityName == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "City name is required")
		return
	}

	h.service.Sessions().Get(userID.String()).SetCity(req.CityName, req.CityCoordinates)
	api.WriteJSONResponse(w, r, http.StatusOK, h.service.Sessions().Get(userID.String()).Snapshot())
}

// AddItem handles POST /session/items. Duplicate IDs are a silent no-op.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	var req AddItemRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Place.ID == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Place ID is required")
		return
	}
	if !req.Category.Valid() {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Unknown category")
		return
	}

	h.service.Sessions().Get(userID.String()).Add(req.Place, req.Category)
	api.WriteJSONResponse(w, r, http.StatusOK, h.service.Sessions().Get(userID.String()).Snapshot())
}

// RemoveItem handles DELETE /session/items. Removing an absent ID is a
// no-op.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	var req RemoveItemRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if !req.Category.Valid() {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Unknown category")
		return
	}

	h.service.Sessions().Get(userID.String()).Remove(req.ID, req.Category)
	api.WriteJSONResponse(w, r, http.StatusOK, h.service.Sessions().Get(userID.String()).Snapshot())
}

// MoveItem handles POST /session/move.
func (h *Handler) MoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	var req MoveItemRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if !req.FromCategory.Valid() || !req.ToCategory.Valid() {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Unknown category")
		return
	}

	h.service.Sessions().Get(userID.String()).Move(req.FromCategory, req.Index, req.ToCategory, req.ToIndex)
	api.WriteJSONResponse(w, r, http.StatusOK, h.service.Sessions().Get(userID.String()).Snapshot())
}

// ClearSession handles POST /session/clear, used on logout/city reset.
func (h *Handler) ClearSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ownerID(w, r)
	if !ok {
		return
	}
	h.service.Sessions().Get(userID.String()).Clear()
	w.WriteHeader(http.StatusNoContent)
}

// SaveSession handles POST /session/save: persists a snapshot of the current
// session lists as a new itinerary record.
func (h *Handler) SaveSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	state := h.service.Sessions().Get(userID.String()).Snapshot()
	if state.CityName == "" || state.CityCoordinates == nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Search for a city before saving")
		return
	}

	it, err := h.service.Save(ctx, userID, types.SaveItineraryRequest{
		CityName:        state.CityName,
		CityCoordinates: *state.CityCoordinates,
		Places:          state.Places,
		Restaurants:     state.Restaurants,
	})
	if err != nil {
		if errors.Is(err, types.ErrEmptySelection) {
			api.ErrorResponse(w, r, http.StatusBadRequest, "Add at least one place or restaurant before saving")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to save session snapshot", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to save itinerary")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, it)
}

// LoadItinerary handles POST /session/load/{itineraryID}: replaces the
// session wholesale with a persisted record.
func (h *Handler) LoadItinerary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	itineraryID, err := uuid.Parse(chi.URLParam(r, "itineraryID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid itinerary ID format")
		return
	}

	it, err := h.service.Load(ctx, userID, itineraryID)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to load itinerary", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusNotFound, "Itinerary not found")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, it)
}
