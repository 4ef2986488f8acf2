package search

import (
	"errors"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/voyplan/itinerary-api/internal/api"
	"github.com/voyplan/itinerary-api/internal/types"
)

type Handler struct {
	searchService Service
	logger        *slog.Logger
}

func NewHandler(searchService Service, logger *slog.Logger) *Handler {
	return &Handler{
		searchService: searchService,
		logger:        logger,
	}
}

// Search handles POST /places. The response is either a complete
// SearchResult or an error; "city not found" and "service unavailable" are
// distinguishable on purpose.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("SearchHandler").Start(r.Context(), "Search", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/places"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "Search"))

	var req types.SearchRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.ErrorContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.City == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "City is required")
		return
	}

	result, err := h.searchService.Search(ctx, req.City)
	if err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, types.ErrCityNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "City not found")
		case errors.Is(err, types.ErrPartialFailure), errors.Is(err, types.ErrUpstreamUnavailable):
			api.ErrorResponse(w, r, http.StatusBadGateway, "Failed to fetch data")
		default:
			l.ErrorContext(ctx, "Search failed", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch data")
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, result)
}

// NearbyRestaurants handles POST /places/nearby-restaurants.
func (h *Handler) NearbyRestaurants(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("SearchHandler").Start(r.Context(), "NearbyRestaurants", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/places/nearby-restaurants"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "NearbyRestaurants"))

	var req types.NearbyRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.ErrorContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	// A zero value on either axis is treated as a missing field, matching the
	// search UI which always submits both coordinates of a real place.
	if req.Lat == 0 || req.Lon == 0 {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Latitude and Longitude are required")
		return
	}

	places, err := h.searchService.Nearby(ctx, types.Coordinates{Lat: req.Lat, Lon: req.Lon})
	if err != nil {
		span.RecordError(err)
		l.ErrorContext(ctx, "Nearby restaurants fetch failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadGateway, "Failed to fetch nearby restaurants")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, places)
}
