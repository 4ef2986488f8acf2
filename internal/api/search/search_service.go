package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/voyplan/itinerary-api/app/observability/metrics"
	"github.com/voyplan/itinerary-api/internal/provider/geoapify"
	"github.com/voyplan/itinerary-api/internal/types"
)

func otelStatus(status string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("status", status))
}

func otelProvider(name string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("provider", name))
}

// GeoResolver resolves free-text place names to coordinates.
type GeoResolver interface {
	Geocode(ctx context.Context, cityName string) (types.Coordinates, error)
}

// PlaceFetcher retrieves categorized POIs around a center point.
type PlaceFetcher interface {
	FetchPlaces(ctx context.Context, center types.Coordinates, category types.PlaceCategory, radiusMeters, limit int) ([]types.Place, error)
}

// ForecastFetcher retrieves the collapsed short-term forecast.
type ForecastFetcher interface {
	FetchForecast(ctx context.Context, coords types.Coordinates) ([]types.ForecastDay, error)
}

var _ Service = (*ServiceImpl)(nil)

// Service defines the business logic contract for city search aggregation.
type Service interface {
	Search(ctx context.Context, cityName string) (*types.SearchResult, error)
	Nearby(ctx context.Context, coords types.Coordinates) ([]types.Place, error)
}

// ServiceImpl fans a city query out to the geocoding, places and weather
// providers and merges their results into one response.
type ServiceImpl struct {
	logger   *slog.Logger
	geo      GeoResolver
	places   PlaceFetcher
	forecast ForecastFetcher
	cache    *cache.Cache
}

func NewServiceImpl(geo GeoResolver, places PlaceFetcher, forecast ForecastFetcher, searchTTL time.Duration, logger *slog.Logger) *ServiceImpl {
	if searchTTL <= 0 {
		searchTTL = 5 * time.Minute
	}
	return &ServiceImpl{
		logger:   logger,
		geo:      geo,
		places:   places,
		forecast: forecast,
		cache:    cache.New(searchTTL, 10*time.Minute),
	}
}

// Search resolves the city name and aggregates attractions, restaurants and
// forecast for it. Geocoding is a hard dependency and runs first; the three
// downstream fetches run concurrently and ALL must succeed. A single failed
// fetch fails the whole call as types.ErrPartialFailure; empty lists are
// never substituted for a failed sub-call.
func (s *ServiceImpl) Search(ctx context.Context, cityName string) (*types.SearchResult, error) {
	ctx, span := otel.Tracer("SearchService").Start(ctx, "Search", trace.WithAttributes(
		attribute.String("city.name", cityName),
	))
	defer span.End()

	start := time.Now()
	m := metrics.Get()

	cacheKey := strings.ToLower(strings.TrimSpace(cityName))
	if cached, found := s.cache.Get(cacheKey); found {
		span.AddEvent("cache hit")
		m.SearchRequestsTotal.Add(ctx, 1, otelStatus("cached"))
		return cached.(*types.SearchResult), nil
	}

	m.ProviderRequestsTotal.Add(ctx, 1, otelProvider("geoapify"))
	coords, err := s.geo.Geocode(ctx, cityName)
	if err != nil {
		s.logger.WarnContext(ctx, "Geocoding failed", slog.String("city", cityName), slog.Any("error", err))
		span.RecordError(err)
		m.SearchRequestsTotal.Add(ctx, 1, otelStatus("error"))
		return nil, err
	}

	var (
		attractions []types.Place
		restaurants []types.Place
		forecast    []types.ForecastDay
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		m.ProviderRequestsTotal.Add(gctx, 1, otelProvider("geoapify"))
		attractions, err = s.places.FetchPlaces(gctx, coords, types.CategoryAttraction, geoapify.AttractionRadiusMeters, geoapify.AttractionLimit)
		return err
	})
	g.Go(func() error {
		var err error
		m.ProviderRequestsTotal.Add(gctx, 1, otelProvider("geoapify"))
		restaurants, err = s.places.FetchPlaces(gctx, coords, types.CategoryRestaurant, geoapify.RestaurantRadiusMeters, geoapify.RestaurantLimit)
		return err
	})
	g.Go(func() error {
		var err error
		m.ProviderRequestsTotal.Add(gctx, 1, otelProvider("openweather"))
		forecast, err = s.forecast.FetchForecast(gctx, coords)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "Provider fan-out failed", slog.String("city", cityName), slog.Any("error", err))
		span.RecordError(err)
		m.ProviderErrorsTotal.Add(ctx, 1)
		m.SearchRequestsTotal.Add(ctx, 1, otelStatus("error"))
		return nil, fmt.Errorf("%w: %v", types.ErrPartialFailure, err)
	}

	result := &types.SearchResult{
		CityCoordinates: coords,
		Places:          attractions,
		Restaurants:     restaurants,
		Forecast:        forecast,
	}
	s.cache.SetDefault(cacheKey, result)

	m.SearchRequestsTotal.Add(ctx, 1, otelStatus("ok"))
	m.SearchDurationSeconds.Record(ctx, time.Since(start).Seconds())
	span.SetAttributes(
		attribute.Int("places.count", len(attractions)),
		attribute.Int("restaurants.count", len(restaurants)),
		attribute.Int("forecast.days", len(forecast)),
	)
	span.SetStatus(codes.Ok, "Search aggregated")
	return result, nil
}

// Nearby returns restaurants within 1 km of a point, used by the itinerary
// detail view.
func (s *ServiceImpl) Nearby(ctx context.Context, coords types.Coordinates) ([]types.Place, error) {
	ctx, span := otel.Tracer("SearchService").Start(ctx, "Nearby")
	defer span.End()

	metrics.Get().ProviderRequestsTotal.Add(ctx, 1, otelProvider("geoapify"))
	places, err := s.places.FetchPlaces(ctx, coords, types.CategoryRestaurant, geoapify.NearbyRadiusMeters, geoapify.NearbyLimit)
	if err != nil {
		s.logger.ErrorContext(ctx, "Nearby restaurants fetch failed", slog.Any("error", err))
		span.RecordError(err)
		metrics.Get().ProviderErrorsTotal.Add(ctx, 1)
		return nil, err
	}

	span.SetAttributes(attribute.Int("restaurants.count", len(places)))
	span.SetStatus(codes.Ok, "Nearby restaurants fetched")
	return places, nil
}
