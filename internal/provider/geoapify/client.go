package geoapify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/voyplan/itinerary-api/config"
	"github.com/voyplan/itinerary-api/internal/types"
)

// Search parameters used by the aggregation layer. The radius/limit pairs
// mirror the product behavior: a wide scan for the result lists and a tight
// 1 km scan for the "nearby restaurants" detail view.
const (
	AttractionRadiusMeters = 20000
	AttractionLimit        = 20
	RestaurantRadiusMeters = 20000
	RestaurantLimit        = 15
	NearbyRadiusMeters     = 1000
	NearbyLimit            = 10
)

// Client talks to the Geoapify geocoding and places APIs. It is both the geo
// resolver (free text to coordinates) and the POI fetcher.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

func NewClient(cfg config.ProviderConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		logger:     logger,
	}
}

type featureCollection struct {
	Features []struct {
		Properties struct {
			PlaceID      string   `json:"place_id"`
			Name         string   `json:"name"`
			Lat          *float64 `json:"lat"`
			Lon          *float64 `json:"lon"`
			AddressLine2 string   `json:"address_line2"`
		} `json:"properties"`
	} `json:"features"`
}

// Geocode resolves a free-text place name to coordinates. The first candidate
// wins; zero candidates surface as types.ErrCityNotFound so callers can show
// "city not found" instead of a generic server error. No retry on transient
// failure.
func (c *Client) Geocode(ctx context.Context, cityName string) (types.Coordinates, error) {
	if cityName == "" {
		return types.Coordinates{}, fmt.Errorf("city name is required")
	}

	u := fmt.Sprintf("%s/v1/geocode/search?text=%s&apiKey=%s",
		c.baseURL, url.QueryEscape(cityName), url.QueryEscape(c.apiKey))

	var fc featureCollection
	if err := c.getJSON(ctx, u, &fc); err != nil {
		return types.Coordinates{}, err
	}

	if len(fc.Features) == 0 {
		c.logger.DebugContext(ctx, "Geocoder returned no candidates", slog.String("city", cityName))
		return types.Coordinates{}, types.ErrCityNotFound
	}

	props := fc.Features[0].Properties
	if props.Lat == nil || props.Lon == nil {
		return types.Coordinates{}, fmt.Errorf("%w: geocoder candidate missing coordinates", types.ErrUpstreamUnavailable)
	}
	return types.Coordinates{Lat: *props.Lat, Lon: *props.Lon}, nil
}

// FetchPlaces retrieves POIs of one category around a center point, in
// provider-proximity order. Candidates with no name are dropped entirely
// before the result ever reaches a caller; this is a data-quality filter,
// not a rendering fallback.
func (c *Client) FetchPlaces(ctx context.Context, center types.Coordinates, category types.PlaceCategory, radiusMeters, limit int) ([]types.Place, error) {
	providerCategory, err := providerCategoryFor(category)
	if err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/v2/places?categories=%s&filter=circle:%f,%f,%d&bias=proximity:%f,%f&limit=%d&apiKey=%s",
		c.baseURL, providerCategory,
		center.Lon, center.Lat, radiusMeters,
		center.Lon, center.Lat, limit,
		url.QueryEscape(c.apiKey))

	var fc featureCollection
	if err := c.getJSON(ctx, u, &fc); err != nil {
		return nil, err
	}

	places := make([]types.Place, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f.Properties.Name == "" {
			continue
		}
		places = append(places, types.Place{
			ID:          f.Properties.PlaceID,
			Name:        f.Properties.Name,
			Lat:         f.Properties.Lat,
			Lon:         f.Properties.Lon,
			Category:    category,
			AddressLine: f.Properties.AddressLine2,
		})
	}

	c.logger.DebugContext(ctx, "Fetched places",
		slog.String("category", string(category)),
		slog.Int("returned", len(fc.Features)),
		slog.Int("kept", len(places)),
	)
	return places, nil
}

func providerCategoryFor(category types.PlaceCategory) (string, error) {
	switch category {
	case types.CategoryAttraction:
		return "tourism.attraction", nil
	case types.CategoryRestaurant:
		return "catering.restaurant", nil
	default:
		return "", fmt.Errorf("unknown place category %q", category)
	}
}

func (c *Client) getJSON(ctx context.Context, url string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "Geoapify request failed", slog.Any("error", err))
		return fmt.Errorf("%w: %v", types.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.ErrorContext(ctx, "Geoapify returned non-OK status", slog.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: geoapify status %d", types.ErrUpstreamUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: decoding geoapify response: %v", types.ErrUpstreamUnavailable, err)
	}
	return nil
}
