package openweather

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

// maxForecastDays caps the collapsed forecast length.
const maxForecastDays = 5

// Client talks to the OpenWeatherMap 5-day forecast API.
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

type forecastResponse struct {
	List []forecastSample `json:"list"`
}

type forecastSample struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
}

// FetchForecast returns at most five ForecastDay entries for the given
// coordinates. The upstream list carries 3-hour samples in chronological
// order; samples are grouped by calendar day and only the first sample of
// each day is kept. Later samples are discarded, not averaged.
func (c *Client) FetchForecast(ctx context.Context, coords types.Coordinates) ([]types.ForecastDay, error) {
	u := fmt.Sprintf("%s/data/2.5/forecast?lat=%f&lon=%f&appid=%s&units=metric",
		c.baseURL, coords.Lat, coords.Lon, url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "OpenWeatherMap request failed", slog.Any("error", err))
		return nil, fmt.Errorf("%w: %v", types.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.ErrorContext(ctx, "OpenWeatherMap returned non-OK status", slog.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: openweathermap status %d", types.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var fr forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		return nil, fmt.Errorf("%w: decoding forecast response: %v", types.ErrUpstreamUnavailable, err)
	}

	return collapseToDays(fr.List), nil
}

// collapseToDays keeps the first sample of each distinct calendar day, in
// encounter order, up to maxForecastDays.
func collapseToDays(samples []forecastSample) []types.ForecastDay {
	days := make([]types.ForecastDay, 0, maxForecastDays)
	seen := make(map[time.Time]struct{}, maxForecastDays)

	for _, s := range samples {
		day := time.Unix(s.Dt, 0).UTC().Truncate(24 * time.Hour)
		if _, ok := seen[day]; ok {
			continue
		}

		fd := types.ForecastDay{
			Date:        day,
			Temperature: s.Main.Temp,
		}
		if len(s.Weather) > 0 {
			fd.Description = s.Weather[0].Description
			fd.Icon = s.Weather[0].Icon
		}

		seen[day] = struct{}{}
		days = append(days, fd)
		if len(days) == maxForecastDays {
			break
		}
	}
	return days
}
