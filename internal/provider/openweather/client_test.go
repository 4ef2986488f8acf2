package openweather

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyplan/itinerary-api/config"
	"github.com/voyplan/itinerary-api/internal/types"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(config.ProviderConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	}, slog.Default())
}

func sample(ts time.Time, temp float64, description, icon string) map[string]any {
	return map[string]any{
		"dt":   ts.Unix(),
		"main": map[string]any{"temp": temp},
		"weather": []map[string]any{
			{"description": description, "icon": icon},
		},
	}
}

func TestFetchForecast(t *testing.T) {
	coords := types.Coordinates{Lat: 38.72, Lon: -9.14}
	day1 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	t.Run("CollapsesToFirstSamplePerDay", func(t *testing.T) {
		// Two 3-hour samples on day one, then one per following day. Only the
		// first sample of each day survives.
		samples := []map[string]any{
			sample(day1, 18.0, "clear sky", "01d"),
			sample(day1.Add(3*time.Hour), 24.0, "few clouds", "02d"),
			sample(day1.AddDate(0, 0, 1), 19.5, "rain", "10d"),
			sample(day1.AddDate(0, 0, 2), 21.0, "clear sky", "01d"),
		}
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/data/2.5/forecast", r.URL.Path)
			assert.Equal(t, "metric", r.URL.Query().Get("units"))
			assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
			json.NewEncoder(w).Encode(map[string]any{"list": samples})
		})

		days, err := client.FetchForecast(context.Background(), coords)

		require.NoError(t, err)
		require.Len(t, days, 3)
		assert.Equal(t, 18.0, days[0].Temperature)
		assert.Equal(t, "clear sky", days[0].Description)
		assert.Equal(t, "01d", days[0].Icon)
		assert.Equal(t, 19.5, days[1].Temperature)
		assert.Equal(t, day1.Truncate(24*time.Hour), days[0].Date)
	})

	t.Run("CapsAtFiveDays", func(t *testing.T) {
		var samples []map[string]any
		for i := 0; i < 7; i++ {
			samples = append(samples, sample(day1.AddDate(0, 0, i), 20.0, "clear sky", "01d"))
		}
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"list": samples})
		})

		days, err := client.FetchForecast(context.Background(), coords)

		require.NoError(t, err)
		assert.Len(t, days, 5)
	})

	t.Run("SampleWithoutWeatherBlock", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"list": []map[string]any{
				{"dt": day1.Unix(), "main": map[string]any{"temp": 17.0}},
			}})
		})

		days, err := client.FetchForecast(context.Background(), coords)

		require.NoError(t, err)
		require.Len(t, days, 1)
		assert.Equal(t, 17.0, days[0].Temperature)
		assert.Empty(t, days[0].Description)
		assert.Empty(t, days[0].Icon)
	})

	t.Run("EmptyList", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"list":[]}`))
		})

		days, err := client.FetchForecast(context.Background(), coords)

		require.NoError(t, err)
		assert.Empty(t, days)
	})

	t.Run("UpstreamServerError", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		_, err := client.FetchForecast(context.Background(), coords)

		assert.ErrorIs(t, err, types.ErrUpstreamUnavailable)
	})
}
