package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	SearchRequestsTotal    metric.Int64Counter
	SearchDurationSeconds  metric.Float64Histogram
	ProviderRequestsTotal  metric.Int64Counter
	ProviderErrorsTotal    metric.Int64Counter
	ItinerarySavesTotal    metric.Int64Counter
	DbQueryDurationSeconds metric.Float64Histogram
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metric instruments once. It gets the
// Meter from the globally configured MeterProvider, so tracer setup must run
// first.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("itinerary-api")
		var err error
		m := &AppMetrics{}

		m.SearchRequestsTotal, err = meter.Int64Counter(
			"search_requests_total",
			metric.WithDescription("Total number of city search requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create search_requests_total: %v", err)
		}

		m.SearchDurationSeconds, err = meter.Float64Histogram(
			"search_duration_seconds",
			metric.WithDescription("Duration of city search aggregations in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create search_duration_seconds: %v", err)
		}

		m.ProviderRequestsTotal, err = meter.Int64Counter(
			"provider_requests_total",
			metric.WithDescription("Total number of upstream provider requests"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create provider_requests_total: %v", err)
		}

		m.ProviderErrorsTotal, err = meter.Int64Counter(
			"provider_errors_total",
			metric.WithDescription("Total number of failed upstream provider requests"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create provider_errors_total: %v", err)
		}

		m.ItinerarySavesTotal, err = meter.Int64Counter(
			"itinerary_saves_total",
			metric.WithDescription("Total number of itineraries persisted"),
			metric.WithUnit("{record}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create itinerary_saves_total: %v", err)
		}

		m.DbQueryDurationSeconds, err = meter.Float64Histogram(
			"db_query_duration_seconds",
			metric.WithDescription("Duration of database queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_duration_seconds: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance. Panics if
// InitAppMetrics was not called first.
func Get() *AppMetrics {
	if appMetrics == nil {
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}
