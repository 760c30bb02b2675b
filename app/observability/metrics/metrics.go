package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
// Make fields public so they can be accessed from other packages.
type AppMetrics struct {
	TravelTurnsTotal             metric.Int64Counter
	LLMGenerationDurationSeconds metric.Float64Histogram
	PendingConfirmationsTotal    metric.Int64Counter
	EnrichmentErrorsTotal        metric.Int64Counter
}

var (
	// Global instance of AppMetrics (initialized once)
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() { // Ensure this only runs once
		meter := otel.GetMeterProvider().Meter("go-travel-assistant")
		var err error
		m := &AppMetrics{}

		m.TravelTurnsTotal, err = meter.Int64Counter(
			"travel_turns_total",
			metric.WithDescription("Total number of conversation turns completed, by decision"),
			metric.WithUnit("{turn}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create travel_turns_total: %v", err)
		}

		m.LLMGenerationDurationSeconds, err = meter.Float64Histogram(
			"llm_generation_duration_seconds",
			metric.WithDescription("Duration of LLM answer generation in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create llm_generation_duration_seconds: %v", err)
		}

		m.PendingConfirmationsTotal, err = meter.Int64Counter(
			"pending_confirmations_total",
			metric.WithDescription("Total number of destination-change confirmations requested"),
			metric.WithUnit("{confirmation}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create pending_confirmations_total: %v", err)
		}

		m.EnrichmentErrorsTotal, err = meter.Int64Counter(
			"enrichment_errors_total",
			metric.WithDescription("Total number of failed weather/photo/realtime enrichment calls"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create enrichment_errors_total: %v", err)
		}

		log.Println("Application metrics instruments initialized.")
		appMetrics = m // Assign to global variable
	})
}

// Get returns the globally initialized AppMetrics instance.
// Panics if InitAppMetrics was not called first.
func Get() *AppMetrics {
	if appMetrics == nil {
		// This indicates a programming error - InitAppMetrics must be called at startup.
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}
