// Package observability provides OpenTelemetry instrumentation for tracing and metrics.
package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// InitMetrics initializes the OpenTelemetry metrics provider with a Prometheus exporter.
// It returns the HTTP handler for the /metrics endpoint and a shutdown function.
func InitMetrics() (http.Handler, func(context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := metric.NewMeterProvider(
		metric.WithReader(exporter),
	)

	otel.SetMeterProvider(provider)

	return promhttp.Handler(), provider.Shutdown, nil
}

// BookingCounter reports how many runs are currently claimed.
type BookingCounter interface {
	CountBookings(ctx context.Context) (int64, error)
}

// RegisterBookingsGauge exposes srcbook.bookings.active, read from counter on
// every scrape. A failed read records no value and its error is returned to the
// SDK, which passes it to the otel error handler.
func RegisterBookingsGauge(counter BookingCounter) error {
	meter := otel.Meter("srcbook")
	gauge, err := meter.Int64ObservableGauge("srcbook.bookings.active",
		otelmetric.WithDescription("Runs currently booked by a moderator"))
	if err != nil {
		return fmt.Errorf("failed to create bookings gauge: %w", err)
	}

	_, err = meter.RegisterCallback(func(ctx context.Context, o otelmetric.Observer) error {
		n, err := counter.CountBookings(ctx)
		if err != nil {
			return fmt.Errorf("count bookings: %w", err)
		}
		o.ObserveInt64(gauge, n)
		return nil
	}, gauge)
	if err != nil {
		return fmt.Errorf("failed to register bookings gauge: %w", err)
	}
	return nil
}
