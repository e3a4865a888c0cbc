// Package metrics exposes the assistant's counters and provider latency
// through OpenTelemetry with a Prometheus exporter.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "github.com/Nour-MZ/Nomada"

type Manager struct {
	provider *sdkmetric.MeterProvider
	registry *prometheus.Registry

	turnsTotal       metric.Int64Counter
	toolCallsTotal   metric.Int64Counter
	duplicatesTotal  metric.Int64Counter
	providerDuration metric.Float64Histogram
}

// New registers the instruments on a private Prometheus registry.
func New() (*Manager, error) {
	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter(meterName)

	m := &Manager{provider: provider, registry: registry}

	m.turnsTotal, err = meter.Int64Counter(
		"nomada_turns",
		metric.WithDescription("Conversation turns handled, by reply kind"),
	)
	if err != nil {
		return nil, err
	}

	m.toolCallsTotal, err = meter.Int64Counter(
		"nomada_tool_calls",
		metric.WithDescription("Tool invocations, by tool and outcome"),
	)
	if err != nil {
		return nil, err
	}

	m.duplicatesTotal, err = meter.Int64Counter(
		"nomada_duplicate_orders",
		metric.WithDescription("Order submissions rejected inside the dedup window"),
	)
	if err != nil {
		return nil, err
	}

	m.providerDuration, err = meter.Float64Histogram(
		"nomada_provider_call_duration",
		metric.WithDescription("Provider round trip duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Manager) TurnHandled(ctx context.Context, outcome string) {
	m.turnsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Manager) ToolCalled(ctx context.Context, tool, outcome string) {
	m.toolCallsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("outcome", outcome),
	))
}

func (m *Manager) DuplicateRejected(ctx context.Context) {
	m.duplicatesTotal.Add(ctx, 1)
}

// ObserveProviderCall records one provider round trip. Status 0 means the
// request never got a response.
func (m *Manager) ObserveProviderCall(ctx context.Context, provider, operation string, status int, elapsed time.Duration) {
	m.providerDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("operation", operation),
		attribute.String("status", strconv.Itoa(status)),
	))
}

// Handler serves the registry in the Prometheus text format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Manager) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}
