package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

type Observability struct {
	meterProvider   *metric.MeterProvider
	meter           otelmetric.Meter
	appCounter      otelmetric.Int64Counter
	appDuration     otelmetric.Float64Histogram
	decisionCounter otelmetric.Int64Counter
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	appCounter, _ := meter.Int64Counter(
		"applications.processed",
		otelmetric.WithDescription("Number of applications processed"),
	)

	appDuration, _ := meter.Float64Histogram(
		"applications.duration",
		otelmetric.WithDescription("End to end pipeline duration per application"),
		otelmetric.WithUnit("ms"),
	)

	decisionCounter, _ := meter.Int64Counter(
		"decisions.issued",
		otelmetric.WithDescription("Number of eligibility decisions issued"),
	)

	return &Observability{
		meterProvider:   provider,
		meter:           meter,
		appCounter:      appCounter,
		appDuration:     appDuration,
		decisionCounter: decisionCounter,
	}
}

func (o *Observability) RecordApplicationProcessed(ctx context.Context, status string) {
	if o.appCounter != nil {
		o.appCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordApplicationDuration(ctx context.Context, duration time.Duration, status string) {
	if o.appDuration != nil {
		o.appDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordDecision(ctx context.Context, outcome string) {
	if o.decisionCounter != nil {
		o.decisionCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("outcome", outcome),
		))
	}
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		o.meterProvider.Shutdown(ctx)
	}
}
