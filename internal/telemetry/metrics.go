package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const serviceName = "dva-cvss-service"

// Instruments are created against the global meter, which forwards to
// whatever provider InitMetrics installs later.
var (
	meter        = otel.Meter(serviceName)
	scoreCount   = mustCounter("cvss.score.count")
	cacheHits    = mustCounter("cvss.cache.hit")
	findingCount = mustCounter("finding.scored.count")
	runCount     = mustCounter("scheduler.run.count")
)

func mustCounter(name string) metric.Int64Counter {
	c, err := meter.Int64Counter(name)
	if err != nil {
		panic(fmt.Sprintf("telemetry: counter %s: %v", name, err))
	}
	return c
}

// InitMetrics installs the SDK meter provider. Extra options (readers,
// views) are appended after the service resource.
func InitMetrics(opts ...sdkmetric.Option) (func(context.Context) error, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(append([]sdkmetric.Option{sdkmetric.WithResource(res)}, opts...)...)
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}

// RecordScore counts one scoring request from source ("http", "kafka", ...).
func RecordScore(ctx context.Context, source string, complete bool) {
	scoreCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.Bool("complete", complete),
	))
}

func RecordCacheHit(ctx context.Context) {
	cacheHits.Add(ctx, 1)
}

func RecordFinding(ctx context.Context, status string) {
	findingCount.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func RecordSchedulerRun(ctx context.Context, job string, items int) {
	runCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("job", job),
		attribute.Int("items", items),
	))
}
