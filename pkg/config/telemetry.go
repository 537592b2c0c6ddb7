package config

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/racelogix/f1replay-engine-go/log"
	"github.com/racelogix/f1replay-engine-go/version"
)

// Telemetry owns the metric provider lifecycle.
type Telemetry struct {
	meterProvider *sdkmetric.MeterProvider
}

// SetupTelemetry installs a global meter provider that periodically writes
// metrics to stdout.
func SetupTelemetry(ctx context.Context) (*Telemetry, error) {
	exporter, err := stdoutmetric.New()
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName("f1replay-engine"),
			semconv.ServiceVersion(version.Version),
		))
	if err != nil {
		return nil, err
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(15*time.Second))),
	)
	otel.SetMeterProvider(mp)
	return &Telemetry{meterProvider: mp}, nil
}

func (t *Telemetry) Shutdown() {
	if err := t.meterProvider.Shutdown(context.Background()); err != nil {
		log.Warn("could not shutdown meter provider", log.ErrorField(err))
	}
}
