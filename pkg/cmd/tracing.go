package cmd

import (
	"context"
	"log/slog"

	"github.com/dukex/operion-mongo/pkg/otelhelper"
	"go.opentelemetry.io/otel/trace"
)

// NewTracer returns the global tracer. When enabled it first installs an OTLP
// exporter; the returned func flushes and stops it.
//
// nolint:ireturn // Returning interface is intentional for OpenTelemetry tracing
func NewTracer(ctx context.Context, logger *slog.Logger, enabled bool, serviceName string) (trace.Tracer, func(), error) {
	if !enabled {
		return otelhelper.Tracer(), func() {}, nil
	}

	provider, err := otelhelper.NewTracer(ctx, serviceName)
	if err != nil {
		return nil, nil, err
	}

	shutdown := func() {
		err := provider.Shutdown(context.Background())
		if err != nil {
			logger.Error("Failed to shutdown tracer provider", "error", err)
		}
	}

	return otelhelper.Tracer(), shutdown, nil
}
