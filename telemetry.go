package gpusim

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// traceCtx returns a background context for the telemetry call sites that
// have no request-scoped context of their own (metrics recording happens
// off the distributor's own span context for simplicity).
func traceCtx() context.Context {
	return context.Background()
}

// instrumentationName identifies this package to the OpenTelemetry SDK and
// is used as both the tracer and meter name. Callers that never register a
// real TracerProvider/MeterProvider get OpenTelemetry's no-op
// implementations automatically; no setup is required by this package.
const instrumentationName = "gpusim"

func tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

func meter() metric.Meter {
	return otel.GetMeterProvider().Meter(instrumentationName)
}

// logger returns the global zap logger. Call sites use it directly rather
// than threading a *zap.Logger through every constructor, matching the
// package's preference for lightweight, dependency-free construction.
func logger() *zap.Logger {
	return zap.L()
}

// workloadsCompletedCounter obtains the device-wide counter of completed
// workloads from the meter on each call. Errors from instrument creation are
// swallowed: telemetry is best-effort and must never affect simulation
// correctness.
func workloadsCompletedCounter() metric.Int64Counter {
	c, _ := meter().Int64Counter(
		"gpusim.workloads.completed",
		metric.WithDescription("Number of workloads completed by the device"),
	)
	return c
}

// instructionsExecutedCounter is the device-wide counter of instructions
// retired across all compute units.
func instructionsExecutedCounter() metric.Int64Counter {
	c, _ := meter().Int64Counter(
		"gpusim.instructions.executed",
		metric.WithDescription("Number of instructions executed across all compute units"),
	)
	return c
}
