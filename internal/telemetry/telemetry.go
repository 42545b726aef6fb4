// Package telemetry wires OpenTelemetry traces, metrics and logs to an OTLP
// collector.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/linkshelf/api/internal/config"
)

const instrumentationName = "github.com/linkshelf/api"

// Telemetry holds the SDK providers registered as OpenTelemetry globals.
// The zero value is disabled: LogHandler returns nil and Shutdown is a no-op.
type Telemetry struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	loggerProvider *sdklog.LoggerProvider
}

// Setup builds trace, metric and log providers exporting over OTLP and
// registers them globally. When cfg.Enabled is false nothing is registered.
func Setup(ctx context.Context, cfg config.TelemetryConfig, version string) (*Telemetry, error) {
	t := &Telemetry{}
	if !cfg.Enabled {
		return t, nil
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", version),
	))
	if err != nil {
		return nil, fmt.Errorf("building resource: %w", err)
	}

	exp, err := newExporters(ctx, cfg)
	if err != nil {
		return nil, err
	}

	t.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp.trace),
		sdktrace.WithResource(res),
	)
	t.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp.metric)),
		sdkmetric.WithResource(res),
	)
	t.loggerProvider = sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exp.log)),
		sdklog.WithResource(res),
	)

	otel.SetTracerProvider(t.tracerProvider)
	otel.SetMeterProvider(t.meterProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	global.SetLoggerProvider(t.loggerProvider)

	if cfg.RuntimeMetrics {
		if err := runtime.Start(runtime.WithMeterProvider(t.meterProvider)); err != nil {
			_ = t.Shutdown(ctx)
			return nil, fmt.Errorf("starting runtime metrics: %w", err)
		}
	}

	return t, nil
}

// Enabled reports whether providers were registered.
func (t *Telemetry) Enabled() bool {
	return t != nil && t.loggerProvider != nil
}

// LogHandler returns an slog handler that emits records as OpenTelemetry
// logs, or nil when telemetry is disabled.
func (t *Telemetry) LogHandler() slog.Handler {
	if !t.Enabled() {
		return nil
	}
	return otelslog.NewHandler(instrumentationName, otelslog.WithLoggerProvider(t.loggerProvider))
}

// Shutdown flushes and stops every provider.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}

	var errs []error
	if t.tracerProvider != nil {
		errs = append(errs, t.tracerProvider.Shutdown(ctx))
	}
	if t.meterProvider != nil {
		errs = append(errs, t.meterProvider.Shutdown(ctx))
	}
	if t.loggerProvider != nil {
		errs = append(errs, t.loggerProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

type exporters struct {
	trace  sdktrace.SpanExporter
	metric sdkmetric.Exporter
	log    sdklog.Exporter
}

func newExporters(ctx context.Context, cfg config.TelemetryConfig) (*exporters, error) {
	switch cfg.Protocol {
	case "grpc":
		return newGRPCExporters(ctx, cfg.Endpoint)
	case "", "http":
		return newHTTPExporters(ctx, cfg.Endpoint)
	default:
		return nil, fmt.Errorf("unsupported telemetry protocol %q", cfg.Protocol)
	}
}

// newHTTPExporters treats endpoint as the collector base URL and appends the
// per-signal path. An empty endpoint defers to the OTEL_EXPORTER_OTLP_* env.
func newHTTPExporters(ctx context.Context, endpoint string) (*exporters, error) {
	var (
		traceOpts  []otlptracehttp.Option
		metricOpts []otlpmetrichttp.Option
		logOpts    []otlploghttp.Option
	)
	if endpoint != "" {
		base := strings.TrimSuffix(endpoint, "/")
		traceOpts = append(traceOpts, otlptracehttp.WithEndpointURL(base+"/v1/traces"))
		metricOpts = append(metricOpts, otlpmetrichttp.WithEndpointURL(base+"/v1/metrics"))
		logOpts = append(logOpts, otlploghttp.WithEndpointURL(base+"/v1/logs"))
	}

	traceExp, err := otlptracehttp.New(ctx, traceOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}
	metricExp, err := otlpmetrichttp.New(ctx, metricOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}
	logExp, err := otlploghttp.New(ctx, logOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating log exporter: %w", err)
	}
	return &exporters{trace: traceExp, metric: metricExp, log: logExp}, nil
}

func newGRPCExporters(ctx context.Context, endpoint string) (*exporters, error) {
	var (
		traceOpts  []otlptracegrpc.Option
		metricOpts []otlpmetricgrpc.Option
		logOpts    []otlploggrpc.Option
	)
	if endpoint != "" {
		traceOpts = append(traceOpts, otlptracegrpc.WithEndpointURL(endpoint))
		metricOpts = append(metricOpts, otlpmetricgrpc.WithEndpointURL(endpoint))
		logOpts = append(logOpts, otlploggrpc.WithEndpointURL(endpoint))
	}

	traceExp, err := otlptracegrpc.New(ctx, traceOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}
	metricExp, err := otlpmetricgrpc.New(ctx, metricOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}
	logExp, err := otlploggrpc.New(ctx, logOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating log exporter: %w", err)
	}
	return &exporters{trace: traceExp, metric: metricExp, log: logExp}, nil
}
