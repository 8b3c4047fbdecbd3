package global

import (
	"context"

	"go.opentelemetry.io/contrib/exporters/autoexport"
	"go.opentelemetry.io/otel"
	otelglobal "go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/multierr"
)

var (
	loggerProvider *log.LoggerProvider

	// Tracer and Meter are no-op until SetupOTelSDK enables tracing.
	Tracer trace.Tracer = tracenoop.NewTracerProvider().Tracer("")
	Meter  metric.Meter = metricnoop.NewMeterProvider().Meter("")
)

func serviceName() string {
	if Conf.Otel.ServiceName != "" {
		return Conf.Otel.ServiceName
	}
	return "scenario-editor"
}

// provider installs one OpenTelemetry signal and returns its shutdown.
type provider func(ctx context.Context, r *resource.Resource) (func(context.Context) error, error)

// SetupOTelSDK installs the trace, metric and log pipelines, all exported
// as configured by the OTEL_* environment variables.
// When tracing is disabled it does nothing. Otherwise, call shutdown once
// the process is done to flush pending telemetry.
func SetupOTelSDK(ctx context.Context) (shutdown func(context.Context) error, err error) {
	var shutdowns []func(context.Context) error
	shutdown = func(ctx context.Context) (merr error) {
		// Reverse order, logs are flushed before the traces they point to
		for i := len(shutdowns) - 1; i >= 0; i-- {
			merr = multierr.Append(merr, shutdowns[i](ctx))
		}
		shutdowns = nil
		return
	}
	if !Conf.Otel.Tracing {
		return shutdown, nil
	}

	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName()),
			semconv.ServiceVersion(Version),
		),
	)
	if err != nil {
		return nil, err
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	for _, setup := range []provider{traces, metrics, logs} {
		sd, err := setup(ctx, r)
		if err != nil {
			return nil, multierr.Append(err, shutdown(ctx))
		}
		shutdowns = append(shutdowns, sd)
	}
	return shutdown, nil
}

func traces(ctx context.Context, r *resource.Resource) (func(context.Context) error, error) {
	exp, err := autoexport.NewSpanExporter(ctx)
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(r),
	)
	otel.SetTracerProvider(tp)
	Tracer = tp.Tracer(serviceName())
	return tp.Shutdown, nil
}

func metrics(ctx context.Context, r *resource.Resource) (func(context.Context) error, error) {
	reader, err := autoexport.NewMetricReader(ctx)
	if err != nil {
		return nil, err
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(r),
	)
	otel.SetMeterProvider(mp)
	Meter = mp.Meter(serviceName())
	return mp.Shutdown, nil
}

func logs(ctx context.Context, r *resource.Resource) (func(context.Context) error, error) {
	exp, err := autoexport.NewLogExporter(ctx)
	if err != nil {
		return nil, err
	}
	loggerProvider = log.NewLoggerProvider(
		log.WithProcessor(log.NewBatchProcessor(exp)),
		log.WithResource(r),
	)
	otelglobal.SetLoggerProvider(loggerProvider)
	return loggerProvider.Shutdown, nil
}
