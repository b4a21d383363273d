package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const shutdownTimeout = 5 * time.Second

type Options struct {
	// Endpoint is the OTLP gRPC collector. Empty keeps every signal in-process.
	Endpoint       string
	ServiceName    string
	ServiceVersion string
	StdoutTraces   bool
}

// Providers holds the SDK providers installed as globals by Init.
type Providers struct {
	Tracer *sdktrace.TracerProvider
	Meter  *metric.MeterProvider
	Logger *sdklog.LoggerProvider

	conn *grpc.ClientConn
}

// Init sets up traces, metrics and logs and installs them as the otel globals.
func Init(ctx context.Context, opts Options) (*Providers, error) {
	if opts.ServiceName == "" {
		opts.ServiceName = "tic-tac-toe"
	}
	if opts.ServiceVersion == "" {
		opts.ServiceVersion = "v0.1.0"
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(opts.ServiceName),
			semconv.ServiceVersion(opts.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	p := &Providers{}

	if opts.Endpoint != "" {
		p.conn, err = grpc.NewClient(opts.Endpoint,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create gRPC connection to OTLP collector: %w", err)
		}
	}

	// --- Traces ---
	traceOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if opts.StdoutTraces {
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, p.abort(fmt.Errorf("failed to create stdout trace exporter: %w", err))
		}
		traceOpts = append(traceOpts, sdktrace.WithBatcher(exp))
	}
	if p.conn != nil {
		exp, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(p.conn))
		if err != nil {
			return nil, p.abort(fmt.Errorf("failed to create OTLP trace exporter: %w", err))
		}
		traceOpts = append(traceOpts, sdktrace.WithBatcher(exp))
	}
	p.Tracer = sdktrace.NewTracerProvider(traceOpts...)

	// --- Metrics ---
	meterOpts := []metric.Option{metric.WithResource(res)}
	if p.conn != nil {
		exp, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(p.conn))
		if err != nil {
			return nil, p.abort(fmt.Errorf("failed to create OTLP metric exporter: %w", err))
		}
		meterOpts = append(meterOpts, metric.WithReader(metric.NewPeriodicReader(exp)))
	}
	p.Meter = metric.NewMeterProvider(meterOpts...)

	// --- Logs ---
	logOpts := []sdklog.LoggerProviderOption{sdklog.WithResource(res)}
	if p.conn != nil {
		exp, err := otlploggrpc.New(ctx, otlploggrpc.WithGRPCConn(p.conn))
		if err != nil {
			return nil, p.abort(fmt.Errorf("failed to create OTLP log exporter: %w", err))
		}
		logOpts = append(logOpts, sdklog.WithProcessor(sdklog.NewBatchProcessor(exp)))
	}
	p.Logger = sdklog.NewLoggerProvider(logOpts...)

	otel.SetTracerProvider(p.Tracer)
	otel.SetMeterProvider(p.Meter)
	global.SetLoggerProvider(p.Logger)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return p, nil
}

// abort releases what Init created before failing.
func (p *Providers) abort(err error) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Join(err, p.Shutdown(ctx))
}

// Shutdown flushes and stops every provider, then closes the collector
// connection.
func (p *Providers) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var errs []error
	if p.Tracer != nil {
		if err := p.Tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown TracerProvider: %w", err))
		}
	}
	if p.Meter != nil {
		if err := p.Meter.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown MeterProvider: %w", err))
		}
	}
	if p.Logger != nil {
		if err := p.Logger.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown LoggerProvider: %w", err))
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close gRPC connection: %w", err))
		}
	}
	return errors.Join(errs...)
}
