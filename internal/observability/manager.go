package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	stdoutmetric "go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	stdouttrace "go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/bigp7952/siggil-sub002/internal/config"
)

const (
	shutdownTimeout      = 10 * time.Second
	exporterDialTimeout  = 10 * time.Second
	stdoutMetricInterval = 30 * time.Second
)

// Manager owns the tracer and meter providers of the process.
type Manager struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	metricsHandler http.Handler
	prometheusPath string
}

// Module exposes the observability manager to Fx.
var Module = fx.Provide(NewManager)

// NewManager builds the providers enabled in configuration and installs them
// globally when the app starts.
func NewManager(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*Manager, error) {
	obs := cfg.Observability
	ctx := context.Background()

	res, err := sdkresource.New(ctx,
		sdkresource.WithFromEnv(),
		sdkresource.WithHost(),
		sdkresource.WithAttributes(
			semconv.ServiceName(obs.ServiceName),
			semconv.ServiceVersion(obs.ServiceVersion),
			attribute.String("deployment.environment", obs.Environment),
		),
	)
	if err != nil {
		return nil, err
	}

	mgr := &Manager{prometheusPath: obs.PrometheusPath}

	if obs.EnableTracing {
		exporter, err := traceExporter(ctx, obs)
		switch {
		case err != nil:
			return nil, err
		case exporter == nil:
			logger.Warn("unsupported trace exporter; tracing disabled", zap.String("exporter", obs.TraceExporter))
		default:
			mgr.tracerProvider = sdktrace.NewTracerProvider(
				sdktrace.WithBatcher(exporter),
				sdktrace.WithResource(res),
				sdktrace.WithSampler(sampler(obs.TraceSampleRatio)),
			)
		}
	}

	if obs.EnableMetrics {
		reader, handler, err := metricReader(obs.MetricsExporter)
		switch {
		case err != nil:
			return nil, err
		case reader == nil:
			logger.Warn("unsupported metrics exporter; metrics disabled", zap.String("exporter", obs.MetricsExporter))
		default:
			mgr.meterProvider = sdkmetric.NewMeterProvider(
				sdkmetric.WithReader(reader),
				sdkmetric.WithResource(res),
			)
			mgr.metricsHandler = handler
		}
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			mgr.install()
			return nil
		},
		OnStop: mgr.shutdown,
	})

	return mgr, nil
}

// TracingEnabled reports whether a tracer provider is configured.
func (m *Manager) TracingEnabled() bool { return m.tracerProvider != nil }

// MetricsEnabled reports whether a meter provider is configured.
func (m *Manager) MetricsEnabled() bool { return m.meterProvider != nil }

// MetricsHandler is the Prometheus scrape handler, nil unless the prometheus
// exporter is active.
func (m *Manager) MetricsHandler() http.Handler { return m.metricsHandler }

// PrometheusPath returns the configured scrape path.
func (m *Manager) PrometheusPath() string { return m.prometheusPath }

func (m *Manager) install() {
	if m.tracerProvider != nil {
		otel.SetTracerProvider(m.tracerProvider)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}
	if m.meterProvider != nil {
		otel.SetMeterProvider(m.meterProvider)
	}
}

func (m *Manager) shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var err error
	if m.tracerProvider != nil {
		err = errors.Join(err, m.tracerProvider.Shutdown(ctx))
	}
	if m.meterProvider != nil {
		err = errors.Join(err, m.meterProvider.Shutdown(ctx))
	}
	return err
}

// sampler keeps every trace at ratio 1 and follows the parent decision otherwise.
func sampler(ratio float64) sdktrace.Sampler {
	if ratio >= 1 {
		return sdktrace.AlwaysSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

// traceExporter returns nil without error for unknown exporters.
func traceExporter(ctx context.Context, obs config.Observability) (sdktrace.SpanExporter, error) {
	switch obs.TraceExporter {
	case "", "stdout":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "otlp":
		if obs.TraceEndpoint == "" {
			return nil, fmt.Errorf("OBS_OTLP_ENDPOINT must be set for otlp exporter")
		}
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(obs.TraceEndpoint)}
		if obs.TraceInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		dialCtx, cancel := context.WithTimeout(ctx, exporterDialTimeout)
		defer cancel()
		return otlptracegrpc.New(dialCtx, opts...)
	default:
		return nil, nil
	}
}

// metricReader returns nil without error for unknown exporters.
func metricReader(exporter string) (sdkmetric.Reader, http.Handler, error) {
	switch exporter {
	case "prometheus":
		reader, err := promexporter.New(promexporter.WithRegisterer(prometheus.DefaultRegisterer))
		if err != nil {
			return nil, nil, err
		}
		return reader, promhttp.Handler(), nil
	case "stdout":
		exp, err := stdoutmetric.New(stdoutmetric.WithPrettyPrint(), stdoutmetric.WithWriter(os.Stdout))
		if err != nil {
			return nil, nil, err
		}
		return sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(stdoutMetricInterval)), nil, nil
	default:
		return nil, nil, nil
	}
}
