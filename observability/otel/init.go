// Package otel wires OpenTelemetry exporters for the sale node.
package otel

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// ScopeName is the instrumentation scope of node spans and instruments.
const ScopeName = "tokensale/core"

const defaultEndpoint = "localhost:4318"

// Config captures the knobs for wiring OpenTelemetry exporters.
type Config struct {
	ServiceName string
	Environment string
	// Endpoint is host:port or an http(s) URL; an http URL implies Insecure.
	Endpoint string
	Insecure bool
	Headers  map[string]string
	Metrics  bool
	Traces   bool
	// Sale describes the deployment and is attached to the resource.
	Sale SaleResource
}

// SaleResource identifies the sale a node serves.
type SaleResource struct {
	TokenSymbol string
	Stages      int
	Escrows     []string
}

// Enabled reports whether any exporter is requested.
func (c Config) Enabled() bool { return c.Metrics || c.Traces }

// Shutdown flushes and stops the providers installed by Init.
type Shutdown func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// endpoint normalises Endpoint into host:port and reports whether plain HTTP
// was requested.
func (c Config) endpoint() (string, bool) {
	raw := strings.TrimSpace(c.Endpoint)
	insecure := c.Insecure
	switch {
	case strings.HasPrefix(raw, "http://"):
		raw, insecure = strings.TrimPrefix(raw, "http://"), true
	case strings.HasPrefix(raw, "https://"):
		raw = strings.TrimPrefix(raw, "https://")
	}
	raw = strings.TrimSuffix(raw, "/")
	if raw == "" {
		raw = defaultEndpoint
	}
	return raw, insecure
}

// Resource describes the node: service identity plus the sale it serves.
func (c Config) Resource() (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceNameKey.String(c.ServiceName)}
	if env := strings.TrimSpace(c.Environment); env != "" {
		attrs = append(attrs, semconv.DeploymentEnvironmentKey.String(env))
	}
	if symbol := strings.TrimSpace(c.Sale.TokenSymbol); symbol != "" {
		attrs = append(attrs, attribute.String("tokensale.token.symbol", symbol))
	}
	if c.Sale.Stages > 0 {
		attrs = append(attrs, attribute.Int("tokensale.stages", c.Sale.Stages))
	}
	if len(c.Sale.Escrows) > 0 {
		escrows := append([]string(nil), c.Sale.Escrows...)
		sort.Strings(escrows)
		attrs = append(attrs, attribute.StringSlice("tokensale.escrows", escrows))
	}
	return resource.Merge(resource.Default(), resource.NewSchemaless(attrs...))
}

// Init installs the global tracer and meter providers. With both exporters
// disabled it installs nothing, leaving spans and instruments as no-ops.
func Init(ctx context.Context, cfg Config) (Shutdown, error) {
	if !cfg.Enabled() {
		return noopShutdown, nil
	}
	if strings.TrimSpace(cfg.ServiceName) == "" {
		return nil, fmt.Errorf("otel: service name required")
	}
	res, err := cfg.Resource()
	if err != nil {
		return nil, fmt.Errorf("otel: build resource: %w", err)
	}
	endpoint, insecure := cfg.endpoint()

	var shutdowns []Shutdown
	stop := func(ctx context.Context) error {
		var first error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			if err := shutdowns[i](ctx); err != nil && first == nil {
				first = err
			}
		}
		return first
	}

	if cfg.Traces {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithHeaders(cfg.Headers)}
		if insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("otel: trace exporter: %w", err)
		}
		// Every entry point is a short CLI invocation; flush quickly.
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(time.Second)),
		)
		otel.SetTracerProvider(tp)
		shutdowns = append(shutdowns, tp.Shutdown)
	}
	if cfg.Metrics {
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(endpoint), otlpmetrichttp.WithHeaders(cfg.Headers)}
		if insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exporter, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			_ = stop(ctx)
			return nil, fmt.Errorf("otel: metric exporter: %w", err)
		}
		// The periodic reader flushes on Shutdown.
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(15*time.Second))),
		)
		otel.SetMeterProvider(mp)
		shutdowns = append(shutdowns, mp.Shutdown)
	}
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	return stop, nil
}

// Tracer returns the node tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(ScopeName)
}

// ParseHeaders converts a comma-separated OTEL header string (key=value,foo=bar)
// into a map suitable for the exporter configuration.
func ParseHeaders(raw string) map[string]string {
	headers := map[string]string{}
	for _, pair := range strings.Split(raw, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(pair), "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			continue
		}
		headers[key] = strings.TrimSpace(value)
	}
	return headers
}
