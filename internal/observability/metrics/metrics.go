package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	reloads       metric.Int64Counter
	rowsIngested  metric.Int64Counter
	rowsSkipped   metric.Int64Counter
	searches      metric.Int64Counter
	recordLookups metric.Int64Counter
	reloadSeconds metric.Float64Histogram
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "rollcall"
	}
	meter := provider.Meter(name)

	reloads, err := meter.Int64Counter("rollcall_reloads_total")
	if err != nil {
		return nil, err
	}
	rowsIngested, err := meter.Int64Counter("rollcall_rows_ingested_total")
	if err != nil {
		return nil, err
	}
	rowsSkipped, err := meter.Int64Counter("rollcall_rows_skipped_total")
	if err != nil {
		return nil, err
	}
	searches, err := meter.Int64Counter("rollcall_searches_total")
	if err != nil {
		return nil, err
	}
	recordLookups, err := meter.Int64Counter("rollcall_record_lookups_total")
	if err != nil {
		return nil, err
	}
	reloadSeconds, err := meter.Float64Histogram("rollcall_reload_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		reloads:       reloads,
		rowsIngested:  rowsIngested,
		rowsSkipped:   rowsSkipped,
		searches:      searches,
		recordLookups: recordLookups,
		reloadSeconds: reloadSeconds,
	}, nil
}

// RecordReload counts a completed reload attempt by outcome.
func (m *Metrics) RecordReload(ctx context.Context, status string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("status", strings.TrimSpace(status)))
	m.reloads.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.reloadSeconds.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordRowsIngested adds ingested row counts for one reload.
func (m *Metrics) RecordRowsIngested(ctx context.Context, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.rowsIngested.Add(ctx, int64(count))
}

// RecordRowsSkipped adds skipped row counts by reason.
func (m *Metrics) RecordRowsSkipped(ctx context.Context, reason string, count int) {
	if m == nil || count <= 0 {
		return
	}
	attrs := FilterAttributes(attribute.String("reason", strings.TrimSpace(reason)))
	m.rowsSkipped.Add(ctx, int64(count), metric.WithAttributes(attrs...))
}

// RecordSearch counts search requests.
func (m *Metrics) RecordSearch(ctx context.Context) {
	if m == nil {
		return
	}
	m.searches.Add(ctx, 1)
}

// RecordLookup counts record lookups by result.
func (m *Metrics) RecordLookup(ctx context.Context, result string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("result", strings.TrimSpace(result)))
	m.recordLookups.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"status":      {},
	"reason":      {},
	"result":      {},
	"route":       {},
	"method":      {},
	"status_code": {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
