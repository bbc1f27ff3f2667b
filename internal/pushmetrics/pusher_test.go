package pushmetrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/snappy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/prometheus/prompb"
	"github.com/rollcallhq/rollcall/internal/config"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/protoadapt"
)

func TestNewPusherSelection(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name string
		push config.PushMetricsConfig
		want any
	}{
		{
			name: "disabled",
			push: config.PushMetricsConfig{Enabled: false, Exporter: exporterRemoteWrite, Endpoint: "http://localhost:9090"},
			want: nil,
		},
		{
			name: "missing exporter",
			push: config.PushMetricsConfig{Enabled: true, Endpoint: "http://localhost:9090"},
			want: nil,
		},
		{
			name: "missing endpoint",
			push: config.PushMetricsConfig{Enabled: true, Exporter: exporterRemoteWrite},
			want: nil,
		},
		{
			name: "invalid remote write endpoint",
			push: config.PushMetricsConfig{Enabled: true, Exporter: exporterRemoteWrite, Endpoint: "not a url"},
			want: nil,
		},
		{
			name: "unknown exporter",
			push: config.PushMetricsConfig{Enabled: true, Exporter: "statsd", Endpoint: "http://localhost:9090"},
			want: nil,
		},
		{
			name: "remote write",
			push: config.PushMetricsConfig{Enabled: true, Exporter: exporterRemoteWrite, Endpoint: "http://localhost:9090/api/v1/write"},
			want: &RemoteWritePusher{},
		},
		{
			name: "pushgateway",
			push: config.PushMetricsConfig{Enabled: true, Exporter: exporterPushgateway, Endpoint: "http://localhost:9091"},
			want: &PushgatewayPusher{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Config{AppName: "rollcall", Environment: "test", Push: tt.push}
			got := NewPusher(cfg, logger)
			if tt.want == nil {
				require.Nil(t, got)
				return
			}
			require.IsType(t, tt.want, got)
		})
	}
}

func TestRemoteWritePusherSendsSnappyProtobuf(t *testing.T) {
	var (
		gotHeaders http.Header
		gotBody    []byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		gotBody = body
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rollcall_reloads_total",
		Help: "Reload attempts by outcome.",
	}, []string{"status"})
	registry.MustRegister(counter)
	counter.WithLabelValues("success").Add(3)

	pusher := NewRemoteWritePusher(server.URL, "secret-token")
	require.NoError(t, pusher.Push(context.Background(), registry))

	require.Equal(t, "application/x-protobuf", gotHeaders.Get("Content-Type"))
	require.Equal(t, "snappy", gotHeaders.Get("Content-Encoding"))
	require.Equal(t, "0.1.0", gotHeaders.Get("X-Prometheus-Remote-Write-Version"))
	require.Equal(t, "Bearer secret-token", gotHeaders.Get("Authorization"))

	decoded, err := snappy.Decode(nil, gotBody)
	require.NoError(t, err)

	var req prompb.WriteRequest
	require.NoError(t, proto.Unmarshal(decoded, protoadapt.MessageV2Of(&req)))
	require.Len(t, req.Timeseries, 1)

	series := req.Timeseries[0]
	require.Equal(t, "__name__", series.Labels[0].Name)
	require.Equal(t, "rollcall_reloads_total", series.Labels[0].Value)
	require.Equal(t, "status", series.Labels[1].Name)
	require.Equal(t, "success", series.Labels[1].Value)
	require.Len(t, series.Samples, 1)
	require.Equal(t, float64(3), series.Samples[0].Value)
}

func TestRemoteWritePusherRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	registry := prometheus.NewRegistry()
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rollcall_snapshot_records",
		Help: "Record count of the current snapshot.",
	})
	registry.MustRegister(gauge)
	gauge.Set(1)

	pusher := NewRemoteWritePusher(server.URL, "")
	err := pusher.Push(context.Background(), registry)
	require.Error(t, err)
	require.Contains(t, err.Error(), "remote write returned")
}

func TestRemoteWritePusherSkipsEmptyRegistry(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	pusher := NewRemoteWritePusher(server.URL, "")
	require.NoError(t, pusher.Push(context.Background(), prometheus.NewRegistry()))
	require.False(t, called)
}

func TestBuildRemoteWriteSeriesSkipsHistograms(t *testing.T) {
	registry := prometheus.NewRegistry()

	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "rollcall_reload_duration_seconds",
		Help:    "Wall-clock duration of reload runs.",
		Buckets: prometheus.DefBuckets,
	})
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rollcall_snapshot_records",
		Help: "Record count of the current snapshot.",
	})
	registry.MustRegister(histogram, gauge)
	histogram.Observe(1.5)
	gauge.Set(42)

	families, err := registry.Gather()
	require.NoError(t, err)

	series := buildRemoteWriteSeries(families, time.Now().UnixMilli())
	require.Len(t, series, 1)
	require.Equal(t, "rollcall_snapshot_records", series[0].Labels[0].Value)
	require.Equal(t, float64(42), series[0].Samples[0].Value)
}
