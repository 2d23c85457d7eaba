package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const (
	metricNamespace    = "github.com/BBplayer2021/BioPlotLab/internal/analytics"
	defaultHTTPTimeout = 3 * time.Second
)

// LogSink writes every event as a structured log line.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Send(_ context.Context, ev Event) error {
	fields := []zap.Field{
		zap.String("category", string(ev.Category)),
		zap.String("action", ev.Action),
		zap.Time("eventTime", ev.Timestamp),
	}
	if ev.Label != "" {
		fields = append(fields, zap.String("label", ev.Label))
	}
	if ev.Value != nil {
		fields = append(fields, zap.Float64("value", *ev.Value))
	}
	if len(ev.Properties) > 0 {
		fields = append(fields, zap.Any("properties", ev.Properties))
	}
	s.logger.Info("analytics event", fields...)
	return nil
}

// MetricSink counts events by category and action.
type MetricSink struct {
	events metric.Int64Counter
}

// NewMetricSink registers the landing.events counter. A nil meter uses the global provider.
func NewMetricSink(meter metric.Meter) (*MetricSink, error) {
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(metricNamespace)
	}
	events, err := meter.Int64Counter(
		"landing.events",
		metric.WithDescription("Landing page interaction events by category and action"),
	)
	if err != nil {
		return nil, fmt.Errorf("analytics: register counter: %w", err)
	}
	return &MetricSink{events: events}, nil
}

func (s *MetricSink) Send(ctx context.Context, ev Event) error {
	s.events.Add(ctx, 1, metric.WithAttributes(
		attribute.String("category", string(ev.Category)),
		attribute.String("action", ev.Action),
	))
	return nil
}

// HTTPSink posts the flattened event JSON to a collection endpoint.
type HTTPSink struct {
	endpoint string
	http     *http.Client
}

func NewHTTPSink(endpoint string, timeout time.Duration) *HTTPSink {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &HTTPSink{
		endpoint: strings.TrimSpace(endpoint),
		http:     &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSink) Send(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("analytics: endpoint status %d", resp.StatusCode)
	}
	return nil
}
