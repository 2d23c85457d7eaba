package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestEmailHash(t *testing.T) {
	require.Equal(t, "cmVzZWFyY2", EmailHash("researcher@lab.edu"))
	require.Equal(t, "YUBi", EmailHash("a@b"))
	require.Equal(t, "", EmailHash(""))
}

func TestHelpers(t *testing.T) {
	ev := PricingClick("professional", "专业版", 49, "CNY")
	require.Equal(t, CategoryPricing, ev.Category)
	require.Equal(t, "professional (专业版)", ev.Label)
	require.NotNil(t, ev.Value)
	require.Equal(t, 49.0, *ev.Value)
	require.Equal(t, "CNY", ev.Properties["currency"])
	require.NoError(t, ev.Validate())

	lead := LeadCaptureSubmit("researcher@lab.edu", "")
	require.Equal(t, "lead_capture_section", lead.Label)
	require.Equal(t, "cmVzZWFyY2", lead.Properties["emailHash"])
	require.NotContains(t, lead.Flatten(), "email")

	form := PricingFormSubmit("lab", "")
	require.NotContains(t, form.Properties, "emailHash")

	cta := CTAClick("开始使用", "hero_section")
	require.Equal(t, "hero_section", cta.Properties["location"])
	require.NoError(t, ComparisonInteraction("slider_drag").Validate())
}

func TestValidate(t *testing.T) {
	require.ErrorIs(t, Event{Category: "checkout", Action: "x"}.Validate(), ErrUnknownCategory)
	require.ErrorIs(t, Event{Category: CategoryCTA}.Validate(), ErrInvalidAction)
	require.ErrorIs(t, Event{Category: CategoryCTA, Action: "Drop Table"}.Validate(), ErrInvalidAction)
	require.ErrorIs(t, Event{Category: CategoryCTA, Action: "ok", Label: strings.Repeat("x", 300)}.Validate(), ErrInvalidPayload)
}

func TestParseEvent(t *testing.T) {
	body := `{"category":"pricing","action":"pricing_plan_clicked","label":"lab (Lab)","value":199,
		"planName":"lab","currency":"USD","timestamp":"2025-02-03T04:05:06Z","url":"https://example.com/","userAgent":"test"}`
	ev, err := ParseEvent(strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, CategoryPricing, ev.Category)
	require.Equal(t, 199.0, *ev.Value)
	require.Equal(t, time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC), ev.Timestamp)
	require.Equal(t, map[string]any{"planName": "lab", "currency": "USD"}, ev.Properties)
	require.Equal(t, "https://example.com/", ev.URL)

	_, err = ParseEvent(strings.NewReader(`{"category":"nope","action":"x"}`))
	require.ErrorIs(t, err, ErrUnknownCategory)

	_, err = ParseEvent(strings.NewReader(`{"category":"cta","action":"cta_clicked","value":"ten"}`))
	require.ErrorIs(t, err, ErrInvalidPayload)

	_, err = ParseEvent(strings.NewReader(`not json`))
	require.ErrorIs(t, err, ErrInvalidPayload)

	ev, err = ParseEvent(strings.NewReader(`{"category":"cta","action":"cta_clicked","properties":{"location":"hero_section"}}`))
	require.NoError(t, err)
	require.Equal(t, "hero_section", ev.Properties["location"])
}

func TestDispatcherFansOutAndSurvivesFailures(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	var delivered []Event
	record := SinkFunc(func(_ context.Context, ev Event) error {
		delivered = append(delivered, ev)
		return nil
	})
	failing := SinkFunc(func(context.Context, Event) error { return errors.New("down") })
	panicking := SinkFunc(func(context.Context, Event) error { panic("boom") })

	metrics, err := NewMetricSink(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	d := NewDispatcher(DispatcherDeps{
		Sinks:  []Sink{failing, panicking, NewLogSink(zap.New(core)), metrics, record},
		Clock:  func() time.Time { return fixed },
		Logger: zap.New(core),
	})
	d.Track(context.Background(), CTAClick("cta", "hero_section"))

	require.Len(t, delivered, 1)
	require.Equal(t, fixed, delivered[0].Timestamp)
	require.Len(t, logs.FilterMessage("analytics: sink failed").All(), 2)

	tracked := logs.FilterMessage("analytics event").All()
	require.Len(t, tracked, 1)
	require.Equal(t, "cta_clicked", tracked[0].ContextMap()["action"])

	var nilDispatcher *Dispatcher
	nilDispatcher.Track(context.Background(), CTAClick("cta", "x"))
}

func TestHTTPSink(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	ev := PricingClick("free", "Free", 0, "USD")
	ev.Timestamp = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, NewHTTPSink(srv.URL, time.Second).Send(context.Background(), ev))
	require.Equal(t, "pricing", got["category"])
	require.Equal(t, "free (Free)", got["label"])
	require.Equal(t, "free", got["planName"])
	require.Equal(t, "2025-01-01T00:00:00Z", got["timestamp"])

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer failing.Close()
	require.Error(t, NewHTTPSink(failing.URL, 0).Send(context.Background(), ev))
}
