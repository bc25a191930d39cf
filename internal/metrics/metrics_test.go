package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordPoll(t *testing.T) {
	m := New()

	m.RecordPoll("openai", ResultOK)
	m.RecordPoll("openai", ResultOK)
	m.RecordPoll("openai", ResultNotModified)
	m.RecordPoll("anthropic", ResultError)

	if got := testutil.ToFloat64(m.pollsTotal.WithLabelValues("openai", ResultOK)); got != 2 {
		t.Errorf("polls_total{openai,ok} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.pollsTotal.WithLabelValues("openai", ResultNotModified)); got != 1 {
		t.Errorf("polls_total{openai,not_modified} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.pollsTotal.WithLabelValues("anthropic", ResultError)); got != 1 {
		t.Errorf("polls_total{anthropic,error} = %v, want 1", got)
	}
}

func TestRecordEvent(t *testing.T) {
	m := New()

	m.RecordEvent("openai", "new")
	m.RecordEvent("openai", "updated")
	m.RecordEvent("openai", "updated")

	if got := testutil.ToFloat64(m.eventsPublished.WithLabelValues("openai", "new")); got != 1 {
		t.Errorf("events_published_total{openai,new} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.eventsPublished.WithLabelValues("openai", "updated")); got != 2 {
		t.Errorf("events_published_total{openai,updated} = %v, want 2", got)
	}
}

func TestSSEClientGauge(t *testing.T) {
	m := New()

	m.SSEClientConnected()
	m.SSEClientConnected()
	m.SSEClientDisconnected()

	if got := testutil.ToFloat64(m.sseClients); got != 1 {
		t.Errorf("sse_clients = %v, want 1", got)
	}
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := New()
	m.RecordPoll("openai", ResultOK)
	m.ObserveFetch("openai", 120*time.Millisecond)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"feedwatch_polls_total",
		"feedwatch_fetch_duration_seconds",
		"feedwatch_sse_clients",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestSeparateRegistries(t *testing.T) {
	a := New()
	b := New()

	a.RecordPoll("openai", ResultOK)

	if got := testutil.ToFloat64(b.pollsTotal.WithLabelValues("openai", ResultOK)); got != 0 {
		t.Errorf("second instance polls_total = %v, want 0", got)
	}
}
