package feedwatch

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const testFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Example Status</title>
  <updated>2026-03-01T10:00:00Z</updated>
  <entry>
    <id>incident-root-001</id>
    <title>Elevated error rates</title>
    <updated>2026-03-01T10:00:00Z</updated>
    <summary>We are investigating elevated error rates.</summary>
  </entry>
</feed>`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWithEventCallback_InvokedOnChange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(testFeedXML))
	}))
	defer server.Close()

	var callCount atomic.Int32
	done := make(chan struct{})

	cb := func(ev StatusEvent) {
		if callCount.Add(1) == 1 {
			close(done)
		}
	}

	m, err := New(
		WithProvider(Provider{
			Name:    "example",
			FeedURL: server.URL,
			Product: "Example API",
		}),
		WithEventCallback(cb),
		WithPort(19300),
		WithLogger(quietLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	go func() {
		close(started)
		_ = m.Start(ctx)
	}()
	<-started

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event callback")
	}
	cancel()

	if callCount.Load() == 0 {
		t.Error("callback should have been invoked at least once")
	}
}

func TestWithEventCallback_ReceivesCorrectFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(testFeedXML))
	}))
	defer server.Close()

	var result StatusEvent
	var mu sync.Mutex
	done := make(chan struct{})

	cb := func(ev StatusEvent) {
		mu.Lock()
		defer mu.Unlock()
		if result.IncidentID == "" { // only capture first event
			result = ev
			close(done)
		}
	}

	m, err := New(
		WithProvider(Provider{
			Name:    "example",
			FeedURL: server.URL,
			Product: "Example API",
		}),
		WithEventCallback(cb),
		WithPort(19301),
		WithLogger(quietLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Start(ctx) }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event callback")
	}

	mu.Lock()
	defer mu.Unlock()
	if result.Provider != "example" {
		t.Errorf("Provider = %q, want %q", result.Provider, "example")
	}
	if result.Product != "Example API - Elevated error rates" {
		t.Errorf("Product = %q, want %q", result.Product, "Example API - Elevated error rates")
	}
	if result.IncidentID != "incident-root-001" {
		t.Errorf("IncidentID = %q, want %q", result.IncidentID, "incident-root-001")
	}
	if result.Type != EventNew {
		t.Errorf("Type = %q, want %q", result.Type, EventNew)
	}
	want := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if !result.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", result.Timestamp, want)
	}
}

func TestWithEventCallback_PanicIsRecovered(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(testFeedXML))
	}))
	defer server.Close()

	var afterPanic atomic.Bool
	done := make(chan struct{})

	panicking := func(ev StatusEvent) {
		panic("callback blew up")
	}
	following := func(ev StatusEvent) {
		afterPanic.Store(true)
		select {
		case <-done:
		default:
			close(done)
		}
	}

	var logBuf bytes.Buffer
	var logMu sync.Mutex
	logger := slog.New(slog.NewTextHandler(&syncWriter{w: &logBuf, mu: &logMu}, nil))

	m, err := New(
		WithProvider(Provider{Name: "example", FeedURL: server.URL}),
		WithEventCallback(panicking),
		WithEventCallback(following),
		WithPort(19302),
		WithLogger(logger),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Start(ctx) }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event callbacks")
	}

	if !afterPanic.Load() {
		t.Error("callback after the panicking one should still have run")
	}
	logMu.Lock()
	defer logMu.Unlock()
	if !strings.Contains(logBuf.String(), "event callback panicked") {
		t.Error("panic should have been logged")
	}
}

func TestStart_ConsoleOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(testFeedXML))
	}))
	defer server.Close()

	var out bytes.Buffer
	var outMu sync.Mutex

	m, err := New(
		WithProvider(Provider{Name: "example", FeedURL: server.URL, Product: "Example API"}),
		WithConsoleOutput(&syncWriter{w: &out, mu: &outMu}),
		WithPort(19303),
		WithLogger(quietLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Start(ctx) }()

	deadline := time.After(5 * time.Second)
	for {
		outMu.Lock()
		s := out.String()
		outMu.Unlock()
		if strings.Contains(s, "[NEW] Provider: example") {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("console output never appeared, got: %q", s)
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestStart_AlreadyCancelledContext(t *testing.T) {
	m, err := New(
		WithProvider(testProvider("openai")),
		WithLogger(quietLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := m.Start(ctx); err != nil {
		t.Errorf("Start() with cancelled context error = %v, want nil", err)
	}
}

// syncWriter serializes writes so tests can read the buffer concurrently.
type syncWriter struct {
	w  io.Writer
	mu *sync.Mutex
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
