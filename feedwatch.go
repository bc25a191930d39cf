package feedwatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jpalmerr/feedwatch/dashboard"
	"github.com/jpalmerr/feedwatch/internal/consumer"
	"github.com/jpalmerr/feedwatch/internal/event"
	"github.com/jpalmerr/feedwatch/internal/feed"
	"github.com/jpalmerr/feedwatch/internal/metrics"
	"github.com/jpalmerr/feedwatch/internal/poller"
	"github.com/jpalmerr/feedwatch/internal/state"
)

const (
	defaultPort                 = 8085
	defaultStaggerDelay         = 300 * time.Millisecond
	defaultJitterMax            = 5 * time.Second
	defaultMaxConcurrentFetches = 20
)

// Monitor is the main orchestrator for status-feed polling and event delivery.
//
// Monitor polls the Atom/RSS status feeds of the configured providers,
// detects new and updated incidents, and fans the resulting events out to
// every consumer: registered callbacks, the optional console writer, and
// the SSE stream served over HTTP. It is created using [New] with functional
// options and started with [Monitor.Start].
//
// The typical lifecycle is:
//
//	m, err := feedwatch.New(feedwatch.WithProvider(p))
//	if err != nil {
//	    slog.Error("failed to create monitor", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	m.Start(ctx) // blocks until context cancelled
//
// The caller controls the lifecycle via the context. Cancel the context to
// trigger graceful shutdown.
type Monitor struct {
	title                string
	providers            []Provider
	port                 int
	staggerDelay         time.Duration
	jitterMax            time.Duration
	maxConcurrentFetches int
	consoleOut           io.Writer
	logger               *slog.Logger
	eventCallbacks       []func(StatusEvent)
}

// New creates a new [Monitor] instance with the given options.
//
// At least one provider must be configured via [WithProvider] or
// [WithProviders]. Other options have sensible defaults:
//   - Port: 8085
//   - Stagger delay: 300 milliseconds
//   - Jitter max: 5 seconds
//   - Max concurrent fetches: 20
//
// Returns an error if no providers are configured or if any option is invalid.
//
// Example:
//
//	m, err := feedwatch.New(
//	    feedwatch.WithProvider(p),
//	    feedwatch.WithPort(9090),
//	    feedwatch.WithConsoleOutput(os.Stdout),
//	)
func New(opts ...Option) (*Monitor, error) {
	cfg := &fwConfig{
		providers:            []Provider{},
		port:                 defaultPort,
		staggerDelay:         defaultStaggerDelay,
		jitterMax:            defaultJitterMax,
		maxConcurrentFetches: defaultMaxConcurrentFetches,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if len(cfg.providers) == 0 {
		return nil, errors.New("at least one provider is required")
	}

	// validate provider name uniqueness (names key the state store)
	seen := make(map[string]bool, len(cfg.providers))
	for _, p := range cfg.providers {
		if p.Name == "" {
			return nil, errors.New("provider name cannot be empty")
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("duplicate provider name: %q", p.Name)
		}
		seen[p.Name] = true
		if p.FeedURL == "" {
			return nil, fmt.Errorf("provider %q has no feed URL", p.Name)
		}
	}

	// default to slog.Default() if no logger provided
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Monitor{
		title:                cfg.title,
		providers:            cfg.providers,
		port:                 cfg.port,
		staggerDelay:         cfg.staggerDelay,
		jitterMax:            cfg.jitterMax,
		maxConcurrentFetches: cfg.maxConcurrentFetches,
		consoleOut:           cfg.consoleOut,
		logger:               logger,
		eventCallbacks:       cfg.eventCallbacks,
	}, nil
}

// Start begins polling provider feeds and serving the event stream.
//
// Start is a blocking call that runs until the provided context is cancelled.
// During execution:
//
//   - Each provider is polled on its own schedule, launches staggered at startup
//   - Detected changes are fanned out to callbacks, the console, and SSE clients
//   - The HTTP server starts on the configured port
//   - The live dashboard is available at http://localhost:<port>
//
// The caller controls the lifecycle via context cancellation. For signal
// handling, use [signal.NotifyContext]:
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//	m.Start(ctx)
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server fails
// to start.
func (m *Monitor) Start(ctx context.Context) error {
	m.logger.Info("feedwatch starting", "provider_count", len(m.providers))
	m.logger.Info("event stream available", "url", fmt.Sprintf("http://localhost:%d/events", m.port))

	// check if context already cancelled
	if ctx.Err() != nil {
		return nil
	}

	// derived cancel lets startup failures unwind the consumer goroutines
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	bus := event.NewBus()
	store := state.NewStore()
	mets := metrics.New()

	client := poller.NewClient(m.maxConcurrentFetches)
	defer client.Close()

	scheduler := poller.NewScheduler(m.toPollerProviders(), poller.Config{
		Fetcher:      client,
		Parser:       feed.NewParser(m.logger),
		Store:        store,
		Bus:          bus,
		Metrics:      mets,
		Logger:       m.logger,
		StaggerDelay: m.staggerDelay,
		JitterMax:    m.jitterMax,
	})

	// consumers subscribe before the scheduler starts so the first poll
	// cannot race past them
	var wg sync.WaitGroup

	if len(m.eventCallbacks) > 0 {
		sub := bus.Subscribe()
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sub.Close()
			for {
				select {
				case ev, ok := <-sub.Events():
					if !ok {
						return
					}
					publicEvent := toPublicEvent(ev)
					for _, cb := range m.eventCallbacks {
						invokeCallbackSafe(cb, publicEvent, m.logger)
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	if m.consoleOut != nil {
		console := consumer.NewConsole(bus, m.consoleOut, m.logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			console.Run(ctx)
		}()
	}

	sse := consumer.NewSSEServer(bus, mets, m.port, dashboard.Assets, m.title, m.logger)
	if err := sse.Start(ctx); err != nil {
		cancel()
		wg.Wait()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	if err := scheduler.Start(ctx); err != nil {
		cancel()
		wg.Wait()
		if errors.Is(err, context.Canceled) {
			// cancelled during the stagger phase: a normal shutdown
			m.logger.Info("feedwatch stopped")
			return nil
		}
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	<-ctx.Done()
	scheduler.Stop()
	wg.Wait()
	m.logger.Info("feedwatch stopped")
	return nil
}

// toPollerProviders converts the public Provider slice to poller.ProviderInfo.
func (m *Monitor) toPollerProviders() []poller.ProviderInfo {
	result := make([]poller.ProviderInfo, len(m.providers))
	for i, p := range m.providers {
		result[i] = poller.ProviderInfo{
			Name:     p.Name,
			FeedURL:  p.FeedURL,
			Product:  p.Product,
			Interval: p.PollInterval,
		}
	}
	return result
}

// Providers returns a copy of the configured providers.
//
// The returned slice is a copy; modifying it does not affect the Monitor.
func (m *Monitor) Providers() []Provider {
	cp := make([]Provider, len(m.providers))
	copy(cp, m.providers)
	return cp
}

// Port returns the configured HTTP port for the event stream server.
func (m *Monitor) Port() int {
	return m.port
}

// toPublicEvent converts an internal bus event to the public API type.
func toPublicEvent(ev event.StatusEvent) StatusEvent {
	return StatusEvent{
		Provider:   ev.Provider,
		Product:    ev.Product,
		Status:     ev.Status,
		Message:    ev.Message,
		Timestamp:  ev.Timestamp,
		IncidentID: ev.IncidentID,
		Type:       EventType(ev.Type),
	}
}

// invokeCallbackSafe calls an event callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(StatusEvent), ev StatusEvent, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event callback panicked",
				"panic", r,
				"provider", ev.Provider,
			)
		}
	}()
	cb(ev)
}
