// Package feedwatch provides a lightweight, embeddable monitor for
// status-page Atom/RSS feeds, detecting new and updated incidents in
// real-time.
//
// Feedwatch is designed as an SDK-first library, allowing developers to
// programmatically configure and embed status monitoring in their
// applications. Each configured provider is polled on its own schedule,
// with conditional HTTP fetching, exponential backoff on failure, and
// random jitter so providers never synchronize. Detected changes are
// fanned out losslessly to every consumer: registered callbacks, an
// optional console writer, and a Server-Sent Events stream.
//
// # Quick Start
//
// Configure a provider and start the monitor with graceful shutdown:
//
//	p := feedwatch.Provider{
//	    Name:    "openai",
//	    FeedURL: "https://status.openai.com/feed.atom",
//	    Product: "OpenAI API",
//	}
//	m, _ := feedwatch.New(feedwatch.WithProvider(p))
//
//	// Set up graceful shutdown on SIGINT/SIGTERM
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	m.Start(ctx) // blocks until context is cancelled
//
// # Configuration
//
// Feedwatch uses the functional options pattern for configuration:
//
//	m, err := feedwatch.New(
//	    feedwatch.WithProviders(openai, anthropic),
//	    feedwatch.WithPort(9090),
//	    feedwatch.WithStaggerDelay(500 * time.Millisecond),
//	    feedwatch.WithMaxConcurrentFetches(10),
//	    feedwatch.WithConsoleOutput(os.Stdout),
//	)
//
// # Event Delivery
//
// Every detected change is delivered as a [StatusEvent]. Register callbacks
// for programmatic consumption:
//
//	feedwatch.WithEventCallback(func(ev feedwatch.StatusEvent) {
//	    if ev.Type == feedwatch.EventNew {
//	        notify(ev)
//	    }
//	})
//
// Delivery is lossless: a slow consumer buffers events rather than dropping
// them, and consumers never block each other.
//
// # Architecture
//
// Feedwatch consists of several internal packages (under internal/):
//
//   - internal/event: In-process event bus with lossless fan-out
//   - internal/state: Per-provider change-detection state
//   - internal/poller: Conditional HTTP fetching and the polling scheduler
//   - internal/feed: Atom/RSS parsing into normalized entries
//   - internal/consumer: Console and Server-Sent Events consumers
//   - internal/metrics: Prometheus instrumentation
//   - dashboard: Embedded web UI assets
//
// The internal packages are not part of the public API and may change
// without notice. The library is designed for single-binary deployment
// using Go's embed directive for static assets.
package feedwatch
