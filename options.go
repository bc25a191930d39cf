package feedwatch

import (
	"errors"
	"io"
	"log/slog"
	"time"
)

// fwConfig holds mutable state during Monitor construction.
type fwConfig struct {
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

// Option is a function that configures a [Monitor] instance during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
//
// Built-in options: [WithProvider], [WithProviders], [WithPort],
// [WithStaggerDelay], [WithJitterMax], [WithMaxConcurrentFetches],
// [WithConsoleOutput], [WithEventCallback], [WithLogger], [WithTitle].
type Option func(*fwConfig) error

// WithProvider adds a single [Provider] to the polling list.
//
// Can be called multiple times to add multiple providers. At least one
// provider must be configured for [New] to succeed.
func WithProvider(p Provider) Option {
	return func(cfg *fwConfig) error {
		cfg.providers = append(cfg.providers, p)
		return nil
	}
}

// WithProviders adds multiple [Provider] values to the polling list.
//
// This is a convenience function for adding several providers at once.
// Equivalent to calling [WithProvider] multiple times.
func WithProviders(providers ...Provider) Option {
	return func(cfg *fwConfig) error {
		cfg.providers = append(cfg.providers, providers...)
		return nil
	}
}

// WithPort sets the HTTP port for the event stream server.
//
// The SSE stream is served at http://localhost:<port>/events and the live
// dashboard at the root path. Defaults to 8085 if not specified.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *fwConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithStaggerDelay sets the pause between successive provider launches at
// startup.
//
// Staggering spreads the initial burst of fetches over time so that a large
// provider list does not open all its connections at once. Defaults to 300
// milliseconds if not specified or zero.
//
// Returns an error if the duration is negative.
func WithStaggerDelay(d time.Duration) Option {
	return func(cfg *fwConfig) error {
		if d < 0 {
			return errors.New("stagger delay cannot be negative")
		}
		cfg.staggerDelay = d
		return nil
	}
}

// WithJitterMax sets the upper bound of the random jitter added to every
// poll delay.
//
// Jitter desynchronizes providers that share a poll interval. Defaults to
// 5 seconds if not specified or zero.
//
// Returns an error if the duration is negative.
func WithJitterMax(d time.Duration) Option {
	return func(cfg *fwConfig) error {
		if d < 0 {
			return errors.New("jitter max cannot be negative")
		}
		cfg.jitterMax = d
		return nil
	}
}

// WithMaxConcurrentFetches limits how many feed fetches may be in flight
// at once across all providers.
//
// Use this to avoid overwhelming upstream status pages or local file
// descriptors when many providers are configured. Defaults to 20 if not
// specified.
//
// Returns an error if the value is zero or negative.
func WithMaxConcurrentFetches(n int) Option {
	return func(cfg *fwConfig) error {
		if n <= 0 {
			return errors.New("max concurrent fetches must be positive")
		}
		cfg.maxConcurrentFetches = n
		return nil
	}
}

// WithConsoleOutput enables the console consumer, writing a human-readable
// block for every detected change to the given writer.
//
// Typically used with os.Stdout. If not specified, no console output is
// produced.
//
// Returns an error if the writer is nil.
func WithConsoleOutput(out io.Writer) Option {
	return func(cfg *fwConfig) error {
		if out == nil {
			return errors.New("console output writer cannot be nil")
		}
		cfg.consoleOut = out
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Monitor instance.
//
// This allows SDK consumers to control where logs are written and in what
// format. If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *fwConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithEventCallback registers a function to be called for every detected
// status change.
//
// The callback receives a [StatusEvent] describing the change. Multiple
// callbacks may be registered by calling WithEventCallback multiple times;
// they execute in registration order.
//
// IMPORTANT: Callbacks must be non-blocking. Long-running operations should
// dispatch work to a separate goroutine. Blocking callbacks delay delivery
// of subsequent events to the same consumer, though events are never lost.
//
// Callbacks are invoked synchronously from a single goroutine. Panics within
// callbacks are recovered and logged; they do not crash the scheduler.
//
// Example:
//
//	m, err := feedwatch.New(
//	    feedwatch.WithProvider(openai),
//	    feedwatch.WithEventCallback(func(ev feedwatch.StatusEvent) {
//	        if ev.Type == feedwatch.EventNew {
//	            log.Printf("new incident at %s: %s", ev.Provider, ev.Status)
//	        }
//	    }),
//	)
//
// Nil callbacks are silently ignored.
func WithEventCallback(cb func(StatusEvent)) Option {
	return func(cfg *fwConfig) error {
		if cb == nil {
			return nil // no-op for nil callback (safe to call)
		}
		cfg.eventCallbacks = append(cfg.eventCallbacks, cb)
		return nil
	}
}

// WithTitle sets the dashboard title displayed in the browser tab and header.
//
// If not specified, defaults to "feedwatch".
func WithTitle(title string) Option {
	return func(cfg *fwConfig) error {
		cfg.title = title
		return nil
	}
}
