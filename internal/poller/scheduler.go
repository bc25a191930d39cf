package poller

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/feedwatch/internal/event"
	"github.com/jpalmerr/feedwatch/internal/feed"
	"github.com/jpalmerr/feedwatch/internal/metrics"
	"github.com/jpalmerr/feedwatch/internal/state"
)

const (
	defaultStaggerDelay  = 300 * time.Millisecond
	defaultJitterMax     = 5 * time.Second
	defaultMaxBackoffExp = 5
	defaultPollInterval  = 30 * time.Second
)

// ProviderInfo is the configuration the scheduler needs to poll one
// status-page feed.
type ProviderInfo struct {
	// Name uniquely identifies the provider; it keys the state store.
	Name string

	// FeedURL is the Atom/RSS feed to poll.
	FeedURL string

	// Product is the label prefixed to entry titles in emitted events.
	// Empty defaults to Name.
	Product string

	// Interval is the base time between polls. Zero defaults to 30s.
	Interval time.Duration
}

// Fetcher retrieves a feed with conditional-request validators.
// *[Client] is the production implementation.
type Fetcher interface {
	Fetch(ctx context.Context, url, etag, lastModified string) (FetchResult, error)
}

// Parser extracts entries from raw feed text.
// *[feed.Parser] is the production implementation.
type Parser interface {
	Parse(content []byte, provider string) []feed.Entry
}

// Config carries the scheduler's collaborators and tuning knobs.
type Config struct {
	// Fetcher retrieves feeds. Required.
	Fetcher Fetcher

	// Parser extracts entries. Required.
	Parser Parser

	// Store remembers validators and seen entries. Required.
	Store *state.Store

	// Bus receives the events detected by poll cycles. Required.
	Bus *event.Bus

	// Metrics counts cycles and events. Optional.
	Metrics *metrics.Metrics

	// Logger receives poll progress and failures. nil defaults to
	// slog.Default().
	Logger *slog.Logger

	// StaggerDelay is the pause between successive task launches.
	// Zero defaults to 300ms.
	StaggerDelay time.Duration

	// JitterMax bounds the random addition to every sleep.
	// Zero defaults to 5s.
	JitterMax time.Duration
}

// Scheduler drives one independent polling loop per provider.
//
// Each loop runs fetch -> detect -> publish cycles until its context is
// cancelled, backing off exponentially on failure. Loops never share
// mutable state beyond the store's synchronized creation path and the bus,
// so a failing provider cannot disturb the others.
//
// Start and Stop are safe for concurrent use and idempotent.
type Scheduler struct {
	providers []ProviderInfo
	fetcher   Fetcher
	parser    Parser
	store     *state.Store
	bus       *event.Bus
	metrics   *metrics.Metrics
	logger    *slog.Logger

	stagger       time.Duration
	jitterMax     time.Duration
	maxBackoffExp int

	// injection points for deterministic tests
	now    func() time.Time
	jitter func() time.Duration

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler creates a [Scheduler] for the given providers.
// Providers are launched in slice order.
func NewScheduler(providers []ProviderInfo, cfg Config) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	stagger := cfg.StaggerDelay
	if stagger == 0 {
		stagger = defaultStaggerDelay
	}
	jitterMax := cfg.JitterMax
	if jitterMax == 0 {
		jitterMax = defaultJitterMax
	}

	s := &Scheduler{
		providers:     providers,
		fetcher:       cfg.Fetcher,
		parser:        cfg.Parser,
		store:         cfg.Store,
		bus:           cfg.Bus,
		metrics:       cfg.Metrics,
		logger:        logger,
		stagger:       stagger,
		jitterMax:     jitterMax,
		maxBackoffExp: defaultMaxBackoffExp,
		now:           time.Now,
	}
	s.jitter = func() time.Duration {
		return time.Duration(rand.Int63n(int64(s.jitterMax)))
	}
	return s
}

// Start launches one polling goroutine per provider, in configuration
// order, pausing for the stagger delay before every launch after the first
// so boot-time HTTP load is spread out.
//
// Start blocks through the stagger phase and returns once every task is
// running. Cancelling ctx aborts the remaining launches and returns the
// context's error; tasks already launched shut down through the same
// context. Start is a no-op after the first call or after Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	for i, p := range s.providers {
		if i > 0 {
			select {
			case <-runCtx.Done():
				return runCtx.Err()
			case <-time.After(s.stagger):
			}
		}

		if p.Product == "" {
			p.Product = p.Name
		}
		if p.Interval <= 0 {
			p.Interval = defaultPollInterval
		}

		s.wg.Add(1)
		go func(p ProviderInfo) {
			defer s.wg.Done()
			s.pollLoop(runCtx, p)
		}(p)

		s.logger.Info("started polling task",
			"provider", p.Name,
			"interval", p.Interval.String(),
		)
	}
	return nil
}

// Stop cancels every polling task and waits for all of them to reach their
// terminal state. Stop is idempotent and safe to call before Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("all polling tasks stopped")
}

// pollLoop runs one provider's cycle forever, until ctx is cancelled.
// Failures are contained here: they adjust the backoff and nothing else.
func (s *Scheduler) pollLoop(ctx context.Context, p ProviderInfo) {
	failures := 0

	for {
		err := s.safePoll(ctx, p)

		var delay time.Duration
		switch {
		case ctx.Err() != nil:
			s.logger.Info("polling task cancelled", "provider", p.Name)
			return
		case err == nil:
			failures = 0
			delay = s.nextDelay(p.Interval, 0)
		default:
			failures++
			delay = s.nextDelay(p.Interval, failures)
			s.recordPoll(p.Name, metrics.ResultError)
			s.logger.Error("poll failed, backing off",
				"provider", p.Name,
				"failures", failures,
				"sleep", delay.String(),
				"error", err,
			)
		}

		select {
		case <-ctx.Done():
			s.logger.Info("polling task cancelled", "provider", p.Name)
			return
		case <-time.After(delay):
		}
	}
}

// nextDelay computes the sleep before the next cycle: the base interval on
// success, the base shifted by the capped failure count otherwise, plus
// random jitter either way.
func (s *Scheduler) nextDelay(base time.Duration, failures int) time.Duration {
	if failures == 0 {
		return base + s.jitter()
	}
	exp := failures
	if exp > s.maxBackoffExp {
		exp = s.maxBackoffExp
	}
	return base*(1<<exp) + s.jitter()
}

// safePoll runs one cycle with panic recovery so a broken feed or parser
// edge case degrades to a backoff instead of killing the task.
func (s *Scheduler) safePoll(ctx context.Context, p ProviderInfo) (err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			s.logger.Error("poll cycle panic",
				"correlation_id", correlationID,
				"provider", p.Name,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("poll cycle panic (correlation_id: %s)", correlationID)
		}
	}()
	return s.pollOnce(ctx, p)
}

// pollOnce executes a single fetch-parse-detect-publish cycle.
func (s *Scheduler) pollOnce(ctx context.Context, p ProviderInfo) error {
	st := s.store.Get(p.Name)

	s.logger.Debug("polling", "provider", p.Name, "url", p.FeedURL)

	res, err := s.fetcher.Fetch(ctx, p.FeedURL, st.ETag, st.LastModified)
	if err != nil {
		return err
	}
	s.observeFetch(p.Name, res.Latency)

	if res.StatusCode == http.StatusNotModified {
		s.recordPoll(p.Name, metrics.ResultNotModified)
		s.logger.Debug("not modified", "provider", p.Name)
		return nil
	}

	// store the new validators even when the content turns out unchanged
	s.store.UpdateValidators(p.Name, res.ETag, res.LastModified)

	if res.Content == nil {
		s.recordPoll(p.Name, metrics.ResultOK)
		return nil
	}

	for _, entry := range s.parser.Parse(res.Content, p.Name) {
		change := s.store.Check(p.Name, entry.ID, entry.Updated)
		if change == state.Unchanged {
			continue
		}
		s.store.MarkSeen(p.Name, entry.ID, entry.Updated)

		ev := event.StatusEvent{
			Provider:   p.Name,
			Product:    p.Product + " - " + entry.Title,
			Status:     entry.Title,
			Message:    entry.Summary,
			Timestamp:  parseEntryTime(entry.Updated, s.now),
			IncidentID: entry.ID,
			Type:       changeToType(change),
		}
		s.bus.Publish(ev)
		s.recordEvent(p.Name, ev.Type)

		s.logger.Info("status change",
			"provider", p.Name,
			"type", ev.Type,
			"incident_id", ev.IncidentID,
			"title", ev.Status,
		)
	}

	s.recordPoll(p.Name, metrics.ResultOK)
	return nil
}

// entryTimeLayouts are tried in order against the raw updated string.
var entryTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.RFC1123Z,
	time.RFC1123,
}

// parseEntryTime parses the feed's updated string, falling back to the
// current time when it is empty or unparseable. It never fails.
func parseEntryTime(updated string, now func() time.Time) time.Time {
	for _, layout := range entryTimeLayouts {
		if ts, err := time.Parse(layout, updated); err == nil {
			return ts
		}
	}
	return now()
}

func changeToType(c state.Change) event.Type {
	if c == state.Updated {
		return event.TypeUpdated
	}
	return event.TypeNew
}

func (s *Scheduler) recordPoll(provider, result string) {
	if s.metrics != nil {
		s.metrics.RecordPoll(provider, result)
	}
}

func (s *Scheduler) recordEvent(provider string, t event.Type) {
	if s.metrics != nil {
		s.metrics.RecordEvent(provider, t.String())
	}
}

func (s *Scheduler) observeFetch(provider string, d time.Duration) {
	if s.metrics != nil {
		s.metrics.ObserveFetch(provider, d)
	}
}
