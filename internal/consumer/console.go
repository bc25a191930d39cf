package consumer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jpalmerr/feedwatch/internal/event"
)

const consoleSeparator = "----------------------------------------"

// Console subscribes to the event bus and writes a formatted block for
// every status event, one subscription for the consumer's lifetime.
type Console struct {
	bus    *event.Bus
	out    io.Writer
	logger *slog.Logger
}

// NewConsole creates a [Console] writing to out. A nil logger defaults to
// [slog.Default].
func NewConsole(bus *event.Bus, out io.Writer, logger *slog.Logger) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	return &Console{bus: bus, out: out, logger: logger}
}

// Run subscribes and prints events until ctx is cancelled. The
// subscription is always released on return, so a crashed or cancelled
// consumer never leaves a registry entry behind.
func (c *Console) Run(ctx context.Context) {
	sub := c.bus.Subscribe()
	defer sub.Close()

	c.logger.Info("console consumer started")

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				c.logger.Info("console consumer stopped")
				return
			}
			fmt.Fprintln(c.out, FormatEvent(ev))
		case <-ctx.Done():
			c.logger.Info("console consumer stopped")
			return
		}
	}
}

// FormatEvent renders ev as a human-readable block:
//
//	[2025-06-15 10:30:00] [NEW] Provider: OpenAI
//	Product: OpenAI API - Service disruption
//	Status: Service disruption Investigating elevated error rates.
//	----------------------------------------
func FormatEvent(ev event.StatusEvent) string {
	tag := "NEW"
	if ev.Type == event.TypeUpdated {
		tag = "UPDATED"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] Provider: %s\n", ev.Timestamp.Format("2006-01-02 15:04:05"), tag, ev.Provider)
	fmt.Fprintf(&b, "Product: %s\n", ev.Product)
	b.WriteString("Status: " + ev.Status)
	if ev.Message != "" {
		b.WriteString(" " + ev.Message)
	}
	b.WriteString("\n" + consoleSeparator)
	return b.String()
}
