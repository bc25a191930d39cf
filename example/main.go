package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/feedwatch"
)

func main() {
	// start mock status feed (see mock_server.go)
	go StartMockFeedServer(":9999")
	time.Sleep(100 * time.Millisecond)

	providers := []feedwatch.Provider{
		{
			Name:         "mock",
			FeedURL:      "http://localhost:9999/feed.atom",
			Product:      "Mock Platform",
			PollInterval: 5 * time.Second,
		},
		{
			Name:    "openai",
			FeedURL: "https://status.openai.com/feed.atom",
			Product: "OpenAI API",
			// default 30s interval
		},
	}

	m, err := feedwatch.New(
		feedwatch.WithProviders(providers...),
		feedwatch.WithPort(8085),
		feedwatch.WithJitterMax(time.Second),
		feedwatch.WithConsoleOutput(os.Stdout),
		feedwatch.WithEventCallback(func(ev feedwatch.StatusEvent) {
			if ev.Type == feedwatch.EventNew {
				log.Printf("ALERT: new incident at %s: %s", ev.Provider, ev.Status)
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create monitor", "error", err)
		os.Exit(1)
	}

	// graceful shutdown on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("dashboard available", "url", "http://localhost:8085")
	if err := m.Start(ctx); err != nil {
		slog.Error("monitor failed", "error", err)
		os.Exit(1)
	}
}
