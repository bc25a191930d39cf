package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// mockIncident is one entry in the mock status feed.
type mockIncident struct {
	id      string
	title   string
	summary string
	updated time.Time
}

// StartMockFeedServer runs a mock status-page feed that gains a new
// incident every 30 seconds and updates the latest one every 10.
// Call this in a goroutine before creating feedwatch providers.
func StartMockFeedServer(addr string) {
	var (
		mu        sync.Mutex
		incidents []mockIncident
		counter   int
	)

	titles := []string{
		"Elevated API error rates",
		"Degraded performance on uploads",
		"Increased latency in EU region",
		"Scheduled maintenance window",
	}
	summaries := []string{
		"We are investigating the issue.",
		"A fix has been identified and is being deployed.",
		"We are monitoring the results.",
		"This incident has been resolved.",
	}

	advance := func() {
		mu.Lock()
		defer mu.Unlock()
		now := time.Now().UTC()
		if len(incidents) == 0 || counter%3 == 0 {
			incidents = append(incidents, mockIncident{
				id:      fmt.Sprintf("mock-incident-%03d", len(incidents)+1),
				title:   titles[len(incidents)%len(titles)],
				summary: summaries[0],
				updated: now,
			})
		} else {
			last := &incidents[len(incidents)-1]
			last.summary = summaries[counter%len(summaries)]
			last.updated = now
		}
		counter++
	}
	advance()

	go func() {
		for range time.Tick(10 * time.Second) {
			advance()
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/feed.atom", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()

		// newest update drives the feed-level validator
		latest := incidents[len(incidents)-1].updated
		etag := fmt.Sprintf(`"mock-%d"`, latest.UnixNano())
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		var b strings.Builder
		b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
		b.WriteString(`<feed xmlns="http://www.w3.org/2005/Atom">` + "\n")
		b.WriteString("  <title>Mock Status</title>\n")
		fmt.Fprintf(&b, "  <updated>%s</updated>\n", latest.Format(time.RFC3339))
		for i := len(incidents) - 1; i >= 0; i-- {
			inc := incidents[i]
			b.WriteString("  <entry>\n")
			fmt.Fprintf(&b, "    <id>%s</id>\n", inc.id)
			fmt.Fprintf(&b, "    <title>%s</title>\n", inc.title)
			fmt.Fprintf(&b, "    <updated>%s</updated>\n", inc.updated.Format(time.RFC3339))
			fmt.Fprintf(&b, "    <summary>%s</summary>\n", inc.summary)
			b.WriteString("  </entry>\n")
		}
		b.WriteString("</feed>\n")

		w.Header().Set("Content-Type", "application/atom+xml")
		w.Header().Set("ETag", etag)
		_, _ = w.Write([]byte(b.String()))
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock feed server failed", "error", err)
	}
}
