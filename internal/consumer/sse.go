package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/feedwatch/internal/event"
	"github.com/jpalmerr/feedwatch/internal/metrics"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write.
	// Must be <= the shutdown timeout so shutdown is never held up by a
	// stuck client.
	sseWriteTimeout = 5 * time.Second

	defaultTitle = "feedwatch"

	titlePlaceholder = "{{.Title}}"
)

// SSEServer streams status events to browsers and serves the dashboard.
//
// Routes:
//   - GET /: the embedded dashboard page
//   - GET /events: Server-Sent Events stream, one bus subscription per client
//   - GET /metrics: prometheus metrics
//
// The server shuts down gracefully when the start context is cancelled.
type SSEServer struct {
	bus        *event.Bus
	metrics    *metrics.Metrics
	port       int
	assets     fs.FS
	title      string
	logger     *slog.Logger
	httpServer *http.Server
	boundAddr  string
}

// NewSSEServer creates an [SSEServer]. assets may be nil to disable the
// dashboard page; metrics may be nil to disable /metrics.
func NewSSEServer(bus *event.Bus, m *metrics.Metrics, port int, assets fs.FS, title string, logger *slog.Logger) *SSEServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SSEServer{
		bus:     bus,
		metrics: m,
		port:    port,
		assets:  assets,
		title:   title,
		logger:  logger,
	}
}

// Start begins serving in a background goroutine, returning once the
// listener is bound. Cancelling ctx triggers a graceful shutdown with a
// 5-second timeout; in-flight SSE streams end with their request contexts.
func (s *SSEServer) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/events", s.handleSSE)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
	if s.assets != nil {
		mux.HandleFunc("/", s.handleDashboard)
	}

	// bind first so port conflicts surface synchronously
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}
	s.boundAddr = ln.Addr().String()

	s.httpServer = &http.Server{
		Handler: mux,
		// request contexts derive from ctx, so cancelling it also ends
		// long-running SSE handlers
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	s.logger.Info("sse server listening", "addr", s.boundAddr)
	return nil
}

// handleDashboard serves the embedded live-feed page.
func (s *SSEServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	content, err := fs.ReadFile(s.assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	title := s.title
	if title == "" {
		title = defaultTitle
	}
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, html.EscapeString(title))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write dashboard response", "error", err)
	}
}

// handleSSE streams events to a single browser client.
//
// Each connection holds its own bus subscription, registered on arrival and
// released on disconnect, so clients neither share backlog nor leak
// registry entries. Writes carry deadlines: a stalled client times out
// instead of pinning the handler past shutdown.
func (s *SSEServer) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	clientID := uuid.NewString()
	s.logger.Info("sse client connected", "client_id", clientID, "remote", r.RemoteAddr)

	sub := s.bus.Subscribe()
	defer sub.Close()

	if s.metrics != nil {
		s.metrics.SSEClientConnected()
		defer s.metrics.SSEClientDisconnected()
	}

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := writeAndFlush(data); err != nil {
				s.logger.Info("sse client disconnected", "client_id", clientID)
				return
			}

		case <-r.Context().Done():
			// fires on client disconnect and on server shutdown
			s.logger.Info("sse client disconnected", "client_id", clientID)
			return
		}
	}
}
