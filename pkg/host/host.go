package host

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/pagebridge/pkg/middleware"
	"github.com/vango-dev/pagebridge/pkg/offline"
	"github.com/vango-dev/pagebridge/pkg/protocol"
)

// Routes served by Host.
const (
	PathWebSocket = "/ws"
	PathMetrics   = "/metrics"
	PathHealth    = "/healthz"
)

// Host accepts page sessions and routes their events to a Handler.
type Host struct {
	handler Handler
	config  Config
	logger  *slog.Logger

	metrics  *middleware.Metrics
	gatherer prometheus.Gatherer
	worker   *offline.Worker
	tracer   trace.Tracer

	upgrader websocket.Upgrader

	mu         sync.Mutex
	sessions   map[string]*Session
	wg         sync.WaitGroup
	closing    atomic.Bool
	httpServer *http.Server
}

// Option configures a Host.
type Option func(*Host)

// WithConfig sets the session configuration. Zero fields take defaults.
func WithConfig(c Config) Option {
	return func(h *Host) {
		h.config = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		h.logger = logger
	}
}

// WithMetrics records host metrics in m and serves g on /metrics.
// g may be nil to record without serving.
func WithMetrics(m *middleware.Metrics, g prometheus.Gatherer) Option {
	return func(h *Host) {
		h.metrics = m
		h.gatherer = g
	}
}

// WithWorker serves the worker script on /app-worker.js.
func WithWorker(w *offline.Worker) Option {
	return func(h *Host) {
		h.worker = w
	}
}

// WithTracerProvider sets the tracer provider for event spans.
// Default: the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(h *Host) {
		h.tracer = tp.Tracer("pagebridge/host")
	}
}

// New creates a Host.
func New(handler Handler, opts ...Option) *Host {
	h := &Host{
		handler:  handler,
		config:   DefaultConfig(),
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.config = h.config.withDefaults()
	if h.logger == nil {
		h.logger = slog.Default()
	}
	h.logger = h.logger.With("component", "host")
	if h.tracer == nil {
		h.tracer = otel.Tracer("pagebridge/host")
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  h.config.ReadBufferSize,
		WriteBufferSize: h.config.WriteBufferSize,
		CheckOrigin:     h.config.CheckOrigin,
	}
	return h
}

// Routes returns the HTTP routes of the host.
func (h *Host) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get(PathWebSocket, h.HandleWebSocket)
	r.Get(PathHealth, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	if h.worker != nil {
		r.Get(offline.ScriptPath, h.serveWorker)
	}
	if h.gatherer != nil {
		r.Handle(PathMetrics, promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (h *Host) serveWorker(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := h.worker.WriteScript(&buf); err != nil {
		h.logger.Error("worker script render failed", "error", err)
		http.Error(w, "worker script unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(buf.Bytes())
}

// HandleWebSocket upgrades the request and serves the session until it
// ends.
func (h *Host) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.closing.Load() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", "error", err, "remote", r.RemoteAddr)
		if h.metrics != nil {
			h.metrics.WebSocketError("upgrade")
		}
		return
	}

	s := newSession(h, conn, uuid.NewString())
	h.mu.Lock()
	if h.closing.Load() {
		h.mu.Unlock()
		s.closeWith(protocol.CloseServerShutdown, "host shutting down")
		return
	}
	h.sessions[s.id] = s
	h.wg.Add(1)
	h.mu.Unlock()
	defer h.wg.Done()

	s.serve()
}

func (h *Host) remove(s *Session) {
	h.mu.Lock()
	delete(h.sessions, s.id)
	h.mu.Unlock()
}

// Session returns the live session with the given ID.
func (h *Host) Session(id string) (*Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[id]
	return s, ok
}

// SessionCount returns the number of live sessions.
func (h *Host) SessionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// ListenAndServe serves Routes on addr until ctx is done, then shuts down
// gracefully.
func (h *Host) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	h.mu.Lock()
	h.httpServer = srv
	h.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		h.logger.Info("host starting", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		h.logger.Info("shutting down...")
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.config.ShutdownTimeout)
		defer cancel()
		err := h.Shutdown(sctx)
		<-errCh
		return err
	}
}

// Shutdown closes every session and stops the HTTP server if it was
// started by ListenAndServe. It waits for sessions to end until ctx is
// done.
func (h *Host) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closing.Store(true)
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	srv := h.httpServer
	h.mu.Unlock()

	for _, s := range sessions {
		s.closeWith(protocol.CloseServerShutdown, "host shutting down")
	}

	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			h.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	h.logger.Info("host shutdown complete")
	return nil
}
