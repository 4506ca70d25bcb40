// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"ledger/internal/auth"
	"ledger/internal/cache"
	applog "ledger/internal/log"
	"ledger/internal/middleware/security"
	"ledger/internal/middleware/trace"
	"ledger/internal/services"
)

const (
	maxJSONBytes   = 1 << 20
	maxImportBytes = 16 << 20
)

// Options tunes the server.
type Options struct {
	SessionTTL      time.Duration
	MaxSessions     int
	CleanupInterval time.Duration
	Logger          *applog.Logger
}

type Server struct {
	http.Server
	ledger   *services.Ledger
	gate     *auth.Gate
	sessions *sessionStore
	caches   *cache.Manager
	tracer   *trace.Middleware
	detector *security.Detector
	logger   *applog.Logger

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server. Expired sessions and views are swept in the background until
// Shutdown.
func NewServer(addr string, ledger *services.Ledger, gate *auth.Gate, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.Discard()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 12 * time.Hour
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = 32
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = 10 * time.Minute
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 16,
		},
		ledger:   ledger,
		gate:     gate,
		sessions: newSessionStore(opts.MaxSessions, opts.SessionTTL),
		caches:   cache.NewManager(),
		logger:   logger.WithComponent(applog.ComponentHTTP),
	}
	s.detector = security.NewDetector(logger)
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	s.caches.Register(s.sessions.cache)
	s.caches.Register(ledger.Views())
	s.caches.StartCleanup(opts.CleanupInterval)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)

	mux.HandleFunc("GET /api/auth", s.handleAuthState)
	mux.HandleFunc("POST /api/auth/setup", s.handleSetup)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/secret", s.requireSession(s.handleChangeSecret))
	mux.HandleFunc("POST /api/auth/logout", s.requireSession(s.handleLogout))

	mux.HandleFunc("GET /api/transactions", s.requireSession(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.requireSession(s.handleCreateTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.requireSession(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.requireSession(s.handleDeleteTransaction))
	mux.HandleFunc("GET /api/counterparties", s.requireSession(s.handleCounterparties))

	mux.HandleFunc("POST /api/import", s.requireSession(s.handleImport))
	mux.HandleFunc("GET /api/export.csv", s.requireSession(s.handleExport))
	mux.HandleFunc("GET /api/report", s.requireSession(s.handleReport))

	var h http.Handler = mux
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = applog.Middleware(logger.WithComponent(applog.ComponentHTTP), trace.RequestID)(h)
	h = s.tracer.Middleware(h)
	h = s.detector.Middleware(h)
	s.Handler = h

	return s
}

// Shutdown stops the background sweeper and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// Metrics reports request counters from the trace middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
