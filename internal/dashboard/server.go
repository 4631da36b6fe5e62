// Package dashboard serves the gateway monitoring JSON API.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aceteam-ai/gatewatch/internal/gateway"
	"github.com/aceteam-ai/gatewatch/internal/usage"
)

// Gateway is the subset of the gateway client the dashboard reads from.
type Gateway interface {
	Health(ctx context.Context) gateway.HealthStatus
	ListJobs(ctx context.Context, includeDisabled bool) ([]gateway.Job, error)
	ListSessions(ctx context.Context, limit, messageLimit int) ([]gateway.Session, error)
}

// History is a local store of session snapshots.
type History interface {
	List(limit int) ([]usage.Record, error)
}

// ServerConfig holds configuration for the dashboard server.
type ServerConfig struct {
	Addr    string // listen address (default: 127.0.0.1:3000)
	Version string // gatewatch version string

	// Per-IP rate limit (defaults: 5 rps, burst 20)
	RateLimitRPS   float64
	RateLimitBurst int

	// Location defines calendar day boundaries (default: time.Local)
	Location *time.Location

	// History backs /api/history; the route returns 404 when nil
	History History

	Logger zerolog.Logger
}

// Server provides the dashboard HTTP API.
type Server struct {
	cfg        ServerConfig
	gw         Gateway
	limiter    *RateLimiter
	log        zerolog.Logger
	now        func() time.Time
	httpServer *http.Server
}

// NewServer creates a new dashboard server.
func NewServer(cfg ServerConfig, gw Gateway) *Server {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:3000"
	}
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 5
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 20
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Server{
		cfg:     cfg,
		gw:      gw,
		limiter: NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		log:     cfg.Logger,
		now:     time.Now,
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.cfg.Addr
}

// Handler returns the API routes wrapped in logging and rate limiting.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/cron", s.handleCron)
	mux.HandleFunc("/api/usage", s.handleUsage)
	mux.HandleFunc("/api/activity", s.handleActivity)
	mux.HandleFunc("/api/calendar", s.handleCalendar)
	mux.HandleFunc("/api/history", s.handleHistory)

	return s.logRequests(s.rateLimit(getOnly(mux)))
}

// Start begins listening for HTTP requests.
// This method blocks until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	defer s.limiter.Stop()

	s.httpServer = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	s.log.Info().Str("addr", s.cfg.Addr).Msg("dashboard listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

func getOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(clientIP(r)) {
			writeJSONError(w, "rate limit exceeded, please try again later", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("ip", clientIP(r)).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a JSON-formatted error response
func writeJSONError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]any{"error": message, "status": status})
}
