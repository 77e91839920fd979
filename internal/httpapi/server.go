// Package httpapi is the JSON surface of the tracker: collection CRUD, the
// computed view, dashboard aggregates, settings, and export/import.
package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"findash/internal/cache"
	"findash/internal/core"
	applog "findash/internal/log"
	"findash/internal/services"
	"findash/internal/store"
)

type Server struct {
	http.Server
	store       *store.Store
	svc         *services.TransactionService
	budget      *services.BudgetService
	rateLimiter *rateLimiter

	// viewCache memoizes computed views keyed on params plus the store
	// revision, so any mutation invalidates naturally.
	viewCache    *cache.LRUCache[core.View]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// Config tunes the server-side caches.
type Config struct {
	Addr          string
	ViewCacheSize int
	ViewCacheTTL  time.Duration
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, st *store.Store, svc *services.TransactionService, budget *services.BudgetService) *Server {
	mux := http.NewServeMux()

	if cfg.ViewCacheSize <= 0 {
		cfg.ViewCacheSize = 128
	}
	if cfg.ViewCacheTTL <= 0 {
		cfg.ViewCacheTTL = 5 * time.Minute
	}

	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		store:        st,
		svc:          svc,
		budget:       budget,
		rateLimiter:  newRateLimiter(),
		viewCache:    cache.NewLRUCache[core.View](cfg.ViewCacheSize, cfg.ViewCacheTTL),
		cacheManager: cache.NewManager(),
	}

	s.cacheManager.Register(s.viewCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /transactions", s.withMiddleware(s.handleListTransactions))
	mux.HandleFunc("POST /transactions", s.withMiddleware(s.handleCreateTransaction))
	mux.HandleFunc("PUT /transactions/{id}", s.withMiddleware(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /transactions/{id}", s.withMiddleware(s.handleDeleteTransaction))
	mux.HandleFunc("DELETE /transactions", s.withMiddleware(s.handleClearTransactions))

	mux.HandleFunc("GET /dashboard", s.withMiddleware(s.handleDashboard))
	mux.HandleFunc("GET /categories", s.withMiddleware(s.handleCategories))

	mux.HandleFunc("GET /export", s.withMiddleware(s.handleExport))
	mux.HandleFunc("POST /import", s.withMiddleware(s.handleImport))

	mux.HandleFunc("GET /settings/budget", s.withMiddleware(s.handleGetBudget))
	mux.HandleFunc("PUT /settings/budget", s.withMiddleware(s.handlePutBudget))
	mux.HandleFunc("GET /settings/theme", s.withMiddleware(s.handleGetTheme))
	mux.HandleFunc("PUT /settings/theme", s.withMiddleware(s.handlePutTheme))

	return s
}

// withMiddleware adds security headers, rate limiting, and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP)

		// Rate limit mutating requests only; reads are cheap.
		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP, applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded"})
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds(),
			applog.FieldClientIP, clientIP)
	}
}

type requestIDKey struct{}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	default:
		return false
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports readiness; a persistence failure degrades to 503 so
// orchestrators notice even though memory keeps serving.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if err := s.store.LastError(); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = fmt.Fprintf(w, "persistence degraded: %v", err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
