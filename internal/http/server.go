package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"ninedelights/internal/auth"
	"ninedelights/internal/cache"
	"ninedelights/internal/core"
	"ninedelights/internal/sheets"
	"ninedelights/internal/upload"
	appweb "ninedelights/web"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

const storeTimeout = 7 * time.Second

type Server struct {
	http.Server
	templates   *template.Template
	store       sheets.EntryStore
	gate        *auth.Gate
	uploader    upload.BlobStore
	rateLimiter *rateLimiter

	// Read caches, purged on every mutation.
	listCache  *cache.LRU[[]core.Entry]
	statsCache *cache.LRU[core.Stats]
	janitor    *cache.Janitor

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run
// http.Server. uploader may be nil when no blob store is configured.
func NewServer(addr string, store sheets.EntryStore, gate *auth.Gate, uploader upload.BlobStore) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:       store,
		gate:        gate,
		uploader:    uploader,
		rateLimiter: newRateLimiter(),
		listCache:   cache.NewLRU[[]core.Entry](100, 5*time.Minute),
		statsCache:  cache.NewLRU[core.Stats](50, 5*time.Minute),
	}

	s.janitor = cache.NewJanitor(s.listCache, s.statsCache)
	s.janitor.Start(10 * time.Minute)

	funcs := template.FuncMap{
		"delightColor": func(t core.DelightType) string {
			d, _ := t.Config()
			return d.Color
		},
		"dayNumber": dayNumber,
	}
	t, err := template.New("").Funcs(funcs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/", s.withSecurityHeaders(s.handleIndex))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.HandleFunc("/api/delights", s.withSecurityHeaders(s.handleDelights))
	mux.HandleFunc("/api/stats", s.withSecurityHeaders(s.handleStats))
	mux.HandleFunc("/api/auth", s.withSecurityHeaders(s.handleAuth))
	mux.HandleFunc("/api/upload", s.withSecurityHeaders(s.handleUpload))
	mux.HandleFunc("/ui/calendar", s.withSecurityHeaders(s.handleCalendarPartial))
	mux.HandleFunc("/ui/stats", s.withSecurityHeaders(s.handleStatsPartial))

	return s
}

// Shutdown stops the cleanup goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.janitor != nil {
			s.janitor.Stop()
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to a handler.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := clientIP(r)

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		// Rate limit mutations only; reads are cached anyway.
		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com 'unsafe-eval'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// listAll returns every entry, served from cache when fresh.
func (s *Server) listAll(ctx context.Context) ([]core.Entry, error) {
	const key = "all"
	if entries, found := s.listCache.Get(key); found {
		return entries, nil
	}

	cctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	entries, err := s.store.ListAll(cctx)
	if err != nil {
		return nil, fmt.Errorf("list all entries: %w", err)
	}

	s.listCache.Set(key, entries)
	return entries, nil
}

// listWindow returns the entries in [start, end], served from cache when
// fresh.
func (s *Server) listWindow(ctx context.Context, start, end string) ([]core.Entry, error) {
	key := "w|" + start + "|" + end
	if entries, found := s.listCache.Get(key); found {
		return entries, nil
	}

	cctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	entries, err := s.store.List(cctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list entries %s..%s: %w", start, end, err)
	}

	s.listCache.Set(key, entries)
	return entries, nil
}

// invalidateCaches drops every cached read. Row references shift on
// delete, so partial invalidation is not safe.
func (s *Server) invalidateCaches() {
	s.listCache.Purge()
	s.statsCache.Purge()
}

func dayNumber(date string) string {
	if len(date) == len("2006-01-02") {
		return strings.TrimPrefix(date[8:], "0")
	}
	return date
}
