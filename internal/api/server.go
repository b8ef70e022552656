// Package api exposes the HTTP interface for the press-release crawler.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/newsroom-kr/press-crawler/internal/clock"
	"github.com/newsroom-kr/press-crawler/internal/config"
	"github.com/newsroom-kr/press-crawler/internal/crawler"
	"github.com/newsroom-kr/press-crawler/internal/metrics"
	"github.com/newsroom-kr/press-crawler/internal/press"
	"github.com/newsroom-kr/press-crawler/internal/store"
)

// Server wires HTTP handlers to the crawl service and release store.
type Server struct {
	router   chi.Router
	service  *crawler.Service
	releases store.ReleaseStore
	logger   *zap.Logger
	clock    clock.Clock
	cfg      config.Config
}

// NewServer constructs a Server with middleware and routes.
func NewServer(service *crawler.Service, releases store.ReleaseStore, logger *zap.Logger, cfg config.Config) *Server {
	s := &Server{
		service:  service,
		releases: releases,
		logger:   logger,
		clock:    clock.System(),
		cfg:      cfg,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metricsMiddleware)
	r.Use(timeoutMiddleware(5 * time.Minute))
	if cfg.Auth.Enabled {
		r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
	}

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/crawl", s.crawlAll)
		r.Post("/crawl", s.crawlAll)
		r.Get("/crawl/{source}", s.crawlOne)
		r.Post("/crawl/{source}", s.crawlOne)
		r.Get("/releases", s.listReleases)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	// The store is the only downstream a crawl cannot run without.
	if _, err := s.releases.List(r.Context(), store.Filter{Limit: 1}); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// crawlResponse is the trigger-layer wire shape.
type crawlResponse struct {
	Success   bool                `json:"success"`
	Timestamp time.Time           `json:"timestamp"`
	Results   []press.CrawlResult `json:"results"`
	Totals    press.Totals        `json:"totals"`
}

func (s *Server) crawlAll(w http.ResponseWriter, r *http.Request) {
	limit, err := s.limitParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	results := s.service.CrawlAll(r.Context(), limit)
	s.writeCrawlResponse(w, results)
}

func (s *Server) crawlOne(w http.ResponseWriter, r *http.Request) {
	source, err := press.ParseSource(chi.URLParam(r, "source"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	c, ok := s.service.CrawlerBySource(source)
	if !ok {
		writeError(w, http.StatusNotFound, "source not configured")
		return
	}
	limit, err := s.limitParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := s.service.CrawlOne(r.Context(), c, limit)
	s.writeCrawlResponse(w, []press.CrawlResult{result})
}

// writeCrawlResponse reports success=false, with HTTP 502, only when
// every source failed; partial failures still return 200 so callers see
// the sources that did succeed.
func (s *Server) writeCrawlResponse(w http.ResponseWriter, results []press.CrawlResult) {
	anySucceeded := false
	for _, res := range results {
		if res.Success {
			anySucceeded = true
			break
		}
	}
	status := http.StatusOK
	if !anySucceeded {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, crawlResponse{
		Success:   anySucceeded,
		Timestamp: s.clock.Now(),
		Results:   results,
		Totals:    press.Sum(results),
	})
}

func (s *Server) listReleases(w http.ResponseWriter, r *http.Request) {
	filter := store.Filter{}
	if raw := r.URL.Query().Get("source"); raw != "" {
		source, err := press.ParseSource(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Source = source
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = n
	}

	releases, err := s.releases.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("List releases failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list releases failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"releases": releases, "count": len(releases)})
}

func (s *Server) limitParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return s.cfg.Crawler.DefaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errBadLimit
	}
	return n, nil
}

var errBadLimit = errors.New("limit must be a positive integer")

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type requestIDKey struct{}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			reqID, _ := r.Context().Value(requestIDKey{}).(string)
			logger.Info("Request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.String("request_id", reqID),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("Panic recovered", zap.Any("error", rec))
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		metrics.ObserveHTTPRequest(r.Method, r.URL.Path, ww.status, time.Since(start))
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

func apiKeyMiddleware(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				key = r.URL.Query().Get("api_key")
			}
			if key != expected {
				writeError(w, http.StatusForbidden, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
