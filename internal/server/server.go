// Package server provides the HTTP REST API for the recruiting workflow.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/talent-pipeline/internal/lifecycle"
	"github.com/jonathan/talent-pipeline/internal/logger"
	"github.com/jonathan/talent-pipeline/internal/screening"
	"github.com/jonathan/talent-pipeline/internal/server/middleware"
	"github.com/jonathan/talent-pipeline/internal/server/ratelimit"
	"github.com/jonathan/talent-pipeline/internal/types"
)

const maxBodyBytes = 1 << 20

// Screener runs a screening pass over a JD's applicants.
type Screener interface {
	Screen(ctx context.Context, jdID uuid.UUID, actor *types.Principal) (*screening.Report, error)
}

// Config holds server configuration
type Config struct {
	Port             int
	ScreeningTimeout time.Duration
	RateLimit        *ratelimit.Config
}

// Server represents the HTTP server
type Server struct {
	httpServer       *http.Server
	manager          *lifecycle.Manager
	screener         Screener
	jwtService       *JWTService
	rateLimiter      *ratelimit.Limiter
	screeningTimeout time.Duration
	logger           *zap.Logger
}

// New creates a new server instance
func New(cfg Config, manager *lifecycle.Manager, screener Screener, jwtService *JWTService, log *zap.Logger) *Server {
	s := &Server{
		manager:          manager,
		screener:         screener,
		jwtService:       jwtService,
		rateLimiter:      ratelimit.NewLimiter(cfg.RateLimit),
		screeningTimeout: cfg.ScreeningTimeout,
		logger:           logger.OrNop(log),
	}
	if s.screeningTimeout <= 0 {
		s.screeningTimeout = 10 * time.Minute
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /public/jd/{token}", s.handlePublicJD)

	// Offers
	mux.Handle("POST /offers", s.authed(s.handleCreateOffer, types.RoleAdmin, types.RoleRMG))
	mux.Handle("GET /offers", s.authed(s.handleListOffers))
	mux.Handle("GET /offers/{id}", s.authed(s.handleGetOffer))
	mux.Handle("POST /offers/{id}/assign", s.authed(s.handleAssignOffer, types.RoleAdmin, types.RoleRMG))
	mux.Handle("PATCH /offers/{id}", s.authed(s.handleUpdateOffer, types.RoleAdmin, types.RoleRMG))
	mux.Handle("PATCH /offers/{id}/status", s.authed(s.handleUpdateOfferStatus, types.RoleAdmin, types.RoleRMG))
	mux.Handle("GET /users/recruiters", s.authed(s.handleListRecruiters, types.RoleAdmin, types.RoleRMG))

	// Job descriptions. The id is the offer id on creation routes and the JD id elsewhere.
	mux.Handle("GET /jd", s.authed(s.handleListJDs, types.RoleAdmin, types.RoleRMG, types.RoleHR))
	mux.Handle("GET /jobs", s.authed(s.handleListJobs, types.RoleCandidate))
	mux.Handle("POST /jd/{id}", s.authed(s.handleCreateJD))
	mux.Handle("POST /jd/{id}/ai", s.authed(s.handleCreateJDWithAI))
	mux.Handle("GET /jd/{id}", s.authed(s.handleGetJD))
	mux.Handle("GET /jd/{id}/candidates", s.authed(s.handleAppliedCandidates))
	mux.Handle("GET /jd/{id}/filtered-candidates", s.authed(s.handleFilteredCandidates))

	// Applications and screening
	mux.Handle("POST /jd/{id}/filter-resumes", s.authed(s.handleFilterResumes, types.RoleHR))
	mux.Handle("POST /jd/{id}/add-resume", s.authed(s.handleAddResume, types.RoleAdmin, types.RoleHR))
	mux.Handle("POST /jd/{id}/apply", s.authed(s.handleApply, types.RoleCandidate))
	mux.Handle("POST /jd/{id}/invite", s.authed(s.handleInvite, types.RoleAdmin, types.RoleHR))
	mux.Handle("GET /candidates/me/applications", s.authed(s.handleAppliedJobs, types.RoleCandidate))

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.withRateLimit(s.withLogging(s.withCORS(mux))),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.screeningTimeout + 30*time.Second, // screening runs hold the request open
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// ListenAndServe serves until Shutdown is called. It returns nil after a
// graceful shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	defer s.rateLimiter.Stop()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// authed wraps h with token validation and, when roles are given, a role check.
func (s *Server) authed(h http.HandlerFunc, roles ...types.Role) http.Handler {
	var next http.Handler = h
	if len(roles) > 0 {
		next = middleware.RequireRole(roles...)(next)
	}
	return middleware.AuthMiddleware(s.jwtService.AsTokenValidator())(next)
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(extractClientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
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

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote", r.RemoteAddr))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]any{"success": false, "error": message})
}

// fail maps err to a status code and writes it. Server-side failures are logged.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	s.errorResponse(w, status, clientMessage(err, status))
}

// decodeBody decodes a JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errBadRequestBody
	}
	return nil
}

// pathID parses the {id} wildcard.
func pathID(r *http.Request) (uuid.UUID, error) {
	raw := r.PathValue("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &types.ValidationError{Field: "id", Message: fmt.Sprintf("invalid id %q", raw)}
	}
	return id, nil
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr; X-Forwarded-For is not trusted.
func extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"success":   false,
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}
	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	s.logger.Warn("rate limit exceeded",
		zap.String("client", extractClientID(r)),
		zap.String("path", r.URL.Path),
		zap.Int("limit", info.Limit))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
