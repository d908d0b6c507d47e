package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/auth"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/config"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/domain"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/lifecycle"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/metrics"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/models"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/service"
)

// HTTPServer exposes the REST API.
type HTTPServer struct {
	cfg        config.HTTPConfig
	users      *service.UserService
	bookings   *service.BookingService
	vendors    *service.VendorService
	reviews    *service.ReviewService
	stats      *service.StatsService
	categories []models.ServiceCategory
	exporter   domain.ReportWriter
	exportDir  string
	logger     *zerolog.Logger
	server     *http.Server
	limiter    *clientLimiter
}

type Deps struct {
	Users      *service.UserService
	Bookings   *service.BookingService
	Vendors    *service.VendorService
	Reviews    *service.ReviewService
	Stats      *service.StatsService
	Categories []models.ServiceCategory
	Exporter   domain.ReportWriter
	ExportDir  string
}

func NewHTTPServer(cfg config.HTTPConfig, rl config.RateLimitConfig, deps Deps, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{
		cfg:        cfg,
		users:      deps.Users,
		bookings:   deps.Bookings,
		vendors:    deps.Vendors,
		reviews:    deps.Reviews,
		stats:      deps.Stats,
		categories: deps.Categories,
		exporter:   deps.Exporter,
		exportDir:  deps.ExportDir,
		logger:     logger,
		limiter:    newClientLimiter(rl),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", srv.handleHealth)
	mux.HandleFunc("GET /api/categories", srv.handleCategories)
	mux.HandleFunc("GET /api/services/search", srv.handleSearchServices)
	mux.HandleFunc("GET /api/vendors", srv.handleVendorDirectory)
	mux.HandleFunc("GET /api/vendors/{userID}/reviews", srv.handleVendorReviews)

	mux.HandleFunc("POST /api/auth/register", srv.handleRegister)
	mux.HandleFunc("POST /api/auth/login", srv.handleLogin)
	mux.Handle("GET /api/auth/me", srv.authenticated(srv.handleMe))
	mux.Handle("POST /api/auth/logout", srv.authenticated(srv.handleLogout))

	mux.Handle("POST /api/bookings", srv.authenticated(srv.handleCreateBooking))
	mux.Handle("GET /api/bookings", srv.authenticated(srv.handleListBookings))
	mux.Handle("GET /api/bookings/{id}", srv.authenticated(srv.handleGetBooking))
	mux.Handle("PATCH /api/bookings/{id}/status", srv.authenticated(srv.handleTransition))
	mux.Handle("POST /api/bookings/{id}/payment", srv.authenticated(srv.handleMarkPaid))

	mux.Handle("POST /api/vendors/profile", srv.authenticated(srv.handleCreateProfile))
	mux.Handle("GET /api/vendors/profile", srv.authenticated(srv.handleOwnProfile))
	mux.Handle("GET /api/vendors/earnings", srv.authenticated(srv.handleEarnings))

	mux.Handle("POST /api/reviews", srv.authenticated(srv.handleCreateReview))

	mux.Handle("GET /api/admin/stats", srv.authenticated(srv.handleAdminStats))
	mux.Handle("GET /api/admin/vendors", srv.authenticated(srv.handleAdminVendors))
	mux.Handle("POST /api/admin/vendors/{id}/approve", srv.authenticated(srv.handleApproveVendor))
	mux.Handle("POST /api/admin/vendors/{id}/reject", srv.authenticated(srv.handleRejectVendor))
	mux.Handle("GET /api/admin/users", srv.authenticated(srv.handleAdminUsers))
	mux.Handle("GET /api/admin/bookings", srv.authenticated(srv.handleAdminBookings))
	mux.Handle("POST /api/admin/reports/bookings", srv.authenticated(srv.handleExportBookings))

	handler := srv.requestID(srv.logging(srv.rateLimit(mux)))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *HTTPServer) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		dur := time.Since(start)

		metrics.IncHTTP(r.URL.Path, strconv.Itoa(recorder.status))
		event := s.logger.Info()
		if recorder.status >= http.StatusInternalServerError {
			event = s.logger.Error()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", dur).
			Str("request_id", requestIDFrom(r.Context())).
			Msg("http request")
	})
}

func (s *HTTPServer) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(clientKey(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type requestIDKey struct{}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// clientKey prefers the bearer token as the rate-limit key so clients behind
// a shared NAT do not throttle each other.
func clientKey(r *http.Request) string {
	if token := bearerToken(r); token != "" {
		return token
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}

type clientLimiter struct {
	rps      float64
	burst    int
	limiters sync.Map // map[string]*rate.Limiter
}

func newClientLimiter(cfg config.RateLimitConfig) *clientLimiter {
	return &clientLimiter{rps: cfg.RPS, burst: cfg.Burst}
}

func (l *clientLimiter) allow(key string) bool {
	if l.rps <= 0 {
		return true
	}
	return l.get(key).Allow()
}

func (l *clientLimiter) get(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	burst := l.burst
	if burst <= 0 {
		burst = 5
	}

	lim := rate.NewLimiter(rate.Limit(l.rps), burst)
	actual, loaded := l.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeDomainError maps the error taxonomy onto HTTP statuses. Visibility
// failures surface as 404 before this point; 403 is reserved for operations
// the actor can see but not perform.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, lifecycle.ErrUnauthorized):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, lifecycle.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, lifecycle.ErrVendorNotApproved),
		errors.Is(err, lifecycle.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, lifecycle.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
