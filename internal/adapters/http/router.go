package http

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/viray-carlos-miguel/center-patient/internal/domain"
)

// ActorHeader carries the authenticated user id set by the upstream API layer.
const ActorHeader = "X-Actor-ID"

// StatusService is the part of the record store the liveness endpoints need.
type StatusService interface {
	Ping(ctx context.Context) error
	Stats(ctx context.Context) (domain.Stats, error)
}

type Handler struct {
	service StatusService
	log     zerolog.Logger
	started time.Time
}

func NewRouter(service StatusService, log zerolog.Logger) http.Handler {
	h := &Handler{service: service, log: log, started: time.Now()}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.requestLog)
	r.Use(withActor)

	r.Get("/", h.handleRoot)
	r.Route("/api", func(api chi.Router) {
		api.Get("/health", h.handleHealth)
		api.Get("/stats", h.handleStats)
	})

	return r
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"service": "center-patient", "status": "ok"})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unhealthy", "database": "disconnected", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"database": "connected",
		"uptime":   time.Since(h.started).Round(time.Second).String(),
	})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeJSON(w, statusFor(err), map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

// withActor puts the caller identity on the request context so store
// mutations record who made them and from where.
func withActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := domain.Actor{
			IPAddress: clientIP(r),
			UserAgent: r.UserAgent(),
		}
		if id := strings.TrimSpace(r.Header.Get(ActorHeader)); id != "" {
			actor.UserID = &id
		}
		next.ServeHTTP(w, r.WithContext(domain.WithActor(r.Context(), actor)))
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// statusFor maps a store error kind onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrReferenceNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateKey), errors.Is(err, domain.ErrSchedulingConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrPreconditionFailed), errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusServiceUnavailable
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
