package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"robotrent/internal/config"
	"robotrent/internal/domain"
	"robotrent/internal/models"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

// Options выбирает, какие маршруты поднимать на этом порту.
type Options struct {
	Port         int
	Metrics      bool
	API          config.APIConfig
	Availability domain.AvailabilityView
	Journal      domain.ReservationJournal
	Checks       map[string]HealthCheck
	Location     *time.Location
}

// HTTPServer serves health probes, Prometheus metrics and a read-only JSON API.
type HTTPServer struct {
	opts   Options
	server *http.Server
	auth   *HTTPAuth
	logger *zerolog.Logger
	now    func() time.Time
}

func NewHTTPServer(opts Options, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	srv := &HTTPServer{
		opts:   opts,
		auth:   NewHTTPAuth(opts.API),
		logger: logger,
		now:    time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealthz)
	mux.HandleFunc("/readyz", srv.handleReadyz)
	if opts.Metrics {
		mux.Handle("/metrics", promhttp.Handler())
	}
	if opts.API.Enabled {
		api := http.NewServeMux()
		api.HandleFunc("/api/v1/availability", srv.handleAvailability)
		api.HandleFunc("/api/v1/reservations", srv.handleReservations)
		mux.Handle("/api/v1/", corsMiddleware(srv.auth.Wrap(api)))
	}

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           loggingMiddleware(logger, mux),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadyz прогоняет все проверки; 503, если хоть одна упала.
func (s *HTTPServer) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(s.opts.Checks))
	for name, check := range s.opts.Checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}
	writeJSON(w, status, map[string]any{"checks": results})
}

type dayResponse struct {
	Date string `json:"date"`
	ISO  string `json:"iso"`
	Free bool   `json:"free"`
}

func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.opts.Availability == nil {
		writeError(w, http.StatusServiceUnavailable, "availability is not configured")
		return
	}

	week := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("week")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > 1 {
			writeError(w, http.StatusBadRequest, "week must be 0 or 1")
			return
		}
		week = n
	}

	days, err := s.opts.Availability.RenderWeek(r.Context(), week, s.now().In(s.opts.Location))
	if err != nil {
		s.logger.Error().Err(err).Msg("availability: render week")
		writeError(w, http.StatusBadGateway, "calendar is unavailable")
		return
	}

	resp := make([]dayResponse, 0, len(days))
	for _, d := range days {
		resp = append(resp, dayResponse{
			Date: d.Label,
			ISO:  d.Date.Format(models.ISODateLayout),
			Free: d.Enabled,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"week_offset": week, "days": resp})
}

func (s *HTTPServer) handleReservations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.opts.Journal == nil {
		writeError(w, http.StatusServiceUnavailable, "journal is not configured")
		return
	}

	days := models.DefaultExportDays
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 366 {
			writeError(w, http.StatusBadRequest, "days must be between 1 and 366")
			return
		}
		days = n
	}

	since := s.now().AddDate(0, 0, -days)
	reservations, err := s.opts.Journal.ListReservations(r.Context(), since)
	if err != nil {
		s.logger.Error().Err(err).Msg("reservations: list journal")
		writeError(w, http.StatusInternalServerError, "failed to read journal")
		return
	}
	if reservations == nil {
		reservations = []*models.Reservation{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservations": reservations})
}

func loggingMiddleware(logger *zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("took", time.Since(start)).
			Msg("http request")
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key, X-API-Extra")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
