// Package server exposes scan history over a small JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/solscout/scout-cli/internal/config"
	"github.com/solscout/scout-cli/internal/model"
	"github.com/solscout/scout-cli/internal/store"
)

// Runner triggers a scan cycle. Satisfied by the engine wiring in cmd.
type Runner func(ctx context.Context) (*model.Report, error)

// Server serves the report API.
type Server struct {
	store  store.Store
	runner Runner
	cfg    config.ServerConfig
}

// New creates a Server. runner may be nil, in which case POST /scans
// responds 503.
func New(st store.Store, runner Runner, cfg config.ServerConfig) *Server {
	return &Server{store: st, runner: runner, cfg: cfg}
}

// Router builds the chi router with middleware and routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/reports/latest", s.handleLatestReport)
	r.Get("/scans", s.handleListScans)
	r.Get("/scans/{id}", s.handleGetScan)
	r.Post("/scans", s.handleStartScan)

	return r
}

// ListenAndServe runs the server until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("server: listening", zap.Int("port", s.cfg.Port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLatestReport(w http.ResponseWriter, r *http.Request) {
	scan, err := s.store.LatestReport(r.Context())
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no completed scans")
		return
	}
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scan.Report)
}

func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	scan, err := s.store.GetScan(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "scan not found")
		return
	}
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scan)
}

func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	filter := store.ScanFilter{
		Status: model.ScanStatus(r.URL.Query().Get("status")),
	}
	scans, err := s.store.ListScans(r.Context(), filter)
	if err != nil {
		s.internalError(w, err)
		return
	}

	// Strip full reports from the listing; clients fetch them by id.
	summaries := make([]model.Scan, len(scans))
	for i, scan := range scans {
		scan.Report = nil
		summaries[i] = scan
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleStartScan(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		writeError(w, http.StatusServiceUnavailable, "scanning not enabled on this server")
		return
	}

	scan, err := s.store.CreateScan(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}

	// The scan outlives the request; detach it from the request context.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		report, err := s.runner(ctx)
		if err != nil {
			zap.L().Error("server: scan failed", zap.String("scan_id", scan.ID), zap.Error(err))
			if ferr := s.store.FailScan(ctx, scan.ID, err.Error()); ferr != nil {
				zap.L().Error("server: record scan failure", zap.Error(ferr))
			}
			return
		}
		if err := s.store.SaveReport(ctx, scan.ID, report); err != nil {
			zap.L().Error("server: save report", zap.String("scan_id", scan.ID), zap.Error(err))
		}
	}()

	writeJSON(w, http.StatusAccepted, scan)
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	zap.L().Error("server: request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
