// Package api exposes DD runs, reports and accuracy metrics over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ppiankov/diligence/internal/accuracy"
	"github.com/ppiankov/diligence/internal/insight"
	"github.com/ppiankov/diligence/internal/logging"
	"github.com/ppiankov/diligence/internal/model"
	"github.com/ppiankov/diligence/internal/pipeline"
	"github.com/ppiankov/diligence/internal/store"
)

const maxBodyBytes = 4 << 20

// DD is the pipeline surface the API serves
type DD interface {
	RunDD(ctx context.Context, applicationID string, force bool) (*model.RunResult, error)
	Status(ctx context.Context, applicationID string) (*model.StatusSummary, error)
	Runs(ctx context.Context, applicationID string) ([]model.AgentRunLog, error)
	View(ctx context.Context, applicationID string) (*model.ReportView, error)
}

// Server is the HTTP front end
type Server struct {
	dd       DD
	apps     store.Store
	insights *insight.Generator
	version  string
	logger   *slog.Logger
	router   chi.Router
}

// NewServer wires the routes. apps backs application import and listing.
func NewServer(dd DD, apps store.Store, insights *insight.Generator, version string) *Server {
	if insights == nil {
		insights = insight.NewGenerator(nil)
	}
	s := &Server{
		dd:       dd,
		apps:     apps,
		insights: insights,
		version:  version,
		logger:   logging.New("api"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/applications", s.handleListApplications)
		r.Post("/applications", s.handleSaveApplication)
		r.Route("/applications/{id}/dd", func(r chi.Router) {
			r.Get("/", s.handleStatus)
			r.Post("/", s.handleRun)
			r.Get("/report", s.handleReport)
			r.Get("/runs", s.handleRuns)
		})
		r.Post("/accuracy", s.handleAccuracy)
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.version})
}

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := s.apps.ListApplications(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (s *Server) handleSaveApplication(w http.ResponseWriter, r *http.Request) {
	var app model.Application
	if err := decodeBody(r, &app); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid application", Details: err.Error()})
		return
	}
	if app.CompanyName == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid application", Details: "company_name is required"})
		return
	}
	app.DDStatus = ""
	if err := s.apps.SaveApplication(r.Context(), &app); err != nil {
		s.writeError(w, r, err)
		return
	}
	saved, err := s.apps.GetApplication(r.Context(), app.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.dd.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	force := false
	if v := r.URL.Query().Get("force"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid force parameter", Details: v})
			return
		}
		force = b
	}
	res, err := s.dd.RunDD(r.Context(), chi.URLParam(r, "id"), force)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	view, err := s.dd.View(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if view.Report == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no report", Details: "run due diligence first"})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	logs, err := s.dd.Runs(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if logs == nil {
		logs = []model.AgentRunLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

type accuracyResponse struct {
	Metrics  accuracy.Metrics `json:"metrics"`
	Insights []string         `json:"insights"`
}

func (s *Server) handleAccuracy(w http.ResponseWriter, r *http.Request) {
	var in accuracy.Input
	if err := decodeBody(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid accuracy input", Details: err.Error()})
		return
	}
	m := accuracy.Compute(in)
	writeJSON(w, http.StatusOK, accuracyResponse{
		Metrics:  m,
		Insights: s.insights.Generate(r.Context(), m),
	})
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// writeError maps domain errors to status codes
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var stageErr *pipeline.StageError
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found", Details: err.Error()})
	case errors.As(err, &stageErr):
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "dd run failed", Details: err.Error()})
	case errors.Is(err, context.Canceled):
		// client went away; nothing useful to send
		s.logger.Debug("request cancelled", "path", r.URL.Path)
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error", Details: err.Error()})
	}
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
