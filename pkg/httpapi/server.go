// Package httpapi serves checkpoint data over HTTP.
//
// Routes:
//
//	GET /healthz                    liveness and build info
//	GET /timesteps/{dataset}        sorted steps stored in a dataset
//	GET /steps/{step}/edge-index    coordinate list of a step
//	GET /steps/{step}/connections   adjacency list of a step
//	GET /steps/{step}/verify        consistency report of a step
//	GET /steps/{step}/graph         graph-learning payload (tensor bridge)
//	GET /steps/{step}/export/{fmt}  first artifact of any registered bridge
//
// {step} is a decimal step or "latest". Errors are JSON objects carrying the
// error code; NOT_FOUND maps to 404 and INVALID_* to 400.
package httpapi

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/graingraph/graingraph/pkg/bridge"
	"github.com/graingraph/graingraph/pkg/buildinfo"
	"github.com/graingraph/graingraph/pkg/checkpoint"
	"github.com/graingraph/graingraph/pkg/errors"
	"github.com/graingraph/graingraph/pkg/verify"
)

// Server exposes an archive read-only.
type Server struct {
	archive *checkpoint.Archive
	bridges *bridge.Registry
	logger  *log.Logger
	router  chi.Router
}

// New builds the router. A nil logger uses log.Default(); a nil registry
// uses bridge.Default().
func New(archive *checkpoint.Archive, bridges *bridge.Registry, logger *log.Logger) *Server {
	if bridges == nil {
		bridges = bridge.Default()
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{archive: archive, bridges: bridges, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/timesteps/{dataset}", s.handleTimeSteps)
	r.Route("/steps/{step}", func(r chi.Router) {
		r.Get("/edge-index", s.handleEdgeIndex)
		r.Get("/connections", s.handleConnections)
		r.Get("/verify", s.handleVerify)
		r.Get("/graph", s.handleGraph)
		r.Get("/export/{format}", s.handleExport)
	})
	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
	})
}

func (s *Server) handleTimeSteps(w http.ResponseWriter, r *http.Request) {
	dataset := chi.URLParam(r, "dataset")
	steps, err := s.archive.TimeSteps(r.Context(), dataset)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dataset": dataset, "steps": steps})
}

func (s *Server) handleEdgeIndex(w http.ResponseWriter, r *http.Request) {
	step, err := s.step(r, checkpoint.DatasetEdgeIndex)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ei, err := s.archive.ReadEdgeIndex(r.Context(), step)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"step": step, "row": ei.Row, "col": ei.Col})
}

func (s *Server) handleConnections(w http.ResponseWriter, r *http.Request) {
	step, err := s.step(r, checkpoint.DatasetConnections)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	adj, err := s.archive.ReadConnections(r.Context(), step)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"step": step, "connections": adj})
}

// verifyResponse is a report tagged with its step.
type verifyResponse struct {
	Step int `json:"step"`
	verify.Report
	Asymmetric []verify.Arc `json:"asymmetric,omitempty"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	step, err := s.step(r, checkpoint.DatasetEdgeIndex)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ctx := r.Context()
	ei, err := s.archive.ReadEdgeIndex(ctx, step)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	adj, err := s.archive.ReadConnections(ctx, step)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse{
		Step:       step,
		Report:     verify.Verify(adj, ei),
		Asymmetric: verify.CheckSymmetry(ei),
	})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	in, err := s.input(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bridge.BuildTensor(in))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	exporter, err := s.bridges.Get(format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := s.input(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	arts, err := exporter.Export(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(arts) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	a := arts[0]
	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Disposition", `inline; filename="`+bridge.ArtifactPath("grains", in.Step, a.Name)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(a.Data)
}

// input loads everything stored for the requested step.
func (s *Server) input(r *http.Request) (bridge.Input, error) {
	step, err := s.step(r, checkpoint.DatasetEdgeIndex)
	if err != nil {
		return bridge.Input{}, err
	}
	ctx := r.Context()
	ei, err := s.archive.ReadEdgeIndex(ctx, step)
	if err != nil {
		return bridge.Input{}, err
	}
	adj, err := s.archive.ReadConnections(ctx, step)
	if err != nil {
		return bridge.Input{}, err
	}
	in := bridge.Input{Step: step, EdgeIndex: ei, Connections: adj}
	if err := in.Validate(); err != nil {
		return bridge.Input{}, err
	}
	if stats, err := s.archive.ReadStats(ctx, step); err == nil && !in.AttachStats(stats) {
		s.logger.Warn("ignoring stale grain stats", "step", step, "stats", len(stats.Volumes))
	}
	return in, nil
}

// step parses {step}, resolving "latest" against dataset.
func (s *Server) step(r *http.Request, dataset string) (int, error) {
	raw := chi.URLParam(r, "step")
	if strings.EqualFold(raw, "latest") {
		return s.archive.Latest(r.Context(), dataset)
	}
	step, err := strconv.Atoi(raw)
	if err != nil || step < 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid time step %q", raw)
	}
	return step, nil
}

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

// statusFor maps error codes to HTTP status codes.
func statusFor(err error) int {
	switch code := errors.GetCode(err); {
	case code == errors.ErrCodeNotFound:
		return http.StatusNotFound
	case code == errors.ErrCodeUnsupported,
		strings.HasPrefix(string(code), "INVALID_"):
		return http.StatusBadRequest
	case stderrors.Is(err, context.Canceled):
		return 499
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: errors.UserMessage(err), Code: errors.GetCode(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// logRequests logs one line per request at debug level, and at warn level
// for server errors.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		fields := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		}
		if ww.Status() >= http.StatusInternalServerError {
			s.logger.Warn("request", fields...)
			return
		}
		s.logger.Debug("request", fields...)
	})
}
