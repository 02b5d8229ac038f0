package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/mj1618/locator-cli/internal/env/target"
	"github.com/mj1618/locator-cli/internal/locator"
	"github.com/mj1618/locator-cli/internal/model"
	"github.com/mj1618/locator-cli/internal/repository"
	"github.com/mj1618/locator-cli/internal/service"
	"github.com/mj1618/locator-cli/internal/telemetry"
)

// Router returns the REST API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", HealthCheck)
	r.Post("/extract", s.HandleExtract)

	r.Route("/objects", func(r chi.Router) {
		r.Get("/", s.HandleListObjects)
		r.Post("/", s.HandleCapture)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.HandleGetObject)
			r.Delete("/", s.HandleDeleteObject)
			r.Put("/chain", s.HandleSetChain)
			r.Post("/resolve", s.HandleResolve)
			r.Post("/apply-suggestion", s.HandleApplySuggestion)
		})
	})

	r.Route("/healing", func(r chi.Router) {
		r.Get("/stats", s.HandleHealingStats)
		r.Get("/suggestions", s.HandleSuggestions)
		r.Get("/export", s.HandleExport)
	})
	return r
}

// ListenAndServe serves the REST API on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("starting HTTP server")
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

// HealthCheck reports liveness.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	var bad badRequest
	switch {
	case errors.As(err, &bad):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrNoSuggestion),
		errors.Is(err, service.ErrElementNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrEmptyChain), errors.Is(err, target.ErrNoTarget):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrWriteConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type badRequest struct{ err error }

func (b badRequest) Error() string { return b.err.Error() }
func (b badRequest) Unwrap() error { return b.err }

func decodeBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest{err: errors.New("invalid JSON: " + err.Error())}
	}
	return nil
}

func platformQuery(value string) (model.Platform, error) {
	if value == "" {
		return "", nil
	}
	p, err := model.ParsePlatform(value)
	if err != nil {
		return "", badRequest{err: err}
	}
	return p, nil
}

func (s *Server) HandleExtract(w http.ResponseWriter, r *http.Request) {
	var attrs model.CapturedAttributes
	if err := decodeBody(r, &attrs); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.svc.Extract(attrs))
}

// CaptureRequest is the body of POST /objects. Either Attributes, or
// Locator plus an environment, must be set.
type CaptureRequest struct {
	Name       string                    `json:"name,omitempty"`
	Platform   string                    `json:"platform,omitempty"`
	Attributes *model.CapturedAttributes `json:"attributes,omitempty"`
	Locator    string                    `json:"locator,omitempty"`
	Target     TargetRequest             `json:"target"`
}

// TargetRequest names an environment in a request body.
type TargetRequest struct {
	Snapshot   string `json:"snapshot,omitempty"`
	URL        string `json:"url,omitempty"`
	ControlURL string `json:"control_url,omitempty"`
	Tree       string `json:"tree,omitempty"`
	App        string `json:"app,omitempty"`
	Window     string `json:"window,omitempty"`
}

func (t TargetRequest) target() target.Target {
	return target.Target{
		SnapshotYAML: t.Snapshot,
		URL:          t.URL,
		ControlURL:   t.ControlURL,
		Tree:         t.Tree,
		App:          t.App,
		Window:       t.Window,
	}
}

func (s *Server) HandleCapture(w http.ResponseWriter, r *http.Request) {
	var req CaptureRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	platform, err := platformQuery(req.Platform)
	if err != nil {
		writeError(w, err)
		return
	}

	var res *service.CaptureResult
	switch {
	case req.Attributes != nil:
		res, err = s.svc.Capture(r.Context(), platform, req.Name, *req.Attributes)
	case req.Locator != "":
		res, err = s.captureLocator(r.Context(), platform, req)
	default:
		err = badRequest{err: errors.New("either attributes or locator is required")}
	}
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}

func (s *Server) captureLocator(ctx context.Context, platform model.Platform, req CaptureRequest) (*service.CaptureResult, error) {
	loc, err := locator.ParseDescriptor(req.Locator)
	if err != nil {
		return nil, badRequest{err: err}
	}
	opened, err := s.open(ctx, req.Target.target())
	if err != nil {
		return nil, err
	}
	defer opened.Close()
	if platform == "" {
		platform = opened.Platform
	}
	return s.svc.CaptureLocator(ctx, platform, req.Name, opened.Accessor, loc)
}

func (s *Server) HandleListObjects(w http.ResponseWriter, r *http.Request) {
	platform, err := platformQuery(r.URL.Query().Get("platform"))
	if err != nil {
		writeError(w, err)
		return
	}
	objects, err := s.svc.Objects(r.Context(), platform, r.URL.Query().Get("tag"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, service.Summaries(objects))
}

func (s *Server) HandleGetObject(w http.ResponseWriter, r *http.Request) {
	obj, err := s.svc.Repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, obj)
}

func (s *Server) HandleDeleteObject(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Repo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) HandleSetChain(w http.ResponseWriter, r *http.Request) {
	var chain model.Chain
	if err := decodeBody(r, &chain); err != nil {
		writeError(w, err)
		return
	}
	if len(chain) > 0 {
		if err := chain.Validate(); err != nil {
			writeError(w, badRequest{err: err})
			return
		}
	}
	id := chi.URLParam(r, "id")
	if err := s.svc.Repo.UpdateLocatorChain(r.Context(), id, chain); err != nil {
		writeError(w, err)
		return
	}
	obj, err := s.svc.Repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, obj)
}

// ResolveRequest is the body of POST /objects/{id}/resolve.
type ResolveRequest struct {
	Target TargetRequest `json:"target"`
	Heal   *bool         `json:"heal,omitempty"`
}

func (s *Server) HandleResolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	heal := req.Heal == nil || *req.Heal
	id := chi.URLParam(r, "id")

	opened, err := s.open(r.Context(), req.Target.target())
	if err != nil {
		writeError(w, err)
		return
	}
	defer opened.Close()

	res, err := s.svc.Resolve(r.Context(), id, opened.Accessor, heal)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, service.NewResolveResult(id, res))
}

func (s *Server) HandleApplySuggestion(w http.ResponseWriter, r *http.Request) {
	minFrequency, err := intQuery(r, "min_frequency")
	if err != nil {
		writeError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	sug, chain, err := s.svc.ApplyForObject(r.Context(), id, minFrequency)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, service.AppliedSuggestion{ID: id, Applied: *sug, Chain: chain})
}

func (s *Server) HandleHealingStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Telemetry.Statistics(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) HandleSuggestions(w http.ResponseWriter, r *http.Request) {
	minFrequency, err := intQuery(r, "min_frequency")
	if err != nil {
		writeError(w, err)
		return
	}
	suggestions, err := s.svc.Suggest(r.Context(), minFrequency)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestions)
}

func (s *Server) HandleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = telemetry.FormatJSON
	}
	switch format {
	case telemetry.FormatJSON:
		w.Header().Set("Content-Type", "application/json")
	case telemetry.FormatJSONL:
		w.Header().Set("Content-Type", "application/x-ndjson")
	case telemetry.FormatYAML:
		w.Header().Set("Content-Type", "application/yaml")
	default:
		writeError(w, badRequest{err: errors.New("unsupported export format: " + format)})
		return
	}
	if err := s.svc.Telemetry.ExportLog(r.Context(), w, format); err != nil {
		log.Error().Err(err).Msg("export healing log")
	}
}

func intQuery(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, badRequest{err: errors.New(key + " must be an integer")}
	}
	return n, nil
}
