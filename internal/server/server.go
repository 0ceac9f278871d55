package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	log "github.com/sirupsen/logrus"

	"github.com/KaramelBytes/milexcast/internal/dataset"
	"github.com/KaramelBytes/milexcast/internal/pipeline"
)

// Server exposes the forecasting pipeline over HTTP. At most one pipeline
// run is in flight; overlapping requests get 409 Conflict.
type Server struct {
	opt pipeline.Options
	log *log.Logger

	running sync.Mutex
	run     func(pipeline.Options, string) (*pipeline.Result, error)
}

// New returns a server that runs the pipeline with opt.
func New(opt pipeline.Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Server{opt: opt, log: logger, run: pipeline.Run}
}

type predictRequest struct {
	Country string `json:"country"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Router builds the chi router with middleware and routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.health)
	r.Get("/countries", s.countries)
	r.Post("/predict", s.predict)
	return r
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.WithField("addr", addr).Info("server listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) countries(w http.ResponseWriter, r *http.Request) {
	list, err := dataset.Countries(s.opt.SourcePath, s.opt.Dataset.Source)
	resp := map[string]any{"countries": list}
	if err != nil {
		s.log.WithError(err).Warn("country list unavailable")
		resp["warning"] = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) predict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	req.Country = strings.TrimSpace(req.Country)
	if req.Country == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "country is required"})
		return
	}
	if !s.running.TryLock() {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "a prediction run is already in progress"})
		return
	}
	defer s.running.Unlock()

	start := time.Now()
	res, err := s.run(s.opt, req.Country)
	entry := s.log.WithFields(log.Fields{"country": req.Country, "elapsed": time.Since(start).Round(time.Millisecond)})
	if err != nil {
		entry.WithError(err).Warn("prediction failed")
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}
	entry.Info("prediction complete")
	writeJSON(w, http.StatusOK, res)
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	var nf *dataset.CountryNotFoundError
	var ie *dataset.InsufficientDataError
	switch {
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &ie):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.WithFields(log.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"elapsed":    time.Since(start).Round(time.Microsecond),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("request")
	})
}
