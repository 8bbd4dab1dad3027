package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"taggerd/internal/config"
	"taggerd/internal/logging"
	"taggerd/internal/tagger"
)

// routePrefix matches the upstream tagger extension mount point.
const routePrefix = "/tagger/v1"

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon
	creds  map[string]string

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, errors.New("api bind address is empty")
	}

	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
		creds:  LoadCredentials(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", srv.handleHealth)
	srv.route(mux, "POST "+routePrefix+"/interrogate", srv.handleInterrogate)
	srv.route(mux, "POST "+routePrefix+"/interrogate-categorized", srv.handleInterrogateCategorized)
	srv.route(mux, "POST "+routePrefix+"/interrogate-batch", srv.handleInterrogateBatch)
	srv.route(mux, "GET "+routePrefix+"/interrogators", srv.handleInterrogators)
	srv.route(mux, "POST "+routePrefix+"/unload-interrogators", srv.handleUnloadInterrogators)
	srv.route(mux, "GET "+routePrefix+"/history", srv.handleHistory)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

// route registers a handler behind the auth gate and request logging.
func (s *apiServer) route(mux *http.ServeMux, pattern string, handler http.HandlerFunc) {
	mux.HandleFunc(pattern, s.logged(authMiddleware(s.creds, handler)))
}

func (s *apiServer) logged(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		started := time.Now()
		next(w, r)
		s.log().Debug("request handled",
			logging.String("id", requestID),
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Duration("elapsed", time.Since(started)))
	}
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String("component", "api-server"))
	}
	return logging.NewNop()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps domain errors onto the transport status codes: unknown
// model or missing image 404, undecodable payload or empty batch 400,
// everything else 500. The body is always {"detail": message}.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, tagger.ErrModelNotFound), errors.Is(err, tagger.ErrImageMissing):
		status = http.StatusNotFound
	case errors.Is(err, tagger.ErrImageDecode), errors.Is(err, tagger.ErrNoImages):
		status = http.StatusBadRequest
	case errors.Is(err, tagger.ErrUnauthorized):
		status = http.StatusUnauthorized
	}
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}
