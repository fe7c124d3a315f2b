package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clipper/internal/config"
	"clipper/internal/logging"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon
	router *mux.Router

	listener net.Listener
	server   *http.Server
}

// StatusResponse is the /api/status payload.
type StatusResponse struct {
	Running      bool                `json:"running"`
	PID          int                 `json:"pid"`
	StartedAt    *time.Time          `json:"started_at,omitempty"`
	LockFilePath string              `json:"lock_file"`
	DatabasePath string              `json:"database"`
	ActiveUsers  int                 `json:"active_users"`
	Jobs         []JobResponse       `json:"jobs"`
	Dependencies []DependencyPayload `json:"dependencies"`
}

// JobResponse describes one running job.
type JobResponse struct {
	UserID int64  `json:"user_id"`
	State  string `json:"state"`
}

// DependencyPayload reports one external tool.
type DependencyPayload struct {
	Name      string `json:"name"`
	Command   string `json:"command"`
	Available bool   `json:"available"`
	Detail    string `json:"detail,omitempty"`
}

// newAPIServer returns nil when no bind address is configured.
func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	if cfg == nil || cfg.API.Bind == "" {
		return nil
	}
	srv := &apiServer{
		bind:   cfg.API.Bind,
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}
	srv.router = srv.routes(cfg.API.Token)
	srv.server = &http.Server{
		Handler:           srv.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) routes(token string) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware(token))
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	return router
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil || s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *apiServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.daemon.Status(r.Context())
	payload := StatusResponse{
		Running:      st.Running,
		PID:          st.PID,
		LockFilePath: st.LockFilePath,
		DatabasePath: st.DatabasePath,
		ActiveUsers:  st.ActiveUsers,
		Jobs:         make([]JobResponse, 0, len(st.Jobs)),
		Dependencies: make([]DependencyPayload, 0, len(st.Dependencies)),
	}
	if !st.StartedAt.IsZero() {
		started := st.StartedAt.UTC()
		payload.StartedAt = &started
	}
	for _, job := range st.Jobs {
		payload.Jobs = append(payload.Jobs, JobResponse{UserID: job.UserID, State: job.State})
	}
	for _, dep := range st.Dependencies {
		payload.Dependencies = append(payload.Dependencies, DependencyPayload{
			Name:      dep.Name,
			Command:   dep.Command,
			Available: dep.Available,
			Detail:    dep.Detail,
		})
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}
