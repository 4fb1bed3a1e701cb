package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"orrery/internal/api"
	"orrery/internal/catalog"
	"orrery/internal/config"
	"orrery/internal/engine"
	"orrery/internal/logging"
)

const defaultPassListLimit = 20

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.Paths.APIBind),
		logger: logging.WithComponent(logger, "api"),
		daemon: d,
	}

	token := strings.TrimSpace(cfg.Paths.APIToken)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", authMiddleware(token, srv.handleStatus))
	mux.HandleFunc("/api/sync", authMiddleware(token, srv.handleSync))
	mux.HandleFunc("/api/scheduler/start", authMiddleware(token, srv.handleSchedulerStart))
	mux.HandleFunc("/api/scheduler/stop", authMiddleware(token, srv.handleSchedulerStop))
	mux.HandleFunc("/api/scheduler/restart", authMiddleware(token, srv.handleSchedulerRestart))
	mux.HandleFunc("/api/scheduler/configure", authMiddleware(token, srv.handleSchedulerConfigure))
	mux.HandleFunc("/api/passes", authMiddleware(token, srv.handlePasses))
	mux.HandleFunc("/api/stats", authMiddleware(token, srv.handleStats))
	mux.HandleFunc("/api/candidates", authMiddleware(token, srv.handleCandidates))
	mux.HandleFunc("/api/candidates/", authMiddleware(token, srv.handleCandidateItem))
	mux.HandleFunc("/api/assistant", authMiddleware(token, srv.handleAssistant))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
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
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
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
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	status := s.daemon.Status()
	payload := api.StatusResponse{
		Running:      status.Running,
		PassRunning:  status.PassRunning,
		Scheduler:    api.FromSchedulerStatus(status.Scheduler),
		DatabasePath: status.DatabasePath,
	}
	if last, err := s.daemon.store.LastPass(r.Context()); err == nil && last != nil {
		view := api.FromPass(last)
		payload.LastPass = &view
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	record, err := s.daemon.scheduler.TriggerNow(r.Context())
	if errors.Is(err, engine.ErrPassInProgress) {
		s.writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		// Pass-fatal failure: the pass record still exists with the message.
		if record != nil {
			s.writeJSON(w, http.StatusBadGateway, api.SyncResponse{Pass: api.FromPass(record)})
			return
		}
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.SyncResponse{Pass: api.FromPass(record)})
}

func (s *apiServer) handleSchedulerStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := s.daemon.scheduler.Start(); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromSchedulerStatus(s.daemon.scheduler.Status()))
}

func (s *apiServer) handleSchedulerStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.daemon.scheduler.Stop()
	s.writeJSON(w, http.StatusOK, api.FromSchedulerStatus(s.daemon.scheduler.Status()))
}

func (s *apiServer) handleSchedulerRestart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := s.daemon.scheduler.Restart(); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromSchedulerStatus(s.daemon.scheduler.Status()))
}

func (s *apiServer) handleSchedulerConfigure(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var request api.ConfigureRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.daemon.scheduler.Configure(request.Pattern, request.Timezone); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromSchedulerStatus(s.daemon.scheduler.Status()))
}

func (s *apiServer) handlePasses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := defaultPassListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	records, err := s.daemon.store.RecentPasses(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.PassListResponse{Passes: api.FromPasses(records)})
}

func (s *apiServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	stats, err := s.daemon.engine.Stats(r.Context(), 0)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromStats(stats))
}

func (s *apiServer) handleCandidates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var statuses []catalog.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := catalog.Status(raw)
		if !catalog.IsValidStatus(status) {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", raw))
			return
		}
		statuses = append(statuses, status)
	}

	candidates, err := s.daemon.store.List(r.Context(), statuses...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.CandidateListResponse{Candidates: api.FromCandidates(candidates)})
}

func (s *apiServer) handleCandidateItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	identity := strings.TrimPrefix(r.URL.Path, "/api/candidates/")
	if identity == "" || strings.Contains(identity, "/") {
		s.writeError(w, http.StatusNotFound, "candidate not found")
		return
	}

	candidate, err := s.daemon.store.GetByIdentity(r.Context(), identity)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if candidate == nil {
		s.writeError(w, http.StatusNotFound, "candidate not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.CandidateResponse{Candidate: api.FromCandidate(candidate)})
}

func (s *apiServer) handleAssistant(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.daemon.assistant.Configured() {
		s.writeError(w, http.StatusServiceUnavailable, "assistant not configured")
		return
	}

	var request api.AssistantRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(request.Question) == "" {
		s.writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	var candidate *catalog.Candidate
	if identity := strings.TrimSpace(request.Identity); identity != "" {
		found, err := s.daemon.store.GetByIdentity(r.Context(), identity)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if found == nil {
			s.writeError(w, http.StatusNotFound, "candidate not found")
			return
		}
		candidate = found
	}

	answer, err := s.daemon.assistant.Ask(r.Context(), candidate, request.Question)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.AssistantResponse{Answer: answer})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("encode api response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}
