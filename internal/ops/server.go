// internal/ops/server.go

// Package ops serves health, readiness, metrics and the operator endpoints.
package ops

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"award-engine/internal/award/location"
	"award-engine/internal/common/config"
	apperrors "award-engine/internal/common/errors"
	"award-engine/internal/common/logger"
	"award-engine/internal/models"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	DefaultAuditSize = 10
	MaxAuditSize     = 100
)

type Evaluator interface {
	Evaluate(ctx context.Context, jobID string, trigger models.EvaluationTrigger) (*models.EvaluationResult, error)
}

type Transitions interface {
	Transition(ctx context.Context, jobID string, to models.JobStatus, actorID, notes string) (*models.Job, error)
	History(ctx context.Context, jobID string) ([]models.StatusHistory, error)
}

type AuditReader interface {
	Recent(ctx context.Context, jobID string, size int) ([]models.EvaluationRecord, error)
}

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

type Deps struct {
	Evaluator   Evaluator
	Transitions Transitions
	Audit       AuditReader
	Checks      map[string]HealthCheck
}

type Server struct {
	addr   string
	router *mux.Router
	deps   Deps
	auth   *Authenticator
	logger logger.Logger
}

func NewServer(cfg config.OpsConfig, deps Deps, log logger.Logger) *Server {
	s := &Server{
		addr:   cfg.Address,
		router: mux.NewRouter(),
		deps:   deps,
		auth:   NewAuthenticator(cfg.JWTSecret),
		logger: logger.Component(log, "ops"),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	s.router.HandleFunc("/ready", s.ready).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := s.router.NewRoute().Subrouter()
	api.Use(s.auth.Middleware)
	api.HandleFunc("/jobs/{jobID}/evaluate", s.evaluate).Methods(http.MethodPost)
	api.HandleFunc("/jobs/{jobID}/transitions", s.transition).Methods(http.MethodPost)
	api.HandleFunc("/jobs/{jobID}/history", s.history).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{jobID}/evaluations", s.evaluations).Methods(http.MethodGet)
	api.HandleFunc("/locations/match", s.matchLocation).Methods(http.MethodGet)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("ops server listening", map[string]interface{}{
			"address": s.addr,
			"auth":    s.auth.Enabled(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type readyResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := readyResponse{Status: "ok", Components: make(map[string]string, len(s.deps.Checks))}
	code := http.StatusOK
	for name, check := range s.deps.Checks {
		if err := check(ctx); err != nil {
			resp.Components[name] = "error: " + err.Error()
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Components[name] = "ok"
	}
	writeJSON(w, code, resp)
}

func (s *Server) evaluate(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobID"]
	result, err := s.deps.Evaluator.Evaluate(r.Context(), jobID, models.TriggerManual)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("manual evaluation", map[string]interface{}{
		"jobId":   jobID,
		"actorId": ActorFrom(r.Context()),
		"outcome": result.Outcome,
	})
	writeJSON(w, http.StatusOK, result)
}

type transitionRequest struct {
	ToStatus string `json:"toStatus"`
	ActorID  string `json:"actorId,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

func (s *Server) transition(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperrors.NewInvalidInputError("invalid request body"))
		return
	}

	// the token subject wins over a body-supplied actor
	actor := ActorFrom(r.Context())
	if actor == "" {
		actor = req.ActorID
	}

	job, err := s.deps.Transitions.Transition(r.Context(), mux.Vars(r)["jobID"], models.JobStatus(req.ToStatus), actor, req.Notes)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	h, err := s.deps.Transitions.History(r.Context(), mux.Vars(r)["jobID"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	if h == nil {
		h = []models.StatusHistory{}
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) evaluations(w http.ResponseWriter, r *http.Request) {
	if s.deps.Audit == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "AUDIT_DISABLED", Message: "evaluation audit is disabled"})
		return
	}

	size := DefaultAuditSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > MaxAuditSize {
			s.writeError(w, apperrors.NewInvalidInputError("size must be between 1 and "+strconv.Itoa(MaxAuditSize)))
			return
		}
		size = n
	}

	records, err := s.deps.Audit.Recent(r.Context(), mux.Vars(r)["jobID"], size)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if records == nil {
		records = []models.EvaluationRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

type matchResponse struct {
	location.Match
	A location.Address `json:"a"`
	B location.Address `json:"b"`
}

func (s *Server) matchLocation(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	a, b := location.Parse(q.Get("a")), location.Parse(q.Get("b"))
	writeJSON(w, http.StatusOK, matchResponse{Match: location.Compare(a, b), A: a, B: b})
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	stdErr := apperrors.Normalize(err)
	code := statusFor(stdErr.Code)
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", map[string]interface{}{"error": err})
	}
	writeJSON(w, code, errorResponse{Error: string(stdErr.Code), Message: stdErr.Message, Details: stdErr.Details})
}

func statusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeJobNotFound, apperrors.ErrCodeBidNotFound,
		apperrors.ErrCodeProfessionalNotFound, apperrors.ErrCodeUserNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeIllegalTransition, apperrors.ErrCodeStatusConflict:
		return http.StatusConflict
	case apperrors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case apperrors.ErrCodeLockAcquireFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
