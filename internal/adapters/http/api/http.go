// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/dawgbowl/internal/adapters/standings"
	service "github.com/okian/dawgbowl/internal/app"
	"github.com/okian/dawgbowl/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	StatsProvider

	SalaryCap() int
	Contestants(query, sortBy string) ([]model.Contestant, error)
	Contestant(id model.ContestantID) (model.Contestant, error)

	// Draft building, keyed by session id.
	CreateDraft(ctx context.Context) service.DraftView
	Draft(ctx context.Context, sessionID string) (service.DraftView, error)
	AddFlex(ctx context.Context, sessionID string, id model.ContestantID) (service.DraftView, error)
	AddCaptain(ctx context.Context, sessionID string, id model.ContestantID) (service.DraftView, error)
	RemoveMember(ctx context.Context, sessionID string, id model.ContestantID) (service.DraftView, error)
	PromoteToCaptain(ctx context.Context, sessionID string, id model.ContestantID) (service.DraftView, error)
	ResetDraft(ctx context.Context, sessionID string) (service.DraftView, error)
	Submit(ctx context.Context, sessionID, username string) (model.SubmittedLineup, error)

	// Results and standings.
	PostResults(ctx context.Context, outcomes model.Outcomes) (service.Round, error)
	Simulate(ctx context.Context, req service.SimulateRequest) (service.Round, error)
	Round(ctx context.Context) (service.Round, error)
	Standings(ctx context.Context, limit int) ([]standings.Entry, error)
	StandingFor(ctx context.Context, username string) (standings.Entry, error)
	Chart(ctx context.Context, username string) ([]byte, error)

	// Admin.
	Lineups(ctx context.Context) (service.AdminListing, error)
	DeleteLineup(ctx context.Context, username string) error
	Export(ctx context.Context, format string) (service.ExportFile, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps   Dependencies
	admin  *adminGuard
	submit *ipLimiter

	healthHandler *HealthHandler
	statsHandler  *StatsHandler
}

// Option configures a Server.
type Option func(*Server)

// WithAdminSecret sets the shared secret expected in X-Admin-Secret. An
// empty secret disables the admin routes.
func WithAdminSecret(secret string) Option {
	return func(s *Server) {
		s.admin = newAdminGuard(secret)
	}
}

// WithSubmitLimit throttles submissions per client IP. A non-positive rate
// disables throttling.
func WithSubmitLimit(perSec float64, burst int) Option {
	return func(s *Server) {
		s.submit = newIPLimiter(perSec, burst)
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:          deps,
		admin:         newAdminGuard(""),
		submit:        newIPLimiter(0, 0),
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /v1/contestants", MetricsMiddleware(s.handleContestants, "contestants"))
	mux.HandleFunc("GET /v1/contestants/{id}", MetricsMiddleware(s.handleContestant, "contestant"))

	mux.HandleFunc("POST /v1/drafts", MetricsMiddleware(s.handleCreateDraft, "drafts"))
	mux.HandleFunc("GET /v1/drafts/{session}", MetricsMiddleware(s.handleGetDraft, "draft"))
	mux.HandleFunc("POST /v1/drafts/{session}/flex", MetricsMiddleware(s.handleAddFlex, "draft_flex"))
	mux.HandleFunc("POST /v1/drafts/{session}/captain", MetricsMiddleware(s.handleAddCaptain, "draft_captain"))
	mux.HandleFunc("PUT /v1/drafts/{session}/captain", MetricsMiddleware(s.handlePromote, "draft_promote"))
	mux.HandleFunc("DELETE /v1/drafts/{session}/members/{id}", MetricsMiddleware(s.handleRemove, "draft_remove"))
	mux.HandleFunc("POST /v1/drafts/{session}/reset", MetricsMiddleware(s.handleReset, "draft_reset"))
	mux.HandleFunc("POST /v1/drafts/{session}/submit",
		MetricsMiddleware(s.submit.Wrap("draft_submit", s.handleSubmit), "draft_submit"))

	mux.HandleFunc("GET /v1/results", MetricsMiddleware(s.handleRound, "results"))
	mux.HandleFunc("GET /v1/standings", MetricsMiddleware(s.handleStandings, "standings"))
	mux.HandleFunc("GET /v1/standings/{username}", MetricsMiddleware(s.handleStanding, "standing"))
	mux.HandleFunc("GET /v1/standings/{username}/chart.png", MetricsMiddleware(s.handleChart, "standing_chart"))

	mux.HandleFunc("GET /v1/admin/lineups", MetricsMiddleware(s.admin.Wrap(s.handleAdminLineups), "admin_lineups"))
	mux.HandleFunc("DELETE /v1/admin/lineups/{username}", MetricsMiddleware(s.admin.Wrap(s.handleAdminDelete), "admin_delete"))
	mux.HandleFunc("GET /v1/admin/export", MetricsMiddleware(s.admin.Wrap(s.handleAdminExport), "admin_export"))
	mux.HandleFunc("POST /v1/admin/results", MetricsMiddleware(s.admin.Wrap(s.handlePostResults), "admin_results"))
	mux.HandleFunc("POST /v1/admin/results/simulate", MetricsMiddleware(s.admin.Wrap(s.handleSimulate), "admin_simulate"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps a domain error onto its HTTP status.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}
