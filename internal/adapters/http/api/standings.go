package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/dawgbowl/internal/adapters/standings"
)

// defaultStandingsLimit applies when ?limit is absent.
const defaultStandingsLimit = 10

type standingsResponse struct {
	ResultsID string            `json:"results_id,omitempty"`
	Entries   []standings.Entry `json:"entries"`
}

// handleRound handles GET /v1/results.
func (s *Server) handleRound(w http.ResponseWriter, r *http.Request) {
	round, err := s.deps.Round(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, round)
}

// handleStandings handles GET /v1/standings?limit=.
func (s *Server) handleStandings(w http.ResponseWriter, r *http.Request) {
	limit := defaultStandingsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeFailure(w, fmt.Errorf("%w: limit %q is not a number", ErrBadRequest, raw))
			return
		}
		limit = n
	}
	entries, err := s.deps.Standings(r.Context(), limit)
	if err != nil {
		writeFailure(w, err)
		return
	}
	resp := standingsResponse{Entries: entries}
	if round, err := s.deps.Round(r.Context()); err == nil {
		resp.ResultsID = round.ResultsID
	}
	if resp.Entries == nil {
		resp.Entries = []standings.Entry{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleStanding handles GET /v1/standings/{username}.
func (s *Server) handleStanding(w http.ResponseWriter, r *http.Request) {
	e, err := s.deps.StandingFor(r.Context(), r.PathValue("username"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// handleChart handles GET /v1/standings/{username}/chart.png.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	png, err := s.deps.Chart(r.Context(), r.PathValue("username"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
