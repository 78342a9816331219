package api

import (
	"fmt"
	"net/http"
	"strconv"

	service "github.com/okian/dawgbowl/internal/app"
	"github.com/okian/dawgbowl/internal/domain/model"
)

// outcomeRequest is one contestant's result in POST /v1/admin/results.
type outcomeRequest struct {
	ContestantID model.ContestantID `json:"contestant_id"`
	model.Outcome
}

type resultsRequest struct {
	Outcomes []outcomeRequest `json:"outcomes"`
}

func (req resultsRequest) outcomes() (model.Outcomes, error) {
	out := make(model.Outcomes, len(req.Outcomes))
	for _, o := range req.Outcomes {
		if _, dup := out[o.ContestantID]; dup {
			return nil, fmt.Errorf("%w: contestant %d listed twice", ErrBadRequest, o.ContestantID)
		}
		out[o.ContestantID] = o.Outcome
	}
	return out, nil
}

// handleAdminLineups handles GET /v1/admin/lineups.
func (s *Server) handleAdminLineups(w http.ResponseWriter, r *http.Request) {
	listing, err := s.deps.Lineups(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	if listing.Lineups == nil {
		listing.Lineups = []service.AdminEntry{}
	}
	writeJSON(w, http.StatusOK, listing)
}

// handleAdminDelete handles DELETE /v1/admin/lineups/{username}.
func (s *Server) handleAdminDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.DeleteLineup(r.Context(), r.PathValue("username")); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAdminExport handles GET /v1/admin/export?format=csv|xlsx.
func (s *Server) handleAdminExport(w http.ResponseWriter, r *http.Request) {
	file, err := s.deps.Export(r.Context(), r.URL.Query().Get("format"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}

// handlePostResults handles POST /v1/admin/results.
func (s *Server) handlePostResults(w http.ResponseWriter, r *http.Request) {
	var req resultsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	outcomes, err := req.outcomes()
	if err != nil {
		writeFailure(w, err)
		return
	}
	round, err := s.deps.PostResults(r.Context(), outcomes)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, round)
}

// handleSimulate handles POST /v1/admin/results/simulate. An empty body
// simulates finish positions with the configured seed.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req service.SimulateRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeFailure(w, err)
			return
		}
	}
	round, err := s.deps.Simulate(r.Context(), req)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, round)
}
