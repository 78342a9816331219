package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/okian/dawgbowl/internal/domain/model"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

type contestantsResponse struct {
	SalaryCap   int                `json:"salary_cap"`
	Contestants []model.Contestant `json:"contestants"`
}

type memberRequest struct {
	ContestantID model.ContestantID `json:"contestant_id"`
}

type submitRequest struct {
	Username string `json:"username"`
}

// decodeJSON reads one JSON document from the body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrBadRequest)
		}
		return fmt.Errorf("%w: invalid JSON: %v", ErrBadRequest, err)
	}
	return nil
}

func pathContestantID(r *http.Request) (model.ContestantID, error) {
	raw := r.PathValue("id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: contestant id %q is not a number", ErrBadRequest, raw)
	}
	return model.ContestantID(id), nil
}

// handleContestants handles GET /v1/contestants?q=&sort=.
func (s *Server) handleContestants(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := s.deps.Contestants(q.Get("q"), q.Get("sort"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contestantsResponse{SalaryCap: s.deps.SalaryCap(), Contestants: list})
}

// handleContestant handles GET /v1/contestants/{id}.
func (s *Server) handleContestant(w http.ResponseWriter, r *http.Request) {
	id, err := pathContestantID(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	c, err := s.deps.Contestant(id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleCreateDraft handles POST /v1/drafts.
func (s *Server) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, s.deps.CreateDraft(r.Context()))
}

// handleGetDraft handles GET /v1/drafts/{session}.
func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	v, err := s.deps.Draft(r.Context(), r.PathValue("session"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleAddFlex(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	v, err := s.deps.AddFlex(r.Context(), r.PathValue("session"), req.ContestantID)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleAddCaptain(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	v, err := s.deps.AddCaptain(r.Context(), r.PathValue("session"), req.ContestantID)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handlePromote handles PUT /v1/drafts/{session}/captain, moving the
// captaincy to a member already on the roster.
func (s *Server) handlePromote(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	v, err := s.deps.PromoteToCaptain(r.Context(), r.PathValue("session"), req.ContestantID)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	id, err := pathContestantID(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	v, err := s.deps.RemoveMember(r.Context(), r.PathValue("session"), id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	v, err := s.deps.ResetDraft(r.Context(), r.PathValue("session"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleSubmit handles POST /v1/drafts/{session}/submit.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	lineup, err := s.deps.Submit(r.Context(), r.PathValue("session"), req.Username)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, lineup)
}
