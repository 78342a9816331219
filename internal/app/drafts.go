package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/dawgbowl/internal/domain/draft"
	"github.com/okian/dawgbowl/internal/domain/model"
	"github.com/okian/dawgbowl/pkg/logger"
	"github.com/okian/dawgbowl/pkg/metrics"
)

// MemberView is one roster row as the UI shows it.
type MemberView struct {
	ID     model.ContestantID `json:"id"`
	Name   string             `json:"name"`
	Team   string             `json:"team,omitempty"`
	Role   string             `json:"role"`
	Salary int                `json:"salary"`
	Cost   int                `json:"cost"`
}

// DraftView is the read model of a session's draft.
type DraftView struct {
	SessionID   string                 `json:"session_id"`
	State       string                 `json:"state"`
	Members     []MemberView           `json:"members"`
	CaptainID   *model.ContestantID    `json:"captain_id,omitempty"`
	TotalCost   int                    `json:"total_cost"`
	Remaining   int                    `json:"remaining"`
	SalaryCap   int                    `json:"salary_cap"`
	Submittable bool                   `json:"submittable"`
	Status      string                 `json:"status"`
	Lineup      *model.SubmittedLineup `json:"lineup,omitempty"`
	Summary     *model.ScoreSummary    `json:"summary,omitempty"`
}

func (s *Service) view(sess *session) DraftView {
	d := sess.draft
	members := d.Members()
	v := DraftView{
		SessionID: sess.id,
		State:     d.State().String(),
		Members:   make([]MemberView, len(members)),
		TotalCost: d.TotalCost(),
		Remaining: d.Remaining(s.salaryCap),
		SalaryCap: s.salaryCap,
	}
	for i, m := range members {
		v.Members[i] = MemberView{
			ID:     m.Contestant.ID,
			Name:   m.Contestant.Name,
			Team:   m.Contestant.Team,
			Role:   m.Slot.Role(),
			Salary: m.Contestant.Salary,
			Cost:   m.Cost(),
		}
	}
	if id, ok := d.Captain(); ok {
		v.CaptainID = &id
	}

	switch d.State() {
	case draft.Building:
		if err := d.Problem(s.salaryCap); err != nil {
			v.Status = err.Error()
		} else {
			v.Submittable = true
			v.Status = "ready to submit"
		}
	case draft.Submitted:
		v.Status = "submitted"
	case draft.Scored:
		v.Status = "scored"
	}
	if l, ok := d.Lineup(); ok {
		v.Lineup = &l
	}
	if sum, ok := d.Summary(); ok {
		v.Summary = &sum
	}
	return v
}

// rejection names a builder or submission error for metrics.
func rejection(err error) string {
	switch {
	case errors.Is(err, draft.ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, draft.ErrDuplicateMember):
		return "duplicate_member"
	case errors.Is(err, draft.ErrNotAMember):
		return "not_a_member"
	case errors.Is(err, draft.ErrCaptainAlreadySet):
		return "captain_already_set"
	case errors.Is(err, draft.ErrDraftClosed):
		return "draft_closed"
	case errors.Is(err, draft.ErrIncompleteRoster):
		return "incomplete_roster"
	case errors.Is(err, draft.ErrNoCaptain):
		return "no_captain"
	case errors.Is(err, draft.ErrOverCap):
		return "over_cap"
	case errors.Is(err, draft.ErrInvalidUsername):
		return "invalid_username"
	default:
		return "other"
	}
}

// CreateDraft opens a new session holding an empty draft.
func (s *Service) CreateDraft(ctx context.Context) DraftView {
	sess := s.sessions.create()
	metrics.RecordDraftCreated()
	metrics.UpdateDraftsActive(s.sessions.len())

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.view(sess)
}

// Draft returns the current view of a session's draft.
func (s *Service) Draft(_ context.Context, sessionID string) (DraftView, error) {
	sess, err := s.sessions.get(sessionID)
	if err != nil {
		return DraftView{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.view(sess), nil
}

// mutate runs fn on the session's draft under its lock.
func (s *Service) mutate(sessionID, op string, fn func(d *draft.Draft) error) (DraftView, error) {
	sess, err := s.sessions.get(sessionID)
	if err != nil {
		return DraftView{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := fn(sess.draft); err != nil {
		metrics.RecordBuilderRejection(op, rejection(err))
		return DraftView{}, err
	}
	return s.view(sess), nil
}

func (s *Service) withContestant(sessionID, op string, id model.ContestantID, fn func(d *draft.Draft, c model.Contestant) error) (DraftView, error) {
	c, err := s.catalog.Get(id)
	if err != nil {
		metrics.RecordBuilderRejection(op, "unknown_contestant")
		return DraftView{}, err
	}
	return s.mutate(sessionID, op, func(d *draft.Draft) error { return fn(d, c) })
}

// AddFlex adds a contestant at 1× cost and score.
func (s *Service) AddFlex(_ context.Context, sessionID string, id model.ContestantID) (DraftView, error) {
	return s.withContestant(sessionID, "add_flex", id, (*draft.Draft).AddFlex)
}

// AddCaptain adds a contestant as captain.
func (s *Service) AddCaptain(_ context.Context, sessionID string, id model.ContestantID) (DraftView, error) {
	return s.withContestant(sessionID, "add_captain", id, (*draft.Draft).AddCaptain)
}

// RemoveMember drops a contestant from the draft.
func (s *Service) RemoveMember(_ context.Context, sessionID string, id model.ContestantID) (DraftView, error) {
	return s.mutate(sessionID, "remove", func(d *draft.Draft) error { return d.Remove(id) })
}

// PromoteToCaptain makes an existing member the captain.
func (s *Service) PromoteToCaptain(_ context.Context, sessionID string, id model.ContestantID) (DraftView, error) {
	return s.mutate(sessionID, "promote", func(d *draft.Draft) error { return d.PromoteToCaptain(id) })
}

// ResetDraft replaces the session's draft with an empty one, e.g. to build
// another lineup after submitting.
func (s *Service) ResetDraft(ctx context.Context, sessionID string) (DraftView, error) {
	sess, err := s.sessions.get(sessionID)
	if err != nil {
		return DraftView{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.draft = draft.New()
	s.logger.Debug(ctx, "draft reset", logger.String("session", sessionID))
	return s.view(sess), nil
}

// Submit validates the draft and persists it under the normalized username.
// The draft only closes once the write succeeded, so a storage failure can
// be retried.
func (s *Service) Submit(ctx context.Context, sessionID, username string) (model.SubmittedLineup, error) {
	sess, err := s.sessions.get(sessionID)
	if err != nil {
		return model.SubmittedLineup{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	lineup, err := sess.draft.Prepare(username, s.salaryCap, s.now())
	if err != nil {
		metrics.RecordSubmission(rejection(err))
		return model.SubmittedLineup{}, err
	}
	if s.lineups == nil {
		return model.SubmittedLineup{}, ErrNoStore
	}
	if err := s.lineups.Write(ctx, lineup); err != nil {
		metrics.RecordSubmission("store_error")
		s.logger.Error(ctx, "lineup write failed",
			logger.String("key", lineup.Key),
			logger.Error(err),
		)
		return model.SubmittedLineup{}, fmt.Errorf("save lineup for %s: %w", lineup.Key, err)
	}
	if err := sess.draft.Accept(lineup); err != nil {
		return model.SubmittedLineup{}, err
	}
	s.sessions.bind(lineup.ID, sess.id)

	metrics.RecordSubmission("accepted")
	s.logger.Info(ctx, "lineup submitted",
		logger.String("username", lineup.Username),
		logger.String("key", lineup.Key),
		logger.Int("total_cost", lineup.TotalCost),
		logger.String("captain", lineup.CaptainID.String()),
	)
	return lineup, nil
}

