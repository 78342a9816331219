package api

import (
	"errors"
	"net/http"

	"github.com/okian/dawgbowl/internal/adapters/standings"
	"github.com/okian/dawgbowl/internal/adapters/store"
	service "github.com/okian/dawgbowl/internal/app"
	"github.com/okian/dawgbowl/internal/domain/catalog"
	"github.com/okian/dawgbowl/internal/domain/draft"
	"github.com/okian/dawgbowl/internal/domain/outcome"
	"github.com/okian/dawgbowl/internal/domain/scoring"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrUnauthorized  = errors.New("admin secret missing or wrong")
	ErrAdminDisabled = errors.New("admin endpoints are disabled")
	ErrRateLimited   = errors.New("too many submissions, slow down")
)

type errorClass struct {
	target error
	status int
	code   string
}

// classes is checked in order; the first match wins.
var classes = []errorClass{
	{ErrBadRequest, http.StatusBadRequest, "bad_request"},
	{ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{ErrAdminDisabled, http.StatusForbidden, "admin_disabled"},
	{ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},

	{service.ErrSessionNotFound, http.StatusNotFound, "session_not_found"},
	{catalog.ErrUnknownContestant, http.StatusNotFound, "unknown_contestant"},
	{catalog.ErrUnknownSort, http.StatusBadRequest, "unknown_sort"},

	{draft.ErrCapacityExceeded, http.StatusConflict, "roster_full"},
	{draft.ErrDuplicateMember, http.StatusConflict, "duplicate_member"},
	{draft.ErrNotAMember, http.StatusNotFound, "not_a_member"},
	{draft.ErrCaptainAlreadySet, http.StatusConflict, "captain_already_set"},
	{draft.ErrDraftClosed, http.StatusConflict, "draft_closed"},
	{draft.ErrIncompleteRoster, http.StatusUnprocessableEntity, "incomplete_roster"},
	{draft.ErrNoCaptain, http.StatusUnprocessableEntity, "no_captain"},
	{draft.ErrOverCap, http.StatusUnprocessableEntity, "over_cap"},
	{draft.ErrInvalidUsername, http.StatusUnprocessableEntity, "invalid_username"},

	{scoring.ErrInvalidOutcome, http.StatusUnprocessableEntity, "invalid_outcome"},
	{scoring.ErrUnsupportedOutcome, http.StatusUnprocessableEntity, "unsupported_outcome"},
	{outcome.ErrUnsupportedKind, http.StatusUnprocessableEntity, "unsupported_outcome"},
	{service.ErrNoOutcomes, http.StatusBadRequest, "no_outcomes"},
	{service.ErrUnknownFormat, http.StatusBadRequest, "unknown_format"},

	{service.ErrNoRound, http.StatusNotFound, "no_results"},
	{service.ErrNoLineups, http.StatusNotFound, "no_lineups"},
	{standings.ErrNotFound, http.StatusNotFound, "not_ranked"},
	{standings.ErrInvalidLimit, http.StatusBadRequest, "invalid_limit"},
	{store.ErrNotFound, http.StatusNotFound, "lineup_not_found"},
	{store.ErrInvalidKey, http.StatusBadRequest, "invalid_key"},

	{store.ErrStorageUnavailable, http.StatusServiceUnavailable, "storage_unavailable"},
	{service.ErrNotStarted, http.StatusServiceUnavailable, "not_started"},
	{service.ErrNoStore, http.StatusServiceUnavailable, "no_store"},
}

// classify returns the status and machine-readable code for err. Unknown
// errors are internal.
func classify(err error) (int, string) {
	for _, c := range classes {
		if errors.Is(err, c.target) {
			return c.status, c.code
		}
	}
	return http.StatusInternalServerError, "internal"
}
