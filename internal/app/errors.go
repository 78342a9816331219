package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrNoStore         = errors.New("lineup store not configured")
	ErrSessionNotFound = errors.New("draft session not found")
	ErrNoOutcomes      = errors.New("no outcomes given")
	ErrNoRound         = errors.New("no results posted yet")
	ErrNoLineups       = errors.New("no lineups to export")
	ErrUnknownFormat   = errors.New("unknown export format")
)
