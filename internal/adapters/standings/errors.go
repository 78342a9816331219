package standings

import "errors"

// Sentinel kinds for standings errors.
var (
	ErrNotFound     = errors.New("lineup not in standings")
	ErrInvalidLimit = errors.New("invalid standings limit")
)
