package draft

import (
	"errors"

	"github.com/okian/dawgbowl/internal/domain/model"
)

// Builder errors.
var (
	ErrCapacityExceeded  = errors.New("roster is full")
	ErrDuplicateMember   = errors.New("contestant already on roster")
	ErrNotAMember        = errors.New("contestant not on roster")
	ErrCaptainAlreadySet = errors.New("captain already set")
	ErrDraftClosed       = errors.New("draft is no longer open")
)

// Submission errors.
var (
	ErrIncompleteRoster = errors.New("incomplete roster")
	ErrNoCaptain        = errors.New("no captain selected")
	ErrOverCap          = errors.New("over salary cap")
	ErrInvalidUsername  = model.ErrInvalidUsername
)
