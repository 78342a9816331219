package model

import (
	"fmt"
	"time"
)

// RosterSize is the number of members a finalized lineup holds.
const RosterSize = 6

// SubmittedLineup is a finalized roster. It is created by the submission gate
// and never mutated afterwards.
type SubmittedLineup struct {
	ID        string       `json:"id"`
	Username  string       `json:"username"`
	Key       string       `json:"key"`
	EnteredAt time.Time    `json:"entry_time"`
	Members   []Member     `json:"lineup"`
	CaptainID ContestantID `json:"captain_id"`
	TotalCost int          `json:"total_cost"`
	SalaryCap int          `json:"salary_cap"`
}

// Captain returns the captain member.
func (l SubmittedLineup) Captain() (Member, bool) {
	for _, m := range l.Members {
		if m.Contestant.ID == l.CaptainID && m.Slot == SlotCaptain {
			return m, true
		}
	}
	return Member{}, false
}

// Validate checks the structural shape of a lineup read back from storage.
func (l SubmittedLineup) Validate() error {
	if l.Key == "" || l.Username == "" {
		return fmt.Errorf("%w: missing username", ErrMalformedLineup)
	}
	if len(l.Members) != RosterSize {
		return fmt.Errorf("%w: %d members", ErrMalformedLineup, len(l.Members))
	}
	seen := make(map[ContestantID]struct{}, len(l.Members))
	captains := 0
	total := 0
	for _, m := range l.Members {
		if _, dup := seen[m.Contestant.ID]; dup {
			return fmt.Errorf("%w: duplicate contestant %d", ErrMalformedLineup, m.Contestant.ID)
		}
		seen[m.Contestant.ID] = struct{}{}
		switch m.Slot {
		case SlotCaptain:
			captains++
		case SlotFlex:
		default:
			return fmt.Errorf("%w: unknown slot %q", ErrMalformedLineup, m.Slot)
		}
		total += m.Cost()
	}
	if captains != 1 {
		return fmt.Errorf("%w: %d captains", ErrMalformedLineup, captains)
	}
	if _, ok := l.Captain(); !ok {
		return fmt.Errorf("%w: captain %d is not a member", ErrMalformedLineup, l.CaptainID)
	}
	if total != l.TotalCost {
		return fmt.Errorf("%w: total cost %d does not match members (%d)", ErrMalformedLineup, l.TotalCost, total)
	}
	return nil
}
