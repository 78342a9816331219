// Package model contains domain models passed between layers.
package model

import "strconv"

// ContestantID identifies a contestant in the catalog.
type ContestantID int

func (id ContestantID) String() string { return strconv.Itoa(int(id)) }

// Contestant is a draftable entity. Values are immutable once the catalog is
// loaded.
type Contestant struct {
	ID          ContestantID `json:"id" yaml:"id"`
	Name        string       `json:"name" yaml:"name"`
	Salary      int          `json:"salary" yaml:"salary"`
	Team        string       `json:"team,omitempty" yaml:"team,omitempty"`
	Rating      float64      `json:"rating,omitempty" yaml:"rating,omitempty"` // 0..10, 0 = unrated
	StatSummary string       `json:"stat_summary,omitempty" yaml:"stat_summary,omitempty"`
}

// Slot is the roster position a member occupies.
type Slot string

const (
	SlotFlex    Slot = "flex"
	SlotCaptain Slot = "captain"
)

// Role is the display label used in listings and exports.
func (s Slot) Role() string {
	if s == SlotCaptain {
		return "Captain"
	}
	return "Flex"
}

// Multiplier is applied to a member's base score.
func (s Slot) Multiplier() float64 {
	if s == SlotCaptain {
		return 1.5
	}
	return 1.0
}

// Cost returns what a contestant of the given salary costs in this slot.
// The captain surcharge truncates: salary*3/2.
func (s Slot) Cost(salary int) int {
	if s == SlotCaptain {
		return salary * 3 / 2
	}
	return salary
}

// Member is one roster entry.
type Member struct {
	Contestant Contestant `json:"contestant"`
	Slot       Slot       `json:"slot"`
}

// Cost is the member's salary after the slot surcharge.
func (m Member) Cost() int { return m.Slot.Cost(m.Contestant.Salary) }
