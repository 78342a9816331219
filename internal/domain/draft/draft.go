// Package draft implements the roster builder, salary evaluation and the
// submission gate for a single user's lineup.
//
// A Draft is owned by one session and is not safe for concurrent use.
package draft

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/dawgbowl/internal/domain/model"
)

// State is the lifecycle stage of a draft.
type State int

const (
	Building State = iota
	Submitted
	Scored
)

func (s State) String() string {
	switch s {
	case Building:
		return "building"
	case Submitted:
		return "submitted"
	case Scored:
		return "scored"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Draft is an in-progress roster.
type Draft struct {
	members   []model.Member
	captain   *model.ContestantID
	state     State
	submitted *model.SubmittedLineup
	summary   *model.ScoreSummary
}

// New returns an empty draft in the Building state.
func New() *Draft {
	return &Draft{members: make([]model.Member, 0, model.RosterSize)}
}

// State reports the lifecycle stage.
func (d *Draft) State() State { return d.state }

// Size is the number of members.
func (d *Draft) Size() int { return len(d.members) }

// Members returns a copy of the roster in insertion order.
func (d *Draft) Members() []model.Member { return slices.Clone(d.members) }

// Captain returns the captain id, if one is set.
func (d *Draft) Captain() (model.ContestantID, bool) {
	if d.captain == nil {
		return 0, false
	}
	return *d.captain, true
}

// Lineup returns the finalized lineup once the draft has been submitted.
func (d *Draft) Lineup() (model.SubmittedLineup, bool) {
	if d.submitted == nil {
		return model.SubmittedLineup{}, false
	}
	l := *d.submitted
	l.Members = slices.Clone(l.Members)
	return l, true
}

// Summary returns the recorded score once the draft has been scored.
func (d *Draft) Summary() (model.ScoreSummary, bool) {
	if d.summary == nil {
		return model.ScoreSummary{}, false
	}
	return *d.summary, true
}

func (d *Draft) indexOf(id model.ContestantID) int {
	return slices.IndexFunc(d.members, func(m model.Member) bool { return m.Contestant.ID == id })
}

func (d *Draft) checkOpen() error {
	if d.state != Building {
		return fmt.Errorf("%w: draft is %s", ErrDraftClosed, d.state)
	}
	return nil
}

func (d *Draft) checkAddable(c model.Contestant) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	if len(d.members) >= model.RosterSize {
		return fmt.Errorf("%w: already has %d members", ErrCapacityExceeded, model.RosterSize)
	}
	if d.indexOf(c.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateMember, c.Name)
	}
	return nil
}

// AddFlex appends a contestant in a flex slot.
func (d *Draft) AddFlex(c model.Contestant) error {
	if err := d.checkAddable(c); err != nil {
		return err
	}
	d.members = append(d.members, model.Member{Contestant: c, Slot: model.SlotFlex})
	return nil
}

// AddCaptain appends a contestant as captain. A draft that already has a
// captain rejects the call; use PromoteToCaptain to change captains.
func (d *Draft) AddCaptain(c model.Contestant) error {
	if err := d.checkAddable(c); err != nil {
		return err
	}
	if d.captain != nil {
		return fmt.Errorf("%w: %s is captain", ErrCaptainAlreadySet, d.members[d.indexOf(*d.captain)].Contestant.Name)
	}
	d.members = append(d.members, model.Member{Contestant: c, Slot: model.SlotCaptain})
	id := c.ID
	d.captain = &id
	return nil
}

// Remove drops a member. Removing the captain leaves the draft without one.
func (d *Draft) Remove(id model.ContestantID) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	i := d.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrNotAMember, id)
	}
	d.members = slices.Delete(d.members, i, i+1)
	if d.captain != nil && *d.captain == id {
		d.captain = nil
	}
	return nil
}

// PromoteToCaptain makes an existing member captain and demotes the previous
// captain to flex. Promoting the current captain is a no-op.
func (d *Draft) PromoteToCaptain(id model.ContestantID) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	i := d.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrNotAMember, id)
	}
	if d.captain != nil {
		if *d.captain == id {
			return nil
		}
		d.members[d.indexOf(*d.captain)].Slot = model.SlotFlex
	}
	d.members[i].Slot = model.SlotCaptain
	d.captain = &id
	return nil
}

// TotalCost sums member costs with the captain surcharge applied.
func (d *Draft) TotalCost() int {
	return TotalCost(d.members)
}

// Remaining is cap minus total cost. Negative means over the cap.
func (d *Draft) Remaining(salaryCap int) int {
	return salaryCap - d.TotalCost()
}

// TotalCost sums the cost of members, recomputed from scratch.
func TotalCost(members []model.Member) int {
	total := 0
	for _, m := range members {
		total += m.Cost()
	}
	return total
}

// IsSubmittable reports whether Submit would pass its roster checks.
func (d *Draft) IsSubmittable(salaryCap int) bool {
	return d.state == Building && d.check(salaryCap) == nil
}

// Problem returns the first unmet submission condition, or nil.
func (d *Draft) Problem(salaryCap int) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	return d.check(salaryCap)
}

// check runs the roster conditions in their fixed order: size, captain, cap.
func (d *Draft) check(salaryCap int) error {
	if n := len(d.members); n != model.RosterSize {
		return fmt.Errorf("%w: need %d more members", ErrIncompleteRoster, model.RosterSize-n)
	}
	if d.captain == nil {
		return fmt.Errorf("%w: promote one member to captain", ErrNoCaptain)
	}
	if over := d.TotalCost() - salaryCap; over > 0 {
		return fmt.Errorf("%w: over cap by $%d", ErrOverCap, over)
	}
	return nil
}

// Submit finalizes the draft for username. The draft moves to Submitted and
// rejects further builder calls.
func (d *Draft) Submit(username string, salaryCap int, now time.Time) (model.SubmittedLineup, error) {
	lineup, err := d.Prepare(username, salaryCap, now)
	if err != nil {
		return model.SubmittedLineup{}, err
	}
	if err := d.Accept(lineup); err != nil {
		return model.SubmittedLineup{}, err
	}
	return lineup, nil
}

// Prepare runs the submission checks and builds the lineup Submit would
// return, leaving the draft open. Callers that persist before closing the
// draft pair it with Accept.
func (d *Draft) Prepare(username string, salaryCap int, now time.Time) (model.SubmittedLineup, error) {
	if err := d.Problem(salaryCap); err != nil {
		return model.SubmittedLineup{}, err
	}
	key, err := model.NormalizeUsername(username)
	if err != nil {
		return model.SubmittedLineup{}, err
	}

	return model.SubmittedLineup{
		ID:        uuid.NewString(),
		Username:  strings.TrimSpace(username),
		Key:       key,
		EnteredAt: now.UTC(),
		Members:   slices.Clone(d.members),
		CaptainID: *d.captain,
		TotalCost: d.TotalCost(),
		SalaryCap: salaryCap,
	}, nil
}

// Accept closes the draft with a lineup from Prepare.
func (d *Draft) Accept(lineup model.SubmittedLineup) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	lineup.Members = slices.Clone(lineup.Members)
	d.submitted = &lineup
	d.state = Submitted
	return nil
}

// MarkScored records the score for a submitted draft. A scored draft takes
// the summary of the newest round.
func (d *Draft) MarkScored(summary model.ScoreSummary) error {
	if d.state != Submitted && d.state != Scored {
		return fmt.Errorf("%w: draft is %s", ErrDraftClosed, d.state)
	}
	d.summary = &summary
	d.state = Scored
	return nil
}
