package draft

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/dawgbowl/internal/domain/model"
)

func contestant(id, salary int) model.Contestant {
	return model.Contestant{ID: model.ContestantID(id), Name: "c" + model.ContestantID(id).String(), Salary: salary}
}

// fullDraft builds a six member draft: captain id 1 at capSalary, flex 2..6 at flexSalary.
func fullDraft(capSalary, flexSalary int) *Draft {
	d := New()
	So(d.AddCaptain(contestant(1, capSalary)), ShouldBeNil)
	for i := 2; i <= 6; i++ {
		So(d.AddFlex(contestant(i, flexSalary)), ShouldBeNil)
	}
	return d
}

func snapshot(d *Draft) ([]model.Member, *model.ContestantID) {
	var c *model.ContestantID
	if id, ok := d.Captain(); ok {
		c = &id
	}
	return d.Members(), c
}

func TestRosterBuilder(t *testing.T) {
	Convey("Given an empty draft", t, func() {
		d := New()

		Convey("When adding flex members", func() {
			So(d.AddFlex(contestant(1, 5000)), ShouldBeNil)
			So(d.AddFlex(contestant(2, 6000)), ShouldBeNil)

			Convey("Then they appear in insertion order without a captain", func() {
				ms := d.Members()
				So(len(ms), ShouldEqual, 2)
				So(ms[0].Contestant.ID, ShouldEqual, model.ContestantID(1))
				So(ms[1].Slot, ShouldEqual, model.SlotFlex)
				_, ok := d.Captain()
				So(ok, ShouldBeFalse)
			})

			Convey("Then adding the same contestant again is a duplicate", func() {
				before, _ := snapshot(d)
				err := d.AddFlex(contestant(1, 5000))
				So(errors.Is(err, ErrDuplicateMember), ShouldBeTrue)
				after, _ := snapshot(d)
				So(after, ShouldResemble, before)
			})

			Convey("Then adding an existing member as captain is also a duplicate", func() {
				So(errors.Is(d.AddCaptain(contestant(2, 6000)), ErrDuplicateMember), ShouldBeTrue)
				_, ok := d.Captain()
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When a captain is added", func() {
			So(d.AddCaptain(contestant(7, 9000)), ShouldBeNil)

			Convey("Then the captain reference is set", func() {
				id, ok := d.Captain()
				So(ok, ShouldBeTrue)
				So(id, ShouldEqual, model.ContestantID(7))
			})

			Convey("Then a second captain is rejected without mutation", func() {
				before, beforeCap := snapshot(d)
				err := d.AddCaptain(contestant(8, 5000))
				So(errors.Is(err, ErrCaptainAlreadySet), ShouldBeTrue)
				after, afterCap := snapshot(d)
				So(after, ShouldResemble, before)
				So(*afterCap, ShouldEqual, *beforeCap)
			})

			Convey("Then removing the captain clears the reference", func() {
				So(d.Remove(7), ShouldBeNil)
				_, ok := d.Captain()
				So(ok, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When removing a contestant that is not a member", func() {
			err := d.Remove(42)

			Convey("Then it fails with NotAMember", func() {
				So(errors.Is(err, ErrNotAMember), ShouldBeTrue)
			})
		})

		Convey("When promoting a contestant that is not a member", func() {
			err := d.PromoteToCaptain(42)

			Convey("Then it fails with NotAMember", func() {
				So(errors.Is(err, ErrNotAMember), ShouldBeTrue)
			})
		})
	})

	Convey("Given a full draft", t, func() {
		d := fullDraft(10000, 5000)

		Convey("When adding a seventh member", func() {
			before, _ := snapshot(d)
			errFlex := d.AddFlex(contestant(7, 1000))
			errCap := d.AddCaptain(contestant(8, 1000))

			Convey("Then both are rejected and the roster is unchanged", func() {
				So(errors.Is(errFlex, ErrCapacityExceeded), ShouldBeTrue)
				So(errors.Is(errCap, ErrCapacityExceeded), ShouldBeTrue)
				after, _ := snapshot(d)
				So(after, ShouldResemble, before)
			})
		})

		Convey("When promoting a flex member", func() {
			So(d.PromoteToCaptain(3), ShouldBeNil)

			Convey("Then the old captain is demoted to flex", func() {
				id, _ := d.Captain()
				So(id, ShouldEqual, model.ContestantID(3))
				ms := d.Members()
				So(ms[0].Slot, ShouldEqual, model.SlotFlex)
				So(ms[2].Slot, ShouldEqual, model.SlotCaptain)
				So(d.TotalCost(), ShouldEqual, 10000+5000*3/2+5000*4)
			})
		})

		Convey("When promoting the current captain twice", func() {
			before, beforeCap := snapshot(d)
			So(d.PromoteToCaptain(1), ShouldBeNil)
			So(d.PromoteToCaptain(1), ShouldBeNil)

			Convey("Then the draft is unchanged", func() {
				after, afterCap := snapshot(d)
				So(after, ShouldResemble, before)
				So(*afterCap, ShouldEqual, *beforeCap)
			})
		})
	})
}

func TestSalaryEvaluator(t *testing.T) {
	Convey("Given a captain at 10000 and five flex at 5000", t, func() {
		d := fullDraft(10000, 5000)

		Convey("Then total cost is 10000*1.5 + 5000*5", func() {
			So(d.TotalCost(), ShouldEqual, 40000)
			So(d.TotalCost(), ShouldEqual, 40000)
			So(d.Remaining(50000), ShouldEqual, 10000)
			So(d.Remaining(35000), ShouldEqual, -5000)
		})

		Convey("Then cost does not depend on member order", func() {
			ms := d.Members()
			reversed := make([]model.Member, len(ms))
			for i, m := range ms {
				reversed[len(ms)-1-i] = m
			}
			So(TotalCost(reversed), ShouldEqual, d.TotalCost())
		})

		Convey("Then the cap is not enforced while building", func() {
			So(d.Remove(6), ShouldBeNil)
			So(d.AddFlex(contestant(9, 40000)), ShouldBeNil)
			So(d.Remaining(50000), ShouldBeLessThan, 0)
		})
	})

	Convey("Given a captain with an odd salary", t, func() {
		d := New()
		So(d.AddCaptain(contestant(1, 7501)), ShouldBeNil)

		Convey("Then the surcharge truncates", func() {
			So(d.TotalCost(), ShouldEqual, 11251)
		})
	})
}

func TestSubmissionGate(t *testing.T) {
	now := time.Date(2026, 3, 14, 18, 30, 0, 0, time.FixedZone("EST", -5*3600))

	Convey("Given a five member draft that is also over the cap", t, func() {
		d := New()
		So(d.AddCaptain(contestant(1, 30000)), ShouldBeNil)
		for i := 2; i <= 5; i++ {
			So(d.AddFlex(contestant(i, 9000)), ShouldBeNil)
		}

		Convey("When submitting", func() {
			_, err := d.Submit("spartan", 50000, now)

			Convey("Then incompleteness is reported first", func() {
				So(errors.Is(err, ErrIncompleteRoster), ShouldBeTrue)
				So(errors.Is(err, ErrOverCap), ShouldBeFalse)
				So(err.Error(), ShouldContainSubstring, "need 1 more members")
				So(d.State(), ShouldEqual, Building)
				So(d.IsSubmittable(50000), ShouldBeFalse)
			})
		})
	})

	Convey("Given six members without a captain", t, func() {
		d := New()
		for i := 1; i <= 6; i++ {
			So(d.AddFlex(contestant(i, 20000)), ShouldBeNil)
		}

		Convey("Then the missing captain is reported before the cap", func() {
			_, err := d.Submit("spartan", 50000, now)
			So(errors.Is(err, ErrNoCaptain), ShouldBeTrue)
		})
	})

	Convey("Given a complete draft over the cap", t, func() {
		d := fullDraft(10000, 5000)

		Convey("Then submit fails with the overage", func() {
			_, err := d.Submit("spartan", 39000, now)
			So(errors.Is(err, ErrOverCap), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "over cap by $1000")
			So(d.IsSubmittable(39000), ShouldBeFalse)
		})

		Convey("Then a cap equal to the cost is accepted", func() {
			So(d.IsSubmittable(40000), ShouldBeTrue)
		})
	})

	Convey("Given a complete draft under the cap", t, func() {
		d := fullDraft(10000, 5000)

		Convey("When the username normalizes to nothing", func() {
			_, err := d.Submit("  ?! ", 50000, now)

			Convey("Then it is an invalid username and the draft stays open", func() {
				So(errors.Is(err, ErrInvalidUsername), ShouldBeTrue)
				So(d.State(), ShouldEqual, Building)
			})
		})

		Convey("When submitting with a valid username", func() {
			lineup, err := d.Submit(" Baby Stevie ", 50000, now)

			Convey("Then a finalized lineup is produced", func() {
				So(err, ShouldBeNil)
				So(lineup.ID, ShouldNotBeBlank)
				So(lineup.Username, ShouldEqual, "Baby Stevie")
				So(lineup.Key, ShouldEqual, "baby_stevie")
				So(lineup.CaptainID, ShouldEqual, model.ContestantID(1))
				So(lineup.TotalCost, ShouldEqual, 40000)
				So(lineup.SalaryCap, ShouldEqual, 50000)
				So(lineup.EnteredAt.Equal(now), ShouldBeTrue)
				So(lineup.EnteredAt.Location(), ShouldEqual, time.UTC)
				So(lineup.Validate(), ShouldBeNil)
			})

			Convey("Then the draft is closed to further changes", func() {
				So(d.State(), ShouldEqual, Submitted)
				So(errors.Is(d.AddFlex(contestant(9, 1)), ErrDraftClosed), ShouldBeTrue)
				So(errors.Is(d.Remove(2), ErrDraftClosed), ShouldBeTrue)
				So(errors.Is(d.PromoteToCaptain(2), ErrDraftClosed), ShouldBeTrue)
				_, again := d.Submit("other", 50000, now)
				So(errors.Is(again, ErrDraftClosed), ShouldBeTrue)
				stored, ok := d.Lineup()
				So(ok, ShouldBeTrue)
				So(stored.ID, ShouldEqual, lineup.ID)
			})

			Convey("Then the lineup does not alias the draft", func() {
				lineup.Members[0].Slot = model.SlotFlex
				stored, _ := d.Lineup()
				So(stored.Members[0].Slot, ShouldEqual, model.SlotCaptain)
			})

			Convey("Then recording a score moves it to Scored", func() {
				So(d.MarkScored(model.ScoreSummary{Total: 321}), ShouldBeNil)
				So(d.State(), ShouldEqual, Scored)
				s, ok := d.Summary()
				So(ok, ShouldBeTrue)
				So(s.Total, ShouldEqual, 321)
			})

			Convey("Then a later round replaces the score", func() {
				So(d.MarkScored(model.ScoreSummary{Total: 321}), ShouldBeNil)
				So(d.MarkScored(model.ScoreSummary{Total: 162.5}), ShouldBeNil)
				So(d.State(), ShouldEqual, Scored)
				s, ok := d.Summary()
				So(ok, ShouldBeTrue)
				So(s.Total, ShouldEqual, 162.5)
			})
		})
	})

	Convey("Given a draft still being built", t, func() {
		d := New()

		Convey("Then it cannot be marked scored", func() {
			So(errors.Is(d.MarkScored(model.ScoreSummary{}), ErrDraftClosed), ShouldBeTrue)
		})
	})
}

func TestBuilderInvariantsUnderRandomOperations(t *testing.T) {
	Convey("Given random sequences of builder operations", t, func() {
		rng := rand.New(rand.NewPCG(7, 11))

		Convey("Then size never exceeds six and the captain is always a member", func() {
			for run := 0; run < 200; run++ {
				d := New()
				for step := 0; step < 40; step++ {
					id := rng.IntN(10) + 1
					c := contestant(id, 1000*(rng.IntN(10)+1))
					switch rng.IntN(4) {
					case 0:
						_ = d.AddFlex(c)
					case 1:
						_ = d.AddCaptain(c)
					case 2:
						_ = d.Remove(c.ID)
					case 3:
						_ = d.PromoteToCaptain(c.ID)
					}

					So(d.Size(), ShouldBeLessThanOrEqualTo, model.RosterSize)
					captains := 0
					for _, m := range d.Members() {
						if m.Slot == model.SlotCaptain {
							captains++
						}
					}
					if id, ok := d.Captain(); ok {
						So(d.indexOf(id), ShouldBeGreaterThanOrEqualTo, 0)
						So(captains, ShouldEqual, 1)
					} else {
						So(captains, ShouldEqual, 0)
					}
					So(d.TotalCost(), ShouldEqual, TotalCost(d.Members()))
				}
			}
		})
	})
}

func TestPrepareAccept(t *testing.T) {
	now := time.Date(2026, 2, 8, 18, 0, 0, 0, time.UTC)

	Convey("Given a submittable draft", t, func() {
		d := fullDraft(10000, 5000)

		Convey("When a lineup is prepared", func() {
			lineup, err := d.Prepare("spartan", 50000, now)

			Convey("Then the draft stays open until it is accepted", func() {
				So(err, ShouldBeNil)
				So(lineup.Key, ShouldEqual, "spartan")
				So(d.State(), ShouldEqual, Building)
				_, ok := d.Lineup()
				So(ok, ShouldBeFalse)

				So(d.Accept(lineup), ShouldBeNil)
				So(d.State(), ShouldEqual, Submitted)
				So(errors.Is(d.Accept(lineup), ErrDraftClosed), ShouldBeTrue)
			})
		})
	})

	Convey("Given an incomplete draft", t, func() {
		d := New()
		So(d.AddCaptain(contestant(1, 9000)), ShouldBeNil)

		Convey("Then Prepare applies the submission checks", func() {
			_, err := d.Prepare("spartan", 50000, now)
			So(errors.Is(err, ErrIncompleteRoster), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "need 5 more members")
		})
	})
}
