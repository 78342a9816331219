package standings

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func entry(key string, total float64) Entry {
	return Entry{Key: key, Username: key, Total: total, ResultsID: "r1"}
}

func keys(es []Entry) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Key
	}
	return out
}

func TestTreapStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given standings for results r1", t, func() {
		s := NewTreapStore()
		s.Reset(ctx, "r1")

		Convey("When lineups are scored", func() {
			So(s.Upsert(ctx, entry("spartan", 412.5)), ShouldBeTrue)
			So(s.Upsert(ctx, entry("chezze", 512)), ShouldBeTrue)
			So(s.Upsert(ctx, entry("awe419", 412.5)), ShouldBeTrue)
			So(s.Upsert(ctx, entry("in3us", 300)), ShouldBeTrue)

			Convey("Then TopN orders by total desc then key asc with shared ranks", func() {
				top, err := s.TopN(ctx, 10)
				So(err, ShouldBeNil)
				So(keys(top), ShouldResemble, []string{"chezze", "awe419", "spartan", "in3us"})
				So(top[0].Rank, ShouldEqual, 1)
				So(top[1].Rank, ShouldEqual, 2)
				So(top[2].Rank, ShouldEqual, 2)
				So(top[3].Rank, ShouldEqual, 3)
			})

			Convey("Then TopN respects the limit", func() {
				top, err := s.TopN(ctx, 2)
				So(err, ShouldBeNil)
				So(keys(top), ShouldResemble, []string{"chezze", "awe419"})
			})

			Convey("Then Rank finds a single entry", func() {
				e, err := s.Rank(ctx, "spartan")
				So(err, ShouldBeNil)
				So(e.Rank, ShouldEqual, 2)
				So(e.Total, ShouldEqual, 412.5)
			})

			Convey("Then a rescore replaces the previous total", func() {
				So(s.Upsert(ctx, entry("in3us", 600)), ShouldBeTrue)
				e, err := s.Rank(ctx, "in3us")
				So(err, ShouldBeNil)
				So(e.Rank, ShouldEqual, 1)
				So(s.Count(ctx), ShouldEqual, 4)
			})

			Convey("Then removing an entry drops it from the ranking", func() {
				So(s.Remove(ctx, "chezze"), ShouldBeTrue)
				So(s.Remove(ctx, "chezze"), ShouldBeFalse)
				top, _ := s.TopN(ctx, 10)
				So(top[0].Rank, ShouldEqual, 1)
				So(top[0].Key, ShouldEqual, "awe419")
			})

			Convey("Then entries for another results set are ignored", func() {
				stale := entry("bamntru", 999)
				stale.ResultsID = "r0"
				So(s.Upsert(ctx, stale), ShouldBeFalse)
				_, err := s.Rank(ctx, "bamntru")
				So(err, ShouldEqual, ErrNotFound)
			})

			Convey("Then a reset clears everything", func() {
				s.Reset(ctx, "r2")
				So(s.Count(ctx), ShouldEqual, 0)
				So(s.ResultsID(ctx), ShouldEqual, "r2")
			})
		})

		Convey("When totals differ only by float noise", func() {
			s.Upsert(ctx, entry("a", 0.1+0.2))
			s.Upsert(ctx, entry("b", 0.3))

			Convey("Then they tie", func() {
				top, _ := s.TopN(ctx, 2)
				So(top[0].Rank, ShouldEqual, top[1].Rank)
			})
		})

		Convey("When asking for an invalid limit", func() {
			_, err := s.TopN(ctx, 0)

			Convey("Then it is rejected", func() {
				So(err, ShouldEqual, ErrInvalidLimit)
			})
		})

		Convey("When many random totals are inserted and rescored", func() {
			rng := rand.New(rand.NewPCG(1, 2))
			want := map[string]Entry{}
			for i := 0; i < 500; i++ {
				k := fmt.Sprintf("user%03d", rng.IntN(200))
				e := entry(k, float64(rng.IntN(50))*2.5)
				s.Upsert(ctx, e)
				want[k] = e
			}

			Convey("Then the treap order matches a full sort", func() {
				expected := make([]Entry, 0, len(want))
				for _, e := range want {
					expected = append(expected, e)
				}
				sortEntries(expected)
				top, err := s.TopN(ctx, len(want))
				So(err, ShouldBeNil)
				So(keys(top), ShouldResemble, keys(expected))
				So(s.root.size, ShouldEqual, len(want))
			})
		})

		Convey("When scored concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					s.Upsert(ctx, entry(fmt.Sprintf("u%02d", i), float64(i)))
					_, _ = s.TopN(ctx, 5)
				}(i)
			}
			wg.Wait()

			Convey("Then every entry is present", func() {
				So(s.Count(ctx), ShouldEqual, 50)
				top, _ := s.TopN(ctx, 1)
				So(top[0].Key, ShouldEqual, "u49")
			})
		})
	})
}
