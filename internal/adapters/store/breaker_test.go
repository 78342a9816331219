package store

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/dawgbowl/internal/domain/model"
	"github.com/okian/dawgbowl/pkg/logger"
)

// flakyStore fails every call with err and counts calls.
type flakyStore struct {
	err   error
	calls int
}

func (f *flakyStore) Write(context.Context, model.SubmittedLineup) error { f.calls++; return f.err }
func (f *flakyStore) Get(context.Context, string) (model.SubmittedLineup, error) {
	f.calls++
	return model.SubmittedLineup{}, f.err
}
func (f *flakyStore) ListAll(context.Context) (Listing, error) { f.calls++; return Listing{}, f.err }
func (f *flakyStore) Delete(context.Context, string) error    { f.calls++; return f.err }

func TestBreaker(t *testing.T) {
	ctx := context.Background()

	Convey("Given a breaker over a failing backend", t, func() {
		backend := &flakyStore{err: errors.New("dial tcp: connection refused")}
		b := NewBreaker("redis-test", backend, WithTripAfter(3), WithOpenTimeout(time.Minute))

		Convey("When failures reach the threshold", func() {
			for i := 0; i < 3; i++ {
				_, _ = b.ListAll(ctx)
			}
			err := b.Write(ctx, sampleLineup("spartan", time.Now()))

			Convey("Then further calls fail fast without reaching the backend", func() {
				So(errors.Is(err, ErrStorageUnavailable), ShouldBeTrue)
				So(backend.calls, ShouldEqual, 3)
				So(b.State(), ShouldEqual, "open")
			})
		})
	})

	Convey("Given a breaker over a backend that only reports missing keys", t, func() {
		backend := &flakyStore{err: ErrNotFound}
		b := NewBreaker("redis-notfound", backend, WithTripAfter(2))

		Convey("When many lookups miss", func() {
			for i := 0; i < 5; i++ {
				_, err := b.Get(ctx, "ghost")
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			}

			Convey("Then the breaker stays closed", func() {
				So(backend.calls, ShouldEqual, 5)
				So(b.State(), ShouldEqual, "closed")
			})
		})
	})
}

func TestObserved(t *testing.T) {
	ctx := context.Background()

	Convey("Given an observed file store", t, func() {
		So(logger.Init(), ShouldBeNil)
		fs, err := NewFileStore(t.TempDir())
		So(err, ShouldBeNil)
		o := NewObserved("file", fs, logger.Get())

		Convey("Then calls pass through unchanged", func() {
			l := sampleLineup("spartan", time.Now())
			So(o.Write(ctx, l), ShouldBeNil)
			got, err := o.Get(ctx, "spartan")
			So(err, ShouldBeNil)
			So(got.ID, ShouldEqual, l.ID)
			listing, err := o.ListAll(ctx)
			So(err, ShouldBeNil)
			So(len(listing.Lineups), ShouldEqual, 1)
			So(o.Delete(ctx, "spartan"), ShouldBeNil)
			So(errors.Is(o.Delete(ctx, "spartan"), ErrNotFound), ShouldBeTrue)
		})

		Convey("Then a store without a breaker reports none", func() {
			So(o.State(), ShouldEqual, "none")
			So(NewObserved("redis", NewBreaker("redis", fs), logger.Get()).State(), ShouldEqual, "closed")
		})
	})
}
