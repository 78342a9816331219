package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/dawgbowl/internal/adapters/http/api"
	"github.com/okian/dawgbowl/internal/adapters/store"
	service "github.com/okian/dawgbowl/internal/app"
	"github.com/okian/dawgbowl/internal/client"
	"github.com/okian/dawgbowl/internal/domain/model"
	"github.com/okian/dawgbowl/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newServer(t *testing.T) *httptest.Server {
	fs, err := store.NewFileStore(t.TempDir())
	So(err, ShouldBeNil)
	svc := service.New(service.WithLineupStore(fs), service.WithWorkerCount(2))
	So(svc.Start(context.Background()), ShouldBeNil)

	mux := http.NewServeMux()
	api.NewServer(svc, api.WithAdminSecret("secret")).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		_ = svc.Stop(context.Background())
	})
	return srv
}

func submit(ctx context.Context, c *client.Client, username string, captain model.ContestantID, flex ...model.ContestantID) model.SubmittedLineup {
	d, err := c.CreateDraft(ctx)
	So(err, ShouldBeNil)
	_, err = c.AddCaptain(ctx, d.SessionID, captain)
	So(err, ShouldBeNil)
	for _, id := range flex {
		_, err = c.AddFlex(ctx, d.SessionID, id)
		So(err, ShouldBeNil)
	}
	l, err := c.Submit(ctx, d.SessionID, username)
	So(err, ShouldBeNil)
	return l
}

func TestClient(t *testing.T) {
	Convey("Given a client for a running API", t, func() {
		srv := newServer(t)
		ctx := context.Background()
		c := client.New(srv.URL+"/", client.WithAdminSecret("secret"), client.WithTimeout(5*time.Second))

		Convey("Then the service is healthy and lists its pool", func() {
			So(c.Health(ctx), ShouldBeNil)
			capacity, pool, err := c.Contestants(ctx, "", "salary_asc")
			So(err, ShouldBeNil)
			So(capacity, ShouldEqual, 50000)
			So(len(pool), ShouldEqual, 22)
			So(pool[0].Salary, ShouldBeLessThanOrEqualTo, pool[1].Salary)
		})

		Convey("Then API errors carry status and code", func() {
			_, err := c.Draft(ctx, "missing")
			var apiErr *client.APIError
			So(errors.As(err, &apiErr), ShouldBeTrue)
			So(apiErr.Status, ShouldEqual, http.StatusNotFound)
			So(apiErr.Code, ShouldEqual, "session_not_found")
		})

		Convey("Then admin calls without the secret are refused", func() {
			anon := client.New(srv.URL)
			_, err := anon.Lineups(ctx)
			var apiErr *client.APIError
			So(errors.As(err, &apiErr), ShouldBeTrue)
			So(apiErr.Status, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("When two lineups are submitted", func() {
			submit(ctx, c, "Ann", 122, 102, 107, 110, 117, 121)
			submit(ctx, c, "Bo", 121, 102, 107, 110, 117, 122)

			Convey("Then both are listed", func() {
				listing, err := c.Lineups(ctx)
				So(err, ShouldBeNil)
				var keys []string
				for _, l := range listing.Lineups {
					keys = append(keys, l.Key)
				}
				So(cmp.Diff([]string{"ann", "bo"}, keys), ShouldBeEmpty)
			})

			Convey("Then the export keeps the server's file name", func() {
				name, data, err := c.Export(ctx, "csv")
				So(err, ShouldBeNil)
				So(name, ShouldStartWith, "dawg_bowl_lineups_")
				So(name, ShouldEndWith, ".csv")
				So(strings.Count(string(data), "\n"), ShouldEqual, 13)
			})

			Convey("When results are posted and scored", func() {
				outcomes := model.Outcomes{}
				for id := model.ContestantID(101); id <= 122; id++ {
					outcomes[id] = model.Points(10)
				}
				outcomes[122] = model.Points(40)

				r, err := c.PostResults(ctx, outcomes)
				So(err, ShouldBeNil)
				So(r.Queued, ShouldEqual, 2)

				waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
				defer cancel()
				r, err = c.WaitForRound(waitCtx, 20*time.Millisecond)
				So(err, ShouldBeNil)
				So(r.Scored, ShouldEqual, 2)

				Convey("Then the captain of the best scorer wins", func() {
					top, err := c.Standings(ctx, 10)
					So(err, ShouldBeNil)
					So(len(top), ShouldEqual, 2)
					So(top[0].Key, ShouldEqual, "ann")
					So(top[0].Total, ShouldEqual, 110)
					So(top[1].Total, ShouldEqual, 95)

					e, err := c.Standing(ctx, "Bo")
					So(err, ShouldBeNil)
					So(e.Rank, ShouldEqual, 2)
				})

				Convey("Then a deleted lineup drops out", func() {
					So(c.DeleteLineup(ctx, "ann"), ShouldBeNil)
					top, err := c.Standings(ctx, 10)
					So(err, ShouldBeNil)
					So(len(top), ShouldEqual, 1)
				})
			})
		})
	})
}
