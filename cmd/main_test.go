package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/dawgbowl/internal/adapters/store"
	service "github.com/okian/dawgbowl/internal/app"
	"github.com/okian/dawgbowl/internal/config"
	"github.com/okian/dawgbowl/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When configuration comes from the environment", func() {
			t.Setenv("DAWGBOWL_ADDR", ":8080")
			t.Setenv("DAWGBOWL_QUEUE_SIZE", "1000")
			t.Setenv("DAWGBOWL_WORKER_COUNT", "4")
			t.Setenv("DAWGBOWL_SALARY_CAP", "45000")

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
				convey.So(cfg.SalaryCap, convey.ShouldEqual, 45000)
			})
		})

		convey.Convey("When the configuration is invalid", func() {
			t.Setenv("DAWGBOWL_ADDR", "")

			convey.Convey("Then loading should fail", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestNewMux(t *testing.T) {
	convey.Convey("Given a started service", t, func() {
		ctx := context.Background()
		fs, err := store.NewFileStore(t.TempDir())
		convey.So(err, convey.ShouldBeNil)
		svc := service.New(service.WithLineupStore(fs), service.WithWorkerCount(1))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		cfg := config.New()
		cfg.AdminSecret = "secret"
		mux := newMux(ctx, cfg, svc)

		convey.Convey("Then every surface is routed", func() {
			for _, path := range []string{"/", "/healthz", "/metrics", "/api-docs", "/openapi.yaml", "/v1/contestants"} {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("Then admin routes honour the configured secret", func() {
			req := httptest.NewRequest(http.MethodGet, "/v1/admin/lineups", http.NoBody)
			req.Header.Set("X-Admin-Secret", "secret")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a file-backed configuration on a free port", t, func() {
		cfg := config.New()
		cfg.Addr = "127.0.0.1:0"
		cfg.LineupsDir = t.TempDir()
		cfg.WorkerCount = 1

		convey.Convey("When the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()

			convey.Convey("Then run shuts down cleanly", func() {
				convey.So(run(ctx, cfg, logger.Get()), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the catalog file is missing", func() {
			cfg.CatalogFile = t.TempDir() + "/missing.yaml"

			convey.Convey("Then run fails before serving", func() {
				convey.So(run(context.Background(), cfg, logger.Get()), convey.ShouldNotBeNil)
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When the system metrics updater runs until its context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() {
				startSystemMetricsUpdater(ctx)
			}, convey.ShouldNotPanic)
		})

		convey.Convey("When the service metrics updater runs until its context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() {
				startServiceMetricsUpdater(ctx, service.New(), 10*time.Millisecond)
			}, convey.ShouldNotPanic)
		})

		convey.Convey("When system metrics are updated", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("When service metrics are updated for a stopped service", func() {
			svc := service.New()
			convey.So(func() {
				updateServiceMetrics(svc)
			}, convey.ShouldNotPanic)
		})
	})
}
