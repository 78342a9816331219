package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then the draft metrics are registered under the dawgbowl namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.draftsCreated.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "dawgbowl_draft_drafts_created_total")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithMetricPrefix("test_prefix"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(10*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then names carry the prefix", func() {
				manager.lineupsScored.Inc()
				So(testutil.ToFloat64(manager.lineupsScored), ShouldEqual, 1)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_namespace_test_subsystem_test_prefix_lineups_scored_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When empty option values are given", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithHistogramBuckets(nil),
				WithRefreshInterval(0),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "dawgbowl")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
				So(manager.Enabled(), ShouldBeTrue)
			})
		})

		Convey("When recording is switched off by option", func() {
			manager := NewManager(
				WithMetricsEnabled(false),
				WithRefreshInterval(3*time.Second),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then the manager reports it", func() {
				So(manager.Enabled(), ShouldBeFalse)
				So(manager.RefreshInterval(), ShouldEqual, 3*time.Second)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics helpers", t, func() {
		Convey("When recording draft and submission metrics", func() {
			before := testutil.ToFloat64(globalManager.submissions.WithLabelValues("over_cap"))
			So(func() {
				RecordDraftCreated()
				UpdateDraftsActive(3)
				RecordBuilderRejection("add_flex", "roster_full")
				RecordSubmission("over_cap")
			}, ShouldNotPanic)

			Convey("Then the labelled counter moves", func() {
				So(testutil.ToFloat64(globalManager.submissions.WithLabelValues("over_cap")), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.draftsActive), ShouldEqual, 3)
			})
		})

		Convey("When recording scoring metrics", func() {
			So(func() {
				RecordLineupScored()
				RecordScoringError("missing_outcome")
				RecordScoringLatency(1.5)
				RecordScoringDuplicate()
				UpdateStandingsSize(12)
			}, ShouldNotPanic)

			Convey("Then the standings gauge is set", func() {
				So(testutil.ToFloat64(globalManager.standingsSize), ShouldEqual, 12)
			})
		})

		Convey("When recording store metrics", func() {
			So(func() {
				RecordStoreOperation("file", "write", "ok", 0.4)
				RecordStoreOperation("redis", "list", "error", 12)
				RecordStoreCorrupt(2)
				UpdateStoredLineups(7)
				UpdateBreakerState("redis", 2)
			}, ShouldNotPanic)

			Convey("Then the breaker gauge reports open", func() {
				So(testutil.ToFloat64(globalManager.breakerState.WithLabelValues("redis")), ShouldEqual, 2)
			})
		})

		Convey("When recording HTTP, queue, worker and system metrics", func() {
			So(func() {
				RecordHTTPRequest("/v1/drafts", "POST", "201")
				RecordHTTPRequestDuration("/v1/drafts", "POST", "201", 3.2)
				RecordHTTPRateLimited("/v1/drafts/submit")
				UpdateQueueSize(5)
				UpdateQueueCapacity(100)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError("full")
				UpdateWorkerCount(4)
				RecordWorkerProcessingLatency(2)
				RecordWorkerError()
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(42)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})

		Convey("When recording is disabled", func() {
			SetEnabled(false)
			defer SetEnabled(true)

			scored := testutil.ToFloat64(globalManager.lineupsScored)
			UpdateStandingsSize(99)
			standings := testutil.ToFloat64(globalManager.standingsSize)
			RecordLineupScored()
			UpdateStandingsSize(5)

			Convey("Then the helpers leave the collectors alone", func() {
				So(Enabled(), ShouldBeFalse)
				So(testutil.ToFloat64(globalManager.lineupsScored), ShouldEqual, scored)
				So(testutil.ToFloat64(globalManager.standingsSize), ShouldEqual, standings)
			})
		})

		Convey("When recording is enabled again", func() {
			SetEnabled(true)
			before := testutil.ToFloat64(globalManager.lineupsScored)
			RecordLineupScored()

			Convey("Then counters move and the refresh interval is the default", func() {
				So(testutil.ToFloat64(globalManager.lineupsScored), ShouldEqual, before+1)
				So(RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})

		Convey("When reading the registry", func() {
			Convey("Then it is the shared custom registry", func() {
				So(GetRegistry(), ShouldEqual, customRegistry)
			})
		})
	})
}
