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
			manager := NewManager(WithRegistry(registry))

			Convey("Then it should use the service namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "rendezvous")
				So(manager.subsystem, ShouldEqual, "discovery")
				So(manager.refreshInterval, ShouldEqual, defaultRefreshInterval)
				So(manager.latencyBuckets, ShouldResemble, DefaultLatencyBuckets)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithLatencyBuckets([]float64{0.1, 0.5, 1.0}),
				WithRecording(false),
				WithRefreshInterval(3*time.Second),
				WithConstLabels(map[string]string{"env": "test"}),
				WithRegistry(registry),
			)

			Convey("Then the options should be applied", func() {
				So(manager.namespace, ShouldEqual, "test_namespace")
				So(manager.subsystem, ShouldEqual, "test_subsystem")
				So(manager.latencyBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
				So(manager.enabled, ShouldBeFalse)
				So(manager.refreshInterval, ShouldEqual, 3*time.Second)
				So(manager.constLabels["env"], ShouldEqual, "test")
			})

			Convey("And metrics should be registered with the constant labels", func() {
				manager.historySize.Set(4)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_namespace_test_subsystem_history_size" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "test")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When registering twice on the same registry", func() {
			registry := prometheus.NewRegistry()
			_ = NewManager(WithRegistry(registry))

			Convey("Then promauto should panic on the duplicate", func() {
				So(func() { NewManager(WithRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording discovery metrics", func() {
			before := testutil.ToFloat64(globalManager.partnerSelections)
			RecordPartnerSelection()
			RecordPartnerSelection()

			Convey("Then the selection counter should advance", func() {
				So(testutil.ToFloat64(globalManager.partnerSelections), ShouldEqual, before+2)
			})
		})

		Convey("When updating gauges", func() {
			UpdateHistorySize(7)
			UpdateRosterSize(120)
			UpdateResolverQueueSize(3)
			UpdateResolverWorkers(2)

			Convey("Then the gauges should hold the latest values", func() {
				So(testutil.ToFloat64(globalManager.historySize), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.rosterSize), ShouldEqual, 120)
				So(testutil.ToFloat64(globalManager.resolverQueueSize), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.resolverWorkers), ShouldEqual, 2)
			})
		})

		Convey("When recording labelled counters", func() {
			before := testutil.ToFloat64(globalManager.navigationTransitions.WithLabelValues("toggle_history", "ranked_list", "history"))
			RecordNavigationTransition("toggle_history", "ranked_list", "history")
			RecordInvalidTransition("back", "ranked_list")
			RecordResolution("profile", "ready")
			RecordResolution("talking_points", "not_found")

			Convey("Then the labelled series should advance", func() {
				So(testutil.ToFloat64(globalManager.navigationTransitions.WithLabelValues("toggle_history", "ranked_list", "history")), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.resolutions.WithLabelValues("talking_points", "not_found")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording the remaining metrics", func() {
			So(func() {
				RecordLogin()
				RecordLogout()
				RecordPartnerSelectionMiss()
				RecordPartnersListed(12)
				RecordDatasetLoadLatency("roster", 3.5)
				RecordResolutionLatency(12.0)
				RecordResolutionDiscarded()
				RecordResolverQueueDropped()
				RecordHTTPRequest("partners", "GET", "200")
				RecordHTTPRequestDuration("partners", "GET", "200", 1.5)
				RecordErrorByComponent("repository", "data_unavailable")
				RecordErrorByType("not_found", "medium")
				RecordErrorByEndpoint("detail", "GET", "not_found")
			}, ShouldNotPanic)
			So(RefreshInterval(), ShouldEqual, defaultRefreshInterval)
		})

		Convey("Then the registry should be gatherable", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}

func TestConfigure(t *testing.T) {
	Convey("Given a configured global manager", t, func() {
		Configure(
			WithNamespace("conf"),
			WithLatencyBuckets([]float64{10, 100}),
			WithRefreshInterval(time.Second),
			WithConstLabels(map[string]string{"conference": "kdd"}),
		)

		Reset(func() {
			Configure()
		})

		Convey("When recording through the package functions", func() {
			RecordResolutionLatency(42)
			UpdateHistorySize(2)

			Convey("Then series land on the new registry with the new names", func() {
				So(RefreshInterval(), ShouldEqual, time.Second)
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				names := map[string]int{}
				for _, f := range families {
					names[f.GetName()] = len(f.GetMetric())
				}
				So(names, ShouldContainKey, "conf_discovery_history_size")
				So(names, ShouldContainKey, "conf_discovery_resolution_latency_milliseconds")
				So(names, ShouldNotContainKey, "rendezvous_discovery_history_size")
			})

			Convey("Then the histogram uses the configured buckets", func() {
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				for _, f := range families {
					if f.GetName() == "conf_discovery_resolution_latency_milliseconds" {
						So(len(f.GetMetric()[0].GetHistogram().GetBucket()), ShouldEqual, 2)
						So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "kdd")
					}
				}
			})
		})

		Convey("When recording is disabled", func() {
			Configure(WithRecording(false))
			RecordLogin()

			Convey("Then counters stay at zero", func() {
				So(testutil.ToFloat64(globalManager.logins), ShouldEqual, 0)
			})
		})
	})
}
