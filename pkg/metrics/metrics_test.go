package metrics

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should register under the default namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.predictionsTotal.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "t20_predictor_predictions_total")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("cricket"),
				WithSubsystem("live"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithConstLabels(map[string]string{"model": "rf-v3"}),
				WithPrometheusRegistry(registry),
			)
			manager.cacheHits.Inc()

			Convey("Then names and constant labels follow the options", func() {
				expected := `
# HELP cricket_live_prediction_cache_hits_total Predictions answered from cache
# TYPE cricket_live_prediction_cache_hits_total counter
cricket_live_prediction_cache_hits_total{model="rf-v3"} 1
`
				So(testutil.GatherAndCompare(registry, strings.NewReader(expected),
					"cricket_live_prediction_cache_hits_total"), ShouldBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global recorders", t, func() {
		Convey("When recording predictions", func() {
			before := testutil.ToFloat64(globalManager.predictionsTotal)
			RecordPrediction(168)
			RecordPrediction(151)

			Convey("Then the counter advances", func() {
				So(testutil.ToFloat64(globalManager.predictionsTotal)-before, ShouldEqual, 2.0)
			})
		})

		Convey("When recording unknown players by role", func() {
			before := testutil.ToFloat64(globalManager.unknownPlayerLookups.WithLabelValues("bowler"))
			RecordUnknownPlayer("bowler")

			Convey("Then only that role is counted", func() {
				So(testutil.ToFloat64(globalManager.unknownPlayerLookups.WithLabelValues("bowler"))-before, ShouldEqual, 1.0)
			})
		})

		Convey("When publishing breaker states", func() {
			So(UpdateBreakerState("open"), ShouldBeNil)
			So(testutil.ToFloat64(globalManager.breakerState), ShouldEqual, 2.0)
			So(UpdateBreakerState("half-open"), ShouldBeNil)
			So(testutil.ToFloat64(globalManager.breakerState), ShouldEqual, 1.0)
			So(UpdateBreakerState("closed"), ShouldBeNil)
			So(testutil.ToFloat64(globalManager.breakerState), ShouldEqual, 0.0)

			Convey("Then unknown states are rejected", func() {
				err := UpdateBreakerState("ajar")
				So(errors.Is(err, ErrUnknownBreakerState), ShouldBeTrue)
			})
		})

		Convey("When publishing reference data sizes", func() {
			UpdateReferenceData(412, 90311, 21)

			Convey("Then the gauges reflect them", func() {
				So(testutil.ToFloat64(globalManager.referencePlayers), ShouldEqual, 412.0)
				So(testutil.ToFloat64(globalManager.referenceHistoryRows), ShouldEqual, 90311.0)
				So(testutil.ToFloat64(globalManager.referenceTeams), ShouldEqual, 21.0)
			})
		})

		Convey("When recording HTTP, error and system metrics", func() {
			So(func() {
				RecordHTTPRequest("predict", "POST", "200")
				RecordHTTPRequestDuration("predict", "POST", "200", 12.5)
				RecordErrorByType("client_error", "medium")
				RecordErrorByEndpoint("predict", "POST", "client_error")
				RecordErrorLatency("http", "client_error", 3)
				RecordPredictionError("unknown_team")
				RecordModelLatency(42)
				RecordCacheHit()
				RecordCacheMiss()
				RecordRateLimited()
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.4)
			}, ShouldNotPanic)
		})

		Convey("When fetching the registry", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
