package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("card"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then collectors are registered on it", func() {
				So(manager, ShouldNotBeNil)
				manager.syncs.WithLabelValues(OutcomeSuccess).Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording replays", func() {
			before := testutil.ToFloat64(globalManager.eventsSkipped)
			RecordReplay(12, 2)

			Convey("Then skipped events accumulate", func() {
				So(testutil.ToFloat64(globalManager.eventsSkipped)-before, ShouldEqual, 2)
			})
		})

		Convey("When recording sync outcomes", func() {
			before := testutil.ToFloat64(globalManager.syncs.WithLabelValues(OutcomeFailure))
			So(RecordSync(OutcomeFailure), ShouldBeNil)

			Convey("Then the labelled counter moves", func() {
				So(testutil.ToFloat64(globalManager.syncs.WithLabelValues(OutcomeFailure))-before, ShouldEqual, 1)
			})
		})

		Convey("When recording an unknown outcome", func() {
			err := RecordAppend("maybe")

			Convey("Then it is rejected", func() {
				So(errors.Is(err, ErrUnknownOutcome), ShouldBeTrue)
			})
		})

		Convey("When publishing profile counters", func() {
			UpdateProfile("A", 7, 2)

			Convey("Then the gauges hold the values", func() {
				So(testutil.ToFloat64(globalManager.activeCount.WithLabelValues("A")), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.completedSets.WithLabelValues("A")), ShouldEqual, 2)
			})
		})

		Convey("When recording the remaining series", func() {
			So(func() {
				RecordSyncLatency(12)
				UpdateSyncInFlight(1)
				So(RecordAppend(OutcomeDropped), ShouldBeNil)
				RecordAppendLatency(30)
				UpdateAppendQueueSize(4)
				RecordOptimisticEvent("stamp")
				RecordRejectedAction("empty_name")
				UpdateLogRowsStored(10)
				RecordLogDuplicateRow()
				RecordHTTPRequest("state", "GET", "200")
				RecordHTTPRequestDuration("state", "GET", "200", 1.5)
				RecordErrorByComponent("eventlog", "transport")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.4)
			}, ShouldNotPanic)
		})

		Convey("When asking for the registry", func() {
			So(GetRegistry(), ShouldEqual, customRegistry)
		})
	})
}
