package metrics_test

import (
	"testing"

	"github.com/okian/gully/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	Convey("Given a manager on a fresh registry", t, func() {
		reg := prometheus.NewRegistry()
		m := metrics.NewManager(
			metrics.WithRegistry(reg),
			metrics.WithNamespace("test"),
			metrics.WithSubsystem("recommender"),
		)
		So(m, ShouldNotBeNil)

		Convey("Then all metrics register without collisions", func() {
			families, err := reg.Gather()
			So(err, ShouldBeNil)
			// Counters and histograms only appear after first observation,
			// gauges are present immediately.
			So(families, ShouldNotBeNil)
		})
	})

	Convey("Given the global manager", t, func() {
		Convey("Then the package helpers should not panic", func() {
			So(func() {
				metrics.RecordMatchScored()
				metrics.RecordDeliveryScored()
				metrics.RecordRegistryMiss()
				metrics.RecordMaidenOver()
				metrics.RecordScoringLatency(1.2)
				metrics.RecordValuationComputed()
				metrics.RecordValuationLatency(3.4)
				metrics.RecordNewcomerCredit()
				metrics.RecordDefaultRoleLookup()
				metrics.RecordSelectionSolved()
				metrics.RecordSelectionInfeasible()
				metrics.RecordSolverLatency(5.6)
				metrics.RecordSolverNodes(1000)
				metrics.UpdateHistoryRows(42)
				metrics.RecordHistoryAppend(22)
				metrics.RecordStoreQueryLatency(0.4)
				metrics.RecordMatchDuplicate()
				metrics.UpdateQueueSize(3)
				metrics.UpdateQueueCapacity(100)
				metrics.RecordQueueEnqueue()
				metrics.RecordQueueDequeue()
				metrics.RecordQueueReject()
				metrics.UpdateWorkerCount(4)
				metrics.RecordWorkerLatency(7.8)
				metrics.RecordWorkerError()
				metrics.RecordHTTPRequest("recommend", "POST", "200")
				metrics.RecordHTTPRequestDuration("recommend", "POST", "200", 12.0)
				metrics.RecordHTTPRateLimited()
				metrics.UpdateSystemMemoryUsage(1 << 20)
				metrics.UpdateSystemGoroutineCount(10)
			}, ShouldNotPanic)
		})

		Convey("Then the custom registry is exposed", func() {
			So(metrics.Registry(), ShouldNotBeNil)
		})
	})
}
