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
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.Enabled(), ShouldBeTrue)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})

		Convey("When creating with custom options containing dashes", func() {
			registry := prometheus.NewRegistry()
			var manager *Manager
			build := func() {
				manager = NewManager(
					WithNamespace("test-namespace"),
					WithSubsystem("test-subsystem"),
					WithMetricPrefix("test-prefix"),
					WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
					WithMetricsEnabled(true),
					WithRefreshInterval(5*time.Second),
					WithCustomLabels(map[string]string{"env": "test"}),
					WithPrometheusRegistry(registry),
				)
			}

			Convey("Then names are sanitized and registration succeeds", func() {
				So(build, ShouldNotPanic)
				So(manager.RefreshInterval(), ShouldEqual, 5*time.Second)
				manager.jobsSubmitted.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_namespace_test_subsystem_test_prefix_jobs_submitted_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "test")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When options receive zero values", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithRefreshInterval(0),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "tabsum")
				So(manager.subsystem, ShouldEqual, "normalizer")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording job metrics", func() {
			before := testutil.ToFloat64(globalManager.jobsSubmitted)
			RecordJobSubmitted()
			RecordJobSubmitted()

			Convey("Then the counter moves", func() {
				So(testutil.ToFloat64(globalManager.jobsSubmitted), ShouldEqual, before+2)
			})
		})

		Convey("When recording labelled counters", func() {
			before := testutil.ToFloat64(globalManager.eventsParsed.WithLabelValues("speech_final_places"))
			RecordEventsParsed("speech_final_places", 3)
			RecordEventsParsed("speech_final_places", 0)

			Convey("Then only positive amounts are added", func() {
				So(testutil.ToFloat64(globalManager.eventsParsed.WithLabelValues("speech_final_places")), ShouldEqual, before+3)
			})
		})

		Convey("When recording everything else", func() {
			So(func() {
				RecordJobDuplicate()
				RecordJobSucceeded()
				RecordJobFailed()
				RecordNormalizeLatency(12.5)
				RecordResultsEmitted("Final Places", 10)
				RecordEntriesSkipped("missing_identity", 1)
				RecordPrelimsRemoved(2)
				UpdateQueueSize(5)
				UpdateQueueCapacity(100)
				UpdateQueueUtilization(0.05)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordQueueProcessingLatency(0.2)
				UpdateWorkerCount(4)
				UpdateWorkerActiveCount(4)
				RecordWorkerProcessingLatency(30)
				RecordWorkerError()
				UpdateRepositoryRunsTotal(7)
				RecordRepositoryWriteLatency(1)
				RecordRepositoryQueryLatency(1)
				RecordHTTPRequest("/v1/jobs", "POST", "202")
				RecordHTTPRequestDuration("/v1/jobs", "POST", "202", 3)
				RecordErrorByComponent("worker", "normalize")
				RecordErrorByEndpoint("/v1/jobs", "POST", "bad_request")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})

		Convey("When metrics are disabled", func() {
			saved := globalManager.enabled
			globalManager.enabled = false
			before := testutil.ToFloat64(globalManager.jobsFailed)
			RecordJobFailed()
			after := testutil.ToFloat64(globalManager.jobsFailed)
			globalManager.enabled = saved

			Convey("Then nothing is recorded", func() {
				So(after, ShouldEqual, before)
			})
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the custom registry", t, func() {
		So(GetRegistry(), ShouldNotBeNil)
		So(Default(), ShouldEqual, globalManager)
		_, err := GetRegistry().Gather()
		So(err, ShouldBeNil)
	})
}
