package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When a manager is created with custom options", func() {
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.patientsCreated.Inc()

			Convey("Then its collectors live on that registry under the namespace", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				var found bool
				for _, f := range families {
					if f.GetName() == "test_unit_patients_created_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When empty options are passed", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "patientor")
				So(manager.subsystem, ShouldEqual, "api")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When business events are recorded", func() {
			before := testutil.ToFloat64(globalManager.patientsCreated)
			RecordPatientCreated()
			RecordEntryCreated("Hospital")
			RecordValidationFailure("entry", "discharge")
			UpdatePatientsTotal(7)
			UpdateDiagnosesTotal(15)

			Convey("Then the collectors reflect them", func() {
				So(testutil.ToFloat64(globalManager.patientsCreated), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.entriesCreated.WithLabelValues("Hospital")), ShouldBeGreaterThanOrEqualTo, 1)
				So(testutil.ToFloat64(globalManager.validationFailures.WithLabelValues("entry", "discharge")), ShouldBeGreaterThanOrEqualTo, 1)
				So(testutil.ToFloat64(globalManager.patientsTotal), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.diagnosesTotal), ShouldEqual, 15)
			})
		})

		Convey("When counter reads are recorded", func() {
			before := testutil.ToFloat64(globalManager.counterReads.WithLabelValues("miss"))
			RecordCounterRead("miss")
			RecordCounterRead("miss")

			Convey("Then they are counted per result", func() {
				So(testutil.ToFloat64(globalManager.counterReads.WithLabelValues("miss")), ShouldEqual, before+2)
			})
		})

		Convey("When HTTP, repository and error metrics are recorded", func() {
			Convey("Then nothing panics", func() {
				So(func() {
					RecordHTTPRequest("/api/patients", "GET", "200")
					RecordHTTPRequestDuration("/api/patients", "GET", "200", 1.5)
					RecordRepositoryOperation("memory", "find", 0.2)
					RecordRepositoryError("postgres", "append")
					RecordErrorByType("validation", "warning")
					RecordErrorByEndpoint("/api/patients", "POST", "bad_request")
					RecordErrorLatency("http", "bad_request", 2)
				}, ShouldNotPanic)
			})
		})

		Convey("When system metrics are sampled", func() {
			UpdateSystemMetrics()
			UpdateSystemMetrics()

			Convey("Then the gauges are populated", func() {
				So(testutil.ToFloat64(globalManager.systemGoroutineCount), ShouldBeGreaterThan, 0)
				So(testutil.ToFloat64(globalManager.systemMemoryUsage), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When the registry is gathered", func() {
			RecordRepositoryError("memory", "list")
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)

			Convey("Then patientor metrics are exposed", func() {
				var names []string
				for _, f := range families {
					names = append(names, f.GetName())
				}
				joined := strings.Join(names, ",")
				So(joined, ShouldContainSubstring, "patientor_api_repository_errors_total")
				So(joined, ShouldContainSubstring, "patientor_api_patients_created_total")
			})
		})
	})
}
