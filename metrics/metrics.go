// Package metrics provides Prometheus observability for the planning
// service: plan run volume, overflow pressure and computation latency.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for the application.
var Registry = prometheus.NewRegistry()

// factory registers metrics to our custom Registry directly.
var factory = promauto.With(Registry)

// PlanRunsTotal counts plan computations by kind (preview, submit,
// scheduled) and outcome (ok, invalid, error).
var PlanRunsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "planner",
	Name:      "runs_total",
	Help:      "Total plan computations by kind and outcome",
}, []string{"kind", "outcome"})

// ScheduleEntriesTotal counts emitted schedule entries, split by whether
// they violated the daily cap.
var ScheduleEntriesTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "planner",
	Name:      "schedule_entries_total",
	Help:      "Total schedule entries produced, by overflow flag",
}, []string{"overflow"})

// DistributionDurationSeconds tracks time to distribute hours across the
// calendar.
var DistributionDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "planner",
	Name:      "distribution_duration_seconds",
	Help:      "Time taken to compute a calendar distribution",
	Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
})

// AllocationDurationSeconds tracks time to run the hour allocator.
var AllocationDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "planner",
	Name:      "allocation_duration_seconds",
	Help:      "Time taken to compute a revenue-to-hours allocation",
	Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
})

// AssignmentsPerRun tracks how many assignments each distribution handles.
var AssignmentsPerRun = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "planner",
	Name:      "assignments_per_run",
	Help:      "Number of assignments processed per distribution run",
	Buckets:   []float64{1, 5, 10, 25, 50, 100, 250},
})

// ObserveEntries records the overflow/non-overflow split of a schedule.
func ObserveEntries(total, overflow int) {
	ScheduleEntriesTotal.WithLabelValues("false").Add(float64(total - overflow))
	ScheduleEntriesTotal.WithLabelValues("true").Add(float64(overflow))
}
