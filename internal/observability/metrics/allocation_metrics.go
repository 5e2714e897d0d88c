package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	AssignmentMethodRule       = "rule"
	AssignmentMethodRoundRobin = "round_robin"
	AssignmentMethodManual     = "manual"
)

// AllocationMetrics records lead allocation outcomes.
type AllocationMetrics struct {
	assignments  *prometheus.CounterVec
	failures     *prometheus.CounterVec
	bulkRuns     *prometheus.CounterVec
	bulkDuration prometheus.Observer
	bulkLeads    *prometheus.CounterVec
}

var (
	allocationMetricsOnce sync.Once
	allocationMetrics     *AllocationMetrics
)

// Allocation returns the singleton allocation metrics registry.
func Allocation() *AllocationMetrics {
	return AllocationWithConfig(Config{})
}

func AllocationWithConfig(cfg Config) *AllocationMetrics {
	allocationMetricsOnce.Do(func() {
		allocationMetrics = newAllocationMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return allocationMetrics
}

// ResetAllocationMetricsForTest resets the allocation metrics singleton for tests.
func ResetAllocationMetricsForTest() {
	allocationMetricsOnce = sync.Once{}
	allocationMetrics = nil
}

func newAllocationMetrics(registerer prometheus.Registerer, cfg Config) *AllocationMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := cfg.constLabels()

	assignments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "salesdesk_allocation_assignments_total",
		Help:        "Leads assigned by method.",
		ConstLabels: constLabels,
	}, []string{"method"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "salesdesk_allocation_failures_total",
		Help:        "Assignment attempts that did not assign the lead, by reason.",
		ConstLabels: constLabels,
	}, []string{"reason"})
	bulkRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "salesdesk_allocation_bulk_runs_total",
		Help:        "Bulk distribution runs by outcome.",
		ConstLabels: constLabels,
	}, []string{"outcome"})
	bulkDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "salesdesk_allocation_bulk_duration_seconds",
		Help:        "Bulk distribution wall time.",
		Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		ConstLabels: constLabels,
	})
	bulkLeads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "salesdesk_allocation_bulk_leads_total",
		Help:        "Leads visited by bulk distribution by per-lead outcome.",
		ConstLabels: constLabels,
	}, []string{"outcome"})

	registerer.MustRegister(assignments, failures, bulkRuns, bulkDuration, bulkLeads)

	return &AllocationMetrics{
		assignments:  assignments,
		failures:     failures,
		bulkRuns:     bulkRuns,
		bulkDuration: bulkDuration,
		bulkLeads:    bulkLeads,
	}
}

func (m *AllocationMetrics) IncAssignment(method string) {
	if m == nil {
		return
	}
	m.assignments.WithLabelValues(method).Inc()
}

// IncFailure counts an attempt that ended without an assignment.
func (m *AllocationMetrics) IncFailure(reason string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(reason).Inc()
}

// ObserveBulkRun records one bulk distribution run.
func (m *AllocationMetrics) ObserveBulkRun(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.bulkRuns.WithLabelValues(outcome).Inc()
	m.bulkDuration.Observe(duration.Seconds())
}

func (m *AllocationMetrics) AddBulkLeads(outcome string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.bulkLeads.WithLabelValues(outcome).Add(float64(count))
}
