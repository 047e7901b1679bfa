// Package metrics holds the Prometheus instruments for the engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics aggregates every instrument so wiring stays a single value.
// Services treat a nil *Metrics as "metrics disabled".
type Metrics struct {
	AssignmentsCommitted prometheus.Counter
	AssignmentsRejected  *prometheus.CounterVec
	CapacityReleased     prometheus.Counter
	ApprovalTransitions  *prometheus.CounterVec
	VisitWrites          prometheus.Counter
	HTTPDuration         *prometheus.HistogramVec
}

// New registers all instruments on the default registry.
func New() *Metrics {
	return &Metrics{
		AssignmentsCommitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fieldsafe_assignments_committed_total",
			Help: "Assignments that passed validation and were committed",
		}),
		AssignmentsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldsafe_assignments_rejected_total",
			Help: "Assignment attempts rejected by the validator",
		}, []string{"reason"}),
		CapacityReleased: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fieldsafe_capacity_released_total",
			Help: "Unassignment operations that returned minutes to the ledger",
		}),
		ApprovalTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldsafe_approval_transitions_total",
			Help: "Worksite approval status transitions",
		}, []string{"to"}),
		VisitWrites: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fieldsafe_visit_writes_total",
			Help: "Committed visit-calendar writes",
		}),
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fieldsafe_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// Rejection reason labels. Kept as constants so dashboards and tests agree.
const (
	RejectReasonRoleNotApplicable    = "role_not_applicable"
	RejectReasonUnknownPerson        = "unknown_person"
	RejectReasonInsufficientCapacity = "insufficient_capacity"
	RejectReasonRoleMismatch         = "role_mismatch"
)

func (m *Metrics) IncrementAssignmentCommitted() {
	if m != nil {
		m.AssignmentsCommitted.Inc()
	}
}

func (m *Metrics) IncrementAssignmentRejected(reason string) {
	if m != nil {
		m.AssignmentsRejected.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) IncrementCapacityReleased() {
	if m != nil {
		m.CapacityReleased.Inc()
	}
}

func (m *Metrics) IncrementApprovalTransition(to string) {
	if m != nil {
		m.ApprovalTransitions.WithLabelValues(to).Inc()
	}
}

func (m *Metrics) IncrementVisitWrite() {
	if m != nil {
		m.VisitWrites.Inc()
	}
}
