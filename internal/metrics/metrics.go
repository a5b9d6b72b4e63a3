// Package metrics defines the Prometheus instruments of the tracker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// OutreachMetrics holds all Prometheus metrics for outreach operations.
// A nil *OutreachMetrics is valid and records nothing.
type OutreachMetrics struct {
	CompaniesAdded     prometheus.Counter
	CompaniesRemoved   prometheus.Counter
	CompaniesImported  *prometheus.CounterVec
	StatusTransitions  *prometheus.CounterVec
	ValidationRejected *prometheus.CounterVec
	StatusConflicts    prometheus.Counter
	ProfileCacheHits   prometheus.Counter
	ProfileCacheMisses prometheus.Counter
}

// NewOutreachMetrics creates the metrics and registers them on reg.
func NewOutreachMetrics(reg prometheus.Registerer) *OutreachMetrics {
	f := promauto.With(reg)
	return &OutreachMetrics{
		CompaniesAdded: f.NewCounter(prometheus.CounterOpts{
			Namespace: "proposal_tracker",
			Subsystem: "companies",
			Name:      "added_total",
			Help:      "Total number of companies added.",
		}),
		CompaniesRemoved: f.NewCounter(prometheus.CounterOpts{
			Namespace: "proposal_tracker",
			Subsystem: "companies",
			Name:      "removed_total",
			Help:      "Total number of companies removed.",
		}),
		CompaniesImported: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "proposal_tracker",
			Subsystem: "companies",
			Name:      "imported_total",
			Help:      "Total number of companies processed by bulk imports by outcome.",
		}, []string{"outcome"}), // outcome: inserted, updated, skipped
		StatusTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "proposal_tracker",
			Subsystem: "outreach",
			Name:      "status_transitions_total",
			Help:      "Total number of outreach status transitions by channel and transition.",
		}, []string{"channel", "transition"}),
		ValidationRejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "proposal_tracker",
			Subsystem: "companies",
			Name:      "validation_rejected_total",
			Help:      "Total number of rejected company candidates by reason.",
		}, []string{"reason"}),
		StatusConflicts: f.NewCounter(prometheus.CounterOpts{
			Namespace: "proposal_tracker",
			Subsystem: "outreach",
			Name:      "status_conflicts_total",
			Help:      "Total number of status updates rejected because of a stale version.",
		}),
		ProfileCacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: "proposal_tracker",
			Subsystem: "identity",
			Name:      "profile_cache_hits_total",
			Help:      "Total number of actor profile cache hits.",
		}),
		ProfileCacheMisses: f.NewCounter(prometheus.CounterOpts{
			Namespace: "proposal_tracker",
			Subsystem: "identity",
			Name:      "profile_cache_misses_total",
			Help:      "Total number of actor profile cache misses.",
		}),
	}
}

func (m *OutreachMetrics) CompanyAdded() {
	if m != nil {
		m.CompaniesAdded.Inc()
	}
}

func (m *OutreachMetrics) CompanyRemoved() {
	if m != nil {
		m.CompaniesRemoved.Inc()
	}
}

func (m *OutreachMetrics) Imported(outcome string, n int) {
	if m != nil && n > 0 {
		m.CompaniesImported.WithLabelValues(outcome).Add(float64(n))
	}
}

func (m *OutreachMetrics) Transition(channel, transition string) {
	if m != nil {
		m.StatusTransitions.WithLabelValues(channel, transition).Inc()
	}
}

func (m *OutreachMetrics) Rejected(reason string) {
	if m != nil {
		m.ValidationRejected.WithLabelValues(reason).Inc()
	}
}

func (m *OutreachMetrics) Conflict() {
	if m != nil {
		m.StatusConflicts.Inc()
	}
}

func (m *OutreachMetrics) CacheHit() {
	if m != nil {
		m.ProfileCacheHits.Inc()
	}
}

func (m *OutreachMetrics) CacheMiss() {
	if m != nil {
		m.ProfileCacheMisses.Inc()
	}
}
