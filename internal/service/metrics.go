package service

import (
	"time"

	"github.com/Harshitk-cp/recommender/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	scorerRequests   *prometheus.CounterVec
	scorerDegraded   *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	blendDuration    prometheus.Histogram
	interactions     *prometheus.CounterVec
	profileRefreshes *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg when it is
// non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		scorerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reco",
			Name:      "scorer_requests_total",
			Help:      "Scorer invocations by algorithm.",
		}, []string{"algorithm"}),
		scorerDegraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reco",
			Name:      "scorer_degraded_total",
			Help:      "Scorer invocations that returned an empty list, by algorithm and reason.",
		}, []string{"algorithm", "reason"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reco",
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups by cache and outcome.",
		}, []string{"cache", "result"}),
		blendDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "reco",
			Name:      "blend_duration_seconds",
			Help:      "Wall time of hybrid blends.",
			Buckets:   prometheus.DefBuckets,
		}),
		interactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reco",
			Name:      "interactions_recorded_total",
			Help:      "Recorded interactions by type and outcome.",
		}, []string{"type", "result"}),
		profileRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reco",
			Name:      "profile_refreshes_total",
			Help:      "Preference profile refreshes by outcome.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.scorerRequests,
			m.scorerDegraded,
			m.cacheLookups,
			m.blendDuration,
			m.interactions,
			m.profileRefreshes,
		)
	}
	return m
}

const (
	degradedUpstream  = "upstream"
	degradedColdStart = "cold_start"
)

func (m *Metrics) scorerRequest(a domain.Algorithm) {
	if m == nil {
		return
	}
	m.scorerRequests.WithLabelValues(string(a)).Inc()
}

func (m *Metrics) scorerDegradedTo(a domain.Algorithm, reason string) {
	if m == nil {
		return
	}
	m.scorerDegraded.WithLabelValues(string(a), reason).Inc()
}

func (m *Metrics) cacheLookup(name string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(name, result).Inc()
}

func (m *Metrics) observeBlend(d time.Duration) {
	if m == nil {
		return
	}
	m.blendDuration.Observe(d.Seconds())
}

func (m *Metrics) interactionRecorded(t domain.InteractionType, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.interactions.WithLabelValues(string(t), result).Inc()
}

func (m *Metrics) profileRefresh(result string) {
	if m == nil {
		return
	}
	m.profileRefreshes.WithLabelValues(result).Inc()
}
