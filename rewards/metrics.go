package rewards

import "github.com/prometheus/client_golang/prometheus"

const metricsNamespace = "dcrrewards"

const (
	claimOutcomeSuccess  = "success"
	claimOutcomeRejected = "rejected"
	claimOutcomeError    = "error"
)

// Metrics counts pipeline outcomes. A nil *Metrics records nothing.
type Metrics struct {
	resolutions   *prometheus.CounterVec
	claims        *prometheus.CounterVec
	fetchFailures prometheus.Counter
}

// NewMetrics creates the pipeline counters and registers them with reg when
// reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "status_resolutions_total",
			Help:      "Proposal status resolutions by resulting status.",
		}, []string{"status"}),
		claims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "claims_total",
			Help:      "Reward claim submissions by outcome.",
		}, []string{"outcome"}),
		fetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "vote_fetch_failures_total",
			Help:      "Failed user vote list fetches.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.resolutions, m.claims, m.fetchFailures)
	}

	return m
}

func (m *Metrics) statusResolved(status ProposalStatus) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(status.String()).Inc()
}

func (m *Metrics) claimFinished(outcome string) {
	if m == nil {
		return
	}
	m.claims.WithLabelValues(outcome).Inc()
}

func (m *Metrics) voteFetchFailed() {
	if m == nil {
		return
	}
	m.fetchFailures.Inc()
}
