package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the attendance engine's Prometheus collectors. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	Registrations *prometheus.CounterVec
	CheckIns      *prometheus.CounterVec
	Redemptions   *prometheus.CounterVec
	Duration      *prometheus.HistogramVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "checkin_registrations_total",
			Help: "Registration attempts by outcome",
		}, []string{"outcome"}),

		CheckIns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "checkin_checkins_total",
			Help: "Check-in attempts by outcome",
		}, []string{"outcome"}),

		Redemptions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "checkin_redemptions_total",
			Help: "Coupon redemption attempts by outcome",
		}, []string{"outcome"}),

		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "checkin_operation_duration_seconds",
			Help:    "Duration of engine operations including store round trips",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncRegistration(outcome string) {
	if m != nil {
		m.Registrations.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncCheckIn(outcome string) {
	if m != nil {
		m.CheckIns.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncRedemption(outcome string) {
	if m != nil {
		m.Redemptions.WithLabelValues(outcome).Inc()
	}
}

// ObserveSince records the time elapsed since start for operation.
func (m *Metrics) ObserveSince(operation string, start time.Time) {
	if m != nil {
		m.Duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
