package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds conversion counters and latency histograms.
type Metrics struct {
	conversions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewMetrics registers the conversion metrics on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		conversions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pdfconv_conversions_total",
				Help: "Total number of conversions by format and outcome.",
			},
			[]string{"format", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pdfconv_conversion_duration_seconds",
				Help:    "Wall time of conversions by format.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"format"},
		),
	}

	if err := reg.Register(m.conversions); err != nil {
		return nil, err
	}
	if err := reg.Register(m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) observe(format string, ok bool, seconds float64) {
	if m == nil {
		return
	}
	status := "success"
	if !ok {
		status = "failure"
	}
	m.conversions.WithLabelValues(format, status).Inc()
	m.duration.WithLabelValues(format).Observe(seconds)
}
