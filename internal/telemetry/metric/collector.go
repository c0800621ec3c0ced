package metric

import "github.com/prometheus/client_golang/prometheus"

// SessionCollector reports whether a client session is active, sampled at
// scrape time from the supplied function.
type SessionCollector struct {
	active func() bool
	desc   *prometheus.Desc
}

// NewSessionCollector creates a collector around active.
func NewSessionCollector(active func() bool) *SessionCollector {
	return &SessionCollector{
		active: active,
		desc: prometheus.NewDesc(
			"minipay_client_session_active",
			"1 when a credential is stored and the client considers itself authenticated.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *SessionCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *SessionCollector) Collect(ch chan<- prometheus.Metric) {
	v := 0.0
	if c.active() {
		v = 1
	}
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, v)
}
