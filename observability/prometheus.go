package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var _ MetricFactory = (*PrometheusFactory)(nil)

// PrometheusFactory creates Prometheus collectors for hosts that run Larder
// outside forge. Dotted metric names become underscored Prometheus names,
// and asking twice for a name returns the same collector.
type PrometheusFactory struct {
	mu         sync.Mutex
	reg        prometheus.Registerer
	counters   map[string]prometheus.Counter
	histograms map[string]prometheus.Histogram
}

// NewPrometheusFactory registers collectors on reg, or on the default
// registerer when reg is nil.
func NewPrometheusFactory(reg prometheus.Registerer) *PrometheusFactory {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &PrometheusFactory{
		reg:        reg,
		counters:   make(map[string]prometheus.Counter),
		histograms: make(map[string]prometheus.Histogram),
	}
}

// Counter implements MetricFactory.
func (f *PrometheusFactory) Counter(name string) Counter {
	f.mu.Lock()
	defer f.mu.Unlock()

	if c, ok := f.counters[name]; ok {
		return c
	}

	c := prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricName(name),
		Help: "Larder event count: " + name,
	})
	f.reg.MustRegister(c)
	f.counters[name] = c

	return c
}

// Histogram implements MetricFactory.
func (f *PrometheusFactory) Histogram(name string) Histogram {
	f.mu.Lock()
	defer f.mu.Unlock()

	if h, ok := f.histograms[name]; ok {
		return h
	}

	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    metricName(name),
		Help:    "Larder distribution: " + name,
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})
	f.reg.MustRegister(h)
	f.histograms[name] = h

	return h
}

func metricName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}
