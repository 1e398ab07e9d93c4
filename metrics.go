package tiramisu

import (
	"regexp"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects Prometheus metrics of a client. A nil *Metrics records
// nothing.
type Metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	polls           *prometheus.CounterVec
	pollAttempts    prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Requests sent to the wallet backend by method, endpoint and status code",
			},
			[]string{"method", "endpoint", "code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Latency of requests to the wallet backend",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		polls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transaction_waits_total",
				Help:      "Finished transaction waits by outcome",
			},
			[]string{"outcome"},
		),
		pollAttempts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "transaction_wait_attempts",
				Help:      "Status fetches needed per transaction wait",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 11),
			},
		),
	}
	for _, c := range []prometheus.Collector{m.requests, m.requestDuration, m.polls, m.pollAttempts} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

var idSegment = regexp.MustCompile(`/[0-9]+(/|$)`)

// endpointLabel folds numeric path segments so that detail endpoints share
// one label value.
func endpointLabel(path string) string {
	return idSegment.ReplaceAllString(path, "/{id}$1")
}

func (m *Metrics) observeRequest(method, path string, code int, d time.Duration) {
	if m == nil {
		return
	}
	endpoint := endpointLabel(path)
	label := "error"
	if code != 0 {
		label = strconv.Itoa(code)
	}
	m.requests.WithLabelValues(method, endpoint, label).Inc()
	m.requestDuration.WithLabelValues(method, endpoint).Observe(d.Seconds())
}

func (m *Metrics) observePoll(state PollState, attempts int) {
	if m == nil {
		return
	}
	m.polls.WithLabelValues(state.String()).Inc()
	m.pollAttempts.Observe(float64(attempts))
}
