package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the Prometheus metrics for the HTTP surface and the
// map-assignment domain. All increment helpers are nil-safe so packages can
// run without metrics wired (tests, seed tooling).
type Collector struct {
	gatherer prometheus.Gatherer

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec

	RendersComputed  prometheus.Counter
	SegmentsAssigned prometheus.Counter
	CutsCommitted    prometheus.Counter
}

// NewCollector registers the metrics against reg, defaulting to the global
// Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{
		gatherer: gatherer,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tractage_http_requests_total",
			Help: "Total handled HTTP requests, labeled by method and status code.",
		}, []string{"method", "code"}),
		HTTPDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tractage_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"method"}),
		RendersComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tractage_renders_computed_total",
			Help: "Render plans computed for map clients.",
		}),
		SegmentsAssigned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tractage_segments_assigned_total",
			Help: "Segment zone-assignment writes applied.",
		}),
		CutsCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tractage_cuts_committed_total",
			Help: "Segments persisted by cut-editor commits.",
		}),
	}

	for _, col := range []prometheus.Collector{
		c.HTTPRequests, c.HTTPDurations, c.RendersComputed, c.SegmentsAssigned, c.CutsCommitted,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Handler exposes the metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// ObserveRequest records one handled HTTP request.
func (c *Collector) ObserveRequest(method string, code int, duration time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	c.HTTPDurations.WithLabelValues(method).Observe(duration.Seconds())
}

func (c *Collector) IncRenders() {
	if c == nil {
		return
	}
	c.RendersComputed.Inc()
}

func (c *Collector) AddSegmentsAssigned(n int) {
	if c == nil {
		return
	}
	c.SegmentsAssigned.Add(float64(n))
}

func (c *Collector) AddCutsCommitted(n int) {
	if c == nil {
		return
	}
	c.CutsCommitted.Add(float64(n))
}
