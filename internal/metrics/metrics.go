package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	PageSize        prometheus.Histogram
	WSConnections   prometheus.Gauge
	MessagesCreated prometheus.Counter
	gatherer        prometheus.Gatherer
}

// New builds the collectors and registers them on reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "groupchat_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"route", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "groupchat_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		PageSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "groupchat_message_page_size",
			Help:    "Edges returned per message connection",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 1000},
		}),
		WSConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "groupchat_ws_active_connections",
			Help: "Active websocket connections",
		}),
		MessagesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "groupchat_messages_created_total",
			Help: "Messages stored",
		}),
		gatherer: reg,
	}
	reg.MustRegister(m.Requests, m.RequestDuration, m.PageSize, m.WSConnections, m.MessagesCreated)
	return m
}

// Handler returns an http.Handler for Prometheus scraping
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
