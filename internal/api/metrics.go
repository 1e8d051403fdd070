package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics owns a private registry so tests can build routers repeatedly.
type Metrics struct {
	Registry  *prometheus.Registry
	Requests  *prometheus.CounterVec
	Latency   *prometheus.HistogramVec
	Writes    *prometheus.CounterVec
	EditorOps *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "armybuilder", Name: "http_requests_total", Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "armybuilder", Name: "http_request_duration_seconds", Help: "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "armybuilder", Name: "dataset_writes_total", Help: "Stored dataset and list changes.",
		}, []string{"op", "army"}),
		EditorOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "armybuilder", Name: "editor_operations_total", Help: "Editor session operations by outcome.",
		}, []string{"op", "outcome"}),
	}
	reg.MustRegister(m.Requests, m.Latency, m.Writes, m.EditorOps,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return m
}

func (m *Metrics) write(op, army string) {
	if m == nil {
		return
	}
	m.Writes.WithLabelValues(op, army).Inc()
}

func (m *Metrics) editorOp(op, outcome string) {
	if m == nil {
		return
	}
	m.EditorOps.WithLabelValues(op, outcome).Inc()
}
