package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 规划服务的运行指标，通过调试端口的/metrics暴露
type Metrics struct {
	reg *prometheus.Registry

	Queries      *prometheus.CounterVec // result: found|empty|bad_request|error
	QueryLatency prometheus.Histogram
	GraphNodes   prometheus.Gauge
	GraphEdges   prometheus.Gauge
	Reloads      *prometheus.CounterVec // result: ok|error
	FeedStops    prometheus.Gauge
	FeedTrips    prometheus.Gauge
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_queries_total",
			Help: "Journey planning queries by result.",
		}, []string{"result"}),
		QueryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "planner_query_duration_seconds",
			Help:    "Time spent building the graph and searching for one query.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
		GraphNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "planner_graph_nodes",
			Help: "Node count of the most recently built search graph.",
		}),
		GraphEdges: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "planner_graph_edges",
			Help: "Edge count of the most recently built search graph.",
		}),
		Reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_feed_reloads_total",
			Help: "Feed reloads by result.",
		}, []string{"result"}),
		FeedStops: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "planner_feed_stops",
			Help: "Stops in the loaded feed.",
		}),
		FeedTrips: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "planner_feed_trips",
			Help: "Trips in the loaded feed.",
		}),
	}
	reg.MustRegister(
		m.Queries, m.QueryLatency,
		m.GraphNodes, m.GraphEdges,
		m.Reloads, m.FeedStops, m.FeedTrips,
	)
	return m
}

// ObserveGraph 作为planner.WithGraphObserver的回调
func (m *Metrics) ObserveGraph(nodes, edges int) {
	m.GraphNodes.Set(float64(nodes))
	m.GraphEdges.Set(float64(edges))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
