package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/classplan/core/metrics"
)

// PromSink records solver and catalog activity in Prometheus collectors.
type PromSink struct {
	solves    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	nodes     prometheus.Histogram
	refreshes *prometheus.CounterVec
	sections  prometheus.Gauge
	classes   prometheus.Gauge
}

// NewPromSink registers the collectors on the default Prometheus registerer.
// The /metrics endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers the collectors on reg, reusing collectors
// that are already registered. A nil registerer defaults to the global one.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classplan_solve_total",
			Help: "Solve requests by outcome",
		}, []string{"status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "classplan_solve_duration_seconds",
			Help:    "Wall time spent searching for a schedule",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"status"}),
		nodes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "classplan_solve_nodes",
			Help:    "Search nodes visited per solve",
			Buckets: prometheus.ExponentialBuckets(1, 4, 12),
		}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classplan_catalog_refresh_total",
			Help: "Catalog refresh attempts by source and result",
		}, []string{"source", "result"}),
		sections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "classplan_catalog_sections",
			Help: "Sections in the current catalog snapshot",
		}),
		classes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "classplan_catalog_classes",
			Help: "Classes in the current catalog snapshot",
		}),
	}
	var err error
	if s.solves, err = register(reg, s.solves); err != nil {
		return nil, err
	}
	if s.latency, err = register(reg, s.latency); err != nil {
		return nil, err
	}
	if s.nodes, err = register(reg, s.nodes); err != nil {
		return nil, err
	}
	if s.refreshes, err = register(reg, s.refreshes); err != nil {
		return nil, err
	}
	if s.sections, err = register(reg, s.sections); err != nil {
		return nil, err
	}
	if s.classes, err = register(reg, s.classes); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordSolve counts the outcome and observes latency and search effort.
func (s *PromSink) RecordSolve(r coremetrics.SolveSample) error {
	s.solves.WithLabelValues(r.Status).Inc()
	s.latency.WithLabelValues(r.Status).Observe(r.Duration.Seconds())
	if r.Nodes > 0 {
		s.nodes.Observe(float64(r.Nodes))
	}
	return nil
}

// RecordCatalogRefresh counts the attempt and updates the size gauges on success.
func (s *PromSink) RecordCatalogRefresh(r coremetrics.CatalogRefreshSample) error {
	result := "error"
	if r.Success {
		result = "ok"
		s.sections.Set(float64(r.Sections))
		s.classes.Set(float64(r.Classes))
	}
	s.refreshes.WithLabelValues(r.Source, result).Inc()
	return nil
}
