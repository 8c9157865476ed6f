package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/kilianp07/classplan/core/metrics"
)

func TestPromSink_RecordSolve(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("sink: %v", err)
	}
	for _, st := range []string{"feasible", "feasible", "infeasible"} {
		if err := sink.RecordSolve(coremetrics.SolveSample{Status: st, Nodes: 10, Duration: time.Millisecond}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	expected := `
# HELP classplan_solve_total Solve requests by outcome
# TYPE classplan_solve_total counter
classplan_solve_total{status="feasible"} 2
classplan_solve_total{status="infeasible"} 1
`
	if err := testutil.CollectAndCompare(sink.solves, strings.NewReader(expected)); err != nil {
		t.Fatalf("unexpected counter: %v", err)
	}
	if c := testutil.CollectAndCount(sink.latency); c != 2 {
		t.Fatalf("expected 2 latency series, got %d", c)
	}
	if c := testutil.CollectAndCount(sink.nodes); c != 1 {
		t.Fatalf("expected nodes histogram, got %d", c)
	}
}

func TestPromSink_RecordCatalogRefresh(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("sink: %v", err)
	}
	_ = sink.RecordCatalogRefresh(coremetrics.CatalogRefreshSample{Source: "html", Success: true, Classes: 12, Sections: 80})
	_ = sink.RecordCatalogRefresh(coremetrics.CatalogRefreshSample{Source: "html", Error: "timeout"})

	if v := testutil.ToFloat64(sink.sections); v != 80 {
		t.Fatalf("sections gauge %v", v)
	}
	if v := testutil.ToFloat64(sink.classes); v != 12 {
		t.Fatalf("classes gauge %v", v)
	}
	if v := testutil.ToFloat64(sink.refreshes.WithLabelValues("html", "error")); v != 1 {
		t.Fatalf("error counter %v", v)
	}
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("second registration must reuse collectors: %v", err)
	}
	_ = second.RecordSolve(coremetrics.SolveSample{Status: "timeout"})
	if v := testutil.ToFloat64(first.solves.WithLabelValues("timeout")); v != 1 {
		t.Fatalf("collectors not shared, got %v", v)
	}
}
