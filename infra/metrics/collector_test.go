package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kilianp07/classplan/core/events"
	coremetrics "github.com/kilianp07/classplan/core/metrics"
	"github.com/kilianp07/classplan/internal/eventbus"
)

type memSink struct {
	mu        sync.Mutex
	solves    []coremetrics.SolveSample
	refreshes []coremetrics.CatalogRefreshSample
}

func (m *memSink) RecordSolve(s coremetrics.SolveSample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.solves = append(m.solves, s)
	return nil
}

func (m *memSink) RecordCatalogRefresh(s coremetrics.CatalogRefreshSample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshes = append(m.refreshes, s)
	return nil
}

func (m *memSink) counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.solves), len(m.refreshes)
}

func TestStartEventCollector(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	solves := eventbus.New[events.SolveEvent]()
	refreshes := eventbus.New[events.CatalogRefreshEvent]()
	sink := &memSink{}
	StartEventCollector(ctx, solves, refreshes, sink)

	solves.Publish(events.SolveEvent{Status: "feasible", Nodes: 7})
	refreshes.Publish(events.CatalogRefreshEvent{Source: "html", Err: errors.New("down")})

	deadline := time.Now().Add(time.Second)
	for {
		s, r := sink.counts()
		if s == 1 && r == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("events not collected: solves=%d refreshes=%d", s, r)
		}
		time.Sleep(5 * time.Millisecond)
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.solves[0].Nodes != 7 {
		t.Fatalf("unexpected sample %+v", sink.solves[0])
	}
	if sink.refreshes[0].Success || sink.refreshes[0].Error != "down" {
		t.Fatalf("unexpected refresh sample %+v", sink.refreshes[0])
	}
}
