package metrics

import (
	"context"

	"github.com/kilianp07/classplan/core/events"
	coremetrics "github.com/kilianp07/classplan/core/metrics"
	"github.com/kilianp07/classplan/internal/eventbus"
)

// StartEventCollector subscribes to the buses and records their events on
// sink until ctx is cancelled. Either bus may be nil.
func StartEventCollector(ctx context.Context, solves *eventbus.Bus[events.SolveEvent],
	refreshes *eventbus.Bus[events.CatalogRefreshEvent], sink coremetrics.MetricsSink) {
	if sink == nil || (solves == nil && refreshes == nil) {
		return
	}
	var solveCh <-chan events.SolveEvent
	var refreshCh <-chan events.CatalogRefreshEvent
	if solves != nil {
		solveCh = solves.Subscribe()
	}
	if refreshes != nil {
		refreshCh = refreshes.Subscribe()
	}
	go func() {
		defer func() {
			if solves != nil {
				solves.Unsubscribe(solveCh)
			}
			if refreshes != nil {
				refreshes.Unsubscribe(refreshCh)
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-solveCh:
				if !ok {
					solveCh = nil
					continue
				}
				_ = sink.RecordSolve(ToSolveSample(ev))
			case ev, ok := <-refreshCh:
				if !ok {
					refreshCh = nil
					continue
				}
				if r, ok := sink.(coremetrics.CatalogRefreshRecorder); ok {
					_ = r.RecordCatalogRefresh(ToRefreshSample(ev))
				}
			}
			if solveCh == nil && refreshCh == nil {
				return
			}
		}
	}()
}

// ToSolveSample converts a bus event into a metrics sample.
func ToSolveSample(ev events.SolveEvent) coremetrics.SolveSample {
	return coremetrics.SolveSample{
		RequestID: ev.RequestID,
		Status:    ev.Status,
		Classes:   ev.Classes,
		Locked:    ev.Locked,
		Banned:    ev.Banned,
		Nodes:     ev.Nodes,
		Duration:  ev.Duration,
		Time:      ev.Time,
	}
}

// ToRefreshSample converts a bus event into a metrics sample.
func ToRefreshSample(ev events.CatalogRefreshEvent) coremetrics.CatalogRefreshSample {
	s := coremetrics.CatalogRefreshSample{
		Source:   ev.Source,
		Trigger:  ev.Trigger,
		Success:  ev.Err == nil,
		Classes:  ev.Classes,
		Sections: ev.Sections,
		Duration: ev.Duration,
		Time:     ev.Time,
	}
	if ev.Err != nil {
		s.Error = ev.Err.Error()
	}
	return s
}
