package metrics

import "time"

// SolveSample describes one finished solve request.
type SolveSample struct {
	RequestID string
	Status    string
	Classes   int
	Locked    int
	Banned    int
	Nodes     int
	Duration  time.Duration
	Time      time.Time
}

// MetricsSink records solve outcomes for observability purposes.
type MetricsSink interface {
	RecordSolve(s SolveSample) error
}

// CatalogRefreshSample describes one catalog refresh attempt.
type CatalogRefreshSample struct {
	Source   string
	Trigger  string
	Success  bool
	Classes  int
	Sections int
	Duration time.Duration
	Error    string
	Time     time.Time
}

// CatalogRefreshRecorder is implemented by sinks able to record refreshes.
type CatalogRefreshRecorder interface {
	RecordCatalogRefresh(s CatalogRefreshSample) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordSolve(SolveSample) error                   { return nil }
func (NopSink) RecordCatalogRefresh(CatalogRefreshSample) error { return nil }
