package events

import "time"

// SolveEvent is published after every solve request.
type SolveEvent struct {
	RequestID string
	// Status is "feasible", "infeasible", "timeout" or "rejected".
	Status   string
	Classes  int
	Locked   int
	Banned   int
	Nodes    int
	Duration time.Duration
	Err      error
	Time     time.Time
}

// CatalogRefreshEvent is published after every refresh attempt.
type CatalogRefreshEvent struct {
	Source   string
	Trigger  string
	Classes  int
	Sections int
	Duration time.Duration
	Err      error
	Time     time.Time
}
