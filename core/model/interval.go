package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidInterval is returned for malformed or empty time windows.
var ErrInvalidInterval = errors.New("invalid interval")

// IntervalError carries the offending input.
type IntervalError struct {
	Input  string
	Reason string
}

func (e *IntervalError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("invalid interval: %s", e.Reason)
	}
	return fmt.Sprintf("invalid interval %q: %s", e.Input, e.Reason)
}

func (e *IntervalError) Unwrap() error { return ErrInvalidInterval }

// Interval is a weekly recurring window on one or more days. Start is
// inclusive and End exclusive; an Interval never crosses midnight.
type Interval struct {
	Days  Weekdays `json:"days" yaml:"days"`
	Start Clock    `json:"start" yaml:"start"`
	End   Clock    `json:"end" yaml:"end"`
}

// NewInterval validates and builds an Interval.
func NewInterval(days Weekdays, start, end Clock) (Interval, error) {
	iv := Interval{Days: days, Start: start, End: end}
	if err := iv.Validate(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

// Validate reports why iv cannot be used, if at all.
func (i Interval) Validate() error {
	switch {
	case !i.Days.valid():
		return &IntervalError{Input: i.String(), Reason: "no days"}
	case !i.Start.Valid() || !i.End.Valid():
		return &IntervalError{Input: i.String(), Reason: "clock out of range"}
	case i.Start == i.End:
		return &IntervalError{Input: i.String(), Reason: "zero length"}
	case i.Start > i.End:
		return &IntervalError{Input: i.String(), Reason: "ends before it starts"}
	}
	return nil
}

// Overlaps reports whether both intervals share a day and their half-open
// time ranges intersect.
func (i Interval) Overlaps(o Interval) bool {
	return i.Days.Intersects(o.Days) && i.Start < o.End && o.Start < i.End
}

// ContainedIn reports whether i overlaps any of the given windows.
func (i Interval) ContainedIn(windows []Interval) bool {
	for _, w := range windows {
		if i.Overlaps(w) {
			return true
		}
	}
	return false
}

// Length is the duration of a single meeting.
func (i Interval) Length() time.Duration { return (i.End - i.Start).Duration() }

// Split returns one single-day interval per day in week order.
func (i Interval) Split() []Interval {
	days := i.Days.Days()
	out := make([]Interval, 0, len(days))
	for _, d := range days {
		out = append(out, Interval{Days: d, Start: i.Start, End: i.End})
	}
	return out
}

// TimeRange renders "10:00 AM - 10:50 AM".
func (i Interval) TimeRange() string {
	return i.Start.String() + " - " + i.End.String()
}

func (i Interval) String() string {
	return i.Days.String() + " " + i.TimeRange()
}

// ParseTimeRange parses "10:00 AM - 10:50 AM".
func ParseTimeRange(s string) (Clock, Clock, error) {
	from, to, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, &IntervalError{Input: s, Reason: "expected start - end"}
	}
	start, err := ParseClock(from)
	if err != nil {
		return 0, 0, err
	}
	end, err := ParseClock(to)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// ParseMeeting parses the day letters and time range of a catalog row. Rows
// without a fixed meeting ("ARRANGED", blank, "n.a.") yield no interval.
func ParseMeeting(days, timeRange string) ([]Interval, error) {
	days = strings.TrimSpace(days)
	timeRange = strings.TrimSpace(timeRange)
	if unscheduled(days) || unscheduled(timeRange) {
		return nil, nil
	}
	wd, err := ParseWeekdays(days)
	if err != nil {
		return nil, err
	}
	start, end, err := ParseTimeRange(timeRange)
	if err != nil {
		return nil, err
	}
	iv, err := NewInterval(wd, start, end)
	if err != nil {
		return nil, err
	}
	return []Interval{iv}, nil
}

func unscheduled(s string) bool {
	switch strings.ToUpper(s) {
	case "", "ARRANGED", "N.A.", "TBA", "-":
		return true
	}
	return false
}
