package model

import (
	"fmt"
	"strings"
)

// Section statuses as published by the registrar.
const (
	StatusOpen   = "Open"
	StatusClosed = "Closed"
)

// Section is one offering of a class component. Sections are immutable once a
// catalog snapshot is built.
type Section struct {
	CRN        string     `json:"crn" yaml:"crn"`
	Type       string     `json:"type" yaml:"type"`
	Label      string     `json:"section,omitempty" yaml:"section,omitempty"`
	Status     string     `json:"status,omitempty" yaml:"status,omitempty"`
	Instructor string     `json:"instructor,omitempty" yaml:"instructor,omitempty"`
	Location   string     `json:"location,omitempty" yaml:"location,omitempty"`
	Intervals  []Interval `json:"intervals,omitempty" yaml:"intervals,omitempty"`
}

// Closed reports whether the registrar lists the section as full.
func (s Section) Closed() bool {
	return strings.Contains(strings.ToLower(s.Status), "closed")
}

// Conflicts reports whether any meeting of s overlaps one of o.
func (s Section) Conflicts(o Section) bool {
	for _, a := range s.Intervals {
		if a.ContainedIn(o.Intervals) {
			return true
		}
	}
	return false
}

// HitsAny reports whether a meeting of s overlaps any of the windows.
func (s Section) HitsAny(windows []Interval) bool {
	for _, iv := range s.Intervals {
		if iv.ContainedIn(windows) {
			return true
		}
	}
	return false
}

// Meetings renders each meeting day on its own line, e.g. "M 10:00 AM - 10:50 AM".
func (s Section) Meetings() []string {
	out := make([]string, 0, len(s.Intervals))
	for _, iv := range s.Intervals {
		for _, d := range iv.Split() {
			out = append(out, d.String())
		}
	}
	return out
}

// DaysText and TimeText mirror the registrar's columns.
func (s Section) DaysText() string {
	parts := make([]string, 0, len(s.Intervals))
	for _, iv := range s.Intervals {
		parts = append(parts, iv.Days.String())
	}
	if len(parts) == 0 {
		return "n.a."
	}
	return strings.Join(parts, " ")
}

func (s Section) TimeText() string {
	parts := make([]string, 0, len(s.Intervals))
	for _, iv := range s.Intervals {
		parts = append(parts, iv.TimeRange())
	}
	if len(parts) == 0 {
		return "ARRANGED"
	}
	return strings.Join(parts, ", ")
}

func (s Section) String() string {
	return fmt.Sprintf("%s %s %s", s.CRN, s.Type, s.Label)
}
