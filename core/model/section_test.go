package model

import (
	"encoding/json"
	"testing"
)

func TestSectionConflicts(t *testing.T) {
	lec := Section{CRN: "1", Intervals: []Interval{mustInterval(t, "MWF", "10:00 AM", "10:50 AM")}}
	lab := Section{CRN: "2", Intervals: []Interval{mustInterval(t, "W", "10:30 AM", "12:20 PM")}}
	online := Section{CRN: "3"}

	if !lec.Conflicts(lab) || !lab.Conflicts(lec) {
		t.Fatalf("expected conflict")
	}
	if online.Conflicts(lec) || lec.Conflicts(online) {
		t.Fatalf("section without meetings must never conflict")
	}
	if online.HitsAny([]Interval{mustInterval(t, "MTWRF", "12:00 AM", "11:59 PM")}) {
		t.Fatalf("section without meetings must never hit a window")
	}
}

func TestSectionClosed(t *testing.T) {
	cases := map[string]bool{
		"Closed":            true,
		"closed":            true,
		"Closed (waitlist)": true,
		"Open":              false,
		"Open (Restricted)": false,
		"":                  false,
	}
	for status, want := range cases {
		if got := (Section{Status: status}).Closed(); got != want {
			t.Errorf("%q: got %v want %v", status, got, want)
		}
	}
}

func TestSectionText(t *testing.T) {
	s := Section{Intervals: []Interval{
		mustInterval(t, "TR", "09:30 AM", "10:45 AM"),
		mustInterval(t, "F", "01:00 PM", "01:50 PM"),
	}}
	if got := s.DaysText(); got != "TR F" {
		t.Errorf("days %q", got)
	}
	if got := s.TimeText(); got != "09:30 AM - 10:45 AM, 01:00 PM - 01:50 PM" {
		t.Errorf("time %q", got)
	}
	m := s.Meetings()
	if len(m) != 3 || m[1] != "R 09:30 AM - 10:45 AM" {
		t.Errorf("meetings %v", m)
	}
	if (Section{}).TimeText() != "ARRANGED" {
		t.Errorf("expected ARRANGED")
	}
}

func TestClassKeyAsMapKey(t *testing.T) {
	m := map[ClassKey]int{NewClassKey("cs", "225"): 1}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"CS 225":1}` {
		t.Fatalf("unexpected json %s", data)
	}
	var back map[ClassKey]int
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back[ClassKey{Subject: "CS", Number: "225"}] != 1 {
		t.Fatalf("key lost: %v", back)
	}
	if _, err := ParseClassKey("CS"); err == nil {
		t.Fatalf("expected error for missing number")
	}
}
