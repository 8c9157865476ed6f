// Package export renders a solved schedule for download: JSON, CSV with one
// row per weekly meeting, and iCalendar with one recurring event per meeting.
package export

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/gocarina/gocsv"

	"github.com/kilianp07/classplan/core/catalog"
	"github.com/kilianp07/classplan/core/model"
	"github.com/kilianp07/classplan/core/solver"
)

// SectionEntry is one chosen section.
type SectionEntry struct {
	CRN        string   `json:"crn"`
	Type       string   `json:"type"`
	Section    string   `json:"section,omitempty"`
	Status     string   `json:"status,omitempty"`
	Instructor string   `json:"instructor,omitempty"`
	Location   string   `json:"location,omitempty"`
	Meetings   []string `json:"meetings"`
}

// ClassEntry groups the sections chosen for one class.
type ClassEntry struct {
	Class    string         `json:"class"`
	Title    string         `json:"title,omitempty"`
	Sections []SectionEntry `json:"sections"`
}

// Entries orders an assignment by class. cat is only used for titles and may
// be nil.
func Entries(cat *catalog.Catalog, a solver.Assignment) []ClassEntry {
	keys := make([]model.ClassKey, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	out := make([]ClassEntry, 0, len(keys))
	for _, k := range keys {
		e := ClassEntry{Class: k.String()}
		if cat != nil {
			e.Title = cat.Title(k)
		}
		for _, s := range a[k] {
			e.Sections = append(e.Sections, SectionEntry{
				CRN:        s.CRN,
				Type:       s.Type,
				Section:    s.Label,
				Status:     s.Status,
				Instructor: s.Instructor,
				Location:   s.Location,
				Meetings:   s.Meetings(),
			})
		}
		out = append(out, e)
	}
	return out
}

// WriteJSON writes the schedule to w in JSON format.
func WriteJSON(w io.Writer, cat *catalog.Catalog, a solver.Assignment) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Entries(cat, a))
}

// MeetingRow is the CSV layout. Asynchronous sections get one row with empty
// day and times.
type MeetingRow struct {
	Class      string `csv:"class"`
	Title      string `csv:"title"`
	CRN        string `csv:"crn"`
	Type       string `csv:"type"`
	Section    string `csv:"section"`
	Day        string `csv:"day"`
	Start      string `csv:"start"`
	End        string `csv:"end"`
	Location   string `csv:"location"`
	Instructor string `csv:"instructor"`
}

// Rows flattens a schedule into one row per meeting day.
func Rows(cat *catalog.Catalog, a solver.Assignment) []MeetingRow {
	var rows []MeetingRow
	for _, e := range Entries(cat, a) {
		key, _ := model.ParseClassKey(e.Class)
		for _, s := range a[key] {
			base := MeetingRow{
				Class:      e.Class,
				Title:      e.Title,
				CRN:        s.CRN,
				Type:       s.Type,
				Section:    s.Label,
				Location:   s.Location,
				Instructor: s.Instructor,
			}
			if len(s.Intervals) == 0 {
				rows = append(rows, base)
				continue
			}
			for _, iv := range s.Intervals {
				for _, d := range iv.Split() {
					r := base
					r.Day = d.Days.String()
					r.Start = d.Start.String()
					r.End = d.End.String()
					rows = append(rows, r)
				}
			}
		}
	}
	return rows
}

// WriteCSV writes the schedule with a header row.
func WriteCSV(w io.Writer, cat *catalog.Catalog, a solver.Assignment) error {
	rows := Rows(cat, a)
	if rows == nil {
		rows = []MeetingRow{}
	}
	return gocsv.Marshal(rows, w)
}
