package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/kilianp07/classplan/core/catalog"
	"github.com/kilianp07/classplan/core/model"
	"github.com/kilianp07/classplan/core/solver"
)

const icsLocalLayout = "20060102T150405"

// CalendarOptions anchors the weekly recurrences.
type CalendarOptions struct {
	// TermStart is the first day of instruction. Its location is used for
	// every event.
	TermStart time.Time
	// Weeks bounds the recurrence; zero leaves it open-ended.
	Weeks int
	// Stamp is written as DTSTAMP; zero means time.Now.
	Stamp time.Time
}

var byDay = map[time.Weekday]string{
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
	time.Sunday:    "SU",
}

// WriteICS writes one weekly VEVENT per section meeting. Sections without
// meetings are skipped.
func WriteICS(w io.Writer, cat *catalog.Catalog, a solver.Assignment, opts CalendarOptions) error {
	if opts.TermStart.IsZero() {
		return fmt.Errorf("term start is required")
	}
	stamp := opts.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}
	loc := opts.TermStart.Location()
	tzid := &ics.KeyValues{Key: string(ics.ParameterTzid), Value: []string{loc.String()}}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//classplan//schedule export//EN")
	cal.SetXWRTimezone(loc.String())

	for _, e := range Entries(cat, a) {
		key, err := model.ParseClassKey(e.Class)
		if err != nil {
			return err
		}
		for _, s := range a[key] {
			for i, iv := range s.Intervals {
				first := firstMeeting(opts.TermStart, iv.Days)
				start := first.Add(iv.Start.Duration())
				end := first.Add(iv.End.Duration())

				ev := cal.AddEvent(fmt.Sprintf("%s-%d@classplan", s.CRN, i))
				ev.SetDtStampTime(stamp)
				ev.SetProperty(ics.ComponentPropertyDtStart, start.Format(icsLocalLayout), tzid)
				ev.SetProperty(ics.ComponentPropertyDtEnd, end.Format(icsLocalLayout), tzid)
				ev.SetSummary(strings.TrimSpace(fmt.Sprintf("%s %s %s", e.Class, s.Type, s.Label)))
				if s.Location != "" {
					ev.SetLocation(s.Location)
				}
				ev.SetDescription(description(e, s))
				ev.AddRrule(rrule(iv.Days, opts, loc))
			}
		}
	}
	_, err := io.WriteString(w, cal.Serialize())
	return err
}

// firstMeeting returns midnight of the first day on or after start that is in days.
func firstMeeting(start time.Time, days model.Weekdays) time.Time {
	y, m, d := start.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, start.Location())
	for i := 0; i < 7; i++ {
		cand := day.AddDate(0, 0, i)
		for _, single := range days.Days() {
			if wd, ok := single.Weekday(); ok && wd == cand.Weekday() {
				return cand
			}
		}
	}
	return day
}

func rrule(days model.Weekdays, opts CalendarOptions, loc *time.Location) string {
	var codes []string
	for _, single := range days.Days() {
		if wd, ok := single.Weekday(); ok {
			codes = append(codes, byDay[wd])
		}
	}
	rule := "FREQ=WEEKLY;BYDAY=" + strings.Join(codes, ",")
	if opts.Weeks > 0 {
		y, m, d := opts.TermStart.Date()
		until := time.Date(y, m, d, 23, 59, 59, 0, loc).AddDate(0, 0, 7*opts.Weeks-1)
		rule += ";UNTIL=" + until.UTC().Format(icsLocalLayout) + "Z"
	}
	return rule
}

func description(e ClassEntry, s model.Section) string {
	parts := []string{"CRN " + s.CRN}
	if e.Title != "" {
		parts = append([]string{e.Title}, parts...)
	}
	if s.Instructor != "" {
		parts = append(parts, s.Instructor)
	}
	return strings.Join(parts, " | ")
}
