package model

import (
	"fmt"
	"strings"
	"time"
)

// Weekdays is a set of days of the week.
type Weekdays uint8

const (
	Monday Weekdays = 1 << iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// Weekdays in rendering order with their registrar letter.
var dayLetters = []struct {
	day    Weekdays
	letter byte
	wd     time.Weekday
}{
	{Monday, 'M', time.Monday},
	{Tuesday, 'T', time.Tuesday},
	{Wednesday, 'W', time.Wednesday},
	{Thursday, 'R', time.Thursday},
	{Friday, 'F', time.Friday},
	{Saturday, 'S', time.Saturday},
	{Sunday, 'U', time.Sunday},
}

// SchoolWeek lists Monday to Friday in order, matching the banned-day grid.
var SchoolWeek = []Weekdays{Monday, Tuesday, Wednesday, Thursday, Friday}

// ParseWeekdays parses letters such as "MWF" or "TR". Spaces are ignored.
func ParseWeekdays(s string) (Weekdays, error) {
	var w Weekdays
	for _, r := range strings.ToUpper(s) {
		if r == ' ' {
			continue
		}
		found := false
		for _, d := range dayLetters {
			if r == rune(d.letter) {
				w |= d.day
				found = true
				break
			}
		}
		if !found {
			return 0, &IntervalError{Input: s, Reason: fmt.Sprintf("unknown day %q", r)}
		}
	}
	return w, nil
}

func (w Weekdays) Empty() bool                { return w == 0 }
func (w Weekdays) Has(d Weekdays) bool        { return w&d != 0 }
func (w Weekdays) Intersects(o Weekdays) bool { return w&o != 0 }
func (w Weekdays) valid() bool                { return w != 0 && w < Sunday<<1 }

// Days splits the set into single days in week order.
func (w Weekdays) Days() []Weekdays {
	var out []Weekdays
	for _, d := range dayLetters {
		if w.Has(d.day) {
			out = append(out, d.day)
		}
	}
	return out
}

// Weekday maps a single-day set to time.Weekday. The second result is false
// for sets holding zero or several days.
func (w Weekdays) Weekday() (time.Weekday, bool) {
	for _, d := range dayLetters {
		if w == d.day {
			return d.wd, true
		}
	}
	return 0, false
}

func (w Weekdays) String() string {
	var b strings.Builder
	for _, d := range dayLetters {
		if w.Has(d.day) {
			b.WriteByte(d.letter)
		}
	}
	return b.String()
}

func (w Weekdays) MarshalText() ([]byte, error) { return []byte(w.String()), nil }

func (w *Weekdays) UnmarshalText(b []byte) error {
	v, err := ParseWeekdays(string(b))
	if err != nil {
		return err
	}
	*w = v
	return nil
}
