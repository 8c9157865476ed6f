package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinutesPerDay bounds every Clock value.
const MinutesPerDay = 24 * 60

// Clock is a time of day expressed in minutes after midnight.
type Clock int

// NewClock builds a Clock from a 24h hour and minute.
func NewClock(hour, minute int) (Clock, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, &IntervalError{Input: fmt.Sprintf("%02d:%02d", hour, minute), Reason: "clock out of range"}
	}
	return Clock(hour*60 + minute), nil
}

// MustClock is NewClock for constants and tests.
func MustClock(hour, minute int) Clock {
	c, err := NewClock(hour, minute)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseClock accepts "08:00 AM", "8:00pm" and 24h "14:30".
func ParseClock(s string) (Clock, error) {
	raw := s
	s = strings.ToUpper(strings.TrimSpace(s))
	meridiem := ""
	switch {
	case strings.HasSuffix(s, "AM"):
		meridiem = "AM"
	case strings.HasSuffix(s, "PM"):
		meridiem = "PM"
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, meridiem))
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, &IntervalError{Input: raw, Reason: "expected hh:mm"}
	}
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return 0, &IntervalError{Input: raw, Reason: "bad hour"}
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return 0, &IntervalError{Input: raw, Reason: "bad minute"}
	}
	if meridiem != "" {
		if hour < 1 || hour > 12 {
			return 0, &IntervalError{Input: raw, Reason: "hour out of range"}
		}
		hour %= 12
		if meridiem == "PM" {
			hour += 12
		}
	}
	c, err := NewClock(hour, minute)
	if err != nil {
		return 0, &IntervalError{Input: raw, Reason: "clock out of range"}
	}
	return c, nil
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

// Valid reports whether c falls inside a single day.
func (c Clock) Valid() bool { return c >= 0 && c < MinutesPerDay }

// Duration returns the offset from midnight.
func (c Clock) Duration() time.Duration { return time.Duration(c) * time.Minute }

// String renders the 12h form used by the registrar, e.g. "08:00 AM".
func (c Clock) String() string {
	h := c.Hour()
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h %= 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%02d:%02d %s", h, c.Minute(), suffix)
}

func (c Clock) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Clock) UnmarshalText(b []byte) error {
	v, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
