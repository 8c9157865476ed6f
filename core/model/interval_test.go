package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustInterval(t *testing.T, days string, start, end string) Interval {
	t.Helper()
	wd, err := ParseWeekdays(days)
	require.NoError(t, err)
	s, err := ParseClock(start)
	require.NoError(t, err)
	e, err := ParseClock(end)
	require.NoError(t, err)
	iv, err := NewInterval(wd, s, e)
	require.NoError(t, err)
	return iv
}

func TestParseClock(t *testing.T) {
	cases := map[string]Clock{
		"08:00 AM": MustClock(8, 0),
		"8:00am":   MustClock(8, 0),
		"12:00 AM": MustClock(0, 0),
		"12:30 PM": MustClock(12, 30),
		"01:15 PM": MustClock(13, 15),
		"14:30":    MustClock(14, 30),
		" 9:05 pm": MustClock(21, 5),
	}
	for in, want := range cases {
		got, err := ParseClock(in)
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if got != want {
			t.Errorf("%q: got %v want %v", in, got, want)
		}
	}
}

func TestParseClockInvalid(t *testing.T) {
	for _, in := range []string{"", "8", "13:00 PM", "00:10 AM", "25:00", "10:61", "aa:bb"} {
		_, err := ParseClock(in)
		if !errors.Is(err, ErrInvalidInterval) {
			t.Errorf("%q: expected ErrInvalidInterval, got %v", in, err)
		}
	}
}

func TestClockString(t *testing.T) {
	assert.Equal(t, "08:00 AM", MustClock(8, 0).String())
	assert.Equal(t, "12:00 AM", MustClock(0, 0).String())
	assert.Equal(t, "12:50 PM", MustClock(12, 50).String())
	assert.Equal(t, "05:20 PM", MustClock(17, 20).String())
}

func TestNewIntervalRejects(t *testing.T) {
	ten := MustClock(10, 0)
	cases := []struct {
		name       string
		days       Weekdays
		start, end Clock
	}{
		{"no days", 0, ten, ten + 50},
		{"zero length", Monday, ten, ten},
		{"reversed", Monday, ten + 50, ten},
		{"past midnight", Monday, ten, MinutesPerDay + 10},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := NewInterval(c.days, c.start, c.end)
			assert.ErrorIs(t, err, ErrInvalidInterval)
			var ie *IntervalError
			assert.True(t, errors.As(err, &ie))
		})
	}
}

func TestParseWeekdays(t *testing.T) {
	wd, err := ParseWeekdays("m w f")
	require.NoError(t, err)
	assert.Equal(t, Monday|Wednesday|Friday, wd)

	// U+054D and U+0154 share their low byte with 'M' and 'T'.
	for _, in := range []string{"\u054d", "M\u0154", "MX"} {
		_, err := ParseWeekdays(in)
		assert.ErrorIs(t, err, ErrInvalidInterval, in)
	}
}

func TestOverlaps(t *testing.T) {
	mwf10 := mustInterval(t, "MWF", "10:00 AM", "10:50 AM")
	cases := []struct {
		name string
		b    Interval
		want bool
	}{
		{"same", mwf10, true},
		{"back to back", mustInterval(t, "M", "10:50 AM", "11:40 AM"), false},
		{"ends at start", mustInterval(t, "W", "09:00 AM", "10:00 AM"), false},
		{"partial", mustInterval(t, "F", "10:30 AM", "11:30 AM"), true},
		{"contains", mustInterval(t, "W", "08:00 AM", "12:00 PM"), true},
		{"other days", mustInterval(t, "TR", "10:00 AM", "10:50 AM"), false},
		{"one shared day", mustInterval(t, "RF", "10:45 AM", "11:00 AM"), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, mwf10.Overlaps(c.b))
			assert.Equal(t, c.want, c.b.Overlaps(mwf10), "overlap must be symmetric")
		})
	}
}

func TestOverlapsAnyTimeOnSharedDay(t *testing.T) {
	a := mustInterval(t, "T", "01:00 PM", "01:01 PM")
	for h := 0; h < 24; h++ {
		b, err := NewInterval(Tuesday, MustClock(h, 0), MustClock(h, 59))
		require.NoError(t, err)
		if got, want := a.Overlaps(b), h == 13; got != want {
			t.Fatalf("hour %d: got %v want %v", h, got, want)
		}
	}
}

func TestContainedIn(t *testing.T) {
	iv := mustInterval(t, "MW", "09:00 AM", "09:50 AM")
	banned := []Interval{
		mustInterval(t, "F", "08:00 AM", "05:00 PM"),
		mustInterval(t, "W", "09:30 AM", "10:00 AM"),
	}
	assert.True(t, iv.ContainedIn(banned))
	assert.False(t, iv.ContainedIn(banned[:1]))
	assert.False(t, iv.ContainedIn(nil))
}

func TestSplitAndString(t *testing.T) {
	iv := mustInterval(t, "MWF", "10:00 AM", "10:50 AM")
	assert.Equal(t, "MWF 10:00 AM - 10:50 AM", iv.String())
	parts := iv.Split()
	require.Len(t, parts, 3)
	assert.Equal(t, "M 10:00 AM - 10:50 AM", parts[0].String())
	assert.Equal(t, "F 10:00 AM - 10:50 AM", parts[2].String())
}

func TestParseMeeting(t *testing.T) {
	ivs, err := ParseMeeting("TR", "02:00 PM - 03:15 PM")
	require.NoError(t, err)
	require.Len(t, ivs, 1)
	assert.Equal(t, Tuesday|Thursday, ivs[0].Days)
	assert.Equal(t, MustClock(14, 0), ivs[0].Start)
	assert.Equal(t, MustClock(15, 15), ivs[0].End)

	ivs, err = ParseMeeting("n.a.", "ARRANGED")
	require.NoError(t, err)
	assert.Empty(t, ivs)

	_, err = ParseMeeting("MX", "02:00 PM - 03:15 PM")
	assert.ErrorIs(t, err, ErrInvalidInterval)
	_, err = ParseMeeting("M", "03:00 PM - 02:00 PM")
	assert.ErrorIs(t, err, ErrInvalidInterval)
}
