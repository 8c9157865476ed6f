package solver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/classplan/core/catalog"
	"github.com/kilianp07/classplan/core/model"
)

type row struct {
	class   string
	crn     string
	typ     string
	meeting string // "MWF 10:00 AM - 10:50 AM", empty for none
	status  string
}

func key(t *testing.T, s string) model.ClassKey {
	t.Helper()
	k, err := model.ParseClassKey(s)
	require.NoError(t, err)
	return k
}

func meeting(t *testing.T, s string) []model.Interval {
	t.Helper()
	if s == "" {
		return nil
	}
	days, times, _ := strings.Cut(s, " ")
	ivs, err := model.ParseMeeting(days, times)
	require.NoError(t, err)
	return ivs
}

func build(t *testing.T, rows ...row) *catalog.Catalog {
	t.Helper()
	b := catalog.NewBuilder(catalog.Meta{Source: "test"})
	for _, r := range rows {
		typ := r.typ
		if typ == "" {
			typ = "Lecture"
		}
		require.NoError(t, b.Add(key(t, r.class), model.Section{
			CRN: r.crn, Type: typ, Status: r.status, Intervals: meeting(t, r.meeting),
		}))
	}
	return b.Build()
}

func crns(a Assignment, k model.ClassKey) []string {
	var out []string
	for _, s := range a[k] {
		out = append(out, s.CRN)
	}
	return out
}

func TestSolve_SingleClassPicksCatalogFirst(t *testing.T) {
	//** Arrange
	cat := build(t,
		row{class: "CS 101", crn: "1", meeting: "MWF 09:00 AM - 09:50 AM"},
		row{class: "CS 101", crn: "2", meeting: "MWF 11:00 AM - 11:50 AM"},
	)
	cs := Constraints{Classes: []model.ClassKey{key(t, "CS 101")}}

	//** Act
	res, err := New(Config{}).Solve(context.Background(), cat, cs)

	//** Assert
	require.NoError(t, err)
	assert.True(t, res.Feasible())
	assert.Equal(t, []string{"1"}, crns(res.Assignment, key(t, "CS 101")))
	assert.NoError(t, Verify(cat, cs, res.Assignment))
}

func TestSolve_LockInsideBannedWindow(t *testing.T) {
	cat := build(t,
		row{class: "CS 101", crn: "1", meeting: "MWF 09:00 AM - 09:50 AM"},
		row{class: "CS 101", crn: "2", meeting: "MWF 11:00 AM - 11:50 AM"},
	)
	banned := meeting(t, "M 08:00 AM - 10:00 AM")
	cs := Constraints{
		Classes: []model.ClassKey{key(t, "CS 101")},
		Banned:  banned,
		Locked:  []string{"1"},
	}
	_, err := New(Config{}).Solve(context.Background(), cat, cs)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidLock))
	var le *LockError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "1", le.CRN)
}

func TestSolve_AlwaysOverlappingIsInfeasible(t *testing.T) {
	cat := build(t,
		row{class: "CS 101", crn: "1", meeting: "TR 10:00 AM - 11:15 AM"},
		row{class: "CS 101", crn: "2", meeting: "TR 01:00 PM - 02:15 PM"},
		row{class: "MATH 221", crn: "3", meeting: "R 10:30 AM - 11:00 AM"},
		row{class: "MATH 221", crn: "4", meeting: "T 01:30 PM - 02:00 PM"},
	)
	cs := Constraints{Classes: []model.ClassKey{key(t, "MATH 221"), key(t, "CS 101")}}
	cat2 := build(t,
		row{class: "CS 101", crn: "1", meeting: "TR 10:00 AM - 11:15 AM"},
		row{class: "MATH 221", crn: "3", meeting: "R 10:30 AM - 11:00 AM"},
		row{class: "MATH 221", crn: "4", meeting: "T 10:00 AM - 10:20 AM"},
	)

	res, err := New(Config{}).Solve(context.Background(), cat, cs)
	require.NoError(t, err)
	assert.True(t, res.Feasible(), "3 with 2 or 4 with 1 must fit")

	res, err = New(Config{}).Solve(context.Background(), cat2, cs)
	require.NoError(t, err, "infeasibility is not an error")
	assert.Equal(t, Infeasible, res.Status)
	assert.Empty(t, res.Assignment)
	assert.NotEmpty(t, res.Reason)
}

func TestSolve_BacktracksPastFirstChoice(t *testing.T) {
	cat := build(t,
		row{class: "CS 101", crn: "1", meeting: "MWF 09:00 AM - 09:50 AM"},
		row{class: "CS 101", crn: "2", meeting: "MWF 10:00 AM - 10:50 AM"},
		row{class: "PHYS 211", crn: "3", meeting: "M 09:00 AM - 09:50 AM"},
	)
	cs := Constraints{Classes: []model.ClassKey{key(t, "CS 101"), key(t, "PHYS 211")}}
	res, err := New(Config{}).Solve(context.Background(), cat, cs)
	require.NoError(t, err)
	require.True(t, res.Feasible())
	assert.Equal(t, []string{"2"}, crns(res.Assignment, key(t, "CS 101")))
	assert.Equal(t, []string{"3"}, crns(res.Assignment, key(t, "PHYS 211")))
	assert.Greater(t, res.Nodes, 2)
}

func TestSolve_BackToBackMeetingsFit(t *testing.T) {
	cat := build(t,
		row{class: "CS 101", crn: "1", meeting: "MWF 09:00 AM - 09:50 AM"},
		row{class: "PHYS 211", crn: "2", meeting: "MWF 09:50 AM - 10:40 AM"},
	)
	cs := Constraints{Classes: []model.ClassKey{key(t, "CS 101"), key(t, "PHYS 211")}}
	res, err := New(Config{}).Solve(context.Background(), cat, cs)
	require.NoError(t, err)
	assert.True(t, res.Feasible())
}

func TestSolve_RespectsBans(t *testing.T) {
	cat := build(t,
		row{class: "CS 101", crn: "1", meeting: "MWF 09:00 AM - 09:50 AM"},
		row{class: "CS 101", crn: "2", meeting: "TR 09:00 AM - 10:15 AM"},
		row{class: "CS 101", crn: "3", meeting: "MWF 02:00 PM - 02:50 PM"},
	)
	cs := Constraints{
		Classes: []model.ClassKey{key(t, "CS 101")},
		Banned: append(meeting(t, "F 08:00 AM - 12:00 PM"),
			meeting(t, "T 09:45 AM - 11:00 AM")...),
	}
	res, err := New(Config{}).Solve(context.Background(), cat, cs)
	require.NoError(t, err)
	require.True(t, res.Feasible())
	assert.Equal(t, []string{"3"}, crns(res.Assignment, key(t, "CS 101")))
	assert.NoError(t, Verify(cat, cs, res.Assignment))
}

func TestSolve_LocksArePreserved(t *testing.T) {
	cat := build(t,
		row{class: "CS 225", crn: "10", typ: "Lecture", meeting: "MWF 10:00 AM - 10:50 AM"},
		row{class: "CS 225", crn: "11", typ: "Lecture", meeting: "MWF 01:00 PM - 01:50 PM"},
		row{class: "CS 225", crn: "20", typ: "Laboratory", meeting: "W 01:00 PM - 02:50 PM"},
		row{class: "CS 225", crn: "21", typ: "Laboratory", meeting: "R 09:00 AM - 10:50 AM"},
	)
	cs := Constraints{Classes: []model.ClassKey{key(t, "CS 225")}, Locked: []string{"11"}}
	res, err := New(Config{}).Solve(context.Background(), cat, cs)
	require.NoError(t, err)
	require.True(t, res.Feasible())
	assert.Equal(t, []string{"11", "21"}, crns(res.Assignment, key(t, "CS 225")))
	assert.NoError(t, Verify(cat, cs, res.Assignment))
}

func TestSolve_InvalidLocks(t *testing.T) {
	cat := build(t,
		row{class: "CS 225", crn: "10", meeting: "MWF 10:00 AM - 10:50 AM"},
		row{class: "CS 225", crn: "11", meeting: "MWF 01:00 PM - 01:50 PM"},
		row{class: "CS 225", crn: "20", typ: "Laboratory", meeting: "M 10:00 AM - 11:50 AM"},
		row{class: "MATH 241", crn: "30", meeting: "MWF 10:00 AM - 10:50 AM"},
	)
	cs225 := key(t, "CS 225")
	math := key(t, "MATH 241")
	cases := []struct {
		name    string
		classes []model.ClassKey
		locked  []string
	}{
		{"unknown CRN", []model.ClassKey{cs225}, []string{"99"}},
		{"class not requested", []model.ClassKey{cs225}, []string{"30"}},
		{"two locks one component", []model.ClassKey{cs225}, []string{"10", "11"}},
		{"locks overlap within class", []model.ClassKey{cs225}, []string{"10", "20"}},
		{"locks overlap across classes", []model.ClassKey{cs225, math}, []string{"10", "30"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := New(Config{}).Solve(context.Background(), cat, Constraints{Classes: c.classes, Locked: c.locked})
			assert.ErrorIs(t, err, ErrInvalidLock)
		})
	}
}

func TestSolve_UnknownClass(t *testing.T) {
	cat := build(t, row{class: "CS 101", crn: "1"})
	_, err := New(Config{}).Solve(context.Background(), cat, Constraints{Classes: []model.ClassKey{key(t, "CS 999")}})
	assert.ErrorIs(t, err, catalog.ErrUnknownClass)
}

func TestSolve_ClosedSectionsOnlyWhenPicked(t *testing.T) {
	cat := build(t,
		row{class: "CS 101", crn: "1", meeting: "MWF 09:00 AM - 09:50 AM", status: "Closed"},
		row{class: "CS 101", crn: "2", meeting: "MWF 11:00 AM - 11:50 AM", status: "Open"},
	)
	k := key(t, "CS 101")
	res, err := New(Config{}).Solve(context.Background(), cat, Constraints{Classes: []model.ClassKey{k}})
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, crns(res.Assignment, k))

	res, err = New(Config{}).Solve(context.Background(), cat, Constraints{Classes: []model.ClassKey{k}, Picked: []string{"1"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, crns(res.Assignment, k))

	closedOnly := build(t, row{class: "CS 101", crn: "1", status: "Closed"})
	res, err = New(Config{}).Solve(context.Background(), closedOnly, Constraints{Classes: []model.ClassKey{k}})
	require.NoError(t, err)
	assert.Equal(t, Infeasible, res.Status)
	assert.Contains(t, res.Reason, "CS 101")
}

func TestSolve_TypeOrder(t *testing.T) {
	cat := build(t,
		row{class: "CS 225", crn: "1", typ: "Laboratory", meeting: "W 01:00 PM - 02:50 PM"},
		row{class: "CS 225", crn: "2", typ: "Zeta"},
		row{class: "CS 225", crn: "3", typ: "Lecture", meeting: "MWF 10:00 AM - 10:50 AM"},
		row{class: "CS 225", crn: "4", typ: "Alpha"},
	)
	k := key(t, "CS 225")
	res, err := New(Config{}).Solve(context.Background(), cat, Constraints{Classes: []model.ClassKey{k}})
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "1", "4", "2"}, crns(res.Assignment, k))

	res, err = New(Config{TypeOrder: []string{"zeta"}}).Solve(context.Background(), cat, Constraints{Classes: []model.ClassKey{k}})
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "4", "1", "3"}, crns(res.Assignment, k))
}

func TestSolve_Deterministic(t *testing.T) {
	var rows []row
	for c := 0; c < 6; c++ {
		for s := 0; s < 5; s++ {
			rows = append(rows, row{
				class:   fmt.Sprintf("SUBJ %d", 100+c),
				crn:     fmt.Sprintf("%d%d", c, s),
				meeting: fmt.Sprintf("MW %02d:00 AM - %02d:50 AM", 7+s, 7+s),
			})
		}
	}
	cat := build(t, rows...)
	var classes []model.ClassKey
	for _, k := range cat.Classes() {
		classes = append(classes, k, k)
	}
	cs := Constraints{Classes: classes[:10]}
	first, err := New(Config{}).Solve(context.Background(), cat, cs)
	require.NoError(t, err)
	require.True(t, first.Feasible())
	for i := 0; i < 5; i++ {
		again, err := New(Config{}).Solve(context.Background(), cat, cs)
		require.NoError(t, err)
		assert.Equal(t, first.Assignment, again.Assignment)
	}
	assert.NoError(t, Verify(cat, cs, first.Assignment))
}

func TestSolve_CancelledContext(t *testing.T) {
	cat := build(t, row{class: "CS 101", crn: "1"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Config{}).Solve(ctx, cat, Constraints{Classes: []model.ClassKey{key(t, "CS 101")}})
	assert.ErrorIs(t, err, ErrTimeout)
}

// pigeonhole builds n+1 classes competing for n identical slots, which forces
// an exhaustive search.
func pigeonhole(t *testing.T, n int) (*catalog.Catalog, Constraints) {
	var rows []row
	for c := 0; c <= n; c++ {
		for s := 0; s < n; s++ {
			rows = append(rows, row{
				class:   fmt.Sprintf("SUBJ %d", 100+c),
				crn:     fmt.Sprintf("%d-%d", c, s),
				meeting: fmt.Sprintf("M %02d:00 PM - %02d:30 PM", 1+s, 1+s),
			})
		}
	}
	cat := build(t, rows...)
	return cat, Constraints{Classes: cat.Classes()}
}

func TestSolve_DeadlineAbortsSearch(t *testing.T) {
	cat, cs := pigeonhole(t, 10)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	start := time.Now()
	res, err := New(Config{}).Solve(ctx, cat, cs)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Empty(t, res.Assignment)
	assert.Less(t, time.Since(start), time.Second)
}

func TestNew_TimeoutDefaults(t *testing.T) {
	assert.Equal(t, 2*time.Second, New(Config{}).timeout)
	assert.Equal(t, 50*time.Millisecond, New(Config{TimeoutMS: 50}).timeout)
}

func TestSolve_ConfiguredTimeoutWithoutDeadline(t *testing.T) {
	cat, cs := pigeonhole(t, 10)
	start := time.Now()
	_, err := New(Config{TimeoutMS: 5}).Solve(context.Background(), cat, cs)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSolve_SmallPigeonholeIsInfeasible(t *testing.T) {
	cat, cs := pigeonhole(t, 3)
	res, err := New(Config{}).Solve(context.Background(), cat, cs)
	require.NoError(t, err)
	assert.Equal(t, Infeasible, res.Status)
}

func TestSolve_NoMeetingsNeverConflict(t *testing.T) {
	cat := build(t,
		row{class: "CS 101", crn: "1"},
		row{class: "CS 102", crn: "2"},
	)
	cs := Constraints{
		Classes: []model.ClassKey{key(t, "CS 101"), key(t, "CS 102")},
		Banned:  meeting(t, "MTWRF 12:00 AM - 11:59 PM"),
	}
	res, err := New(Config{}).Solve(context.Background(), cat, cs)
	require.NoError(t, err)
	assert.True(t, res.Feasible())
}
