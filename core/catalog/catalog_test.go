package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/classplan/core/factory"
	"github.com/kilianp07/classplan/core/model"
)

func sampleCatalog(t *testing.T) *Catalog {
	t.Helper()
	b := NewBuilder(Meta{Source: "test"})
	cs225 := model.NewClassKey("CS", "225")
	cs100 := model.NewClassKey("CS", "100")
	math := model.NewClassKey("MATH", "241")
	rows := []struct {
		key model.ClassKey
		sec model.Section
	}{
		{cs225, model.Section{CRN: "10", Type: "Lecture", Label: "AL1"}},
		{cs225, model.Section{CRN: "11", Type: "Laboratory", Label: "AYA"}},
		{cs225, model.Section{CRN: "12", Type: "Lecture", Label: "AL2"}},
		{math, model.Section{CRN: "20", Type: "Lecture"}},
		{cs100, model.Section{CRN: "30", Type: "Lecture"}},
	}
	for _, r := range rows {
		require.NoError(t, b.Add(r.key, r.sec))
	}
	b.SetTitle(cs225, "Data Structures")
	return b.Build()
}

func TestCatalogLookups(t *testing.T) {
	c := sampleCatalog(t)
	key := model.NewClassKey("cs", "225")

	types, err := c.TypesFor(key)
	require.NoError(t, err)
	assert.Equal(t, []string{"Lecture", "Laboratory"}, types)

	lec, err := c.SectionsFor(key, "Lecture")
	require.NoError(t, err)
	require.Len(t, lec, 2)
	assert.Equal(t, "10", lec[0].CRN, "catalog order must be preserved")
	assert.Equal(t, "12", lec[1].CRN)

	none, err := c.SectionsFor(key, "Discussion")
	require.NoError(t, err)
	assert.Empty(t, none)

	k, s, ok := c.Lookup("11")
	assert.True(t, ok)
	assert.Equal(t, key, k)
	assert.Equal(t, "AYA", s.Label)

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 5, c.SectionCount())
	assert.Equal(t, "test", c.Meta().Source)
	assert.Equal(t, "Data Structures", c.Title(key))
	assert.Empty(t, c.Title(model.NewClassKey("CS", "100")))
}

func TestCatalogReturnsCopies(t *testing.T) {
	b := NewBuilder(Meta{})
	key := model.NewClassKey("CS", "225")
	iv, err := model.NewInterval(model.Monday, model.MustClock(10, 0), model.MustClock(10, 50))
	require.NoError(t, err)
	require.NoError(t, b.Add(key, model.Section{CRN: "10", Type: "Lecture", Status: "Open", Intervals: []model.Interval{iv}}))
	c := b.Build()

	secs, err := c.SectionsFor(key, "Lecture")
	require.NoError(t, err)
	secs[0].Status = "Closed"
	secs[0].Intervals[0].Start = model.MustClock(8, 0)

	all, err := c.Sections(key)
	require.NoError(t, err)
	all[0].CRN = "99"

	types, err := c.TypesFor(key)
	require.NoError(t, err)
	types[0] = "Laboratory"

	c.Classes()[0] = model.NewClassKey("PHYS", "211")

	_, found, ok := c.Lookup("10")
	require.True(t, ok)
	found.Intervals[0].End = model.MustClock(23, 0)

	again, err := c.SectionsFor(key, "Lecture")
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, "Open", again[0].Status)
	assert.Equal(t, "10", again[0].CRN)
	assert.Equal(t, iv, again[0].Intervals[0])
	types, _ = c.TypesFor(key)
	assert.Equal(t, []string{"Lecture"}, types)
	assert.Equal(t, []model.ClassKey{key}, c.Classes())
	_, found, _ = c.Lookup("10")
	assert.Equal(t, iv, found.Intervals[0])
}

func TestCatalogUnknownClass(t *testing.T) {
	c := sampleCatalog(t)
	missing := model.NewClassKey("PHYS", "211")
	_, err := c.SectionsFor(missing, "Lecture")
	assert.True(t, errors.Is(err, ErrUnknownClass))
	_, err = c.TypesFor(missing)
	var uce *UnknownClassError
	require.True(t, errors.As(err, &uce))
	assert.Equal(t, missing, uce.Key)
}

func TestCatalogOrderingAndSubjects(t *testing.T) {
	c := sampleCatalog(t)
	assert.Equal(t, []model.ClassKey{
		model.NewClassKey("CS", "100"),
		model.NewClassKey("CS", "225"),
		model.NewClassKey("MATH", "241"),
	}, c.Classes())
	assert.Equal(t, map[string][]string{"CS": {"100", "225"}, "MATH": {"241"}}, c.Subjects())

	var crns []string
	c.Each(func(_ model.ClassKey, s model.Section) { crns = append(crns, s.CRN) })
	assert.Equal(t, []string{"30", "10", "12", "11", "20"}, crns)
}

func TestBuilderRejects(t *testing.T) {
	b := NewBuilder(Meta{})
	key := model.NewClassKey("CS", "225")
	require.NoError(t, b.Add(key, model.Section{CRN: "1", Type: "Lecture"}))
	assert.Error(t, b.Add(model.NewClassKey("CS", "233"), model.Section{CRN: "1"}), "duplicate CRN")
	assert.Error(t, b.Add(key, model.Section{Type: "Lecture"}), "missing CRN")
	assert.Error(t, b.Add(model.ClassKey{}, model.Section{CRN: "2"}), "empty key")
	b.Build()
	assert.Error(t, b.Add(key, model.Section{CRN: "3"}), "builder reuse")
}

func TestStoreSwap(t *testing.T) {
	s := NewStore()
	assert.False(t, s.Ready())
	assert.Nil(t, s.Load())

	first := sampleCatalog(t)
	assert.Nil(t, s.Swap(first))
	held := s.Load()

	second := NewBuilder(Meta{Source: "next"}).Build()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Load().Len()
		}()
	}
	prev := s.Swap(second)
	wg.Wait()
	assert.Same(t, first, prev)
	assert.Equal(t, 3, held.Len(), "readers keep their snapshot")
	assert.Equal(t, "next", s.Load().Meta().Source)
}

func TestSourceRegistry(t *testing.T) {
	c := sampleCatalog(t)
	require.NoError(t, RegisterSource("fixed-test", func(map[string]any) (Source, error) {
		return StaticSource{Catalog: c}, nil
	}))
	src, err := NewSource(factory.ModuleConfig{Type: "fixed-test"})
	require.NoError(t, err)
	got, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Same(t, c, got)

	_, err = NewSource(factory.ModuleConfig{Type: "nope"})
	assert.Error(t, err)
}
