package catalog

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/kilianp07/classplan/core/model"
)

// ErrUnknownClass is returned when a class is not offered in the catalog.
var ErrUnknownClass = errors.New("unknown class")

// UnknownClassError names the missing class.
type UnknownClassError struct {
	Key model.ClassKey
}

func (e *UnknownClassError) Error() string { return fmt.Sprintf("unknown class %s", e.Key) }

func (e *UnknownClassError) Unwrap() error { return ErrUnknownClass }

// Meta describes where a snapshot came from.
type Meta struct {
	Source    string    `json:"source"`
	Term      string    `json:"term,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

type class struct {
	types  []string
	byType map[string][]model.Section
}

type located struct {
	key     model.ClassKey
	section model.Section
}

// Catalog is an immutable snapshot of offered classes. Section order within a
// type is the order in which the sections were added.
type Catalog struct {
	meta     Meta
	classes  map[model.ClassKey]*class
	keys     []model.ClassKey
	byCRN    map[string]located
	titles   map[model.ClassKey]string
	sections int
}

// SectionsFor returns a copy of the sections of one type of a class in catalog
// order. An unknown type yields an empty slice.
func (c *Catalog) SectionsFor(key model.ClassKey, typ string) ([]model.Section, error) {
	cl, ok := c.classes[key]
	if !ok {
		return nil, &UnknownClassError{Key: key}
	}
	return cloneSections(cl.byType[typ]), nil
}

// TypesFor returns the section types of a class in first-seen order.
func (c *Catalog) TypesFor(key model.ClassKey) ([]string, error) {
	cl, ok := c.classes[key]
	if !ok {
		return nil, &UnknownClassError{Key: key}
	}
	return slices.Clone(cl.types), nil
}

// Sections returns all sections of a class grouped by type in first-seen order.
func (c *Catalog) Sections(key model.ClassKey) ([]model.Section, error) {
	cl, ok := c.classes[key]
	if !ok {
		return nil, &UnknownClassError{Key: key}
	}
	var out []model.Section
	for _, t := range cl.types {
		out = append(out, cloneSections(cl.byType[t])...)
	}
	return out, nil
}

// Has reports whether the class is offered.
func (c *Catalog) Has(key model.ClassKey) bool {
	_, ok := c.classes[key]
	return ok
}

// Lookup finds a section by CRN.
func (c *Catalog) Lookup(crn string) (model.ClassKey, model.Section, bool) {
	l, ok := c.byCRN[crn]
	l.section.Intervals = slices.Clone(l.section.Intervals)
	return l.key, l.section, ok
}

// Classes lists the offered classes sorted by subject then number.
func (c *Catalog) Classes() []model.ClassKey { return slices.Clone(c.keys) }

// Subjects maps each subject code to its course numbers.
func (c *Catalog) Subjects() map[string][]string {
	grouped := lo.GroupBy(c.keys, func(k model.ClassKey) string { return k.Subject })
	return lo.MapValues(grouped, func(keys []model.ClassKey, _ string) []string {
		return lo.Map(keys, func(k model.ClassKey, _ int) string { return k.Number })
	})
}

// Title returns the course title when the source provided one.
func (c *Catalog) Title(key model.ClassKey) string { return c.titles[key] }

// Len returns the number of classes.
func (c *Catalog) Len() int { return len(c.keys) }

// SectionCount returns the number of sections across all classes.
func (c *Catalog) SectionCount() int { return c.sections }

func (c *Catalog) Meta() Meta { return c.meta }

// Each visits every section in class, type and catalog order.
func (c *Catalog) Each(fn func(model.ClassKey, model.Section)) {
	for _, k := range c.keys {
		cl := c.classes[k]
		for _, t := range cl.types {
			for _, s := range cl.byType[t] {
				s.Intervals = slices.Clone(s.Intervals)
				fn(k, s)
			}
		}
	}
}

// Builder accumulates sections and freezes them into a Catalog.
type Builder struct {
	c *Catalog
}

// NewBuilder returns an empty builder.
func NewBuilder(meta Meta) *Builder {
	return &Builder{c: &Catalog{
		meta:    meta,
		classes: make(map[model.ClassKey]*class),
		byCRN:   make(map[string]located),
		titles:  make(map[model.ClassKey]string),
	}}
}

// SetTitle records a course title. Titles of classes without sections are
// kept but the class itself is not offered.
func (b *Builder) SetTitle(key model.ClassKey, title string) {
	if b.c != nil && title != "" {
		b.c.titles[key] = title
	}
}

// Add appends a section to a class. CRNs must be unique across the catalog.
func (b *Builder) Add(key model.ClassKey, s model.Section) error {
	if b.c == nil {
		return errors.New("builder already built")
	}
	if key.IsZero() {
		return fmt.Errorf("section %s: empty class key", s.CRN)
	}
	if s.CRN == "" {
		return fmt.Errorf("%s: section without CRN", key)
	}
	if prev, ok := b.c.byCRN[s.CRN]; ok {
		return fmt.Errorf("duplicate CRN %s in %s and %s", s.CRN, prev.key, key)
	}
	cl, ok := b.c.classes[key]
	if !ok {
		cl = &class{byType: make(map[string][]model.Section)}
		b.c.classes[key] = cl
		b.c.keys = append(b.c.keys, key)
	}
	if _, seen := cl.byType[s.Type]; !seen {
		cl.types = append(cl.types, s.Type)
	}
	s.Intervals = append([]model.Interval(nil), s.Intervals...)
	cl.byType[s.Type] = append(cl.byType[s.Type], s)
	b.c.byCRN[s.CRN] = located{key: key, section: s}
	b.c.sections++
	return nil
}

// Build freezes the catalog. The builder cannot be reused.
func (b *Builder) Build() *Catalog {
	c := b.c
	b.c = nil
	if c == nil {
		return nil
	}
	sort.Slice(c.keys, func(i, j int) bool {
		if c.keys[i].Subject != c.keys[j].Subject {
			return c.keys[i].Subject < c.keys[j].Subject
		}
		return lessNumber(c.keys[i].Number, c.keys[j].Number)
	})
	return c
}

// cloneSections copies sections and their meetings so callers cannot reach
// into a shared snapshot.
func cloneSections(in []model.Section) []model.Section {
	if in == nil {
		return nil
	}
	out := make([]model.Section, len(in))
	for i, s := range in {
		s.Intervals = slices.Clone(s.Intervals)
		out[i] = s
	}
	return out
}

// lessNumber orders "98" before "100" and falls back to lexical order.
func lessNumber(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
