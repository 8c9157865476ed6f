package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/kilianp07/classplan/core/catalog"
	"github.com/kilianp07/classplan/core/model"
)

// pollEvery is the number of search nodes between context checks.
const pollEvery = 64

// Constraints is everything a user asks for in one solve.
type Constraints struct {
	// Classes to schedule, in request order. Duplicates are ignored.
	Classes []model.ClassKey
	// Banned weekly windows no chosen meeting may touch.
	Banned []model.Interval
	// Locked CRNs that must appear unchanged in the result.
	Locked []string
	// Picked CRNs the user currently holds; closed sections are only
	// considered when picked.
	Picked []string
}

// Status is the outcome of a completed search.
type Status int

const (
	Feasible Status = iota
	Infeasible
)

func (s Status) String() string {
	if s == Feasible {
		return "feasible"
	}
	return "infeasible"
}

// Assignment maps each requested class to its chosen sections, ordered by
// section type rank.
type Assignment map[model.ClassKey][]model.Section

// CRNs lists the chosen CRNs of every class.
func (a Assignment) CRNs() []string {
	var out []string
	for _, secs := range a {
		for _, s := range secs {
			out = append(out, s.CRN)
		}
	}
	return out
}

// Result of a search that ran to completion.
type Result struct {
	Status     Status
	Assignment Assignment
	// Reason explains an infeasible outcome.
	Reason   string
	Nodes    int
	Duration time.Duration
}

func (r Result) Feasible() bool { return r.Status == Feasible }

// Solver finds the first conflict-free assignment in deterministic order.
// It holds no mutable state and is safe for concurrent use.
type Solver struct {
	ranker  typeRanker
	timeout time.Duration
}

// New builds a Solver from its configuration.
func New(cfg Config) *Solver {
	cfg.SetDefaults()
	return &Solver{ranker: newTypeRanker(cfg.TypeOrder), timeout: cfg.Timeout()}
}

// slot is one (class, type) pair still to be decided.
type slot struct {
	class      model.ClassKey
	typ        string
	candidates []model.Section
}

// component is a (class, type) pair in output order.
type component struct {
	class model.ClassKey
	typ   string
}

type plan struct {
	order  []component
	locked map[component]model.Section
	slots  []slot
}

// Solve searches for one section per (class, type) pair of the requested
// classes. An exhausted search is reported as an Infeasible result, not an
// error. Errors are reserved for malformed requests and timeouts.
func (s *Solver) Solve(ctx context.Context, cat *catalog.Catalog, cs Constraints) (Result, error) {
	start := time.Now()
	if _, ok := ctx.Deadline(); !ok && s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	p, err := s.prepare(cat, cs)
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	for _, sl := range p.slots {
		if len(sl.candidates) == 0 {
			return Result{
				Status:   Infeasible,
				Reason:   fmt.Sprintf("no available %s section of %s", sl.typ, sl.class),
				Duration: time.Since(start),
			}, nil
		}
	}

	sr := search{ctx: ctx, slots: p.slots, chosen: make([]model.Section, len(p.slots)), deepest: -1}
	found := sr.run(0)
	res := Result{Nodes: sr.nodes, Duration: time.Since(start)}
	if sr.err != nil {
		return Result{}, fmt.Errorf("%w after %d nodes: %v", ErrTimeout, sr.nodes, sr.err)
	}
	if !found {
		res.Status = Infeasible
		if sr.deepest >= 0 {
			sl := p.slots[sr.deepest]
			res.Reason = fmt.Sprintf("no %s section of %s fits the rest of the schedule", sl.typ, sl.class)
		}
		return res, nil
	}
	res.Status = Feasible
	res.Assignment = p.assemble(sr.chosen)
	return res, nil
}

// prepare validates the request and lays out the slots to search.
func (s *Solver) prepare(cat *catalog.Catalog, cs Constraints) (*plan, error) {
	classes := lo.Uniq(cs.Classes)
	p := &plan{locked: make(map[component]model.Section)}

	typesOf := make(map[model.ClassKey][]string, len(classes))
	for _, k := range classes {
		types, err := cat.TypesFor(k)
		if err != nil {
			return nil, err
		}
		typesOf[k] = s.ranker.sort(types)
	}

	var lockedSecs []model.Section
	for _, crn := range lo.Uniq(cs.Locked) {
		key, sec, ok := cat.Lookup(crn)
		if !ok || !lo.Contains(classes, key) {
			return nil, &LockError{CRN: crn, Reason: "not offered by any requested class"}
		}
		c := component{class: key, typ: sec.Type}
		if prev, dup := p.locked[c]; dup {
			return nil, &LockError{CRN: crn, Reason: fmt.Sprintf("%s %s is already locked to %s", key, sec.Type, prev.CRN)}
		}
		if sec.HitsAny(cs.Banned) {
			return nil, &LockError{CRN: crn, Reason: "overlaps a banned time"}
		}
		if other, clash := lo.Find(lockedSecs, sec.Conflicts); clash {
			return nil, &LockError{CRN: crn, Reason: fmt.Sprintf("overlaps locked section %s", other.CRN)}
		}
		p.locked[c] = sec
		lockedSecs = append(lockedSecs, sec)
	}

	picked := lo.SliceToMap(cs.Picked, func(crn string) (string, struct{}) { return crn, struct{}{} })
	for _, k := range classes {
		for _, t := range typesOf[k] {
			c := component{class: k, typ: t}
			p.order = append(p.order, c)
			if _, ok := p.locked[c]; ok {
				continue
			}
			secs, _ := cat.SectionsFor(k, t)
			cands := lo.Filter(secs, func(sec model.Section, _ int) bool {
				if _, ok := picked[sec.CRN]; sec.Closed() && !ok {
					return false
				}
				if sec.HitsAny(cs.Banned) {
					return false
				}
				return !lo.SomeBy(lockedSecs, sec.Conflicts)
			})
			p.slots = append(p.slots, slot{class: k, typ: t, candidates: cands})
		}
	}
	return p, nil
}

func (p *plan) assemble(chosen []model.Section) Assignment {
	bySlot := make(map[component]model.Section, len(chosen))
	for i, sl := range p.slots {
		bySlot[component{class: sl.class, typ: sl.typ}] = chosen[i]
	}
	out := make(Assignment)
	for _, c := range p.order {
		sec, ok := p.locked[c]
		if !ok {
			sec = bySlot[c]
		}
		out[c.class] = append(out[c.class], sec)
	}
	return out
}

type search struct {
	ctx     context.Context
	slots   []slot
	chosen  []model.Section
	nodes   int
	deepest int
	err     error
}

func (s *search) run(depth int) bool {
	if depth == len(s.slots) {
		return true
	}
	for _, cand := range s.slots[depth].candidates {
		s.nodes++
		if s.nodes%pollEvery == 0 {
			if err := s.ctx.Err(); err != nil {
				s.err = err
				return false
			}
		}
		if s.conflicts(cand, depth) {
			continue
		}
		s.chosen[depth] = cand
		if s.run(depth + 1) {
			return true
		}
		if s.err != nil {
			return false
		}
	}
	if depth > s.deepest {
		s.deepest = depth
	}
	return false
}

func (s *search) conflicts(cand model.Section, depth int) bool {
	for _, prev := range s.chosen[:depth] {
		if cand.Conflicts(prev) {
			return true
		}
	}
	return false
}
