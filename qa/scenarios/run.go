package scenarios

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"testing"

	"github.com/kilianp07/classplan/core/catalog"
	"github.com/kilianp07/classplan/core/solver"
)

// Outcome is what a scenario produced.
type Outcome struct {
	Status string
	Error  string
	CRNs   map[string][]string
	Nodes  int
}

// Run solves the scenario once and verifies any feasible assignment.
func Run(ctx context.Context, s *solver.Solver, sc *Scenario) (Outcome, error) {
	cat, err := sc.Catalog()
	if err != nil {
		return Outcome{}, fmt.Errorf("catalog: %w", err)
	}
	cs, err := sc.Constraints()
	if err != nil {
		return Outcome{}, fmt.Errorf("constraints: %w", err)
	}
	res, err := s.Solve(ctx, cat, cs)
	if err != nil {
		return Outcome{Error: errorCode(err)}, nil
	}
	out := Outcome{Status: res.Status.String(), CRNs: map[string][]string{}, Nodes: res.Nodes}
	if res.Feasible() {
		if err := solver.Verify(cat, cs, res.Assignment); err != nil {
			return out, fmt.Errorf("verify: %w", err)
		}
		for k, secs := range res.Assignment {
			for _, sec := range secs {
				out.CRNs[k.String()] = append(out.CRNs[k.String()], sec.CRN)
			}
		}
	}
	return out, nil
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, solver.ErrInvalidLock):
		return "invalid_lock"
	case errors.Is(err, catalog.ErrUnknownClass):
		return "unknown_class"
	case errors.Is(err, solver.ErrTimeout):
		return "timeout"
	default:
		return err.Error()
	}
}

// Check compares an outcome with the scenario's expectations.
func (e Expected) Check(o Outcome) error {
	if e.Error != "" || o.Error != "" {
		if e.Error != o.Error {
			return fmt.Errorf("error: want %q got %q", e.Error, o.Error)
		}
		return nil
	}
	if e.Status != o.Status {
		return fmt.Errorf("status: want %s got %s", e.Status, o.Status)
	}
	if e.CRNs == nil {
		return nil
	}
	want, got := normalize(e.CRNs), normalize(o.CRNs)
	if !reflect.DeepEqual(want, got) {
		return fmt.Errorf("crns: want %v got %v", want, got)
	}
	return nil
}

func normalize(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, v := range m {
		cp := append([]string(nil), v...)
		sort.Strings(cp)
		out[k] = cp
	}
	return out
}

// RunScenario runs sc twice against a default solver and fails t when the
// outcome differs from the expectation or between runs.
func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	s := solver.New(solver.Config{})
	first, err := Run(context.Background(), s, sc)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := sc.Expected.Check(first); err != nil {
		t.Fatalf("%s: %v", sc.Name, err)
	}
	second, err := Run(context.Background(), s, sc)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !reflect.DeepEqual(normalize(first.CRNs), normalize(second.CRNs)) {
		t.Fatalf("non-deterministic assignment: %v vs %v", first.CRNs, second.CRNs)
	}
	t.Logf("%s: %s in %d nodes", sc.Name, first.Status, first.Nodes)
}
