package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/classplan/core/catalog"
	"github.com/kilianp07/classplan/core/model"
	"github.com/kilianp07/classplan/core/solver"
)

type SectionDef struct {
	Class  string `yaml:"class"`
	CRN    string `yaml:"crn"`
	Type   string `yaml:"type"`
	Label  string `yaml:"section,omitempty"`
	Days   string `yaml:"days,omitempty"`
	Time   string `yaml:"time,omitempty"`
	Status string `yaml:"status,omitempty"`
}

type WindowDef struct {
	Days string `yaml:"days"`
	Time string `yaml:"time"`
}

type RequestDef struct {
	Classes []string    `yaml:"classes"`
	Banned  []WindowDef `yaml:"banned,omitempty"`
	Locked  []string    `yaml:"locked,omitempty"`
	Picked  []string    `yaml:"picked,omitempty"`
}

// Expected outcome. Error is one of invalid_lock, unknown_class or timeout;
// when set, Status is ignored.
type Expected struct {
	Status string              `yaml:"status"`
	Error  string              `yaml:"error,omitempty"`
	CRNs   map[string][]string `yaml:"crns,omitempty"`
}

type Scenario struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description,omitempty"`
	Sections    []SectionDef `yaml:"sections"`
	Request     RequestDef   `yaml:"request"`
	Expected    Expected     `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("%s: scenario name is required", path)
	}
	return &sc, nil
}

// Catalog builds the scenario's catalog in file order.
func (sc *Scenario) Catalog() (*catalog.Catalog, error) {
	b := catalog.NewBuilder(catalog.Meta{Source: "scenario", Term: sc.Name})
	for _, d := range sc.Sections {
		key, err := model.ParseClassKey(d.Class)
		if err != nil {
			return nil, err
		}
		ivs, err := model.ParseMeeting(d.Days, d.Time)
		if err != nil {
			return nil, fmt.Errorf("section %s: %w", d.CRN, err)
		}
		sec := model.Section{CRN: d.CRN, Type: d.Type, Label: d.Label, Status: d.Status, Intervals: ivs}
		if err := b.Add(key, sec); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

// Constraints converts the request.
func (sc *Scenario) Constraints() (solver.Constraints, error) { return sc.Request.Constraints() }

// Constraints parses class keys and banned windows.
func (r RequestDef) Constraints() (solver.Constraints, error) {
	cs := solver.Constraints{Locked: r.Locked, Picked: r.Picked}
	for _, c := range r.Classes {
		key, err := model.ParseClassKey(c)
		if err != nil {
			return cs, err
		}
		cs.Classes = append(cs.Classes, key)
	}
	for _, w := range r.Banned {
		ivs, err := model.ParseMeeting(w.Days, w.Time)
		if err != nil {
			return cs, fmt.Errorf("banned %s %s: %w", w.Days, w.Time, err)
		}
		if len(ivs) == 0 {
			return cs, fmt.Errorf("banned window %q %q has no time", w.Days, w.Time)
		}
		cs.Banned = append(cs.Banned, ivs...)
	}
	return cs, nil
}

// LoadRequest reads a standalone request file with the same layout as a
// scenario's request block.
func LoadRequest(path string) (RequestDef, error) {
	var r RequestDef
	data, err := os.ReadFile(path)
	if err != nil {
		return r, err
	}
	if err := yaml.Unmarshal(data, &r); err != nil {
		return r, err
	}
	if len(r.Classes) == 0 {
		return r, fmt.Errorf("%s: no classes requested", path)
	}
	return r, nil
}
