package solver

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/kilianp07/classplan/core/catalog"
	"github.com/kilianp07/classplan/core/model"
)

// Verify checks an assignment against the catalog and constraints it was
// produced from. It returns the first violation found.
func Verify(cat *catalog.Catalog, cs Constraints, a Assignment) error {
	var all []model.Section
	for _, k := range lo.Uniq(cs.Classes) {
		types, err := cat.TypesFor(k)
		if err != nil {
			return err
		}
		secs := a[k]
		for _, t := range types {
			n := lo.CountBy(secs, func(s model.Section) bool { return s.Type == t })
			if n != 1 {
				return fmt.Errorf("%s: %d %s sections chosen, want 1", k, n, t)
			}
		}
		if len(secs) != len(types) {
			return fmt.Errorf("%s: %d sections chosen for %d types", k, len(secs), len(types))
		}
		for _, s := range secs {
			key, _, ok := cat.Lookup(s.CRN)
			if !ok || key != k {
				return fmt.Errorf("%s: CRN %s is not offered by this class", k, s.CRN)
			}
			if s.HitsAny(cs.Banned) {
				return fmt.Errorf("%s: CRN %s meets in a banned window", k, s.CRN)
			}
			if s.Closed() && !lo.Contains(cs.Picked, s.CRN) && !lo.Contains(cs.Locked, s.CRN) {
				return fmt.Errorf("%s: CRN %s is closed", k, s.CRN)
			}
		}
		all = append(all, secs...)
	}
	for i := range all {
		for j := i + 1; j < len(all); j++ {
			if all[i].Conflicts(all[j]) {
				return fmt.Errorf("CRN %s overlaps CRN %s", all[i].CRN, all[j].CRN)
			}
		}
	}
	chosen := lo.Map(all, func(s model.Section, _ int) string { return s.CRN })
	for _, crn := range cs.Locked {
		if !lo.Contains(chosen, crn) {
			return fmt.Errorf("locked CRN %s missing", crn)
		}
	}
	return nil
}
