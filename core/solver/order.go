package solver

import (
	"sort"
	"strings"
)

type typeRanker map[string]int

func newTypeRanker(order []string) typeRanker {
	r := make(typeRanker, len(order))
	for i, t := range order {
		key := strings.ToLower(strings.TrimSpace(t))
		if _, dup := r[key]; !dup {
			r[key] = i
		}
	}
	return r
}

func (r typeRanker) rank(t string) (int, bool) {
	i, ok := r[strings.ToLower(strings.TrimSpace(t))]
	return i, ok
}

// sort returns types with ranked ones first, then the rest in lexical order.
func (r typeRanker) sort(types []string) []string {
	out := append([]string(nil), types...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, oki := r.rank(out[i])
		rj, okj := r.rank(out[j])
		switch {
		case oki && okj:
			return ri < rj
		case oki != okj:
			return oki
		default:
			return out[i] < out[j]
		}
	})
	return out
}
