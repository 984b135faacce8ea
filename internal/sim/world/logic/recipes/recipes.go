package recipes

import (
	"sort"
	"strings"
)

// Definition is a crafting recipe after tag expansion: every input slot is a
// group of item kinds that may fill it.
type Definition struct {
	ID          string
	Result      string
	ResultCount int
	Groups      [][]string
}

// Available is the crafter's view of one recipe. It is immutable once built.
type Available struct {
	ID          string     `json:"id"`
	Result      string     `json:"result"`
	ResultCount int        `json:"result_count"`
	Groups      [][]string `json:"groups"`
}

func NewAvailable(def Definition) Available {
	groups := make([][]string, 0, len(def.Groups))
	for _, g := range def.Groups {
		if len(g) == 0 {
			continue
		}
		cp := append([]string(nil), g...)
		sort.Strings(cp)
		groups = append(groups, dedupe(cp))
	}
	n := def.ResultCount
	if n <= 0 {
		n = 1
	}
	return Available{ID: def.ID, Result: def.Result, ResultCount: n, Groups: groups}
}

// Match reports which items would be consumed to craft r from items. Every
// group takes one unit from the working pool, so a kind used by an earlier
// group is not available to a later one unless more units remain. A group
// without a representative fails the whole match.
func (r Available) Match(items map[string]int) ([]string, bool) {
	if len(r.Groups) == 0 {
		return nil, false
	}
	pool := make(map[string]int, len(items))
	for k, n := range items {
		if n > 0 {
			pool[k] = n
		}
	}
	used := make([]string, 0, len(r.Groups))
	for _, g := range r.Groups {
		picked := ""
		for _, kind := range g {
			if pool[kind] > 0 {
				picked = kind
				break
			}
		}
		if picked == "" {
			return nil, false
		}
		pool[picked]--
		used = append(used, picked)
	}
	return used, true
}

// WantedItems is the union of every group, sorted.
func (r Available) WantedItems() []string {
	seen := map[string]bool{}
	var out []string
	for _, g := range r.Groups {
		for _, kind := range g {
			if seen[kind] {
				continue
			}
			seen[kind] = true
			out = append(out, kind)
		}
	}
	sort.Strings(out)
	return out
}

func (r Available) String() string {
	parts := make([]string, 0, len(r.Groups))
	for _, g := range r.Groups {
		parts = append(parts, "["+strings.Join(g, "|")+"]")
	}
	return r.ID + ": " + strings.Join(parts, " ") + " -> " + r.Result
}

// Counts folds consumed kinds back into a multiset.
func Counts(kinds []string) map[string]int {
	out := make(map[string]int, len(kinds))
	for _, k := range kinds {
		out[k]++
	}
	return out
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i > 0 && s == sorted[i-1] {
			continue
		}
		out = append(out, s)
	}
	return out
}
