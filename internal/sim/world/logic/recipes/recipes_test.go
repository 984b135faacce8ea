package recipes

import "testing"

func planks() Available {
	return NewAvailable(Definition{
		ID:          "planks_from_logs",
		Result:      "OAK_PLANKS",
		ResultCount: 4,
		Groups:      [][]string{{"OAK_LOG", "BIRCH_LOG"}},
	})
}

func TestMatch_SingleGroup(t *testing.T) {
	r := planks()
	used, ok := r.Match(map[string]int{"BIRCH_LOG": 3})
	if !ok {
		t.Fatalf("expected match")
	}
	if len(used) != 1 || used[0] != "BIRCH_LOG" {
		t.Fatalf("used=%v", used)
	}
	if _, ok := r.Match(map[string]int{"STICK": 5}); ok {
		t.Fatalf("expected no match")
	}
}

func TestMatch_ConsumptionAcrossGroups(t *testing.T) {
	r := NewAvailable(Definition{
		ID:     "sticks",
		Result: "STICK",
		Groups: [][]string{{"OAK_PLANKS"}, {"OAK_PLANKS"}},
	})
	if _, ok := r.Match(map[string]int{"OAK_PLANKS": 1}); ok {
		t.Fatalf("one plank must not satisfy two groups")
	}
	used, ok := r.Match(map[string]int{"OAK_PLANKS": 2})
	if !ok || len(used) != 2 {
		t.Fatalf("used=%v ok=%v", used, ok)
	}
	if r.ResultCount != 1 {
		t.Fatalf("default result count = %d", r.ResultCount)
	}
}

func TestMatch_NeverPartial(t *testing.T) {
	r := NewAvailable(Definition{
		ID:     "axe",
		Result: "WOODEN_AXE",
		Groups: [][]string{{"OAK_PLANKS"}, {"OAK_PLANKS"}, {"OAK_PLANKS"}, {"STICK"}, {"STICK"}},
	})
	cases := []struct {
		items map[string]int
		ok    bool
	}{
		{map[string]int{"OAK_PLANKS": 3, "STICK": 2}, true},
		{map[string]int{"OAK_PLANKS": 3, "STICK": 1}, false},
		{map[string]int{"OAK_PLANKS": 2, "STICK": 9}, false},
		{map[string]int{"OAK_PLANKS": 9, "STICK": 9, "DIRT": 1}, true},
		{map[string]int{}, false},
	}
	for i, tc := range cases {
		used, ok := r.Match(tc.items)
		if ok != tc.ok {
			t.Fatalf("case %d: ok=%v want %v", i, ok, tc.ok)
		}
		if ok && len(used) != len(r.Groups) {
			t.Fatalf("case %d: used %d items for %d groups", i, len(used), len(r.Groups))
		}
		if !ok && used != nil {
			t.Fatalf("case %d: partial result %v", i, used)
		}
	}
}

func TestMatch_DoesNotMutateInput(t *testing.T) {
	items := map[string]int{"OAK_LOG": 1}
	if _, ok := planks().Match(items); !ok {
		t.Fatalf("expected match")
	}
	if items["OAK_LOG"] != 1 {
		t.Fatalf("input mutated: %v", items)
	}
}

func TestWantedItems_UnionSorted(t *testing.T) {
	r := NewAvailable(Definition{
		ID:     "mixed",
		Result: "X",
		Groups: [][]string{{"STICK", "OAK_LOG"}, {"OAK_LOG"}, {"APPLE"}, {}},
	})
	got := r.WantedItems()
	want := []string{"APPLE", "OAK_LOG", "STICK"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
	if len(r.Groups) != 3 {
		t.Fatalf("empty group should be dropped: %v", r.Groups)
	}
}
