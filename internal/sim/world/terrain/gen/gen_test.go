package gen

import "testing"

func TestTreeAt_Deterministic(t *testing.T) {
	found := 0
	for x := -50; x <= 50; x++ {
		for z := -50; z <= 50; z++ {
			h1, ok1 := TreeAt(9, x, z, 500, 0)
			h2, ok2 := TreeAt(9, x, z, 500, 0)
			if ok1 != ok2 || h1 != h2 {
				t.Fatalf("non-deterministic at %d,%d", x, z)
			}
			if ok1 {
				found++
				if h1 < 4 || h1 > 6 {
					t.Fatalf("height %d out of range", h1)
				}
			}
		}
	}
	if found == 0 {
		t.Fatalf("expected some trees at 500 permille")
	}
}

func TestTreeAt_SpawnClearAndZero(t *testing.T) {
	for x := -10; x <= 10; x++ {
		for z := -10; z <= 10; z++ {
			if _, ok := TreeAt(1, x, z, 1000, 10); ok && WithinSpawnClear(x, z, 10) {
				t.Fatalf("tree inside spawn clear at %d,%d", x, z)
			}
			if _, ok := TreeAt(1, x, z, 0, 0); ok {
				t.Fatalf("tree with 0 permille")
			}
		}
	}
}

func TestCanopy(t *testing.T) {
	if Canopy(0, 0, 0) {
		t.Fatalf("trunk top is not a leaf")
	}
	if !Canopy(0, 0, 1) {
		t.Fatalf("block above the trunk should be a leaf")
	}
	if Canopy(2, 2, 0) {
		t.Fatalf("corners are trimmed")
	}
	if Canopy(1, 0, 2) {
		t.Fatalf("canopy is three layers")
	}
}
