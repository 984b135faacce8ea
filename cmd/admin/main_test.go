package main

import (
	"bytes"
	"strings"
	"testing"

	"settlers.ai/internal/persistence/snapshot"
	"settlers.ai/internal/sim/world/kernel/model"
)

func TestWriteSummary(t *testing.T) {
	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{Version: snapshot.Version, Tick: 6000, Worlds: []string{"w"}},
		Worlds: []snapshot.WorldV1{{
			ID:   "w",
			Tick: 6000,
			Agents: []snapshot.AgentV1{
				{ID: "wc", Profession: "woodcutter", Pos: model.Vec3f{X: 1.5, Y: 1, Z: 0.5},
					Inventory: []model.ItemStack{{Item: "OAK_LOG", Count: 3}, {Item: "STICK", Count: 2}},
					Memory:    model.Memory{JobStatus: "breaking"}},
				{ID: "fo", Profession: "forester", Dead: true, Memory: model.Memory{JobStatus: "planting"}},
			},
		}},
	}
	var buf bytes.Buffer
	writeSummary(&buf, snap)
	out := buf.String()
	for _, want := range []string{"tick=6000 worlds=1", "world w ", "breaking", "items=5", "dead"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "planting") {
		t.Fatalf("dead agent shown with its job status:\n%s", out)
	}
}
