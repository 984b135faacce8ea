package main

import (
	"bytes"
	"strings"
	"testing"

	persistlog "settlers.ai/internal/persistence/log"
	"settlers.ai/internal/persistence/snapshot"
	"settlers.ai/internal/sim/driver"
	"settlers.ai/internal/sim/world"
	"settlers.ai/internal/sim/worldtest"
)

// record runs a small scene for 40 ticks, snapshotting at tick 10, and
// writes every entry through tamper to a tick log.
func record(t *testing.T, tamper func(*driver.TickLogEntry)) (*worldtest.Harness, snapshot.SnapshotV1, []string) {
	t.Helper()
	h := worldtest.New(t)
	ws := worldtest.P(0, 1, -3)
	h.SetBlock(worldtest.P(4, 1, 0), "OAK_LOG")
	h.AddAgent(world.AgentSpec{ID: "wc", Profession: "woodcutter", Pos: worldtest.P(0, 1, 0), Workstation: &ws})

	dataDir := t.TempDir()
	tl := persistlog.NewTickLogger(dataDir)
	var snap snapshot.SnapshotV1
	for i := 0; i < 40; i++ {
		h.Step(1)
		for _, e := range h.Last {
			if tamper != nil {
				tamper(&e)
			}
			if err := tl.WriteTick(e); err != nil {
				t.Fatalf("WriteTick: %v", err)
			}
		}
		if h.D.Tick() == 10 {
			snap = h.D.Export()
		}
	}
	if err := tl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	files, err := persistlog.Files(dataDir)
	if err != nil || len(files) == 0 {
		t.Fatalf("Files = %v %v", files, err)
	}
	return h, snap, files
}

func restored(t *testing.T, h *worldtest.Harness, snap snapshot.SnapshotV1) *driver.Driver {
	t.Helper()
	d, err := driver.New(driver.Options{Catalogs: h.Cats, Tuning: h.Tun})
	if err != nil {
		t.Fatalf("driver.New: %v", err)
	}
	if err := d.Restore(snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	return d
}

func TestVerify_MatchesLog(t *testing.T) {
	h, snap, files := record(t, nil)
	d := restored(t, h, snap)
	res, err := verify(d, files, 0)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if res.Checked != 30 || res.Skipped != 10 || d.Tick() != 40 {
		t.Fatalf("res = %+v tick=%d", res, d.Tick())
	}

	d = restored(t, h, snap)
	res, err = verify(d, files, 25)
	if err != nil || res.Checked != 15 || d.Tick() != 25 {
		t.Fatalf("to_tick: res=%+v tick=%d err=%v", res, d.Tick(), err)
	}
}

func TestVerify_ReportsMismatch(t *testing.T) {
	h, snap, files := record(t, func(e *driver.TickLogEntry) {
		if e.Tick == 33 {
			e.Digest = "0000"
		}
	})
	d := restored(t, h, snap)
	_, err := verify(d, files, 0)
	if err == nil || !strings.Contains(err.Error(), "digest mismatch at tick 33") {
		t.Fatalf("err = %v", err)
	}
}

func TestSummarize(t *testing.T) {
	_, _, files := record(t, nil)
	s, err := summarize(files, 0)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if s.Entries != 40 || s.FirstTick != 1 || s.LastTick != 40 {
		t.Fatalf("summary = %+v", s)
	}
	if s.Transitions[transitionKey{"woodcutter", "idle", "breaking"}] != 1 {
		t.Fatalf("transitions = %v", s.Transitions)
	}
	if s.Final["test/wc"] == "" {
		t.Fatalf("final = %v", s.Final)
	}
	var buf bytes.Buffer
	s.print(&buf)
	if !strings.Contains(buf.String(), "test/wc: ") {
		t.Fatalf("output:\n%s", buf.String())
	}
}
