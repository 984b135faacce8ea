package indexdb

import (
	"context"
	"path/filepath"
	"testing"

	"settlers.ai/internal/persistence/snapshot"
	"settlers.ai/internal/sim/driver"
	"settlers.ai/internal/sim/tuning"
)

func TestSQLiteIndex_TicksAndTransitions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.sqlite")
	idx, err := OpenSQLite(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := idx.RecordTuning(tuning.Defaults()); err != nil {
		t.Fatalf("RecordTuning: %v", err)
	}
	idx.WriteTick(driver.TickLogEntry{World: "a", Tick: 2, Agents: 2, Digest: "d2", Transitions: []driver.TransitionRecord{
		{Agent: "wc", Profession: "woodcutter", From: "", To: "idle"},
		{Agent: "wc", Profession: "woodcutter", From: "idle", To: "breaking"},
		{Agent: "fo", Profession: "forester", From: "", To: "idle"},
	}})
	idx.WriteTick(driver.TickLogEntry{World: "b", Tick: 2, Digest: "other"})
	idx.WriteTick(driver.TickLogEntry{World: "a", Tick: 64, Agents: 2, Digest: "d64", Transitions: []driver.TransitionRecord{
		{Agent: "wc", Profession: "woodcutter", From: "breaking", To: "idle"},
	}})
	idx.RecordSnapshot("/data/snapshots/64.snap.zst", snapshot.SnapshotV1{Header: snapshot.Header{Tick: 64}})
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if idx.Dropped() != 0 {
		t.Fatalf("dropped %d", idx.Dropped())
	}

	idx, err = OpenSQLite(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()
	ctx := context.Background()

	trs, err := idx.Transitions(ctx, "a", "wc")
	if err != nil {
		t.Fatalf("Transitions: %v", err)
	}
	want := []string{"idle", "breaking", "idle"}
	if len(trs) != len(want) {
		t.Fatalf("transitions = %+v", trs)
	}
	for i, tr := range trs {
		if tr.To != want[i] {
			t.Fatalf("transition %d = %+v", i, tr)
		}
	}
	if trs[2].Tick != 64 || trs[2].From != "breaking" {
		t.Fatalf("last = %+v", trs[2])
	}

	d, ok, err := idx.Digest(ctx, "b", 2)
	if err != nil || !ok || d != "other" {
		t.Fatalf("Digest = %q %v %v", d, ok, err)
	}
	if _, ok, _ := idx.Digest(ctx, "a", 3); ok {
		t.Fatalf("digest for an unwritten tick")
	}
	snaps, err := idx.Snapshots(ctx, 5)
	if err != nil || len(snaps) != 1 || snaps[0].Tick != 64 || snaps[0].Path != "/data/snapshots/64.snap.zst" {
		t.Fatalf("Snapshots = %+v %v", snaps, err)
	}
}

func TestSQLiteIndex_DropsWhenFull(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.WriteTick(driver.TickLogEntry{Tick: 1})
	s.WriteTick(driver.TickLogEntry{Tick: 2})
	s.RecordSnapshot("x", snapshot.SnapshotV1{})
	if s.Dropped() != 2 {
		t.Fatalf("dropped = %d", s.Dropped())
	}

	var nilIndex *SQLiteIndex
	nilIndex.WriteTick(driver.TickLogEntry{Tick: 1})
}
