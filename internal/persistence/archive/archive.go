// Package archive manages the snapshot directory of a run: it finds the
// newest snapshot to resume from, keeps a bounded number of rolling
// snapshots, and copies milestone snapshots aside with a small meta file.
package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"settlers.ai/internal/persistence/snapshot"
)

const suffix = ".snap.zst"

type Meta struct {
	Tick      uint64   `json:"tick"`
	Worlds    []string `json:"worlds"`
	Agents    int      `json:"agents"`
	Snapshot  string   `json:"snapshot"`
	CreatedAt string   `json:"created_at"`
}

type entry struct {
	tick uint64
	path string
}

func list(dir string) ([]entry, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []entry
	for _, e := range ents {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, suffix) {
			continue
		}
		tick, err := strconv.ParseUint(strings.TrimSuffix(name, suffix), 10, 64)
		if err != nil {
			continue
		}
		out = append(out, entry{tick: tick, path: filepath.Join(dir, name)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].tick < out[j].tick })
	return out, nil
}

// List returns the snapshot paths in dir, oldest first.
func List(dir string) ([]string, error) {
	ents, err := list(dir)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(ents))
	for i, e := range ents {
		out[i] = e.path
	}
	return out, nil
}

// Latest returns the snapshot with the highest tick in dir, or "" when there
// is none.
func Latest(dir string) (string, error) {
	ents, err := list(dir)
	if err != nil || len(ents) == 0 {
		return "", err
	}
	return ents[len(ents)-1].path, nil
}

// Prune removes all but the newest keep snapshots in dir. keep <= 0 keeps
// everything.
func Prune(dir string, keep int) (removed int, err error) {
	if keep <= 0 {
		return 0, nil
	}
	ents, err := list(dir)
	if err != nil {
		return 0, err
	}
	for len(ents) > keep {
		if err := os.Remove(ents[0].path); err != nil && !os.IsNotExist(err) {
			return removed, err
		}
		removed++
		ents = ents[1:]
	}
	return removed, nil
}

// Milestone copies a snapshot into archiveDir/tick_<N>/ when its tick is a
// multiple of every, and writes meta.json next to it. It reports whether a
// copy was made.
func Milestone(archiveDir, snapshotPath string, snap snapshot.SnapshotV1, every uint64) (string, bool, error) {
	tick := snap.Header.Tick
	if every == 0 || tick == 0 || tick%every != 0 {
		return "", false, nil
	}
	dir := filepath.Join(archiveDir, fmt.Sprintf("tick_%012d", tick))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, err
	}
	dst := filepath.Join(dir, filepath.Base(snapshotPath))
	if err := copyFile(snapshotPath, dst); err != nil {
		return "", false, err
	}

	meta := Meta{
		Tick:      tick,
		Worlds:    snap.Header.Worlds,
		Snapshot:  filepath.Base(dst),
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	for _, w := range snap.Worlds {
		meta.Agents += len(w.Agents)
	}
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return dst, true, err
	}
	return dst, true, os.WriteFile(filepath.Join(dir, "meta.json"), b, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
