package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	persistlog "settlers.ai/internal/persistence/log"
	"settlers.ai/internal/sim/driver"
)

var errStop = errors.New("stop")

type verifyResult struct {
	Checked int
	// Skipped counts entries at or before a tick already replayed, as written
	// twice when a server resumed from an older snapshot.
	Skipped int
}

// verify steps d forward through the logged ticks and compares every logged
// digest with the one the replay produces.
func verify(d *driver.Driver, files []string, toTick uint64) (verifyResult, error) {
	var res verifyResult
	produced := map[string]string{}
	for _, path := range files {
		err := persistlog.ReadTicks(path, func(e driver.TickLogEntry) error {
			if toTick != 0 && e.Tick > toTick {
				return errStop
			}
			_, pending := produced[e.World]
			if e.Tick < d.Tick() || (e.Tick == d.Tick() && !pending) {
				res.Skipped++
				return nil
			}
			for d.Tick() < e.Tick {
				clear(produced)
				for _, got := range d.Step() {
					produced[got.World] = got.Digest
				}
			}
			want, ok := produced[e.World]
			if !ok {
				return fmt.Errorf("tick %d: world %s is not in the replay", e.Tick, e.World)
			}
			if want != e.Digest {
				return fmt.Errorf("digest mismatch at tick %d world %s: replay=%s log=%s (file=%s)",
					e.Tick, e.World, want, e.Digest, filepath.Base(path))
			}
			delete(produced, e.World)
			res.Checked++
			return nil
		})
		if errors.Is(err, errStop) {
			break
		}
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

type transitionKey struct {
	Profession string
	From, To   string
}

type summary struct {
	Entries     int
	FirstTick   uint64
	LastTick    uint64
	Conflicts   int
	Transitions map[transitionKey]int
	// Final is the last status each agent was seen entering.
	Final map[string]string
}

func summarize(files []string, toTick uint64) (summary, error) {
	s := summary{Transitions: map[transitionKey]int{}, Final: map[string]string{}}
	for _, path := range files {
		err := persistlog.ReadTicks(path, func(e driver.TickLogEntry) error {
			if toTick != 0 && e.Tick > toTick {
				return errStop
			}
			if s.Entries == 0 || e.Tick < s.FirstTick {
				s.FirstTick = e.Tick
			}
			if e.Tick > s.LastTick {
				s.LastTick = e.Tick
			}
			s.Entries++
			s.Conflicts += len(e.Conflicts)
			for _, tr := range e.Transitions {
				s.Transitions[transitionKey{tr.Profession, tr.From, tr.To}]++
				s.Final[e.World+"/"+tr.Agent] = tr.To
			}
			return nil
		})
		if errors.Is(err, errStop) {
			break
		}
		if err != nil {
			return s, err
		}
	}
	return s, nil
}

func (s summary) print(w io.Writer) {
	fmt.Fprintf(w, "ticks %d..%d entries=%d conflicts=%d\n", s.FirstTick, s.LastTick, s.Entries, s.Conflicts)
	keys := make([]transitionKey, 0, len(s.Transitions))
	for k := range s.Transitions {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Profession != b.Profession {
			return a.Profession < b.Profession
		}
		if a.From != b.From {
			return a.From < b.From
		}
		return a.To < b.To
	})
	for _, k := range keys {
		fmt.Fprintf(w, "  %-10s %-28s -> %-28s %d\n", k.Profession, k.From, k.To, s.Transitions[k])
	}
	agents := make([]string, 0, len(s.Final))
	for a := range s.Final {
		agents = append(agents, a)
	}
	sort.Strings(agents)
	for _, a := range agents {
		fmt.Fprintf(w, "  %s: %s\n", a, s.Final[a])
	}
}
