package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"settlers.ai/internal/persistence/archive"
	"settlers.ai/internal/persistence/indexdb"
	"settlers.ai/internal/persistence/snapshot"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "inspect":
			inspectCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	paths, err := archive.List(filepath.Join(*dataDir, "snapshots"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "list:", err)
		os.Exit(1)
	}
	for _, p := range paths {
		fmt.Println(p)
	}
}

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (default: <data>/index/index.sqlite)")
	worldID := fs.String("world", "", "world id (transitions, digest)")
	agentID := fs.String("agent", "", "agent id (transitions)")
	tick := fs.Uint64("tick", 0, "tick (digest)")
	limit := fs.Int("limit", 20, "result limit (snapshots)")
	_ = fs.Parse(args)

	q := "snapshots"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}
	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "index", "index.sqlite")
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(os.Stderr, "index:", err)
		os.Exit(1)
	}
	idx, err := indexdb.OpenSQLite(path, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer idx.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch q {
	case "snapshots":
		rows, err := idx.Snapshots(ctx, *limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		for _, r := range rows {
			printJSON(r)
		}
	case "transitions":
		if *worldID == "" || *agentID == "" {
			fmt.Fprintln(os.Stderr, "transitions needs -world and -agent")
			os.Exit(2)
		}
		rows, err := idx.Transitions(ctx, *worldID, *agentID)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		for _, r := range rows {
			printJSON(r)
		}
	case "digest":
		if *worldID == "" {
			fmt.Fprintln(os.Stderr, "digest needs -world")
			os.Exit(2)
		}
		d, ok, err := idx.Digest(ctx, *worldID, *tick)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		if !ok {
			fmt.Fprintf(os.Stderr, "no digest for %s at tick %d\n", *worldID, *tick)
			os.Exit(1)
		}
		fmt.Println(d)
	default:
		fmt.Fprintf(os.Stderr, "unknown query %q (snapshots, transitions, digest)\n", q)
		os.Exit(2)
	}
}

func stateCmd(args []string) {
	fs := flag.NewFlagSet("state", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	_ = fs.Parse(args)

	u := strings.TrimRight(strings.TrimSpace(*baseURL), "/") + "/v1/metrics"
	cl := &http.Client{Timeout: 5 * time.Second}
	resp, err := cl.Get(u)
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	fmt.Println(string(b))
	if resp.StatusCode/100 != 2 {
		os.Exit(1)
	}
}

func inspectCmd(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	snapPath := fs.String("snapshot", "", "snapshot path (default: latest)")
	_ = fs.Parse(args)

	path := strings.TrimSpace(*snapPath)
	if path == "" {
		var err error
		path, err = archive.Latest(filepath.Join(*dataDir, "snapshots"))
		if err != nil || path == "" {
			fmt.Fprintln(os.Stderr, "no snapshot found", err)
			os.Exit(1)
		}
	}
	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	writeSummary(os.Stdout, snap)
}

func writeSummary(w io.Writer, snap snapshot.SnapshotV1) {
	fmt.Fprintf(w, "snapshot v%d tick=%d worlds=%d reservations=%d\n",
		snap.Header.Version, snap.Header.Tick, len(snap.Worlds), len(snap.Reservations))
	for _, ws := range snap.Worlds {
		fmt.Fprintf(w, "world %s seed=%d chunks=%d chests=%d items=%d saplings=%d\n",
			ws.ID, ws.Seed, len(ws.Chunks), len(ws.Containers), len(ws.Items), len(ws.Saplings))
		for _, a := range ws.Agents {
			items := 0
			for _, s := range a.Inventory {
				items += s.Count
			}
			state := a.Memory.JobStatus
			if a.Dead {
				state = "dead"
			}
			fmt.Fprintf(w, "  %-36s %-10s %-28s pos=(%.1f,%.1f,%.1f) items=%d\n",
				a.ID, a.Profession, state, a.Pos.X, a.Pos.Y, a.Pos.Z, items)
		}
	}
}

func printJSON(v any) {
	b, _ := json.Marshal(v)
	fmt.Println(string(b))
}
