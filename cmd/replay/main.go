package main

import (
	"flag"
	"fmt"
	"os"

	persistlog "settlers.ai/internal/persistence/log"
	"settlers.ai/internal/persistence/snapshot"
	"settlers.ai/internal/sim/catalogs"
	"settlers.ai/internal/sim/driver"
	"settlers.ai/internal/sim/tuning"
)

func main() {
	var (
		snapPath   = flag.String("snapshot", "", "path to .snap.zst to replay from (optional; without it only the summary is printed)")
		dataDir    = flag.String("data", "./data", "runtime data directory holding ticks/")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "tuning the run used")
		toTick     = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
		summary    = flag.Bool("summary", true, "print job status transition counts")
	)
	flag.Parse()

	files, err := persistlog.Files(*dataDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list tick logs:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no tick logs found in", *dataDir)
		os.Exit(1)
	}

	if *summary {
		s, err := summarize(files, *toTick)
		if err != nil {
			fmt.Fprintln(os.Stderr, "summary:", err)
			os.Exit(1)
		}
		s.print(os.Stdout)
	}

	if *snapPath == "" {
		return
	}
	snap, err := snapshot.ReadSnapshot(*snapPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	fmt.Printf("snapshot v%d tick=%d worlds=%v reservations=%d\n",
		snap.Header.Version, snap.Header.Tick, snap.Header.Worlds, len(snap.Reservations))

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}
	tun, err := tuning.Load(*tuningPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load tuning:", err)
		os.Exit(1)
	}
	d, err := driver.New(driver.Options{Catalogs: cats, Tuning: tun})
	if err != nil {
		fmt.Fprintln(os.Stderr, "driver:", err)
		os.Exit(1)
	}
	if err := d.Restore(snap); err != nil {
		fmt.Fprintln(os.Stderr, "restore:", err)
		os.Exit(1)
	}

	res, err := verify(d, files, *toTick)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	fmt.Printf("replay ok: checked=%d entries through tick %d (from snapshot tick=%d, skipped=%d)\n",
		res.Checked, d.Tick(), snap.Header.Tick, res.Skipped)
}
