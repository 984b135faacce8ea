package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"settlers.ai/internal/metrics"
	"settlers.ai/internal/persistence/archive"
	"settlers.ai/internal/persistence/indexdb"
	persistlog "settlers.ai/internal/persistence/log"
	"settlers.ai/internal/persistence/snapshot"
	"settlers.ai/internal/sim/catalogs"
	"settlers.ai/internal/sim/driver"
	"settlers.ai/internal/sim/scenario"
	"settlers.ai/internal/sim/tuning"
	"settlers.ai/internal/transport/observer"
)

type config struct {
	Addr         string
	ConfigDir    string
	TuningPath   string
	ScenarioPath string
	DataDir      string
	SnapshotPath string
	LoadLatest   bool
	DisableDB    bool
	AllowRemote  bool

	KeepSnapshots     int
	ArchiveEveryTicks uint64
}

// app is one run: the driver plus everything that records or serves it.
type app struct {
	cfg config
	log *log.Logger

	tun     tuning.Tuning
	d       *driver.Driver
	metrics *metrics.Metrics
	idx     *indexdb.SQLiteIndex // nil when disabled
	ticks   *persistlog.TickLogger
	obs     *observer.Server

	snapDir string
	snapCh  chan snapshot.SnapshotV1
}

func newApp(cfg config, logger *log.Logger) (*app, error) {
	cats, err := catalogs.Load(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("load catalogs: %w", err)
	}

	tp := strings.TrimSpace(cfg.TuningPath)
	if tp == "" {
		tp = filepath.Join(cfg.ConfigDir, "tuning.yaml")
	}
	tun, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load tuning: %w", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tun = tuning.Defaults()
	}

	m := metrics.New()
	d, err := driver.New(driver.Options{Catalogs: cats, Tuning: tun, Log: logger, Sink: m, Steps: m})
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		log:     logger,
		tun:     tun,
		d:       d,
		metrics: m,
		snapDir: filepath.Join(cfg.DataDir, "snapshots"),
		snapCh:  make(chan snapshot.SnapshotV1, 2),
	}

	snapPath := strings.TrimSpace(cfg.SnapshotPath)
	if snapPath == "" && cfg.LoadLatest {
		if snapPath, err = archive.Latest(a.snapDir); err != nil {
			return nil, fmt.Errorf("find snapshot: %w", err)
		}
	}
	if snapPath != "" {
		snap, err := snapshot.ReadSnapshot(snapPath)
		if err != nil {
			return nil, fmt.Errorf("read snapshot: %w", err)
		}
		if err := d.Restore(snap); err != nil {
			return nil, err
		}
		logger.Printf("resumed from snapshot=%s tick=%d worlds=%v", filepath.Base(snapPath), d.Tick(), d.WorldIDs())
	} else {
		sp := strings.TrimSpace(cfg.ScenarioPath)
		if sp == "" {
			sp = filepath.Join(cfg.ConfigDir, "scenarios", "default.yaml")
		}
		sc, err := scenario.Load(sp)
		if err != nil {
			return nil, fmt.Errorf("load scenario: %w", err)
		}
		if err := sc.Build(d, cats, tun, logger); err != nil {
			return nil, err
		}
		logger.Printf("started scenario %q worlds=%v", sc.Name, d.WorldIDs())
	}

	if !cfg.DisableDB {
		idx, err := indexdb.OpenSQLite(filepath.Join(cfg.DataDir, "index", "index.sqlite"), logger)
		if err != nil {
			return nil, fmt.Errorf("open index: %w", err)
		}
		if err := idx.RecordTuning(tun); err != nil {
			logger.Printf("[index] record tuning: %v", err)
		}
		a.idx = idx
	}
	a.ticks = persistlog.NewTickLogger(cfg.DataDir)
	a.obs = observer.NewServer(d, observer.Options{Log: logger, Metrics: m, AllowRemote: cfg.AllowRemote})
	return a, nil
}

// onTick runs on the stepping goroutine after every step.
func (a *app) onTick(entries []driver.TickLogEntry) {
	for _, e := range entries {
		if err := a.ticks.WriteTick(e); err != nil {
			a.log.Printf("tick log: %v", err)
		}
		a.idx.WriteTick(e)
	}
	a.obs.Publish(entries)

	tick := a.d.Tick()
	if tick%uint64(a.tun.TickRateHz) == 0 {
		if err := a.ticks.Flush(); err != nil {
			a.log.Printf("tick log flush: %v", err)
		}
	}
	if every := uint64(a.tun.SnapshotEveryTicks); every > 0 && tick%every == 0 {
		select {
		case a.snapCh <- a.d.Export():
		default:
			a.log.Printf("snapshot writer behind; skipped tick %d", tick)
		}
	}
}

// writeSnapshots persists exported snapshots until ctx is done.
func (a *app) writeSnapshots(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-a.snapCh:
			if _, err := a.persist(snap); err != nil {
				a.log.Printf("snapshot write: %v", err)
			}
		}
	}
}

// snapshotNow exports and writes a snapshot synchronously. Call it only
// while the driver is not running.
func (a *app) snapshotNow() (string, error) {
	return a.persist(a.d.Export())
}

func (a *app) persist(snap snapshot.SnapshotV1) (string, error) {
	path := snapshot.FileName(a.snapDir, snap.Header.Tick)
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		return "", err
	}
	a.idx.RecordSnapshot(path, snap)
	if _, ok, err := archive.Milestone(filepath.Join(a.cfg.DataDir, "archives"), path, snap, a.cfg.ArchiveEveryTicks); err != nil {
		a.log.Printf("archive snapshot: %v", err)
	} else if ok {
		a.log.Printf("archived snapshot tick=%d", snap.Header.Tick)
	}
	if _, err := archive.Prune(a.snapDir, a.cfg.KeepSnapshots); err != nil {
		a.log.Printf("prune snapshots: %v", err)
	}
	return path, nil
}

func (a *app) Close() {
	if err := a.ticks.Close(); err != nil {
		a.log.Printf("tick log close: %v", err)
	}
	if a.idx != nil {
		_ = a.idx.Close()
	}
}
