package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

func main() {
	var cfg config
	flag.StringVar(&cfg.Addr, "addr", "127.0.0.1:8080", "http listen address")
	flag.StringVar(&cfg.ConfigDir, "configs", "./configs", "config directory")
	flag.StringVar(&cfg.TuningPath, "tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
	flag.StringVar(&cfg.ScenarioPath, "scenario", "", "scenario to start a fresh run from (default: <configs>/scenarios/default.yaml)")
	flag.StringVar(&cfg.DataDir, "data", "./data", "runtime data directory")
	flag.StringVar(&cfg.SnapshotPath, "snapshot", "", "path to snapshot to resume from (optional)")
	flag.BoolVar(&cfg.LoadLatest, "load_latest_snapshot", true, "resume from the latest snapshot in the data dir when -snapshot is empty")
	flag.BoolVar(&cfg.DisableDB, "disable_db", false, "disable the sqlite index")
	flag.IntVar(&cfg.KeepSnapshots, "keep_snapshots", 24, "rolling snapshots to keep (0 keeps all)")
	flag.Uint64Var(&cfg.ArchiveEveryTicks, "archive_every_ticks", 72000, "copy every snapshot at a multiple of this tick into <data>/archives (0 disables)")
	flag.BoolVar(&cfg.AllowRemote, "allow_remote", false, "serve observers and metrics to non-loopback clients")
	enablePprof := flag.Bool("pprof", envBool("SETTLERS_ENABLE_PPROF_HTTP", false), "serve /debug/pprof")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	a, err := newApp(cfg, logger)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.Handle("/", a.obs.Handler())
	if *enablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	} else {
		logger.Printf("pprof endpoints disabled")
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := a.d.Run(gctx, a.onTick)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		a.writeSnapshots(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Printf("listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx2)
	})
	if err := g.Wait(); err != nil {
		logger.Printf("stopped: %v", err)
	}

	if path, err := a.snapshotNow(); err != nil {
		logger.Printf("final snapshot: %v", err)
	} else {
		logger.Printf("final snapshot %s", filepath.Base(path))
	}
}

func envBool(name string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
