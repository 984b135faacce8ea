// Package indexdb keeps a queryable SQLite copy of the tick log: one row per
// world tick and one per job status change. The tick log stays the source of
// truth; the index drops writes rather than stall the simulation.
package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"settlers.ai/internal/persistence/snapshot"
	"settlers.ai/internal/sim/driver"
	"settlers.ai/internal/sim/tuning"
)

type SQLiteIndex struct {
	db  *sql.DB
	log *log.Logger

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	dropped atomic.Uint64
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqSnapshot
)

type req struct {
	kind     reqKind
	tick     driver.TickLogEntry
	snapshot SnapshotRow
}

// SnapshotRow is one row of the snapshots table.
type SnapshotRow struct {
	Tick   uint64
	Path   string
	Worlds int
	Agents int
}

// Transition is one row of the transitions table.
type Transition struct {
	World      string
	Tick       uint64
	Agent      string
	Profession string
	From       string
	To         string
}

func OpenSQLite(path string, logger *log.Logger) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("indexdb: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("indexdb: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("indexdb: %w", err)
	}

	s := &SQLiteIndex{
		db:  db,
		log: logger,
		ch:  make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			world TEXT NOT NULL,
			tick INTEGER NOT NULL,
			digest TEXT NOT NULL,
			agents INTEGER NOT NULL,
			conflicts INTEGER NOT NULL,
			PRIMARY KEY (world, tick)
		);`,
		`CREATE TABLE IF NOT EXISTS transitions (
			world TEXT NOT NULL,
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			agent TEXT NOT NULL,
			profession TEXT NOT NULL,
			from_status TEXT NOT NULL,
			to_status TEXT NOT NULL,
			PRIMARY KEY (world, tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_transitions_agent_tick ON transitions(world, agent, tick);`,
		`CREATE INDEX IF NOT EXISTS idx_transitions_to_status ON transitions(to_status);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			tick INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			worlds INTEGER NOT NULL,
			agents INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		if n := s.dropped.Load(); n > 0 {
			s.log.Printf("[index] dropped %d writes while behind", n)
		}
		err = s.db.Close()
	})
	return err
}

// WriteTick queues one tick log entry. It never blocks.
func (s *SQLiteIndex) WriteTick(e driver.TickLogEntry) {
	s.enqueue(req{kind: reqTick, tick: e})
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	r := SnapshotRow{Tick: snap.Header.Tick, Path: path, Worlds: len(snap.Worlds)}
	for _, w := range snap.Worlds {
		r.Agents += len(w.Agents)
	}
	s.enqueue(req{kind: reqSnapshot, snapshot: r})
}

func (s *SQLiteIndex) enqueue(r req) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- r:
	default:
		s.dropped.Add(1)
	}
}

// Dropped counts writes lost because the writer fell behind.
func (s *SQLiteIndex) Dropped() uint64 { return s.dropped.Load() }

// RecordTuning stores the tuning a run was started with.
func (s *SQLiteIndex) RecordTuning(tun tuning.Tuning) error {
	b, err := json.Marshal(tun)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('tuning',?)`, string(b))
	return err
}

// Transitions returns an agent's status changes in tick order.
func (s *SQLiteIndex) Transitions(ctx context.Context, world, agent string) ([]Transition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT world,tick,agent,profession,from_status,to_status FROM transitions
		 WHERE world=? AND agent=? ORDER BY tick, seq`, world, agent)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Transition
	for rows.Next() {
		var tr Transition
		var tick int64
		if err := rows.Scan(&tr.World, &tick, &tr.Agent, &tr.Profession, &tr.From, &tr.To); err != nil {
			return nil, err
		}
		tr.Tick = uint64(tick)
		out = append(out, tr)
	}
	return out, rows.Err()
}

// Snapshots returns the newest recorded snapshots first.
func (s *SQLiteIndex) Snapshots(ctx context.Context, limit int) ([]SnapshotRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT tick,path,worlds,agents FROM snapshots ORDER BY tick DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SnapshotRow
	for rows.Next() {
		var r SnapshotRow
		var tick int64
		if err := rows.Scan(&tick, &r.Path, &r.Worlds, &r.Agents); err != nil {
			return nil, err
		}
		r.Tick = uint64(tick)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Digest returns the recorded state digest of a world tick.
func (s *SQLiteIndex) Digest(ctx context.Context, world string, tick uint64) (string, bool, error) {
	var d string
	err := s.db.QueryRowContext(ctx, `SELECT digest FROM ticks WHERE world=? AND tick=?`, world, int64(tick)).Scan(&d)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return d, true, nil
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	var stmts []*sql.Stmt
	prepare := func(q string) *sql.Stmt {
		st, err := s.db.Prepare(q)
		if err != nil {
			s.log.Printf("[index] prepare: %v", err)
			return nil
		}
		stmts = append(stmts, st)
		return st
	}
	insertTick := prepare(`INSERT OR REPLACE INTO ticks(world,tick,digest,agents,conflicts) VALUES(?,?,?,?,?)`)
	insertTransition := prepare(`INSERT OR REPLACE INTO transitions(world,tick,seq,agent,profession,from_status,to_status) VALUES(?,?,?,?,?,?,?)`)
	insertSnapshot := prepare(`INSERT OR REPLACE INTO snapshots(tick,path,worlds,agents) VALUES(?,?,?,?)`)
	defer func() {
		for _, st := range stmts {
			_ = st.Close()
		}
	}()
	if len(stmts) != 3 {
		// Without statements the index is useless; keep draining so writers
		// never block.
		for range s.ch {
			s.dropped.Add(1)
		}
		return
	}

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)
	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			s.log.Printf("[index] begin: %v", err)
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		if err := tx.Commit(); err != nil {
			s.log.Printf("[index] commit: %v", err)
		}
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func(err error) {
		s.log.Printf("[index] write failed, rolling back: %v", err)
		if tx != nil {
			_ = tx.Rollback()
		}
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqTick:
			e := r.tick
			if _, err := tx.Stmt(insertTick).Exec(e.World, int64(e.Tick), e.Digest, e.Agents, len(e.Conflicts)); err != nil {
				rollback(err)
				continue
			}
			opCount++
			for i, tr := range e.Transitions {
				if _, err := tx.Stmt(insertTransition).Exec(e.World, int64(e.Tick), i, tr.Agent, tr.Profession, tr.From, tr.To); err != nil {
					rollback(err)
					break
				}
				opCount++
			}
		case reqSnapshot:
			sn := r.snapshot
			if _, err := tx.Stmt(insertSnapshot).Exec(int64(sn.Tick), sn.Path, sn.Worlds, sn.Agents); err != nil {
				rollback(err)
				continue
			}
			opCount++
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait || len(s.ch) == 0) {
			commit()
		}
	}
	commit()
}
