// Package observer serves the read-only view of a running simulation: a
// websocket stream of per-tick agent states, a metrics document and a health
// check.
package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"settlers.ai/internal/metrics"
	"settlers.ai/internal/observerproto"
	"settlers.ai/internal/sim/driver"
	"settlers.ai/internal/sim/tuning"
	"settlers.ai/internal/sim/world"
	"settlers.ai/internal/sim/world/kernel/model"
)

// Sim is the part of the driver the observer reads.
type Sim interface {
	WorldIDs() []string
	Tick() uint64
	Tuning() tuning.Tuning
	View(worldID string, fn func(w *world.World)) error
}

type Options struct {
	Log     *log.Logger
	Metrics *metrics.Metrics
	// AllowRemote accepts clients from non-loopback addresses.
	AllowRemote bool
}

type Server struct {
	sim         Sim
	metrics     *metrics.Metrics
	log         *log.Logger
	allowRemote bool

	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	id  string
	out chan []byte

	mu     sync.Mutex
	worlds map[string]bool // empty: all
}

func (s *session) wants(world string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.worlds) == 0 || s.worlds[world]
}

func (s *session) subscribe(worlds []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.worlds = map[string]bool{}
	for _, w := range worlds {
		s.worlds[w] = true
	}
}

func NewServer(sim Sim, opts Options) *Server {
	logger := opts.Log
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		sim:         sim,
		metrics:     opts.Metrics,
		log:         logger,
		allowRemote: opts.AllowRemote,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		sessions: map[string]*session{},
	}
}

// Handler routes /v1/observe, /v1/metrics and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/observe", s.WSHandler())
	mux.HandleFunc("/v1/metrics", s.MetricsHandler())
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(rw, "ok\n")
	})
	return mux
}

// Sessions is the number of connected observers.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) MetricsHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !s.allowed(r) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		if s.metrics == nil {
			http.Error(rw, "metrics disabled", http.StatusNotFound)
			return
		}
		resp := struct {
			Tick      uint64 `json:"tick"`
			Observers int    `json:"observers"`
			metrics.Snapshot
		}{Tick: s.sim.Tick(), Observers: s.Sessions(), Snapshot: s.metrics.Snapshot()}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !s.allowed(r) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sess := &session{id: fmt.Sprintf("O%d", s.nextID.Add(1)), out: make(chan []byte, 16)}
		if q := r.URL.Query().Get("worlds"); q != "" {
			sess.subscribe(strings.Split(q, ","))
		}
		tun := s.sim.Tuning()
		hello, _ := json.Marshal(observerproto.HelloMsg{
			Type:            observerproto.TypeHello,
			ProtocolVersion: observerproto.Version,
			SessionID:       sess.id,
			Tick:            s.sim.Tick(),
			TickRateHz:      tun.TickRateHz,
			BrainEveryTicks: tun.BrainEveryTicks,
			Worlds:          s.sim.WorldIDs(),
		})
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, hello); err != nil {
			return
		}

		s.mu.Lock()
		s.sessions[sess.id] = sess
		s.mu.Unlock()
		s.log.Printf("[observer] %s connected from %s", sess.id, r.RemoteAddr)
		defer func() {
			s.mu.Lock()
			delete(s.sessions, sess.id)
			s.mu.Unlock()
			s.log.Printf("[observer] %s left", sess.id)
		}()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b := <-sess.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Reader loop: SUBSCRIBE updates; anything else is ignored.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var sub observerproto.SubscribeMsg
			if err := json.Unmarshal(msg, &sub); err != nil {
				continue
			}
			if sub.Type != observerproto.TypeSubscribe || sub.ProtocolVersion != observerproto.Version {
				continue
			}
			sess.subscribe(sub.Worlds)
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// Publish sends one TICK message per entry to every interested observer. It
// runs on the stepping goroutine between two steps and never blocks on a
// slow client.
func (s *Server) Publish(entries []driver.TickLogEntry) {
	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()
	if len(sessions) == 0 {
		return
	}

	for _, e := range entries {
		var targets []*session
		for _, sess := range sessions {
			if sess.wants(e.World) {
				targets = append(targets, sess)
			}
		}
		if len(targets) == 0 {
			continue
		}
		msg := observerproto.TickMsg{
			Type:            observerproto.TypeTick,
			ProtocolVersion: observerproto.Version,
			World:           e.World,
			Tick:            e.Tick,
			Digest:          e.Digest,
			Conflicts:       len(e.Conflicts),
		}
		for _, tr := range e.Transitions {
			msg.Transitions = append(msg.Transitions, observerproto.Transition{Agent: tr.Agent, From: tr.From, To: tr.To})
		}
		if err := s.sim.View(e.World, func(w *world.World) { msg.Agents = agentStates(w) }); err != nil {
			s.log.Printf("[observer] %v", err)
			continue
		}
		b, err := json.Marshal(msg)
		if err != nil {
			s.log.Printf("[observer] marshal tick: %v", err)
			continue
		}
		for _, sess := range targets {
			sendLatest(sess.out, b)
		}
	}
}

func agentStates(w *world.World) []observerproto.AgentState {
	agents := w.Agents()
	out := make([]observerproto.AgentState, 0, len(agents))
	for _, a := range agents {
		mem := a.Memory()
		p := a.Pos()
		out = append(out, observerproto.AgentState{
			ID:           a.ID(),
			Profession:   a.Profession(),
			Status:       mem.JobStatus,
			Pos:          [3]float64{p.X, p.Y, p.Z},
			Target:       triple(mem.Target),
			DepositChest: triple(mem.DepositChest),
			Held:         a.Held(),
			Items:        a.Inventory().Total(),
			Paused:       mem.PauseUntil != nil,
			Dead:         a.Dead(),
		})
	}
	return out
}

func triple(p *model.Vec3i) *[3]int {
	if p == nil {
		return nil
	}
	return &[3]int{p.X, p.Y, p.Z}
}

// sendLatest queues b, dropping the oldest queued message when the client
// is behind.
func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}

func (s *Server) allowed(r *http.Request) bool {
	return s.allowRemote || isLoopbackRemote(r.RemoteAddr)
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
