// Command watch follows a running server's observer stream and prints job
// status changes as they happen.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/gorilla/websocket"

	"settlers.ai/internal/observerproto"
)

func main() {
	var (
		url    = flag.String("url", "ws://127.0.0.1:8080/v1/observe", "observer ws url")
		worlds = flag.String("worlds", "", "comma separated worlds to follow (default: all)")
		agents = flag.Bool("agents", false, "print every agent's state once per second")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[watch] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if *worlds != "" {
		sub := observerproto.SubscribeMsg{
			Type:            observerproto.TypeSubscribe,
			ProtocolVersion: observerproto.Version,
			Worlds:          strings.Split(*worlds, ","),
		}
		if err := conn.WriteJSON(sub); err != nil {
			logger.Fatalf("send SUBSCRIBE: %v", err)
		}
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		_ = conn.Close()
	}()

	tickRate := uint64(20)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var base struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(msg, &base); err != nil {
			continue
		}
		switch base.Type {
		case observerproto.TypeHello:
			var h observerproto.HelloMsg
			if err := json.Unmarshal(msg, &h); err != nil {
				continue
			}
			if h.TickRateHz > 0 {
				tickRate = uint64(h.TickRateHz)
			}
			logger.Printf("HELLO session=%s tick=%d rate=%d worlds=%v", h.SessionID, h.Tick, h.TickRateHz, h.Worlds)

		case observerproto.TypeTick:
			var t observerproto.TickMsg
			if err := json.Unmarshal(msg, &t); err != nil {
				continue
			}
			for _, line := range formatTick(t, *agents && t.Tick%tickRate == 0) {
				logger.Print(line)
			}
		}
	}
}

// formatTick renders one TICK message: its transitions and, when withAgents
// is set, one line per agent.
func formatTick(t observerproto.TickMsg, withAgents bool) []string {
	var out []string
	for _, tr := range t.Transitions {
		out = append(out, fmt.Sprintf("%s t=%d %s: %s -> %s", t.World, t.Tick, tr.Agent, tr.From, tr.To))
	}
	if t.Conflicts > 0 {
		out = append(out, fmt.Sprintf("%s t=%d %d reservation conflicts", t.World, t.Tick, t.Conflicts))
	}
	if !withAgents {
		return out
	}
	for _, a := range t.Agents {
		state := a.Status
		switch {
		case a.Dead:
			state = "dead"
		case a.Paused:
			state += " (paused)"
		}
		line := fmt.Sprintf("%s t=%d   %s [%s] %s at (%.1f,%.1f,%.1f) items=%d",
			t.World, t.Tick, a.ID, a.Profession, state, a.Pos[0], a.Pos[1], a.Pos[2], a.Items)
		if a.Target != nil {
			line += fmt.Sprintf(" target=%v", *a.Target)
		}
		out = append(out, line)
	}
	return out
}
