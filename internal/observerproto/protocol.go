// Package observerproto holds the messages of the read-only observer stream.
package observerproto

// Version is the observer protocol version.
const Version = "1.0"

const (
	TypeHello     = "HELLO"
	TypeTick      = "TICK"
	TypeSubscribe = "SUBSCRIBE"
)

// HelloMsg is the first message the server sends on a new connection.
type HelloMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	SessionID       string   `json:"session_id"`
	Tick            uint64   `json:"tick"`
	TickRateHz      int      `json:"tick_rate_hz"`
	BrainEveryTicks int      `json:"brain_every_ticks"`
	Worlds          []string `json:"worlds"`
}

// SubscribeMsg may be sent by the client at any time to narrow the stream to
// some worlds. An empty list means every world.
type SubscribeMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	Worlds          []string `json:"worlds,omitempty"`
}

// TickMsg is sent after every step for each subscribed world. Slow clients
// only ever get the latest one.
type TickMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	World           string `json:"world"`
	Tick            uint64 `json:"tick"`
	Digest          string `json:"digest"`

	Agents      []AgentState `json:"agents"`
	Transitions []Transition `json:"transitions,omitempty"`
	Conflicts   int          `json:"conflicts,omitempty"`
}

type AgentState struct {
	ID           string     `json:"id"`
	Profession   string     `json:"profession"`
	Status       string     `json:"status"`
	Pos          [3]float64 `json:"pos"`
	Target       *[3]int    `json:"target,omitempty"`
	DepositChest *[3]int    `json:"deposit_chest,omitempty"`
	Held         string     `json:"held,omitempty"`
	Items        int        `json:"items"`
	Paused       bool       `json:"paused,omitempty"`
	Dead         bool       `json:"dead,omitempty"`
}

type Transition struct {
	Agent string `json:"agent"`
	From  string `json:"from"`
	To    string `json:"to"`
}
