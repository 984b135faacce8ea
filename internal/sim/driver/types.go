package driver

// TickLogEntry is what one world did in one tick. The tick log writes one
// JSON line per entry.
type TickLogEntry struct {
	World       string             `json:"world"`
	Tick        uint64             `json:"tick"`
	Agents      int                `json:"agents"`
	Transitions []TransitionRecord `json:"transitions,omitempty"`
	Conflicts   []ConflictRecord   `json:"conflicts,omitempty"`
	Digest      string             `json:"digest"`
}

type TransitionRecord struct {
	Agent      string `json:"agent"`
	Profession string `json:"profession"`
	From       string `json:"from"`
	To         string `json:"to"`
}

type ConflictRecord struct {
	Agent string `json:"agent"`
	Pool  string `json:"pool"`
	Pos   [3]int `json:"pos"`
}
