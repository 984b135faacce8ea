package model

// BlockState is the classification of one block as the workers see it.
// Hardness < 0 means unbreakable.
type BlockState struct {
	ID string `json:"id"`

	Solid          bool    `json:"solid"`
	Replaceable    bool    `json:"replaceable"`
	CollisionEmpty bool    `json:"collision_empty"`
	Hardness       float64 `json:"hardness"`

	Log         bool `json:"log,omitempty"`
	Leaf        bool `json:"leaf,omitempty"`
	Dirt        bool `json:"dirt,omitempty"`
	Sapling     bool `json:"sapling,omitempty"`
	Chest       bool `json:"chest,omitempty"`
	BlockEntity bool `json:"block_entity,omitempty"`
}

func (b BlockState) Air() bool { return b.ID == "AIR" }

// Choppable reports whether a woodcutter treats the block as a tree part.
func (b BlockState) Choppable() bool { return b.Log || b.Leaf }
