package model

// ItemEntity is a dropped item stack lying in the world, e.g. from a broken block.
type ItemEntity struct {
	EntityID    string `json:"id"`
	Pos         Vec3i  `json:"pos"`
	Item        string `json:"item"`
	Count       int    `json:"count"`
	CreatedTick uint64 `json:"created_tick"`
	ExpiresTick uint64 `json:"expires_tick"`
}

func (e *ItemEntity) ID() string { return e.EntityID }
