package model

import "fmt"

// Container is the inventory of a storage block such as CHEST.
type Container struct {
	Type string `json:"type"`
	Pos  Vec3i  `json:"pos"`

	Inventory

	// Open is the number of agents currently using the chest.
	Open int `json:"open,omitempty"`
}

func (c *Container) ID() string { return ContainerID(c.Type, c.Pos) }

func ContainerID(typ string, pos Vec3i) string {
	return fmt.Sprintf("%s@%d,%d,%d", typ, pos.X, pos.Y, pos.Z)
}
