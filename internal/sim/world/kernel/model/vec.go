package model

import (
	"fmt"
	"math"
)

// Vec3i is a block position.
type Vec3i struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

func (v Vec3i) Add(o Vec3i) Vec3i { return Vec3i{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z} }
func (v Vec3i) Sub(o Vec3i) Vec3i { return Vec3i{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z} }
func (v Vec3i) Up() Vec3i { return Vec3i{X: v.X, Y: v.Y + 1, Z: v.Z} }
func (v Vec3i) Down() Vec3i { return Vec3i{X: v.X, Y: v.Y - 1, Z: v.Z} }

func (v Vec3i) Offset(dx, dy, dz int) Vec3i {
	return Vec3i{X: v.X + dx, Y: v.Y + dy, Z: v.Z + dz}
}

// DistSq is the squared euclidean distance between two block positions.
func (v Vec3i) DistSq(o Vec3i) int {
	dx := v.X - o.X
	dy := v.Y - o.Y
	dz := v.Z - o.Z
	return dx*dx + dy*dy + dz*dz
}

// Center is the middle of the block.
func (v Vec3i) Center() Vec3f {
	return Vec3f{X: float64(v.X) + 0.5, Y: float64(v.Y) + 0.5, Z: float64(v.Z) + 0.5}
}

// Bottom is the middle of the block's floor, where a standing agent's feet are.
func (v Vec3i) Bottom() Vec3f {
	return Vec3f{X: float64(v.X) + 0.5, Y: float64(v.Y), Z: float64(v.Z) + 0.5}
}

func (v Vec3i) String() string { return fmt.Sprintf("(%d,%d,%d)", v.X, v.Y, v.Z) }

// Horizontal neighbors in a fixed order: north, south, west, east.
var Horizontal = [4]Vec3i{{Z: -1}, {Z: 1}, {X: -1}, {X: 1}}

// Vec3f is an entity position.
type Vec3f struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3f) Add(o Vec3f) Vec3f { return Vec3f{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z} }
func (v Vec3f) Sub(o Vec3f) Vec3f { return Vec3f{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z} }

func (v Vec3f) Scale(f float64) Vec3f { return Vec3f{X: v.X * f, Y: v.Y * f, Z: v.Z * f} }

func (v Vec3f) LenSq() float64 { return v.X*v.X + v.Y*v.Y + v.Z*v.Z }
func (v Vec3f) Len() float64 { return math.Sqrt(v.LenSq()) }

func (v Vec3f) DistSq(o Vec3f) float64 { return v.Sub(o).LenSq() }
func (v Vec3f) Dist(o Vec3f) float64 { return math.Sqrt(v.DistSq(o)) }

// Block is the block position containing v.
func (v Vec3f) Block() Vec3i {
	return Vec3i{X: int(math.Floor(v.X)), Y: int(math.Floor(v.Y)), Z: int(math.Floor(v.Z))}
}

func (v Vec3f) String() string { return fmt.Sprintf("(%.2f,%.2f,%.2f)", v.X, v.Y, v.Z) }
