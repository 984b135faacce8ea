// Package radius enumerates block positions around a center, nearest first.
package radius

import (
	"iter"
	"sort"
	"sync"

	"settlers.ai/internal/sim/world/kernel/model"
)

var (
	mu    sync.Mutex
	cache = map[int][]model.Vec3i{}
)

// Offsets returns every offset with dx²+dy²+dz² <= r², ordered by distance and
// then by (dy, dx, dz). The slice is shared and must not be modified.
func Offsets(r int) []model.Vec3i {
	if r < 0 {
		return nil
	}
	mu.Lock()
	defer mu.Unlock()
	if offs, ok := cache[r]; ok {
		return offs
	}
	r2 := r * r
	offs := make([]model.Vec3i, 0, (2*r+1)*(2*r+1)*(2*r+1))
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			for dz := -r; dz <= r; dz++ {
				if dx*dx+dy*dy+dz*dz > r2 {
					continue
				}
				offs = append(offs, model.Vec3i{X: dx, Y: dy, Z: dz})
			}
		}
	}
	sort.SliceStable(offs, func(i, j int) bool {
		a, b := offs[i], offs[j]
		da := a.X*a.X + a.Y*a.Y + a.Z*a.Z
		db := b.X*b.X + b.Y*b.Y + b.Z*b.Z
		if da != db {
			return da < db
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Z < b.Z
	})
	cache[r] = offs
	return offs
}

// Around yields positions within r of center, nearest first, that satisfy
// pred. pred is evaluated lazily, once per position, as the caller pulls.
// A nil pred accepts everything.
func Around(center model.Vec3i, r int, pred func(model.Vec3i) bool) iter.Seq[model.Vec3i] {
	offs := Offsets(r)
	return func(yield func(model.Vec3i) bool) {
		for _, o := range offs {
			p := center.Add(o)
			if pred != nil && !pred(p) {
				continue
			}
			if !yield(p) {
				return
			}
		}
	}
}

// Between is Around restricted to positions that are also within r of other.
// Ordering stays relative to center.
func Between(center, other model.Vec3i, r int, pred func(model.Vec3i) bool) iter.Seq[model.Vec3i] {
	r2 := r * r
	return Around(center, r, func(p model.Vec3i) bool {
		if p.DistSq(other) > r2 {
			return false
		}
		return pred == nil || pred(p)
	})
}

// First returns the first position of seq.
func First(seq iter.Seq[model.Vec3i]) (model.Vec3i, bool) {
	for p := range seq {
		return p, true
	}
	return model.Vec3i{}, false
}
