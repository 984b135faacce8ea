package world

import (
	"encoding/binary"
	"encoding/hex"
	"hash"
	"math"
	"sort"

	"github.com/zeebo/blake3"

	"settlers.ai/internal/sim/world/kernel/model"
)

// Digest hashes the whole simulation state of the world. Two worlds stepped
// from the same inputs produce the same digest.
func (w *World) Digest() string {
	h := blake3.New()
	var tmp [8]byte

	writeStr(h, &tmp, w.cfg.ID)
	writeU64(h, &tmp, w.tick)
	writeU64(h, &tmp, uint64(w.cfg.Seed))

	for _, k := range w.chunks.LoadedChunkKeys() {
		writeI64(h, &tmp, int64(k.CX))
		writeI64(h, &tmp, int64(k.CY))
		writeI64(h, &tmp, int64(k.CZ))
		d := w.chunks.Chunks[k].Digest()
		h.Write(d[:])
	}

	for _, p := range w.ContainerPositions() {
		c := w.containers[p]
		writePos(h, &tmp, p)
		writeStr(h, &tmp, c.Type)
		writeSlots(h, &tmp, c.Slots)
	}

	itemPos := make([]model.Vec3i, 0, len(w.items))
	for p := range w.items {
		itemPos = append(itemPos, p)
	}
	sortPositions(itemPos)
	for _, p := range itemPos {
		for _, e := range w.items[p] {
			writeStr(h, &tmp, e.EntityID)
			writePos(h, &tmp, p)
			writeStr(h, &tmp, e.Item)
			writeI64(h, &tmp, int64(e.Count))
		}
	}

	framePos := make([]model.Vec3i, 0, len(w.frames))
	for p := range w.frames {
		framePos = append(framePos, p)
	}
	sortPositions(framePos)
	for _, p := range framePos {
		writePos(h, &tmp, p)
		writeStr(h, &tmp, w.frames[p])
	}

	for _, a := range w.Agents() {
		writeStr(h, &tmp, a.id)
		writeStr(h, &tmp, a.profession)
		writeF64(h, &tmp, a.pos.X)
		writeF64(h, &tmp, a.pos.Y)
		writeF64(h, &tmp, a.pos.Z)
		writeBool(h, &tmp, a.dead)
		writeBool(h, &tmp, a.aiDisabled)
		writeStr(h, &tmp, a.held)
		writeSlots(h, &tmp, a.inv.Slots)
		writeMemory(h, &tmp, &a.mem)
		if t, ok := a.WalkTarget(); ok {
			writePos(h, &tmp, t)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeU64(h hash.Hash, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func writeI64(h hash.Hash, tmp *[8]byte, v int64) { writeU64(h, tmp, uint64(v)) }

func writeF64(h hash.Hash, tmp *[8]byte, v float64) { writeU64(h, tmp, math.Float64bits(v)) }

func writeBool(h hash.Hash, tmp *[8]byte, b bool) {
	if b {
		writeU64(h, tmp, 1)
		return
	}
	writeU64(h, tmp, 0)
}

func writeStr(h hash.Hash, tmp *[8]byte, s string) {
	writeU64(h, tmp, uint64(len(s)))
	h.Write([]byte(s))
}

func writePos(h hash.Hash, tmp *[8]byte, p model.Vec3i) {
	writeI64(h, tmp, int64(p.X))
	writeI64(h, tmp, int64(p.Y))
	writeI64(h, tmp, int64(p.Z))
}

func writeOptPos(h hash.Hash, tmp *[8]byte, p *model.Vec3i) {
	writeBool(h, tmp, p != nil)
	if p != nil {
		writePos(h, tmp, *p)
	}
}

func writeSlots(h hash.Hash, tmp *[8]byte, slots []model.ItemStack) {
	writeU64(h, tmp, uint64(len(slots)))
	for _, s := range slots {
		writeStr(h, tmp, s.Item)
		writeI64(h, tmp, int64(s.Count))
	}
}

func writeMemory(h hash.Hash, tmp *[8]byte, m *model.Memory) {
	writeStr(h, tmp, m.JobStatus)
	writeOptPos(h, tmp, m.Target)
	writeOptPos(h, tmp, m.DepositChest)
	writeOptPos(h, tmp, m.WalkTarget)
	writeI64(h, tmp, int64(m.WalkFailures))
	if m.BreakProgress != nil {
		writeF64(h, tmp, *m.BreakProgress)
	}
	if m.NoWorkUntil != nil {
		writeU64(h, tmp, *m.NoWorkUntil)
	}
	if m.PauseUntil != nil {
		writeU64(h, tmp, *m.PauseUntil)
	}
	writeU64(h, tmp, uint64(len(m.PillarBlocks)))
	for _, p := range m.PillarBlocks {
		writePos(h, tmp, p)
	}
	writeBool(h, tmp, m.KeepPillaring)
	writeStr(h, tmp, m.ItemToCarry)
	writeStr(h, tmp, m.ItemInHand)
	wanted := append([]string(nil), m.WantedItems...)
	sort.Strings(wanted)
	for _, s := range wanted {
		writeStr(h, tmp, s)
	}
	if m.SelectedRecipe != nil {
		writeStr(h, tmp, m.SelectedRecipe.ID)
	}
}
