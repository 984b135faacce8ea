package movement

type Pos struct {
	X int
	Y int
	Z int
}

// StandFunc resolves where an agent standing at from ends up when it steps
// onto column (x, z): level, one block up or one block down. ok is false when
// the column cannot be entered from from.
type StandFunc func(from Pos, x, z int) (Pos, bool)

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func dist(a, b Pos) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y) + abs(a.Z-b.Z)
}

// Fixed neighbor order for determinism.
var dirs = [4]Pos{{X: 1}, {X: -1}, {Z: 1}, {Z: -1}}

// NextStep picks the next standing position on the way from start to target.
// A direct neighbor that gets closer wins; otherwise a bounded breadth-first
// detour (maxDepth steps) looks for the first step of the shortest path that
// eventually gets closer. ok is false when the agent is stuck.
func NextStep(start, target Pos, maxDepth int, stand StandFunc) (Pos, bool) {
	startDist := dist(start, target)
	if startDist == 0 {
		return Pos{}, false
	}

	best := Pos{}
	bestDist := startDist
	for _, d := range dirs {
		np, ok := stand(start, start.X+d.X, start.Z+d.Z)
		if !ok {
			continue
		}
		if nd := dist(np, target); nd < bestDist {
			best, bestDist = np, nd
		}
	}
	if bestDist < startDist {
		return best, true
	}
	return detour(start, target, maxDepth, stand)
}

func detour(start, target Pos, maxDepth int, stand StandFunc) (Pos, bool) {
	if maxDepth <= 0 {
		return Pos{}, false
	}
	startDist := dist(start, target)

	type qItem struct {
		p     Pos
		depth int
		first Pos
	}

	visited := make(map[Pos]bool, 256)
	visited[start] = true

	queue := make([]qItem, 0, 256)
	for _, d := range dirs {
		np, ok := stand(start, start.X+d.X, start.Z+d.Z)
		if !ok || visited[np] {
			continue
		}
		visited[np] = true
		queue = append(queue, qItem{p: np, depth: 1, first: np})
	}

	bestDist := startDist
	bestDepth := 0
	bestFirst := Pos{}
	found := false

	for head := 0; head < len(queue); head++ {
		it := queue[head]

		if d := dist(it.p, target); d < startDist {
			if !found || d < bestDist || (d == bestDist && it.depth < bestDepth) {
				found = true
				bestDist = d
				bestDepth = it.depth
				bestFirst = it.first
			}
		}

		if it.depth >= maxDepth {
			continue
		}
		for _, dir := range dirs {
			np, ok := stand(it.p, it.p.X+dir.X, it.p.Z+dir.Z)
			if !ok || visited[np] {
				continue
			}
			visited[np] = true
			queue = append(queue, qItem{p: np, depth: it.depth + 1, first: it.first})
		}
	}

	if !found {
		return Pos{}, false
	}
	return bestFirst, true
}
