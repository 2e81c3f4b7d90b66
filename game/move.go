package game

import (
	"container/heap"
)

func (r *resolver) moveAction(m Move) error {
	u, err := r.moveUnit(m, 0)
	if err != nil {
		return err
	}
	u.Acted = true
	return nil
}

// moveUnit validates m and walks the unit to the end of its path. The
// destination must be empty unless it holds the unit named by host (a
// transport to board or a unit to join).
func (r *resolver) moveUnit(m Move, host UnitID) (*Unit, error) {
	u, err := r.ownUnit(m.Unit)
	if err != nil {
		return nil, err
	}
	if u.Loaded() {
		return nil, r.fail("unit %d is loaded and can only be unloaded", u.ID)
	}
	if len(m.Path) == 0 {
		return nil, r.fail("unit %d has an empty path", u.ID)
	}
	if m.Path[0] != u.Pos {
		return nil, r.fail("path of unit %d starts at %s, unit is at %s", u.ID, m.Path[0], u.Pos)
	}

	stats := u.Class.Stats()
	cost := 0
	for i := 1; i < len(m.Path); i++ {
		from, to := m.Path[i-1], m.Path[i]
		if from.Distance(to) != 1 {
			return nil, r.fail("path of unit %d jumps from %s to %s", u.ID, from, to)
		}
		tile := r.gs.Tile(to)
		if tile == nil {
			return nil, r.fail("path of unit %d leaves the map at %s", u.ID, to)
		}
		c, ok := MoveCost(tile.Terrain, stats.MoveType, r.gs.Weather)
		if !ok {
			return nil, r.fail("%s cannot enter %s at %s", u.Class, tile.Terrain, to)
		}
		cost += c
		if other := r.gs.UnitAt(to); other != nil && other.ID != u.ID && !r.gs.Allied(other.Owner, u.Owner) {
			return nil, r.fail("path of unit %d is blocked by unit %d at %s", u.ID, other.ID, to)
		}
	}
	if cost > stats.Move {
		return nil, r.fail("path of unit %d costs %d, move is %d", u.ID, cost, stats.Move)
	}
	if cost > u.Fuel {
		return nil, r.fail("path of unit %d costs %d, fuel is %d", u.ID, cost, u.Fuel)
	}

	dest := m.Path[len(m.Path)-1]
	if other := r.gs.UnitAt(dest); other != nil && other.ID != u.ID && other.ID != host {
		return nil, r.fail("destination %s is occupied by unit %d", dest, other.ID)
	}

	if dest != u.Pos {
		r.abandonCapture(u.Pos)
	}
	u.Pos = dest
	u.Fuel -= cost
	r.carryCargo(u)

	path := make([]Position, len(m.Path))
	copy(path, m.Path)
	r.emit(UnitMoved{Unit: u.ID, Path: path, Fuel: u.Fuel, Trapped: m.Trapped})
	return u, nil
}

// carryCargo keeps the positions of loaded units in step with their transport.
func (r *resolver) carryCargo(t *Unit) {
	for _, id := range t.Cargo {
		if c, ok := r.gs.Units[id]; ok {
			c.Pos = t.Pos
			r.carryCargo(c)
		}
	}
}

// Reachable returns every tile the unit could end a move on this turn, with
// the cheapest cost to get there. Allied units can be passed through but not
// stopped on; enemy units block.
func Reachable(gs *GameState, id UnitID) map[Position]int {
	u, ok := gs.Units[id]
	if !ok || u.Loaded() {
		return nil
	}
	stats := u.Class.Stats()
	budget := min(stats.Move, u.Fuel)

	best := map[Position]int{u.Pos: 0}
	pq := &frontier{{pos: u.Pos, cost: 0}}
	for pq.Len() > 0 {
		cur := heap.Pop(pq).(step)
		if cur.cost > best[cur.pos] {
			continue
		}
		for _, next := range cur.pos.Neighbors() {
			tile := gs.Tile(next)
			if tile == nil {
				continue
			}
			c, ok := MoveCost(tile.Terrain, stats.MoveType, gs.Weather)
			if !ok {
				continue
			}
			total := cur.cost + c
			if total > budget {
				continue
			}
			if other := gs.UnitAt(next); other != nil && !gs.Allied(other.Owner, u.Owner) {
				continue
			}
			if prev, seen := best[next]; seen && prev <= total {
				continue
			}
			best[next] = total
			heap.Push(pq, step{pos: next, cost: total})
		}
	}

	for p := range best {
		if other := gs.UnitAt(p); other != nil && other.ID != u.ID {
			delete(best, p)
		}
	}
	return best
}

type step struct {
	pos  Position
	cost int
}

// frontier is a min-heap of steps ordered by cost.
type frontier []step

func (f frontier) Len() int { return len(f) }
func (f frontier) Less(i, j int) bool {
	if f[i].cost != f[j].cost {
		return f[i].cost < f[j].cost
	}
	if f[i].pos.Y != f[j].pos.Y {
		return f[i].pos.Y < f[j].pos.Y
	}
	return f[i].pos.X < f[j].pos.X
}
func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }
func (f *frontier) Push(x any)   { *f = append(*f, x.(step)) }
func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	s := old[n-1]
	*f = old[:n-1]
	return s
}
