package game

// VisibleTiles reports, per tile in row-major order, whether the viewer can
// see units standing there.
func VisibleTiles(gs *GameState, viewer PlayerID) []bool {
	seen := make([]bool, len(gs.Tiles))
	if gs.Fog == FogOff {
		for i := range seen {
			seen[i] = true
		}
		return seen
	}

	for i, t := range gs.Tiles {
		if t.Owner != NoPlayer && gs.Allied(t.Owner, viewer) && gs.Fog == FogPartial {
			seen[i] = true
		}
	}

	for _, u := range gs.Units {
		if u.Loaded() || !gs.Allied(u.Owner, viewer) {
			continue
		}
		seen[u.Pos.Y*gs.Width+u.Pos.X] = true
		radius := visionOf(gs, u)
		for dy := -radius; dy <= radius; dy++ {
			for dx := -radius; dx <= radius; dx++ {
				d := abs(dx) + abs(dy)
				if d > radius {
					continue
				}
				p := Position{u.Pos.X + dx, u.Pos.Y + dy}
				t := gs.Tile(p)
				if t == nil {
					continue
				}
				if t.Terrain.HidesUnits() && d > 1 {
					continue
				}
				seen[p.Y*gs.Width+p.X] = true
			}
		}
	}
	return seen
}

// Visible reports whether the viewer can see units on p.
func Visible(gs *GameState, viewer PlayerID, p Position) bool {
	if !gs.InBounds(p) {
		return false
	}
	if gs.Fog == FogOff {
		return true
	}
	return VisibleTiles(gs, viewer)[p.Y*gs.Width+p.X]
}

// visionOf is a unit's sight radius: foot soldiers see further from
// mountains, rain shortens everyone's sight.
func visionOf(gs *GameState, u *Unit) int {
	v := u.Class.Stats().Vision
	if u.Class.CanCapture() && gs.Tile(u.Pos).Terrain == Mountain {
		v += 3
	}
	if gs.Weather == Rain {
		v--
	}
	return max(v, 1)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
