package game

import "awreplay/meta"

func (r *resolver) build(a Build) error {
	p := r.gs.ActivePlayer()
	if p == nil {
		return r.fail("no active player")
	}
	if a.Player != NoPlayer && a.Player != p.ID {
		return r.fail("player %d cannot build on player %d's turn", a.Player, p.ID)
	}
	if !a.Class.Valid() {
		return r.fail("unknown unit class %d", a.Class)
	}
	tile := r.gs.Tile(a.Pos)
	if tile == nil {
		return r.fail("build site %s is off the map", a.Pos)
	}
	if tile.Owner != p.ID {
		return r.fail("build site %s is not owned by player %d", a.Pos, p.ID)
	}
	stats := a.Class.Stats()
	if cat, ok := tile.Terrain.Produces(); !ok || cat != stats.Category {
		return r.fail("%s at %s cannot build %s", tile.Terrain, a.Pos, a.Class)
	}
	if other := r.gs.UnitAt(a.Pos); other != nil {
		return r.fail("build site %s is occupied by unit %d", a.Pos, other.ID)
	}
	if a.Unit == 0 {
		return r.fail("new unit has no id")
	}
	if _, exists := r.gs.Units[a.Unit]; exists {
		return r.fail("unit id %d is already in use", a.Unit)
	}
	if p.Funds < stats.Cost {
		return r.fail("player %d has %d funds, %s costs %d", p.ID, p.Funds, a.Class, stats.Cost)
	}

	p.Funds -= stats.Cost
	u := &Unit{
		ID:    a.Unit,
		Owner: p.ID,
		Class: a.Class,
		Pos:   a.Pos,
		HP:    meta.MAX_HP,
		Fuel:  stats.Fuel,
		Ammo:  stats.Ammo,
		Acted: true,
	}
	r.gs.Units[u.ID] = u
	r.emit(UnitBuilt{Unit: *u, Funds: p.Funds})
	return nil
}
