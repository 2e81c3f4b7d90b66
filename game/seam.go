package game

// rubbleOffset maps a seam terrain id to the rubble id of the same
// orientation (113 -> 115, 114 -> 116).
const rubbleOffset = 2

// attackSeam resolves fire on a pipe seam. Seams do not counter; their
// damage is taken from the record since seam armor is not charted.
func (r *resolver) attackSeam(a AttackSeam) error {
	if a.Move != nil && len(a.Move.Path) > 1 {
		if u, ok := r.gs.Units[a.Attacker]; ok && u.Class.IsIndirect() {
			return r.fail("%s %d cannot move and fire in one action", u.Class, u.ID)
		}
	}
	attacker, done, err := r.leadingMove(a.Move, a.Attacker)
	if err != nil || done {
		return err
	}

	tile := r.gs.Tile(a.Seam)
	if tile == nil || tile.Terrain != PipeSeam {
		return r.fail("no pipe seam at %s", a.Seam)
	}
	stats := attacker.Class.Stats()
	dist := attacker.Pos.Distance(a.Seam)
	if stats.MaxRange == 0 || dist < stats.MinRange || dist > stats.MaxRange {
		return r.fail("seam at %s at distance %d is out of range %d-%d", a.Seam, dist, stats.MinRange, stats.MaxRange)
	}
	_, usesAmmo, ok := weapon(attacker, Tank)
	if !ok {
		return r.fail("%s cannot damage a pipe seam", attacker.Class)
	}
	if a.SeamHP == nil {
		return r.fail("attack on seam at %s has no recorded result", a.Seam)
	}
	if *a.SeamHP < 0 || *a.SeamHP >= tile.HP {
		if r.gs.Rules.Strict {
			return r.fail("recorded seam hp %d at %s, was %d", *a.SeamHP, a.Seam, tile.HP)
		}
	}

	if usesAmmo {
		attacker.Ammo--
	}
	if attacker.Ammo, err = r.reconcile("attacker ammo", attacker.Ammo, a.AttackerAmmo, nil); err != nil {
		return err
	}
	attacker.Acted = true

	tile.HP = max(*a.SeamHP, 0)
	if tile.HP > 0 {
		r.emit(SeamAttacked{Pos: a.Seam, Attacker: attacker.ID, HP: tile.HP})
		return nil
	}
	tile.Terrain = PipeRubble
	tile.TerrainID += rubbleOffset
	r.emit(SeamAttacked{Pos: a.Seam, Attacker: attacker.ID, Broken: true})
	return nil
}
