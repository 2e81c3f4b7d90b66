package game

func (r *resolver) capture(a Capture) error {
	if a.Unit == 0 && a.Move == nil {
		u := r.gs.UnitAt(a.At)
		if u == nil {
			return r.fail("no unit at %s to capture with", a.At)
		}
		a.Unit = u.ID
	}
	if u, ok := r.gs.Units[a.Unit]; ok && !u.Class.CanCapture() {
		return r.fail("%s %d cannot capture", u.Class, u.ID)
	}
	u, done, err := r.leadingMove(a.Move, a.Unit)
	if err != nil || done {
		return err
	}

	tile := r.gs.Tile(u.Pos)
	if !tile.Terrain.IsProperty() {
		return r.fail("%s at %s is not a property", tile.Terrain, u.Pos)
	}
	if tile.Owner != NoPlayer && r.gs.Allied(tile.Owner, u.Owner) {
		return r.fail("property at %s already belongs to player %d", u.Pos, tile.Owner)
	}

	threshold := r.gs.Rules.CaptureThreshold
	progress := min(tile.Capture+DisplayHP(u.HP), threshold)
	if progress >= threshold {
		progress = 0
	}
	if progress, err = r.reconcile("capture progress", progress, a.Progress, nil); err != nil {
		return err
	}
	u.Acted = true

	if progress > 0 {
		tile.Capture = progress
		r.emit(CaptureProgressed{Unit: u.ID, Pos: u.Pos, Progress: progress})
		return nil
	}

	prev := tile.Owner
	tile.Owner = u.Owner
	tile.Capture = 0
	tile.TerrainID = r.terrainIDFor(tile.Terrain, u.Owner, tile.TerrainID)
	r.emit(TileCaptured{Pos: u.Pos, From: prev, To: u.Owner})

	if prev == NoPlayer {
		return nil
	}
	if tile.Terrain == HQ {
		r.eliminate(prev, u.Owner, u.Owner)
		return nil
	}
	r.checkRout(prev, u.Owner)
	return nil
}
