package game

import (
	"sort"

	"awreplay/meta"
	"awreplay/utils"
)

func (r *resolver) supply(a Supply) error {
	if u, ok := r.gs.Units[a.Unit]; ok && !u.Class.CanSupply() {
		return r.fail("%s %d cannot supply", u.Class, u.ID)
	}
	u, done, err := r.leadingMove(a.Move, a.Unit)
	if err != nil || done {
		return err
	}

	targets := a.Targets
	if len(targets) == 0 {
		targets = r.adjacentOwn(u)
	}
	for _, id := range targets {
		t, ok := r.gs.Units[id]
		if !ok || t.Loaded() {
			return r.fail("supply target %d is not on the map", id)
		}
		if t.Owner != u.Owner || t.ID == u.ID {
			return r.fail("unit %d cannot supply unit %d", u.ID, id)
		}
		if t.Pos.Distance(u.Pos) != 1 {
			return r.fail("supply target %d is not adjacent to unit %d", id, u.ID)
		}
		resupply(t)
		r.emit(UnitSupplied{Unit: t.ID, By: u.ID, Fuel: t.Fuel, Ammo: t.Ammo})
	}
	u.Acted = true
	return nil
}

// adjacentOwn lists the free-standing units of u's owner next to u, by id.
func (r *resolver) adjacentOwn(u *Unit) []UnitID {
	var ids []UnitID
	for _, p := range u.Pos.Neighbors() {
		if o := r.gs.UnitAt(p); o != nil && o.Owner == u.Owner {
			ids = append(ids, o.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *resolver) load(a Load) error {
	cargo, ok := r.gs.Units[a.Move.Unit]
	if !ok {
		return r.fail("unit %d does not exist", a.Move.Unit)
	}
	t, ok := r.gs.Units[a.Transport]
	if !ok || t.Loaded() {
		return r.fail("transport %d is not on the map", a.Transport)
	}
	if t.Owner != cargo.Owner {
		return r.fail("unit %d cannot board unit %d of another player", cargo.ID, t.ID)
	}
	if !t.Class.CanCarry(cargo.Class) {
		return r.fail("%s cannot carry %s", t.Class, cargo.Class)
	}
	if len(t.Cargo) >= t.Class.Stats().Capacity {
		return r.fail("transport %d is full", t.ID)
	}
	if n := len(a.Move.Path); n == 0 || a.Move.Path[n-1] != t.Pos {
		if !a.Move.Trapped {
			return r.fail("unit %d does not end its move on transport %d", cargo.ID, t.ID)
		}
	}

	u, err := r.moveUnit(a.Move, t.ID)
	if err != nil {
		return err
	}
	u.Acted = true
	if a.Move.Trapped {
		return nil
	}
	u.Carrier = t.ID
	t.Cargo = append(t.Cargo, u.ID)
	r.emit(UnitLoaded{Unit: u.ID, Transport: t.ID})
	return nil
}

func (r *resolver) unload(a Unload) error {
	t, ok := r.gs.Units[a.Transport]
	if !ok {
		return r.fail("transport %d does not exist", a.Transport)
	}
	active := r.gs.ActivePlayer()
	if active == nil || t.Owner != active.ID {
		return r.fail("transport %d is not owned by the active player", t.ID)
	}
	if t.Loaded() {
		return r.fail("transport %d is itself loaded", t.ID)
	}
	i := utils.FindIndex(t.Cargo, a.Cargo)
	if i < 0 {
		return r.fail("unit %d is not in transport %d", a.Cargo, t.ID)
	}
	cargo := r.gs.Units[a.Cargo]
	if t.Pos.Distance(a.To) != 1 {
		return r.fail("drop point %s is not adjacent to transport %d", a.To, t.ID)
	}
	tile := r.gs.Tile(a.To)
	if tile == nil {
		return r.fail("drop point %s is off the map", a.To)
	}
	if _, ok := MoveCost(tile.Terrain, cargo.Class.Stats().MoveType, r.gs.Weather); !ok {
		return r.fail("%s cannot be dropped on %s", cargo.Class, tile.Terrain)
	}
	if other := r.gs.UnitAt(a.To); other != nil {
		return r.fail("drop point %s is occupied by unit %d", a.To, other.ID)
	}

	t.Cargo = append(t.Cargo[:i], t.Cargo[i+1:]...)
	cargo.Carrier = 0
	cargo.Pos = a.To
	cargo.Acted = true
	r.carryCargo(cargo)
	t.Acted = true
	r.emit(UnitUnloaded{Unit: cargo.ID, Transport: t.ID, Pos: a.To})
	return nil
}

func (r *resolver) join(a Join) error {
	u, ok := r.gs.Units[a.Move.Unit]
	if !ok {
		return r.fail("unit %d does not exist", a.Move.Unit)
	}
	target, ok := r.gs.Units[a.Target]
	if !ok || target.Loaded() || target.ID == u.ID {
		return r.fail("join target %d is not on the map", a.Target)
	}
	if target.Owner != u.Owner || target.Class != u.Class {
		return r.fail("unit %d cannot join unit %d", u.ID, target.ID)
	}
	if target.HP >= meta.MAX_HP {
		return r.fail("join target %d is at full health", target.ID)
	}
	if len(u.Cargo) > 0 || len(target.Cargo) > 0 {
		return r.fail("units carrying cargo cannot join")
	}
	if n := len(a.Move.Path); (n == 0 || a.Move.Path[n-1] != target.Pos) && !a.Move.Trapped {
		return r.fail("unit %d does not end its move on unit %d", u.ID, target.ID)
	}

	u, err := r.moveUnit(a.Move, target.ID)
	if err != nil {
		return err
	}
	if a.Move.Trapped {
		u.Acted = true
		return nil
	}

	stats := u.Class.Stats()
	combined := DisplayHP(u.HP) + DisplayHP(target.HP)
	refund := 0
	if excess := combined - DisplayHP(meta.MAX_HP); excess > 0 {
		refund = excess * stats.Cost / 10
	}
	p := r.gs.Player(u.Owner)
	funds, err := r.reconcile("funds", p.Funds+refund, a.Funds, nil)
	if err != nil {
		return err
	}
	p.Funds = funds

	target.HP = min(u.HP+target.HP, meta.MAX_HP)
	target.Fuel = min(u.Fuel+target.Fuel, stats.Fuel)
	target.Ammo = min(u.Ammo+target.Ammo, stats.Ammo)
	target.Acted = true
	delete(r.gs.Units, u.ID)
	r.emit(UnitsJoined{Unit: u.ID, Into: target.ID, HP: target.HP, Refund: refund})
	return nil
}

func (r *resolver) repair(a Repair) error {
	if u, ok := r.gs.Units[a.Unit]; ok && !u.Class.CanRepair() {
		return r.fail("%s %d cannot repair", u.Class, u.ID)
	}
	u, done, err := r.leadingMove(a.Move, a.Unit)
	if err != nil || done {
		return err
	}
	target, ok := r.gs.Units[a.Target]
	if !ok || target.Loaded() {
		return r.fail("repair target %d is not on the map", a.Target)
	}
	if target.Owner != u.Owner || target.ID == u.ID {
		return r.fail("unit %d cannot repair unit %d", u.ID, target.ID)
	}
	if target.Pos.Distance(u.Pos) != 1 {
		return r.fail("repair target %d is not adjacent to unit %d", target.ID, u.ID)
	}

	p := r.gs.Player(u.Owner)
	hp, cost := target.HP, 0
	if target.HP < meta.MAX_HP {
		price := target.Class.Stats().Cost / 10
		if p.Funds >= price {
			hp = min(target.HP+10, meta.MAX_HP)
			cost = price
		}
	}
	if hp, err = r.reconcile("hp", hp, a.HP, sameDisplayHP); err != nil {
		return err
	}
	funds, err := r.reconcile("funds", p.Funds-cost, a.Funds, nil)
	if err != nil {
		return err
	}
	if funds < 0 {
		return r.fail("repair leaves player %d with negative funds", p.ID)
	}
	p.Funds = funds
	target.HP = hp
	resupply(target)
	u.Acted = true
	r.emit(UnitRepaired{Unit: target.ID, By: u.ID, HP: target.HP, Cost: cost})
	r.emit(UnitSupplied{Unit: target.ID, By: u.ID, Fuel: target.Fuel, Ammo: target.Ammo})
	return nil
}
