package game

import (
	"awreplay/meta"
	"awreplay/utils"
)

func (r *resolver) endTurn(a EndTurn) error {
	p := r.gs.ActivePlayer()
	if p == nil {
		return r.fail("no active player")
	}
	if a.Player != NoPlayer && a.Player != p.ID {
		return r.fail("player %d cannot end player %d's turn", a.Player, p.ID)
	}
	return r.passTurn(a)
}

// passTurn hands the turn to the next player still in the game and runs
// their start-of-turn upkeep.
func (r *resolver) passTurn(a EndTurn) error {
	gs := r.gs
	gs.Phase = TurnEnded

	next, wrapped := gs.nextPlayer()
	if next < 0 {
		return r.fail("no player is left to take the turn")
	}
	if a.NextPlayer != NoPlayer && gs.Players[next].ID != a.NextPlayer {
		if gs.Rules.Strict {
			return r.fail("recorded next player %d, rules give player %d", a.NextPlayer, gs.Players[next].ID)
		}
		idx := -1
		for i, p := range gs.Players {
			if p.ID == a.NextPlayer && !p.Eliminated {
				idx = i
			}
		}
		if idx < 0 {
			return r.fail("recorded next player %d is not in the game", a.NextPlayer)
		}
		next, wrapped = idx, idx <= gs.Active
	}

	for _, u := range gs.Units {
		u.Acted = false
	}
	gs.Active = next
	if wrapped {
		gs.Day++
		r.emit(DayAdvanced{Day: gs.Day})
	}
	day, err := r.reconcile("day", gs.Day, dayPtr(a.Day), nil)
	if err != nil {
		return err
	}
	gs.Day = day

	if a.NextWeather != nil && *a.NextWeather != gs.Weather {
		gs.Weather = *a.NextWeather
		r.emit(WeatherChanged{Weather: gs.Weather})
	}

	if err := r.startTurn(a); err != nil {
		return err
	}
	if !gs.Over {
		gs.Phase = AwaitingAction
	}
	return nil
}

func dayPtr(day int) *int {
	if day == 0 {
		return nil
	}
	return &day
}

// nextPlayer finds the next non-eliminated player after the active one.
// wrapped reports that the turn order went past the last player.
func (gs *GameState) nextPlayer() (int, bool) {
	n := len(gs.Players)
	for step := 1; step <= n; step++ {
		i := (gs.Active + step) % n
		if !gs.Players[i].Eliminated {
			return i, gs.Active+step >= n
		}
	}
	return -1, false
}

// startTurn runs the upkeep of the player who now holds the turn: daily fuel
// burn and crashes, income, property repairs, transport resupply.
func (r *resolver) startTurn(a EndTurn) error {
	gs := r.gs
	p := gs.ActivePlayer()
	p.Power = NoPower

	for _, id := range gs.UnitsOf(p.ID) {
		u, ok := gs.Units[id]
		if !ok {
			continue // went down with its transport
		}
		perDay := u.Class.Stats().FuelPerDay
		if perDay == 0 || u.Loaded() {
			continue
		}
		u.Fuel = max(u.Fuel-perDay, 0)
		if u.Fuel == 0 && !r.suppliedAtStart(u) {
			r.destroyUnit(u)
		}
	}

	income := gs.Rules.Income * gs.IncomeProperties(p.ID)
	p.Funds += income

	recorded := make(map[UnitID]int, len(a.Repaired))
	for _, rep := range a.Repaired {
		recorded[rep.Unit] = rep.HP
	}
	for _, id := range gs.UnitsOf(p.ID) {
		u := gs.Units[id]
		if u.Loaded() {
			continue
		}
		tile := gs.Tile(u.Pos)
		if tile.Owner != p.ID || !tile.Terrain.Repairs(u.Class.Stats().Category) {
			continue
		}
		if err := r.propertyRepair(p, u, recorded); err != nil {
			return err
		}
	}

	for _, id := range gs.UnitsOf(p.ID) {
		t := gs.Units[id]
		if !t.Class.CanSupply() || t.Loaded() {
			continue
		}
		for _, oid := range r.adjacentOwn(t) {
			o := gs.Units[oid]
			if resupply(o) {
				r.emit(UnitSupplied{Unit: o.ID, By: t.ID, Fuel: o.Fuel, Ammo: o.Ammo})
			}
		}
	}

	funds, err := r.reconcile("funds", p.Funds, a.Funds, nil)
	if err != nil {
		return err
	}
	if funds < 0 {
		return r.fail("recorded funds %d are negative", funds)
	}
	p.Funds = funds

	r.emit(TurnStarted{Player: p.ID, Day: gs.Day, Income: income, Funds: p.Funds})
	r.checkRout(p.ID, NoPlayer)
	return nil
}

// propertyRepair heals up to the repair amount in whole display points the
// player can pay for, then resupplies.
func (r *resolver) propertyRepair(p *Player, u *Unit, recorded map[UnitID]int) error {
	price := u.Class.Stats().Cost / 10
	points := min(r.gs.Rules.RepairHP/10, DisplayHP(meta.MAX_HP)-DisplayHP(u.HP))
	if price > 0 {
		points = min(points, p.Funds/price)
	}
	points = max(points, 0)
	hp := min(u.HP+points*10, meta.MAX_HP)

	var rec *int
	if v, ok := recorded[u.ID]; ok {
		rec = &v
	}
	hp, err := r.reconcile("repaired hp", hp, rec, sameDisplayHP)
	if err != nil {
		return err
	}
	hp = utils.Clamp(hp, 1, meta.MAX_HP)

	cost := points * price
	p.Funds -= cost
	healed := hp != u.HP
	u.HP = hp
	supplied := resupply(u)
	if healed {
		r.emit(UnitRepaired{Unit: u.ID, HP: u.HP, Cost: cost})
	}
	if supplied {
		r.emit(UnitSupplied{Unit: u.ID, Fuel: u.Fuel, Ammo: u.Ammo})
	}
	return nil
}

// suppliedAtStart reports whether a unit that just ran dry will be refuelled
// before it would crash: it sits on a repairing property or next to an APC of
// its owner.
func (r *resolver) suppliedAtStart(u *Unit) bool {
	tile := r.gs.Tile(u.Pos)
	if tile.Owner == u.Owner && tile.Terrain.Repairs(u.Class.Stats().Category) {
		return true
	}
	for _, p := range u.Pos.Neighbors() {
		if o := r.gs.UnitAt(p); o != nil && o.Owner == u.Owner && o.Class.CanSupply() {
			return true
		}
	}
	return false
}

func (r *resolver) power(a Power) error {
	p := r.gs.ActivePlayer()
	if p == nil {
		return r.fail("no active player")
	}
	if a.Player != NoPlayer && a.Player != p.ID {
		return r.fail("player %d cannot activate a power on player %d's turn", a.Player, p.ID)
	}
	if a.Level != COPower && a.Level != SuperPower {
		return r.fail("unknown power kind %d", a.Level)
	}
	if p.Power != NoPower {
		return r.fail("player %d already has a power active", p.ID)
	}
	p.Power = a.Level
	r.emit(PowerActivated{Player: p.ID, Power: a.Level, Name: a.Name})
	return nil
}

func (r *resolver) resign(a Resign) error {
	active := r.gs.ActivePlayer()
	id := a.Player
	if id == NoPlayer && active != nil {
		id = active.ID
	}
	p := r.gs.Player(id)
	if p == nil || p.Eliminated {
		return r.fail("player %d is not in the game", id)
	}
	wasActive := active != nil && active.ID == id

	r.eliminate(id, NoPlayer, NoPlayer)
	if r.gs.Over || !wasActive {
		return nil
	}
	next := EndTurn{}
	if a.Next != nil {
		next = *a.Next
	}
	return r.passTurn(next)
}
