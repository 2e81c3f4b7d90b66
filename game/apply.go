package game

import (
	"fmt"
	"sort"

	"awreplay/utils"
)

// Apply checks action against state and returns the resulting state plus the
// events it produced. state is never modified; on failure the error is a
// *RuleViolation and no state is returned.
func Apply(state *GameState, action Action) (*GameState, []Event, error) {
	if action == nil {
		return nil, nil, &RuleViolation{ActionIndex: -1, Reason: "nil action"}
	}
	r := &resolver{gs: state.Copy(), kind: action.Kind()}
	if state.Over {
		return nil, nil, r.fail("the game is over")
	}

	var err error
	switch a := action.(type) {
	case Move:
		err = r.moveAction(a)
	case Attack:
		err = r.attack(a)
	case Build:
		err = r.build(a)
	case Capture:
		err = r.capture(a)
	case Supply:
		err = r.supply(a)
	case EndTurn:
		err = r.endTurn(a)
	case Load:
		err = r.load(a)
	case Unload:
		err = r.unload(a)
	case Power:
		err = r.power(a)
	case Resign:
		err = r.resign(a)
	case Join:
		err = r.join(a)
	case Repair:
		err = r.repair(a)
	case AttackSeam:
		err = r.attackSeam(a)
	default:
		err = r.fail("unsupported action %T", action)
	}
	if err != nil {
		return nil, nil, err
	}
	return r.gs, r.events, nil
}

// resolver carries the working copy and the events of one Apply call.
type resolver struct {
	gs     *GameState
	kind   ActionKind
	events []Event
}

func (r *resolver) fail(format string, args ...any) error {
	return &RuleViolation{ActionIndex: -1, Action: r.kind, Reason: fmt.Sprintf(format, args...)}
}

func (r *resolver) emit(e Event) {
	r.events = append(r.events, e)
}

// ownUnit fetches a unit the active player may give orders to this turn.
func (r *resolver) ownUnit(id UnitID) (*Unit, error) {
	u, ok := r.gs.Units[id]
	if !ok {
		return nil, r.fail("unit %d does not exist", id)
	}
	active := r.gs.ActivePlayer()
	if active == nil || u.Owner != active.ID {
		return nil, r.fail("unit %d is not owned by the active player", id)
	}
	if u.Acted {
		return nil, r.fail("unit %d has already acted", id)
	}
	return u, nil
}

// leadingMove runs the optional move that precedes a unit command. done is
// true when the move was trapped and the command must not continue.
func (r *resolver) leadingMove(m *Move, unit UnitID) (u *Unit, done bool, err error) {
	if m == nil {
		u, err = r.ownUnit(unit)
		return u, false, err
	}
	if m.Unit != unit {
		return nil, false, r.fail("move is for unit %d, command for unit %d", m.Unit, unit)
	}
	u, err = r.moveUnit(*m, 0)
	if err != nil {
		return nil, false, err
	}
	if m.Trapped {
		u.Acted = true
		return u, true, nil
	}
	return u, false, nil
}

// reconcile compares a recorded value to the computed one. It returns the value
// to keep: the computed one in strict mode (failing on mismatch), the recorded
// one otherwise.
func (r *resolver) reconcile(what string, computed int, recorded *int, same func(a, b int) bool) (int, error) {
	if recorded == nil {
		return computed, nil
	}
	if same == nil {
		same = func(a, b int) bool { return a == b }
	}
	if same(computed, *recorded) {
		return computed, nil
	}
	if r.gs.Rules.Strict {
		return 0, r.fail("recorded %s %d does not match computed %d", what, *recorded, computed)
	}
	return *recorded, nil
}

func sameDisplayHP(a, b int) bool {
	return DisplayHP(a) == DisplayHP(b)
}

// resupply refills fuel and ammo and reports whether anything changed.
func resupply(u *Unit) bool {
	stats := u.Class.Stats()
	changed := u.Fuel != stats.Fuel || u.Ammo != stats.Ammo
	u.Fuel = stats.Fuel
	u.Ammo = stats.Ammo
	return changed
}

// destroyUnit removes u and everything it carries.
func (r *resolver) destroyUnit(u *Unit) {
	for _, c := range append([]UnitID(nil), u.Cargo...) {
		if cargo, ok := r.gs.Units[c]; ok {
			r.destroyUnit(cargo)
		}
	}
	if !u.Loaded() {
		r.abandonCapture(u.Pos)
	} else if t, ok := r.gs.Units[u.Carrier]; ok {
		if i := utils.FindIndex(t.Cargo, u.ID); i >= 0 {
			t.Cargo = append(t.Cargo[:i], t.Cargo[i+1:]...)
		}
	}
	delete(r.gs.Units, u.ID)
	r.emit(UnitDestroyed{Unit: u.ID, Owner: u.Owner, Class: u.Class, Pos: u.Pos})
}

// abandonCapture resets a capture in progress when its unit leaves or dies.
func (r *resolver) abandonCapture(p Position) {
	t := r.gs.Tile(p)
	if t == nil || t.Capture == 0 {
		return
	}
	t.Capture = 0
	r.emit(CaptureProgressed{Pos: p, Progress: 0})
}

// checkRout eliminates a player left with no units and no income.
func (r *resolver) checkRout(id PlayerID, by PlayerID) {
	p := r.gs.Player(id)
	if p == nil || p.Eliminated {
		return
	}
	if len(r.gs.UnitsOf(id)) > 0 || r.gs.IncomeProperties(id) > 0 {
		return
	}
	r.eliminate(id, by, NoPlayer)
}

// eliminate removes a player from the game. Their units disappear and their
// properties pass to heir (NoPlayer turns them neutral).
func (r *resolver) eliminate(id, by, heir PlayerID) {
	p := r.gs.Player(id)
	if p == nil || p.Eliminated {
		return
	}
	p.Eliminated = true
	p.Power = NoPower

	units := r.gs.UnitsOf(id)
	for _, uid := range units {
		delete(r.gs.Units, uid)
	}

	var props []Position
	for i := range r.gs.Tiles {
		t := &r.gs.Tiles[i]
		if t.Owner != id {
			continue
		}
		t.Owner = heir
		t.Capture = 0
		t.TerrainID = r.terrainIDFor(t.Terrain, heir, t.TerrainID)
		props = append(props, r.gs.positionOf(i))
	}

	r.emit(PlayerEliminated{Player: id, By: by, Units: units, Properties: props})
	r.checkGameOver()
}

// terrainIDFor finds the archive id of a property kind for a new owner,
// keeping the old id when the faction has no such variant.
func (r *resolver) terrainIDFor(t Terrain, owner PlayerID, fallback int) int {
	f := Neutral
	if p := r.gs.Player(owner); p != nil {
		f = p.Faction
	}
	if id, ok := TerrainID(t, f); ok {
		return id
	}
	return fallback
}

// checkGameOver ends the game once a single side is left standing.
func (r *resolver) checkGameOver() {
	if r.gs.Over {
		return
	}
	sides := map[string]bool{}
	var alive []Player
	for _, p := range r.gs.Players {
		if p.Eliminated {
			continue
		}
		alive = append(alive, p)
		side := p.Team
		if side == "" {
			side = fmt.Sprintf("player:%d", p.ID)
		}
		sides[side] = true
	}
	if len(sides) > 1 {
		return
	}
	sort.SliceStable(alive, func(i, j int) bool { return alive[i].Order < alive[j].Order })
	winners := make([]PlayerID, 0, len(alive))
	for _, p := range alive {
		winners = append(winners, p.ID)
	}
	r.gs.Over = true
	r.gs.Phase = Finished
	r.gs.Winners = winners
	r.emit(GameOver{Winners: winners})
}
