package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	osHQ   = 42
	osBase = 39
	osCity = 38
	bmHQ   = 47
	bmBase = 44
	bmCity = 43
)

// testSetup is a w x h plain map with an HQ per player in opposite corners.
// Player 1 (Orange Star) moves first.
func testSetup(w, h int) Setup {
	ids := make([]int, w*h)
	for i := range ids {
		ids[i] = 1
	}
	ids[0] = osHQ
	ids[w*h-1] = bmHQ
	return Setup{
		Width:      w,
		Height:     h,
		TerrainIDs: ids,
		Players: []Player{
			{ID: 1, Faction: OrangeStar, Order: 0},
			{ID: 2, Faction: BlueMoon, Order: 1},
		},
		Day: 1,
	}
}

func setTerrain(s *Setup, p Position, id int) {
	s.TerrainIDs[p.Y*s.Width+p.X] = id
}

func unit(id UnitID, owner PlayerID, class UnitClass, x, y int) Unit {
	stats := class.Stats()
	return Unit{ID: id, Owner: owner, Class: class, Pos: Position{x, y}, HP: 100, Fuel: stats.Fuel, Ammo: stats.Ammo}
}

func mustState(t *testing.T, s Setup) *GameState {
	t.Helper()
	gs, err := NewState(s)
	require.NoError(t, err, "Setup should be valid")
	return gs
}

func mustApply(t *testing.T, gs *GameState, a Action) (*GameState, []Event) {
	t.Helper()
	next, events, err := Apply(gs, a)
	require.NoError(t, err, "Action should be legal")
	return next, events
}

func requireViolation(t *testing.T, gs *GameState, a Action) *RuleViolation {
	t.Helper()
	before := gs.Hash()
	next, events, err := Apply(gs, a)
	var v *RuleViolation
	require.ErrorAs(t, err, &v, "Action should be rejected as a rule violation")
	require.Nil(t, next, "A rejected action should return no state")
	require.Nil(t, events, "A rejected action should return no events")
	require.Equal(t, before, gs.Hash(), "A rejected action should leave the input state unchanged")
	return v
}

func kinds(events []Event) []EventKind {
	out := make([]EventKind, len(events))
	for i, e := range events {
		out[i] = e.Kind()
	}
	return out
}

func intp(v int) *int { return &v }

func path(coords ...int) []Position {
	p := make([]Position, 0, len(coords)/2)
	for i := 0; i+1 < len(coords); i += 2 {
		p = append(p, Position{coords[i], coords[i+1]})
	}
	return p
}
