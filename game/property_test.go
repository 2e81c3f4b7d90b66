package game

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

// randomAction proposes a plausible but unchecked action for the active
// player. Many are illegal; the rules decide.
func randomAction(rng *rand.Rand, gs *GameState) Action {
	ids := gs.UnitsOf(gs.ActivePlayer().ID)
	if len(ids) == 0 || rng.Intn(8) == 0 {
		return EndTurn{}
	}
	u := gs.Units[ids[rng.Intn(len(ids))]]
	walk := []Position{u.Pos}
	for i := rng.Intn(5); i > 0; i-- {
		last := walk[len(walk)-1]
		walk = append(walk, last.Neighbors()[rng.Intn(4)])
	}
	m := &Move{Unit: u.ID, Path: walk}

	switch rng.Intn(3) {
	case 0:
		return *m
	case 1:
		var target UnitID
		for _, id := range []UnitID{10, 11, 12, 20, 21, 22} {
			if other, ok := gs.Units[id]; ok && other.Owner != u.Owner && rng.Intn(2) == 0 {
				target = id
			}
		}
		return Attack{Move: m, Attacker: u.ID, Defender: target, Luck: &Luck{Attack: rng.Intn(10), Counter: rng.Intn(10)}}
	default:
		return Capture{Move: m, Unit: u.ID}
	}
}

func TestRandomPlayKeepsInvariants(t *testing.T) {
	s := testSetup(7, 7)
	setTerrain(&s, Position{3, 3}, 34)
	setTerrain(&s, Position{2, 4}, 2)
	setTerrain(&s, Position{4, 2}, 3)
	setTerrain(&s, Position{1, 5}, 28)
	s.Units = []Unit{
		unit(10, 1, Infantry, 1, 1),
		unit(11, 1, Tank, 2, 1),
		unit(12, 1, Artillery, 1, 2),
		unit(20, 2, Infantry, 5, 5),
		unit(21, 2, Mech, 4, 5),
		unit(22, 2, Recon, 5, 4),
	}
	start := mustState(t, s)

	for seed := uint64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		gs := start
		progress := map[Position]int{}

		for step := 0; step < 300 && !gs.Over; step++ {
			action := randomAction(rng, gs)
			before := gs.Hash()
			next, _, err := Apply(gs, action)
			require.Equal(t, before, gs.Hash(), "Apply must never modify its input (seed %d step %d)", seed, step)
			if err != nil {
				var v *RuleViolation
				require.True(t, errors.As(err, &v), "Only rule violations are expected, got %v", err)
				continue
			}

			for _, u := range next.Units {
				stats := u.Class.Stats()
				require.True(t, u.HP > 0 && u.HP <= 100, "HP of unit %d out of range: %d", u.ID, u.HP)
				require.True(t, u.Fuel >= 0 && u.Fuel <= stats.Fuel, "Fuel of unit %d out of range: %d", u.ID, u.Fuel)
				require.True(t, u.Ammo >= 0 && u.Ammo <= stats.Ammo, "Ammo of unit %d out of range: %d", u.ID, u.Ammo)
			}
			for _, p := range next.Players {
				require.GreaterOrEqual(t, p.Funds, 0, "Funds of player %d", p.ID)
			}

			if c, ok := action.(Capture); ok {
				pos := next.Units[c.Unit].Pos
				tile := next.Tile(pos)
				if tile.Owner == next.Units[c.Unit].Owner {
					delete(progress, pos)
				} else {
					require.GreaterOrEqual(t, tile.Capture, progress[pos], "Capture progress only grows while the capture continues")
					require.LessOrEqual(t, tile.Capture, next.Rules.CaptureThreshold)
					progress[pos] = tile.Capture
				}
			}
			for pos := range progress {
				if next.UnitAt(pos) == nil {
					delete(progress, pos)
				}
			}
			gs = next
		}
	}
}
