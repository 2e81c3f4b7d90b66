package engine

import (
	"errors"
	"testing"

	"awreplay/experiments/metrics"
	"awreplay/game"
	"awreplay/replay"
	"awreplay/replaytest"

	"github.com/stretchr/testify/require"
)

func loadSkirmish(t *testing.T, opts ...replay.Option) *replay.Match {
	t.Helper()
	m, err := replay.Load(replaytest.Skirmish(), opts...)
	require.NoError(t, err, "Skirmish should load")
	return m
}

func newDriver(t *testing.T, m *replay.Match, opts ...Option) *Driver {
	t.Helper()
	d, err := NewDriver(m, opts...)
	require.NoError(t, err)
	return d
}

// tampered replaces Blue's recorded damage on the capturer with a result no
// luck roll can produce.
func tampered(t *testing.T, opts ...replay.Option) *replay.Match {
	t.Helper()
	data := replaytest.SkirmishWith(replaytest.Tampered(1, `"units_hit_points":6`, `"units_hit_points":2`))
	m, err := replay.Load(data, opts...)
	require.NoError(t, err, "Tampered skirmish should still decode")
	return m
}

func TestDriverStep(t *testing.T) {
	m := loadSkirmish(t)
	d := newDriver(t, m)

	require.Equal(t, 0, d.Cursor())
	require.Equal(t, replaytest.SkirmishLength(), d.Len())
	require.Equal(t, 1, d.CurrentDay())
	require.False(t, d.IsAtEnd())

	var updates []Update
	for !d.IsAtEnd() {
		u, err := d.Step()
		require.NoError(t, err, "Action %d should apply", d.Cursor())
		updates = append(updates, u)
	}
	require.Len(t, updates, replaytest.SkirmishLength())

	for i, u := range updates {
		require.Equal(t, i, u.Index, "Updates come in order")
		require.Equal(t, i+1, u.Cursor, "Cursor follows the applied action")
		require.Equal(t, m.Actions[i].Kind(), u.Action)
		require.NotEmpty(t, u.Events, "Every recorded action has consequences")
	}

	t.Run("updates name who acted and whose turn follows", func(t *testing.T) {
		require.Equal(t, game.PlayerID(replaytest.Red), updates[2].Player)
		require.Equal(t, game.PlayerID(replaytest.Blue), updates[2].Active, "Ending the turn hands over to Blue")
		require.Equal(t, game.PlayerID(replaytest.Blue), updates[3].Player)
		require.Equal(t, 2, updates[4].Day, "Blue's end of turn starts day 2")
	})

	t.Run("the final state matches the recording", func(t *testing.T) {
		gs := d.State()
		require.Equal(t, 2, gs.Day)
		require.Equal(t, game.PlayerID(replaytest.Blue), gs.ActivePlayer().ID)
		require.Equal(t, 16, gs.Tile(game.Position{X: 2, Y: 1}).Capture, "Capture continues at 6 display hp")
		require.Equal(t, 5000, gs.Player(replaytest.Blue).Funds)
		require.Equal(t, updates[len(updates)-1].Hash, gs.Hash())
	})

	t.Run("stepping past the end reports it", func(t *testing.T) {
		_, err := d.Step()
		require.ErrorIs(t, err, ErrAtEnd)
		require.Nil(t, d.Halted(), "Reaching the end is not a halt")
	})

	t.Run("state is returned as a copy", func(t *testing.T) {
		gs := d.State()
		gs.Day = 99
		require.Equal(t, 2, d.CurrentDay())
	})
}

func TestDriverSeek(t *testing.T) {
	m := loadSkirmish(t)
	n := replaytest.SkirmishLength()

	hashes := make([]game.StateHash, n+1)
	ref := newDriver(t, m)
	hashes[0] = ref.Position().Hash
	for i := 1; i <= n; i++ {
		u, err := ref.Step()
		require.NoError(t, err)
		hashes[i] = u.Hash
	}

	t.Run("seeking reproduces stepping", func(t *testing.T) {
		d := newDriver(t, m)
		for _, k := range []int{5, 2, n, 0, 7, 3} {
			_, err := d.Seek(k)
			require.NoError(t, err)
			require.Equal(t, k, d.Cursor())
			require.Equal(t, hashes[k], d.Position().Hash, "Seek to %d", k)
		}
	})

	t.Run("seeking to the current index is a no-op", func(t *testing.T) {
		d := newDriver(t, m)
		_, err := d.Seek(4)
		require.NoError(t, err)
		before := d.Position()

		updates, err := d.Seek(4)
		require.NoError(t, err)
		require.Nil(t, updates, "Nothing is replayed")
		require.Equal(t, before, d.Position())
	})

	t.Run("seek returns the replayed updates", func(t *testing.T) {
		d := newDriver(t, m)
		updates, err := d.Seek(3)
		require.NoError(t, err)
		require.Len(t, updates, 3)
		require.Equal(t, hashes[3], updates[2].Hash)
	})

	t.Run("two drivers agree", func(t *testing.T) {
		a, b := newDriver(t, m), newDriver(t, m)
		_, err := a.Run()
		require.NoError(t, err)
		_, err = b.Seek(n)
		require.NoError(t, err)
		require.Equal(t, a.State().Hash(), b.State().Hash())
	})

	t.Run("out of range seeks fail", func(t *testing.T) {
		d := newDriver(t, m)
		_, err := d.Seek(-1)
		require.Error(t, err)
		_, err = d.Seek(n + 1)
		require.Error(t, err)
		require.Equal(t, 0, d.Cursor(), "A rejected seek does not move")
	})
}

func TestDriverHalts(t *testing.T) {
	clean := newDriver(t, loadSkirmish(t))
	_, err := clean.Seek(3)
	require.NoError(t, err)

	d := newDriver(t, tampered(t))
	_, err = d.Run()
	var v *game.RuleViolation
	require.ErrorAs(t, err, &v, "Impossible damage should be a rule violation")
	require.Equal(t, 3, v.ActionIndex, "The violation names the offending action")
	require.Equal(t, game.AttackAction, v.Action)

	require.Equal(t, 3, d.Cursor(), "The cursor stays on the offending action")
	require.Equal(t, clean.Position().Hash, d.Position().Hash, "The last good state is kept")
	require.NotNil(t, d.Halted())
	require.False(t, d.IsAtEnd())

	t.Run("stepping a halted driver repeats the violation", func(t *testing.T) {
		_, err := d.Step()
		require.True(t, errors.Is(err, d.Halted()), "Same violation")
	})

	t.Run("seeking before the violation clears the halt", func(t *testing.T) {
		_, err := d.Seek(1)
		require.NoError(t, err)
		require.Nil(t, d.Halted())

		updates, err := d.Seek(5)
		require.ErrorAs(t, err, &v)
		require.Len(t, updates, 3, "Actions before the violation still apply")
		require.Equal(t, 3, d.Cursor())
	})

	t.Run("lenient decoding trusts the record", func(t *testing.T) {
		d := newDriver(t, tampered(t, replay.Lenient()))
		_, err := d.Run()
		require.NoError(t, err)
		require.True(t, d.IsAtEnd())
	})
}

func TestDriverCollector(t *testing.T) {
	c := metrics.NewCollector()
	d := newDriver(t, tampered(t), WithCollector(c))
	_, err := d.Run()
	require.Error(t, err)

	summary := c.Complete()
	require.Equal(t, replaytest.GameID, summary.MatchID)
	require.Equal(t, 3, summary.Applied)
	require.True(t, summary.Halted)
	require.NotEmpty(t, summary.Reason)

	actions := c.Actions()
	require.Len(t, actions, 3)
	require.Equal(t, game.CaptureAction, actions[0].Kind)
	require.Equal(t, game.BuildAction, actions[1].Kind)
	require.Equal(t, game.EndTurnAction, actions[2].Kind)
	require.Equal(t, game.PlayerID(replaytest.Red), actions[2].Player)

	t.Run("seeking restarts the collection", func(t *testing.T) {
		_, err := d.Seek(2)
		require.NoError(t, err)
		require.Len(t, c.Actions(), 2)
		require.False(t, c.Complete().Halted)
	})
}
