package gamemaster

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"awreplay/catalog"
	"awreplay/communication"
	"awreplay/engine"
	"awreplay/game"
	"awreplay/replaytest"

	"github.com/stretchr/testify/require"
)

func newGameMaster(t *testing.T, opts ...Option) *GameMaster {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	opts = append([]Option{WithPlaybackOptions(engine.StartPaused())}, opts...)
	gm := NewGameMaster(ctx, opts...)
	t.Cleanup(func() {
		gm.Close()
		cancel()
	})
	return gm
}

func next(t *testing.T, ch <-chan engine.Update) engine.Update {
	t.Helper()
	select {
	case u, ok := <-ch:
		require.True(t, ok, "Subscription should be open")
		return u
	case <-time.After(5 * time.Second):
		t.Fatal("no update")
		return engine.Update{}
	}
}

func TestGameMasterWithoutReplay(t *testing.T) {
	gm := newGameMaster(t)
	ctx := context.Background()

	_, err := gm.Snapshot(ctx)
	require.ErrorIs(t, err, communication.ErrNoReplay)
	_, err = gm.Control(ctx, communication.Command{Action: communication.StepCommand})
	require.ErrorIs(t, err, communication.ErrNoReplay)

	_, err = gm.Load(ctx, []byte("not a zip"))
	require.Error(t, err)
	_, _, err = gm.Current()
	require.ErrorIs(t, err, communication.ErrNoReplay, "A failed load leaves nothing behind")
}

func TestGameMasterPlayback(t *testing.T) {
	gm := newGameMaster(t)
	ctx := context.Background()
	_, updates := gm.Subscribe()

	resp, err := gm.Load(ctx, replaytest.Skirmish())
	require.NoError(t, err)
	require.Equal(t, replaytest.GameID, resp.Info.ID)
	require.Equal(t, 3, resp.Turns)
	require.Equal(t, replaytest.SkirmishLength(), resp.Status.Len)
	require.True(t, resp.Status.Paused)

	start := next(t, updates)
	require.True(t, start.IsPosition(), "Subscribers learn the starting position first")
	require.Equal(t, 0, start.Cursor)

	status, err := gm.Control(ctx, communication.Command{Action: communication.StepCommand})
	require.NoError(t, err)
	require.Equal(t, 1, status.Cursor)
	u := next(t, updates)
	require.Equal(t, 0, u.Index)
	require.Equal(t, status.Hash, u.Hash)

	t.Run("seeking to the end then stepping reports the end", func(t *testing.T) {
		status, err := gm.Control(ctx, communication.Command{Action: communication.SeekCommand, Index: replaytest.SkirmishLength()})
		require.NoError(t, err)
		require.True(t, status.AtEnd)
		require.Equal(t, replaytest.SkirmishLength(), next(t, updates).Cursor)

		status, err = gm.Control(ctx, communication.Command{Action: communication.StepCommand})
		require.ErrorIs(t, err, engine.ErrAtEnd)
		require.True(t, status.AtEnd, "The status comes back with the error")
	})

	t.Run("speed and pause commands apply", func(t *testing.T) {
		status, err := gm.Control(ctx, communication.Command{Action: communication.SpeedCommand, IntervalMs: 250})
		require.NoError(t, err)
		require.Equal(t, 250*time.Millisecond, status.Interval)

		_, err = gm.Control(ctx, communication.Command{Action: communication.SpeedCommand})
		require.Error(t, err, "A zero interval is rejected")

		_, err = gm.Control(ctx, communication.Command{Action: "rewind"})
		require.ErrorContains(t, err, "unknown command")
	})

	t.Run("snapshots carry the state", func(t *testing.T) {
		snap, err := gm.Snapshot(ctx)
		require.NoError(t, err)
		require.Equal(t, snap.Hash, snap.State.Hash())
	})
}

func TestGameMasterHaltsAndReloads(t *testing.T) {
	gm := newGameMaster(t)
	ctx := context.Background()
	id, updates := gm.Subscribe()

	_, err := gm.Load(ctx, replaytest.SkirmishWith(replaytest.Tampered(1, `"units_hit_points":6`, `"units_hit_points":2`)))
	require.NoError(t, err)
	next(t, updates)

	status, err := gm.Control(ctx, communication.Command{Action: communication.SeekCommand, Index: 6})
	var v *game.RuleViolation
	require.ErrorAs(t, err, &v)
	require.Equal(t, 3, status.Cursor)
	require.NotNil(t, status.Halted)
	require.Equal(t, 3, status.Halted.ActionIndex)

	_, err = gm.Load(ctx, replaytest.Skirmish())
	require.NoError(t, err)
	for next(t, updates).Cursor != 0 {
	}
	status, err = gm.Control(ctx, communication.Command{Action: communication.SeekCommand, Index: 6})
	require.NoError(t, err, "The new archive replaces the halted one")
	require.Nil(t, status.Halted)

	gm.Unsubscribe(id)
	for range updates {
	}
}

func TestGameMasterIndexesLoads(t *testing.T) {
	c, err := catalog.New(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer c.Close()

	gm := newGameMaster(t, WithCatalog(c))
	_, err = gm.Load(context.Background(), replaytest.Skirmish())
	require.NoError(t, err)

	e, err := c.Get(replaytest.GameID)
	require.NoError(t, err)
	require.Equal(t, "Skirmish", e.Name)
}

func TestGameMasterClose(t *testing.T) {
	gm := newGameMaster(t)
	_, updates := gm.Subscribe()
	gm.Close()
	_, open := <-updates
	require.False(t, open, "Closing ends subscriptions")

	_, err := gm.Load(context.Background(), replaytest.Skirmish())
	require.Error(t, err)
}
