package journal

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"awreplay/replay"
	"awreplay/replaytest"

	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
}

func load(t *testing.T, data []byte, opts ...replay.Option) *replay.Match {
	t.Helper()
	m, err := replay.Load(data, opts...)
	require.NoError(t, err)
	return m
}

func tamperedArchive() []byte {
	return replaytest.SkirmishWith(replaytest.Tampered(1, `"units_hit_points":6`, `"units_hit_points":2`))
}

func TestRecordAndLoad(t *testing.T) {
	m := load(t, replaytest.Skirmish())
	root := t.TempDir()

	manifest, dir, err := Record(context.Background(), root, m, fixedClock)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "1001-20240102T030405Z"), dir, "Bundles are named by match and time")

	for _, name := range []string{manifestName, eventsName, snapshotsName} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, "%s should exist", name)
	}

	require.Equal(t, replaytest.GameID, manifest.MatchID)
	require.Equal(t, "Skirmish", manifest.Name)
	require.Equal(t, replaytest.SkirmishLength(), manifest.Actions)
	require.Equal(t, replaytest.SkirmishLength(), manifest.Applied)
	require.Equal(t, 2, manifest.Days)
	require.Equal(t, 2, manifest.Snapshots, "The opening and the start of day 2")
	require.Nil(t, manifest.Halted)

	j, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, manifest, j.Manifest, "The manifest reads back unchanged")
	require.Len(t, j.Entries, replaytest.SkirmishLength())

	t.Run("entries keep order and events", func(t *testing.T) {
		for i, e := range j.Entries {
			require.Equal(t, i, e.Index)
			require.Equal(t, i+1, e.Cursor)
			require.NotEmpty(t, e.Events)
		}
		require.Equal(t, "capture", j.Entries[0].Action)
		require.Equal(t, "unit_moved", j.Entries[0].Events[0].Kind)
		require.Equal(t, "end turn", j.Entries[4].Action)
	})

	t.Run("snapshots reproduce their hashes", func(t *testing.T) {
		require.Equal(t, 0, j.Snapshots[0].Cursor)
		require.Equal(t, 5, j.Snapshots[1].Cursor, "Blue's end of turn starts day 2")
		require.Equal(t, 2, j.Snapshots[1].Day)
		for _, s := range j.Snapshots {
			require.Equal(t, s.Hash, s.State.Hash(), "Snapshot at %d", s.Cursor)
		}
		require.Equal(t, j.Entries[4].Hash, j.Snapshots[1].Hash)
	})

	t.Run("snapshots can be found by cursor", func(t *testing.T) {
		s, ok := j.SnapshotAt(7)
		require.True(t, ok)
		require.Equal(t, 5, s.Cursor)
		s, ok = j.SnapshotAt(4)
		require.True(t, ok)
		require.Equal(t, 0, s.Cursor)
	})

	t.Run("the journal verifies against its match", func(t *testing.T) {
		require.NoError(t, Verify(j, m))
	})

	t.Run("a manifest path works too", func(t *testing.T) {
		j, err := Load(filepath.Join(dir, manifestName))
		require.NoError(t, err)
		require.Len(t, j.Entries, replaytest.SkirmishLength())
	})
}

func TestRecordHalted(t *testing.T) {
	m := load(t, tamperedArchive())
	manifest, dir, err := Record(context.Background(), t.TempDir(), m, fixedClock)
	require.NoError(t, err, "A halt is journaled, not returned")
	require.NotNil(t, manifest.Halted)
	require.Equal(t, 3, manifest.Halted.ActionIndex)
	require.Equal(t, "attack", manifest.Halted.Action)
	require.Equal(t, 3, manifest.Applied)

	j, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, j.Entries, 3)
}

func TestVerifyDetectsDivergence(t *testing.T) {
	lenient := load(t, tamperedArchive(), replay.Lenient())
	_, dir, err := Record(context.Background(), t.TempDir(), lenient, fixedClock)
	require.NoError(t, err)
	j, err := Load(dir)
	require.NoError(t, err)

	clean := load(t, replaytest.Skirmish())
	err = Verify(j, clean)
	require.Error(t, err)
	require.Contains(t, err.Error(), "action 3")
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing bundles are reported", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope"))
		require.Error(t, err)
	})

	t.Run("unknown manifest versions are rejected", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, manifestName), []byte(`{"version":9}`), 0o644))
		_, err := Load(dir)
		require.ErrorContains(t, err, "unsupported manifest version 9")
	})

	t.Run("cancelled recordings stop early", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, _, err := Record(ctx, t.TempDir(), load(t, replaytest.Skirmish()), fixedClock)
		require.ErrorIs(t, err, context.Canceled)
	})
}
