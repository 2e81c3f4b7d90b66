package catalog

import (
	"path/filepath"
	"testing"

	"awreplay/game"
	"awreplay/replay"
	"awreplay/replaytest"

	"github.com/stretchr/testify/require"
)

func newCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := New(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func skirmish(t *testing.T, turns [][]string) *replay.Match {
	t.Helper()
	m, err := replay.Load(replaytest.SkirmishWith(turns))
	require.NoError(t, err)
	return m
}

func TestIndexAndGet(t *testing.T) {
	c := newCatalog(t)
	m := skirmish(t, replaytest.SkirmishActions)

	e, err := c.Index(m, "replays/1001.zip")
	require.NoError(t, err)
	require.False(t, e.Halted())
	require.Equal(t, replaytest.SkirmishLength(), e.Applied)

	got, err := c.Get(replaytest.GameID)
	require.NoError(t, err)
	require.Equal(t, "Skirmish", got.Name)
	require.Equal(t, 77, got.MapID)
	require.Equal(t, "replays/1001.zip", got.Path)
	require.Equal(t, 2, got.Days)
	require.Equal(t, -1, got.HaltedAt)
	require.Equal(t, e.FinalHash, got.FinalHash)
	require.Empty(t, got.Winners, "Nobody has won yet")
	require.False(t, got.IndexedAt.IsZero())

	require.Len(t, got.Players, 2)
	require.Equal(t, PlayerRow{ID: replaytest.Red, Faction: "os", CO: got.Players[0].CO, Order: got.Players[0].Order}, got.Players[0])
	require.Equal(t, "bm", got.Players[1].Faction)

	t.Run("missing entries are reported", func(t *testing.T) {
		_, err := c.Get(42)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("reindexing replaces the entry", func(t *testing.T) {
		_, err := c.Index(m, "elsewhere.zip")
		require.NoError(t, err)
		all, err := c.List(Filter{})
		require.NoError(t, err)
		require.Len(t, all, 1)
		require.Equal(t, "elsewhere.zip", all[0].Path)
		require.Len(t, all[0].Players, 2)
	})
}

func TestIndexHaltedReplay(t *testing.T) {
	c := newCatalog(t)
	m := skirmish(t, replaytest.Tampered(1, `"units_hit_points":6`, `"units_hit_points":2`))

	_, err := c.Index(m, "")
	require.NoError(t, err, "A replay that breaks the rules is still indexed")

	got, err := c.Get(replaytest.GameID)
	require.NoError(t, err)
	require.True(t, got.Halted())
	require.Equal(t, 3, got.HaltedAt)
	require.Equal(t, 3, got.Applied)
	require.NotEmpty(t, got.HaltReason)
}

func TestListFilters(t *testing.T) {
	c := newCatalog(t)
	require.NoError(t, c.Put(Entry{MatchID: 1, Name: "a", MapID: 10, HaltedAt: -1, FinalHash: "1",
		Winners: []game.PlayerID{5}, Players: []PlayerRow{{ID: 5, Faction: "os"}, {ID: 6, Faction: "bm", Order: 1}}}))
	require.NoError(t, c.Put(Entry{MatchID: 2, Name: "b", MapID: 20, HaltedAt: -1, FinalHash: "2",
		Players: []PlayerRow{{ID: 5, Faction: "ge"}, {ID: 7, Faction: "yc", Order: 1}}}))
	require.NoError(t, c.Put(Entry{MatchID: 3, Name: "c", MapID: 10, HaltedAt: 4, FinalHash: "3",
		Players: []PlayerRow{{ID: 8, Faction: "os"}, {ID: 9, Faction: "gs", Order: 1}}}))

	names := func(entries []Entry) []string {
		out := make([]string, len(entries))
		for i, e := range entries {
			out[i] = e.Name
		}
		return out
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"everything newest first", Filter{}, []string{"c", "b", "a"}},
		{"by map", Filter{MapID: 10}, []string{"c", "a"}},
		{"by faction ignoring case", Filter{Faction: "OS"}, []string{"c", "a"}},
		{"by player", Filter{Player: 5}, []string{"b", "a"}},
		{"combined", Filter{MapID: 10, Player: 5}, []string{"a"}},
		{"nothing matches", Filter{Faction: "ci"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.List(tt.filter)
			require.NoError(t, err)
			require.Equal(t, tt.want, names(got))
		})
	}

	t.Run("winners round trip", func(t *testing.T) {
		e, err := c.Get(1)
		require.NoError(t, err)
		require.Equal(t, []game.PlayerID{5}, e.Winners)
	})

	t.Run("delete removes the entry", func(t *testing.T) {
		require.NoError(t, c.Delete(2))
		_, err := c.Get(2)
		require.ErrorIs(t, err, ErrNotFound)
	})
}
