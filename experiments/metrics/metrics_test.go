package metrics

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"awreplay/game"

	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	c := NewCollector()
	c.Start(7)
	c.Observe(ActionMetric{Index: 0, Kind: game.MoveAction, Events: 1})
	c.Observe(ActionMetric{Index: 1, Kind: game.EndTurnAction, Events: 3})
	c.Halt("broken")

	m := c.Complete()
	require.Equal(t, 7, m.MatchID)
	require.Equal(t, 2, m.Applied)
	require.Equal(t, 4, m.Events)
	require.True(t, m.Halted)
	require.Equal(t, "broken", m.Reason)
	require.False(t, m.EndTime.Before(m.StartTime))
	require.Len(t, c.Actions(), 2)

	t.Run("starting again clears everything", func(t *testing.T) {
		c.Start(8)
		m := c.Complete()
		require.Equal(t, 0, m.Applied)
		require.False(t, m.Halted)
		require.Empty(t, c.Actions())
	})

	t.Run("the dummy collector records nothing", func(t *testing.T) {
		d := NewDummyCollector()
		d.Start(1)
		d.Observe(ActionMetric{Index: 0})
		require.Equal(t, ReplayMetric{}, d.Complete())
		require.Nil(t, d.Actions())
	})
}

func TestWriter(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)

	err = w.WriteReplayRecords([]ReplayRecord{{ID: 1, File: "a.zip", Name: "A", ReplayMetric: ReplayMetric{MatchID: 5, Applied: 2, Duration: time.Second}}})
	require.NoError(t, err)
	err = w.WriteActionRecords([]ActionRecord{{Replay: 1, ActionMetric: ActionMetric{Index: 0, Kind: game.BuildAction, Player: 9, Day: 1, Events: 1}}})
	require.NoError(t, err)

	read := func(name string) [][]string {
		f, err := os.Open(filepath.Join(w.Dir(), name))
		require.NoError(t, err)
		defer f.Close()
		rows, err := csv.NewReader(f).ReadAll()
		require.NoError(t, err)
		return rows
	}

	replays := read("replay_records.csv")
	require.Len(t, replays, 2)
	require.Equal(t, []string{"1", "a.zip", "5", "A", "2", "0", "false", ""}, replays[1][:8])
	require.Equal(t, "1s", replays[1][10])

	actions := read("action_records.csv")
	require.Equal(t, []string{"1", "0", "build", "9", "1", "1"}, actions[1][:6])
}
