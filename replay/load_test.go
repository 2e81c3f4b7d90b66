package replay

import (
	"errors"
	"testing"

	"awreplay/archive"
	"awreplay/game"
	"awreplay/phpser"
	"awreplay/replaytest"

	"github.com/stretchr/testify/require"
)

func TestLoadSkirmish(t *testing.T) {
	m, err := Load(replaytest.Skirmish())
	require.NoError(t, err, "The fixture archive should load")

	t.Run("metadata comes from the first snapshot", func(t *testing.T) {
		require.Equal(t, replaytest.GameID, m.Info.ID)
		require.Equal(t, "Skirmish", m.Info.Name)
		require.Equal(t, 77, m.Info.MapID)
		require.Equal(t, 1000, m.Info.Funds)
		require.False(t, m.Info.Fog)
		require.True(t, m.Info.UsePowers)
		require.Equal(t, 1, m.Snapshots)
	})

	t.Run("the setup carries map, roster and units", func(t *testing.T) {
		require.Equal(t, 5, m.Setup.Width)
		require.Equal(t, 5, m.Setup.Height)
		require.Equal(t, game.PlayerID(replaytest.Red), m.Setup.Active)
		require.Len(t, m.Setup.Players, 2)
		red, ok := m.Player(replaytest.Red)
		require.True(t, ok)
		require.Equal(t, game.OrangeStar, red.Faction)
		require.Equal(t, "", red.Team, "Teams are ignored outside team games")
		require.Len(t, m.Setup.Buildings, 6)
		require.Equal(t, 0, m.Setup.Buildings[0].Capture, "A full capture count means no capture in progress")
		require.Equal(t, []game.Unit{
			{ID: 11, Owner: replaytest.Red, Class: game.Infantry, Pos: game.Position{X: 1, Y: 2}, HP: 100, Fuel: 99},
			{ID: 21, Owner: replaytest.Blue, Class: game.Infantry, Pos: game.Position{X: 3, Y: 2}, HP: 100, Fuel: 99},
		}, m.Setup.Units)
		require.True(t, m.Setup.Rules.Strict, "Rules are strict unless asked otherwise")
	})

	t.Run("actions keep archive order and turn boundaries", func(t *testing.T) {
		require.Len(t, m.Actions, replaytest.SkirmishLength())
		require.Equal(t, []Turn{
			{Player: replaytest.Red, Day: 1, First: 0, Count: 3},
			{Player: replaytest.Blue, Day: 1, First: 3, Count: 2},
			{Player: replaytest.Red, Day: 2, First: 5, Count: 3},
		}, m.Turns)
		kinds := make([]game.ActionKind, len(m.Actions))
		for i, a := range m.Actions {
			kinds[i] = a.Kind()
		}
		require.Equal(t, []game.ActionKind{
			game.CaptureAction, game.BuildAction, game.EndTurnAction,
			game.AttackAction, game.EndTurnAction,
			game.PowerAction, game.CaptureAction, game.EndTurnAction,
		}, kinds)
	})

	t.Run("recorded outcomes are carried on the actions", func(t *testing.T) {
		capt := m.Actions[0].(game.Capture)
		require.NotNil(t, capt.Move)
		require.Equal(t, game.UnitID(11), capt.Unit)
		require.Equal(t, 10, *capt.Progress, "Remaining capture points become progress")

		end := m.Actions[2].(game.EndTurn)
		require.Equal(t, game.PlayerID(replaytest.Red), end.Player)
		require.Equal(t, game.PlayerID(replaytest.Blue), end.NextPlayer)
		require.Equal(t, 3000, *end.Funds)
		require.Equal(t, game.Clear, *end.NextWeather)

		fire := m.Actions[3].(game.Attack)
		require.Equal(t, game.UnitID(21), fire.Attacker)
		require.Equal(t, game.UnitID(11), fire.Defender)
		require.Equal(t, 70, *fire.Recorded.AttackerHP)
		require.Equal(t, 60, *fire.Recorded.DefenderHP)
		require.Nil(t, fire.Luck, "Archives do not record luck rolls")

		stay := m.Actions[6].(game.Capture)
		require.Nil(t, stay.Move, "An empty move array means no move")
		require.Equal(t, game.Position{X: 2, Y: 1}, stay.At)
		require.Equal(t, 16, *stay.Progress)
	})

	t.Run("turns are found by action index", func(t *testing.T) {
		turn, ok := m.TurnAt(4)
		require.True(t, ok)
		require.Equal(t, game.PlayerID(replaytest.Blue), turn.Player)
		_, ok = m.TurnAt(len(m.Actions))
		require.False(t, ok)
	})

	t.Run("decoding is deterministic", func(t *testing.T) {
		again, err := Load(replaytest.Skirmish())
		require.NoError(t, err)
		require.Equal(t, m, again)
	})

	t.Run("the initial state can be built repeatedly", func(t *testing.T) {
		a, err := m.NewState()
		require.NoError(t, err)
		b, err := m.NewState()
		require.NoError(t, err)
		require.Equal(t, a.Hash(), b.Hash())
		require.Equal(t, game.OrangeStar, a.ActivePlayer().Faction)
	})
}

func TestLoadMap(t *testing.T) {
	members := replaytest.SkirmishMembers()
	bare := replaytest.Archive(replaytest.Entry{Name: "1001", Members: members})

	t.Run("an archive without a map needs one supplied", func(t *testing.T) {
		_, err := Load(bare)
		var v *ValidationError
		require.ErrorAs(t, err, &v)
		require.Equal(t, "map", v.Field)
	})

	t.Run("a supplied map is used", func(t *testing.T) {
		def, err := ParseMapText(replaytest.MapText)
		require.NoError(t, err)
		m, err := Load(bare, WithMap(def))
		require.NoError(t, err)
		require.Equal(t, *def, m.Map)
	})

	t.Run("extracted members build the same match", func(t *testing.T) {
		def, err := ParseMapText(replaytest.MapText)
		require.NoError(t, err)
		fromMembers, err := Build(members, WithMap(def))
		require.NoError(t, err)
		fromArchive, err := Load(replaytest.Skirmish())
		require.NoError(t, err)
		require.Equal(t, fromArchive, fromMembers)
	})

	t.Run("lenient loading relaxes the rules", func(t *testing.T) {
		m, err := Load(replaytest.Skirmish(), Lenient())
		require.NoError(t, err)
		require.False(t, m.Setup.Rules.Strict)
	})
}

func TestLoadErrors(t *testing.T) {
	def, err := ParseMapText(replaytest.MapText)
	require.NoError(t, err)

	t.Run("a truncated archive is corrupt", func(t *testing.T) {
		data := replaytest.Skirmish()
		_, err := Load(data[:len(data)/2])
		var c *archive.CorruptArchiveError
		require.ErrorAs(t, err, &c)
	})

	t.Run("a malformed snapshot is a decode error", func(t *testing.T) {
		_, err := Build([][]byte{[]byte(`O:8:"awbwGame":1:{s:2:"id";i:1}`)}, WithMap(def))
		var d *phpser.DecodeError
		require.ErrorAs(t, err, &d)
	})

	t.Run("schema errors name the field", func(t *testing.T) {
		tests := []struct {
			name    string
			members [][]byte
			field   string
		}{
			{
				"unknown unit",
				[][]byte{phpser.Encode(replaytest.Game(replaytest.Unit(11, replaytest.Red, "Oozium", 1, 2, 10)))},
				"game.units[0].name",
			},
			{
				"unit off the map",
				[][]byte{phpser.Encode(replaytest.Game(replaytest.Unit(11, replaytest.Red, "Infantry", 9, 2, 10)))},
				"game.units[0]",
			},
			{
				"unit owned by a stranger",
				[][]byte{phpser.Encode(replaytest.Game(replaytest.Unit(11, 999, "Infantry", 1, 2, 10)))},
				"game",
			},
			{
				"no snapshot",
				[][]byte{replaytest.Turn(replaytest.Red, 1)},
				"game",
			},
			{
				"turn of an unknown player",
				[][]byte{phpser.Encode(replaytest.Game()), replaytest.Turn(5, 1)},
				"turns[0].player",
			},
			{
				"bad turn header",
				[][]byte{phpser.Encode(replaytest.Game()), []byte("p:x;d:1;a:0:{}")},
				"turns[0].player",
			},
			{
				"unknown action",
				[][]byte{phpser.Encode(replaytest.Game()), replaytest.Turn(replaytest.Red, 1, `{"action":"Dance"}`)},
				"turns[0].actions[0].action",
			},
			{
				"action that is not JSON",
				[][]byte{phpser.Encode(replaytest.Game()), replaytest.Turn(replaytest.Red, 1, `{"action":`)},
				"turns[0].actions[0]",
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := Build(tt.members, WithMap(def))
				var v *ValidationError
				require.ErrorAs(t, err, &v)
				require.Equal(t, tt.field, v.Field)
			})
		}
	})

	t.Run("action positions off the map are rejected while loading", func(t *testing.T) {
		tests := []struct {
			name  string
			turns [][]string
			field string
		}{
			{
				"move path",
				replaytest.Tampered(0, `"x":2,"y":2}`, `"x":-7,"y":900}`),
				"turns[0].actions[0].Move.paths.global[1]",
			},
			{
				"capture target",
				replaytest.Tampered(0, `"buildings_x":2`, `"buildings_x":4000`),
				"turns[0].actions[0].Capt.buildingInfo",
			},
			{
				"built unit",
				replaytest.Tampered(0, `"units_x":1,"units_y":1`, `"units_x":1,"units_y":9`),
				"turns[0].actions[1].newUnit.global",
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := Load(replaytest.SkirmishWith(tt.turns))
				var v *ValidationError
				require.ErrorAs(t, err, &v, "Expected a validation error, got %v", err)
				require.Equal(t, tt.field, v.Field)
			})
		}
	})

	t.Run("wrong snapshot class", func(t *testing.T) {
		_, err := Build([][]byte{phpser.Encode(phpser.NewObject("awbwMap"))}, WithMap(def))
		var v *ValidationError
		require.ErrorAs(t, err, &v)
		require.Equal(t, "game", v.Field)
	})

	t.Run("errors are not swallowed by wrapping", func(t *testing.T) {
		_, err := Build([][]byte{phpser.Encode(replaytest.Game()), []byte("p:100;d:1;a:1:{")}, WithMap(def))
		var d *phpser.DecodeError
		require.True(t, errors.As(err, &d), "Turn decode failures should surface as decode errors, got %v", err)
		require.Contains(t, err.Error(), "turns[0]")
	})
}
