package replay

import (
	"testing"

	"awreplay/game"
	"awreplay/phpser"

	"github.com/stretchr/testify/require"
)

func TestParseMapText(t *testing.T) {
	t.Run("rows and padding", func(t *testing.T) {
		m, err := ParseMapText(" 1, 2, 3 \n\n 28, 34, 42 \n")
		require.NoError(t, err)
		require.Equal(t, &MapDef{Width: 3, Height: 2, TerrainIDs: []int{1, 2, 3, 28, 34, 42}}, m)
		require.Equal(t, "1,2,3\n28,34,42\n", m.String(), "The text form should round trip")
	})

	tests := []struct {
		name  string
		input string
		field string
	}{
		{"empty input", "  \n\t ", "map"},
		{"not a number", "1,2,3\n4,x,6", "map[1][1]"},
		{"unknown terrain", "1,2,3\n4,255,6", "map[1][1]"},
		{"uneven rows", "1,2,3\n4,5,6,7", "map[1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMapText(tt.input)
			var v *ValidationError
			require.ErrorAs(t, err, &v)
			require.Equal(t, tt.field, v.Field)
		})
	}
}

func TestParseMapJSON(t *testing.T) {
	doc := `{"Name":"Tiny","Author":"x","Player Count":2,"Size X":3,"Size Y":2,
		"Terrain Map":[[1,28],[2,34],[3,42]],"Predeployed Units":[]}`

	t.Run("columns are transposed into rows", func(t *testing.T) {
		m, err := ParseMap([]byte(doc))
		require.NoError(t, err)
		require.Equal(t, &MapDef{Width: 3, Height: 2, TerrainIDs: []int{1, 2, 3, 28, 34, 42}}, m)
	})

	t.Run("declared size must agree", func(t *testing.T) {
		_, err := ParseMapJSON([]byte(`{"Size X":4,"Terrain Map":[[1],[1]]}`))
		var v *ValidationError
		require.ErrorAs(t, err, &v)
		require.Equal(t, "map.Size X", v.Field)
	})

	t.Run("ragged columns are rejected", func(t *testing.T) {
		_, err := ParseMapJSON([]byte(`{"Terrain Map":[[1,1],[1]]}`))
		var v *ValidationError
		require.ErrorAs(t, err, &v)
		require.Equal(t, "map.Terrain Map[1]", v.Field)
	})
}

func TestParseTurn(t *testing.T) {
	body := phpser.Encode(phpser.NewArray(phpser.NewInt(0), phpser.NewArray(phpser.NewString(`{"action":"Power"}`))))

	t.Run("header and actions", func(t *testing.T) {
		turn, err := parseTurn(append([]byte("p:3189812;d:11;"), body...), "turns[0]")
		require.NoError(t, err)
		require.Equal(t, game.PlayerID(3189812), turn.player)
		require.Equal(t, 11, turn.day)
		require.Equal(t, []string{`{"action":"Power"}`}, turn.actions)
	})

	t.Run("a turn without an action array is empty", func(t *testing.T) {
		empty := phpser.Encode(phpser.NewArray(phpser.NewInt(0)))
		turn, err := parseTurn(append([]byte("p:1;d:2;"), empty...), "turns[0]")
		require.NoError(t, err)
		require.Empty(t, turn.actions)
	})

	t.Run("missing day", func(t *testing.T) {
		_, err := parseTurn(append([]byte("p:1;"), body...), "turns[4]")
		var v *ValidationError
		require.ErrorAs(t, err, &v)
		require.Equal(t, "turns[4].day", v.Field)
	})
}

func TestParseAction(t *testing.T) {
	const viewer = game.PlayerID(100)
	move := `{"unit":{"global":{"units_id":7,"units_x":1,"units_y":1}},"paths":{"global":[{"x":1,"y":0},{"x":1,"y":1}]},"dist":1,"trapped":false}`
	step := &game.Move{Unit: 7, Path: []game.Position{{X: 1, Y: 0}, {X: 1, Y: 1}}}

	tests := []struct {
		name string
		raw  string
		want game.Action
	}{
		{
			"plain move",
			`{"action":"Move","unit":{"global":{"units_id":7}},"paths":{"global":[{"x":1,"y":0},{"x":1,"y":1}]},"trapped":true}`,
			game.Move{Unit: 7, Path: step.Path, Trapped: true},
		},
		{
			"load",
			`{"action":"Load","Move":` + move + `,"Load":{"loaded":{"global":7},"transport":{"global":"9"}}}`,
			game.Load{Move: *step, Transport: 9},
		},
		{
			"unload",
			`{"action":"Unload","unit":{"global":{"units_id":7,"units_x":2,"units_y":3}},"transportID":9}`,
			game.Unload{Transport: 9, Cargo: 7, To: game.Position{X: 2, Y: 3}},
		},
		{
			"supply",
			`{"action":"Supply","Move":` + move + `,"Supply":{"unit":{"global":7},"rows":[],"supplied":{"global":["3","4"]}}}`,
			game.Supply{Move: step, Unit: 7, Targets: []game.UnitID{3, 4}},
		},
		{
			"join",
			`{"action":"Join","Move":` + move + `,"Join":{"playerId":100,"newFunds":{"global":4200},"unit":{"global":{"units_id":8}}}}`,
			game.Join{Move: *step, Target: 8, Funds: intp(4200)},
		},
		{
			"black boat repair",
			`{"action":"Repair","Move":[],"Repair":{"unit":{"global":7},"repaired":{"global":{"units_id":8,"units_hit_points":6}},"funds":{"global":900}}}`,
			game.Repair{Unit: 7, Target: 8, HP: intp(60), Funds: intp(900)},
		},
		{
			"super power",
			`{"action":"Power","playerID":100,"coName":"Max","coPower":"S","powerName":"Max Blast"}`,
			game.Power{Player: 100, Level: game.SuperPower, Name: "Max Blast"},
		},
		{
			"resign with hand-over",
			`{"action":"Resign","Resign":{"playerId":100,"message":"gg"},"NextTurn":{"nextPId":200,"nextFunds":{"global":""},"nextWeather":"S","day":4,"repaired":{"global":[{"units_id":"31","units_hit_points":9}]}},"GameOver":null}`,
			game.Resign{Player: 100, Next: &game.EndTurn{NextPlayer: 200, NextWeather: weatherp(game.Snow), Day: 4, Repaired: []game.Repaired{{Unit: 31, HP: 90}}}},
		},
		{
			"pipe seam",
			`{"action":"AttackSeam","Move":[],"AttackSeam":{"unit":{"global":{"hasVision":true,"combatInfo":{"units_ammo":5,"units_hit_points":10,"units_id":7,"units_x":1,"units_y":1}}},"buildings_hit_points":-4,"buildings_terrain_id":113,"seamX":2,"seamY":1}}`,
			game.AttackSeam{Attacker: 7, Seam: game.Position{X: 2, Y: 1}, SeamHP: intp(0), AttackerAmmo: intp(5)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAction(tt.raw, viewer, nil, "a")
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	t.Run("per-player entries fall back to the viewer's own", func(t *testing.T) {
		raw := `{"action":"Build","newUnit":{"200":{"units_id":"?"},"100":{"units_id":5,"units_players_id":100,"units_name":"Recon","units_x":3,"units_y":4}}}`
		got, err := parseAction(raw, viewer, nil, "a")
		require.NoError(t, err)
		require.Equal(t, game.Build{Player: 100, Unit: 5, Class: game.Recon, Pos: game.Position{X: 3, Y: 4}}, got)
	})

	t.Run("fractional health is scaled", func(t *testing.T) {
		raw := `{"action":"Fire","Move":[],"Fire":{"combatInfoVision":{"global":{"hasVision":true,"combatInfo":{"attacker":{"units_ammo":2,"units_hit_points":4.5,"units_id":1},"defender":{"units_ammo":null,"units_hit_points":null,"units_id":2}}}}}}`
		got, err := parseAction(raw, viewer, nil, "a")
		require.NoError(t, err)
		fire := got.(game.Attack)
		require.Equal(t, 45, *fire.Recorded.AttackerHP)
		require.Nil(t, fire.Recorded.DefenderHP, "Masked values are not recorded")
		require.Nil(t, fire.Recorded.DefenderAmmo)
	})

	t.Run("bad fields name their path", func(t *testing.T) {
		grid := &MapDef{Width: 5, Height: 5, TerrainIDs: make([]int, 25)}
		tests := []struct {
			name  string
			raw   string
			field string
		}{
			{
				"transport id that is not a number",
				`{"action":"Unload","unit":{"global":{"units_id":7,"units_x":2,"units_y":3}},"transportID":"nine"}`,
				"turns[0].actions[2].transportID",
			},
			{
				"path step off the map",
				`{"action":"Move","unit":{"global":{"units_id":7}},"paths":{"global":[{"x":1,"y":1},{"x":-7,"y":900}]}}`,
				"turns[0].actions[2].paths.global[1]",
			},
			{
				"capture off the map",
				`{"action":"Capt","Move":[],"Capt":{"buildingInfo":{"buildings_capture":10,"buildings_x":4000,"buildings_y":1}}}`,
				"turns[0].actions[2].Capt.buildingInfo",
			},
			{
				"build off the map",
				`{"action":"Build","newUnit":{"global":{"units_id":5,"units_players_id":100,"units_name":"Recon","units_x":5,"units_y":0}}}`,
				"turns[0].actions[2].newUnit.global",
			},
			{
				"unload off the map",
				`{"action":"Unload","unit":{"global":{"units_id":7,"units_x":2,"units_y":-1}},"transportID":9}`,
				"turns[0].actions[2].unit.global",
			},
			{
				"seam off the map",
				`{"action":"AttackSeam","Move":[],"AttackSeam":{"unit":{"global":{"combatInfo":{"units_id":7}}},"buildings_hit_points":50,"seamX":2,"seamY":5}}`,
				"turns[0].actions[2].AttackSeam",
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := parseAction(tt.raw, viewer, grid, "turns[0].actions[2]")
				var v *ValidationError
				require.ErrorAs(t, err, &v)
				require.Equal(t, tt.field, v.Field)
			})
		}
	})

	t.Run("positions on the map pass the bounds check", func(t *testing.T) {
		grid := &MapDef{Width: 5, Height: 5, TerrainIDs: make([]int, 25)}
		raw := `{"action":"Build","newUnit":{"global":{"units_id":5,"units_players_id":100,"units_name":"Recon","units_x":4,"units_y":4}}}`
		got, err := parseAction(raw, viewer, grid, "a")
		require.NoError(t, err)
		require.Equal(t, game.Position{X: 4, Y: 4}, got.(game.Build).Pos)
	})
}

func intp(v int) *int { return &v }

func weatherp(w game.Weather) *game.Weather { return &w }
