// Package replaytest builds small replay archives for tests.
package replaytest

import (
	"bytes"
	"fmt"
	"strings"

	"awreplay/phpser"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
)

// MapText is a 5x5 map: Orange Star holds the HQ at (0,0) and the base at
// (1,1), Blue Moon the base at (3,3) and the HQ at (4,4). Cities at (2,1)
// and (2,3) are neutral.
const MapText = `42,1,1,1,1
1,39,34,1,1
1,1,1,1,1
1,1,34,44,1
1,1,1,1,47
`

const (
	GameID = 1001
	Red    = 100 // Orange Star, moves first
	Blue   = 200 // Blue Moon
)

// Entry is one archive entry. Members are gzipped and concatenated unless
// Raw is set, in which case the single member is stored as is.
type Entry struct {
	Name    string
	Members [][]byte
	Raw     bool
}

// Archive writes entries into a zip container.
func Archive(entries ...Entry) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		fw, err := w.CreateHeader(&zip.FileHeader{Name: e.Name, Method: zip.Deflate})
		must(err)
		if e.Raw {
			for _, m := range e.Members {
				_, err = fw.Write(m)
				must(err)
			}
			continue
		}
		for _, m := range e.Members {
			zw := gzip.NewWriter(fw)
			_, err = zw.Write(m)
			must(err)
			must(zw.Close())
		}
	}
	must(w.Close())
	return buf.Bytes()
}

// Turn encodes a turn member holding the given JSON actions.
func Turn(player, day int, actions ...string) []byte {
	items := make([]phpser.Value, len(actions))
	for i, a := range actions {
		items[i] = phpser.NewString(a)
	}
	body := phpser.Encode(phpser.NewArray(phpser.NewInt(0), phpser.NewArray(items...)))
	return append([]byte(fmt.Sprintf("p:%d;d:%d;", player, day)), body...)
}

func str(k, v string) phpser.Field         { return phpser.StringField(k, phpser.NewString(v)) }
func num(k string, v int) phpser.Field     { return phpser.StringField(k, phpser.NewInt(int64(v))) }
func flt(k string, v float64) phpser.Field { return phpser.StringField(k, phpser.NewFloat(v)) }

func player(id, country, order, funds int) phpser.Value {
	return phpser.NewObject("awbwPlayer",
		num("id", id), num("users_id", id*10), num("games_id", GameID),
		num("countries_id", country), num("co_id", 1), num("funds", funds),
		str("eliminated", "N"), str("co_power_on", "N"), num("order", order),
		str("team", fmt.Sprint(id)),
	)
}

func building(id, terrain, x, y int) phpser.Value {
	return phpser.NewObject("awbwBuilding",
		num("id", id), num("games_id", GameID), num("terrain_id", terrain),
		num("x", x), num("y", y), num("capture", 20), num("last_capture", 20),
	)
}

// Unit encodes an awbwUnit row with full fuel for infantry.
func Unit(id, owner int, name string, x, y int, hp float64) phpser.Value {
	return phpser.NewObject("awbwUnit",
		num("id", id), num("games_id", GameID), num("players_id", owner),
		str("name", name), num("fuel", 99), num("fuel_per_turn", 0), num("ammo", 0),
		num("x", x), num("y", y), num("moved", 0), flt("hit_points", hp),
		num("cargo1_units_id", 0), num("cargo2_units_id", 0), str("carried", "N"),
	)
}

// Game encodes the opening awbwGame snapshot of the skirmish with the given
// units.
func Game(units ...phpser.Value) phpser.Value {
	return phpser.NewObject("awbwGame",
		num("id", GameID), str("name", "Skirmish"), num("creator", 1),
		str("start_date", "2024-01-01 12:00:00"), phpser.StringField("end_date", phpser.NewNull()),
		num("maps_id", 77), str("weather_type", "Clear"), str("weather_code", "C"),
		num("turn", Red), num("day", 1), str("active", "Y"), num("funds", 1000),
		num("capture_win", 0), str("fog", "N"), str("type", "L"), num("starting_funds", 1000),
		str("team", "N"), str("use_powers", "Y"),
		phpser.StringField("players", phpser.NewArray(player(Red, 1, 1, 1000), player(Blue, 2, 2, 1000))),
		phpser.StringField("buildings", phpser.NewArray(
			building(1, 42, 0, 0), building(2, 39, 1, 1), building(3, 34, 2, 1),
			building(4, 34, 2, 3), building(5, 44, 3, 3), building(6, 47, 4, 4),
		)),
		phpser.StringField("units", phpser.NewArray(units...)),
	)
}

// SkirmishActions are the recorded turns of Skirmish, one slice per turn.
var SkirmishActions = [][]string{
	{
		// Red's infantry walks onto the city at (2,1) and starts capturing it.
		`{"action":"Capt","Move":{"action":"Move","unit":{"global":{"units_id":11,"units_players_id":100,"units_name":"Infantry","units_x":2,"units_y":1,"units_fuel":97,"units_hit_points":10}},"paths":{"global":[{"unit_visible":true,"x":1,"y":2},{"unit_visible":true,"x":2,"y":2},{"unit_visible":true,"x":2,"y":1}]},"dist":2,"trapped":false,"discovered":null},"Capt":{"action":"Capt","buildingInfo":{"buildings_capture":10,"buildings_id":3,"buildings_x":2,"buildings_y":1,"buildings_team":null},"vision":{"global":{"onCapture":"?"}},"income":null}}`,
		`{"action":"Build","newUnit":{"global":{"units_id":12,"units_players_id":100,"units_name":"Infantry","units_x":1,"units_y":1,"units_hit_points":10,"countries_code":"os"}},"discovered":{"global":null}}`,
		`{"action":"End","updatedInfo":{"event":"NextTurn","nextPId":200,"nextFunds":{"global":3000},"nextTimer":0,"nextWeather":"C","supplied":null,"repaired":null,"day":1,"nextTurnStart":"2024-01-01 12:05:00"}}`,
	},
	{
		// Blue's infantry steps next to the capturer and fires.
		`{"action":"Fire","Move":{"action":"Move","unit":{"global":{"units_id":21,"units_players_id":200,"units_name":"Infantry","units_x":2,"units_y":2,"units_hit_points":10}},"paths":{"global":[{"unit_visible":true,"x":3,"y":2},{"unit_visible":true,"x":2,"y":2}]},"dist":1,"trapped":false,"discovered":null},"Fire":{"action":"Fire","combatInfoVision":{"global":{"hasVision":true,"combatInfo":{"attacker":{"units_ammo":0,"units_hit_points":7,"units_id":21,"units_x":2,"units_y":2},"defender":{"units_ammo":0,"units_hit_points":6,"units_id":11,"units_x":2,"units_y":1}}}},"copValues":{"attacker":{"playerId":200,"copValue":100,"tagValue":null},"defender":{"playerId":100,"copValue":200,"tagValue":null}}}}`,
		`{"action":"End","updatedInfo":{"event":"NextTurn","nextPId":100,"nextFunds":{"global":2000},"nextTimer":0,"nextWeather":"R","supplied":null,"repaired":null,"day":2,"nextTurnStart":"2024-01-01 12:10:00"}}`,
	},
	{
		`{"action":"Power","playerID":100,"coName":"Andy","coPower":"Y","powerName":"Hyper Repair","playersCOP":{"global":0}}`,
		// The damaged infantry keeps capturing without moving.
		`{"action":"Capt","Move":[],"Capt":{"action":"Capt","buildingInfo":{"buildings_capture":4,"buildings_id":3,"buildings_x":2,"buildings_y":1,"buildings_team":null},"vision":{"global":{"onCapture":"?"}},"income":null}}`,
		`{"action":"End","updatedInfo":{"event":"NextTurn","nextPId":200,"nextFunds":{"global":5000},"nextTimer":0,"nextWeather":"C","supplied":null,"repaired":null,"day":2,"nextTurnStart":"2024-01-01 12:15:00"}}`,
	},
}

// SkirmishUnits are the units on the board before the first action.
func SkirmishUnits() []phpser.Value {
	return []phpser.Value{
		Unit(11, Red, "Infantry", 1, 2, 10),
		Unit(21, Blue, "Infantry", 3, 2, 10),
	}
}

// SkirmishMembers returns the game snapshot followed by the turn members.
func SkirmishMembers() [][]byte {
	return Members(SkirmishActions)
}

// Members encodes the skirmish opening followed by the given turns, which
// alternate between Red and Blue starting on day 1.
func Members(turns [][]string) [][]byte {
	members := [][]byte{phpser.Encode(Game(SkirmishUnits()...))}
	for i, turn := range turns {
		p, day := Red, i/2+1
		if i%2 == 1 {
			p = Blue
		}
		members = append(members, Turn(p, day, turn...))
	}
	return members
}

// Skirmish is a complete archive of three turns with the map bundled as
// map.txt.
func Skirmish() []byte {
	return SkirmishWith(SkirmishActions)
}

// SkirmishWith is Skirmish with other recorded turns.
func SkirmishWith(turns [][]string) []byte {
	members := Members(turns)
	return Archive(
		Entry{Name: fmt.Sprint(GameID), Members: members[:1]},
		Entry{Name: fmt.Sprintf("a%d", GameID), Members: members[1:]},
		Entry{Name: "map.txt", Members: [][]byte{[]byte(MapText)}, Raw: true},
	)
}

// Tampered returns a copy of SkirmishActions with the first occurrence of
// old in the given turn swapped for replacement.
func Tampered(turn int, old, replacement string) [][]string {
	out := make([][]string, len(SkirmishActions))
	for i, t := range SkirmishActions {
		out[i] = append([]string(nil), t...)
	}
	for j, a := range out[turn] {
		if strings.Contains(a, old) {
			out[turn][j] = strings.Replace(a, old, replacement, 1)
			return out
		}
	}
	panic(fmt.Sprintf("turn %d has no %q", turn, old))
}

// SkirmishLength is the number of actions in Skirmish.
func SkirmishLength() int {
	n := 0
	for _, t := range SkirmishActions {
		n += len(t)
	}
	return n
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
