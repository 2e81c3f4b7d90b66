package replay

import (
	"fmt"
	"strconv"

	"awreplay/game"
	"awreplay/meta"
	"awreplay/phpser"
)

const gameClass = "awbwGame"

// buildGame reads the awbwGame snapshot that opens an archive.
func buildGame(v phpser.Value, m *MapDef, strict bool) (Info, game.Setup, error) {
	g := node{v: v, path: "game"}
	var info Info
	var setup game.Setup

	switch v.Kind {
	case phpser.Object:
		if v.Class != gameClass {
			return info, setup, invalid("game", "object of class %q, want %s", v.Class, gameClass)
		}
	case phpser.AssocArray:
	default:
		return info, setup, invalid("game", "want an object, got %s", v.Kind)
	}

	var err error
	if info.ID, err = g.int("id"); err != nil {
		return info, setup, err
	}
	if info.Name, err = g.str("name"); err != nil {
		return info, setup, err
	}
	if info.MapID, err = g.int("maps_id"); err != nil {
		return info, setup, err
	}
	if info.Funds, err = g.int("funds"); err != nil {
		return info, setup, err
	}
	info.StartDate = g.optStr("start_date")
	info.EndDate = g.optStr("end_date")
	info.Type = g.optStr("type")
	info.StartingFunds, _, err = g.optInt("starting_funds")
	if err != nil {
		return info, setup, err
	}
	info.CaptureWin, _, err = g.optInt("capture_win")
	if err != nil {
		return info, setup, err
	}
	if info.Fog, err = g.flag("fog"); err != nil {
		return info, setup, err
	}
	if info.Teams, err = g.flag("team"); err != nil {
		return info, setup, err
	}
	if info.UsePowers, err = g.flag("use_powers"); err != nil {
		return info, setup, err
	}

	setup.Width, setup.Height = m.Width, m.Height
	setup.TerrainIDs = append([]int(nil), m.TerrainIDs...)
	if setup.Day, err = g.int("day"); err != nil {
		return info, setup, err
	}
	active, _, err := g.optInt("turn")
	if err != nil {
		return info, setup, err
	}
	setup.Active = game.PlayerID(active)

	setup.Weather = game.Clear
	if code := g.optStr("weather_code"); code != "" {
		w, ok := game.ParseWeather(code)
		if !ok {
			return info, setup, invalid("game.weather_code", "unknown weather %q", code)
		}
		setup.Weather = w
	}
	setup.Fog = game.FogOff
	if info.Fog {
		setup.Fog = game.FogPartial
	}

	rules := game.StandardRules()
	rules.Strict = strict
	if info.Funds > 0 {
		rules.Income = info.Funds
	}
	setup.Rules = rules

	if setup.Players, err = buildPlayers(g, info.Teams); err != nil {
		return info, setup, err
	}
	if setup.Buildings, err = buildBuildings(g, m); err != nil {
		return info, setup, err
	}
	if setup.Units, err = buildUnits(g, m); err != nil {
		return info, setup, err
	}

	if _, err := game.NewState(setup); err != nil {
		return info, setup, invalid("game", "%v", err)
	}
	return info, setup, nil
}

func buildPlayers(g node, teams bool) ([]game.Player, error) {
	list, err := g.list("players")
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, invalid(g.at("players"), "no players")
	}
	players := make([]game.Player, 0, len(list))
	for _, n := range list {
		var p game.Player
		id, err := n.int("id")
		if err != nil {
			return nil, err
		}
		p.ID = game.PlayerID(id)

		country, err := n.int("countries_id")
		if err != nil {
			return nil, err
		}
		var known bool
		if p.Faction, known = game.FactionByID(country); !known {
			return nil, invalid(n.at("countries_id"), "unknown country %d", country)
		}
		if p.Funds, err = n.int("funds"); err != nil {
			return nil, err
		}
		if p.Funds < 0 {
			return nil, invalid(n.at("funds"), "negative funds %d", p.Funds)
		}
		if p.Order, err = n.int("order"); err != nil {
			return nil, err
		}
		if p.Eliminated, err = n.flag("eliminated"); err != nil {
			return nil, err
		}
		if teams {
			p.Team = n.optStr("team")
		}
		if co, ok, err := n.optInt("co_id"); err != nil {
			return nil, err
		} else if ok {
			p.CO = strconv.Itoa(co)
		}
		switch s := n.optStr("co_power_on"); s {
		case "Y":
			p.Power = game.COPower
		case "S":
			p.Power = game.SuperPower
		case "N", "":
		default:
			return nil, invalid(n.at("co_power_on"), "unknown power state %q", s)
		}
		players = append(players, p)
	}
	return players, nil
}

func buildBuildings(g node, m *MapDef) ([]game.Building, error) {
	list, err := g.list("buildings")
	if err != nil {
		return nil, err
	}
	buildings := make([]game.Building, 0, len(list))
	for _, n := range list {
		pos, err := position(n, m, "x", "y")
		if err != nil {
			return nil, err
		}
		id, err := n.int("terrain_id")
		if err != nil {
			return nil, err
		}
		if err := checkTerrain(n.at("terrain_id"), id); err != nil {
			return nil, err
		}
		progress, err := captureProgress(n, "capture")
		if err != nil {
			return nil, err
		}
		buildings = append(buildings, game.Building{Pos: pos, TerrainID: id, Capture: progress})
	}
	return buildings, nil
}

func buildUnits(g node, m *MapDef) ([]game.Unit, error) {
	list, err := g.list("units")
	if err != nil {
		return nil, err
	}
	units := make([]game.Unit, 0, len(list))
	for _, n := range list {
		var u game.Unit
		id, err := n.int("id")
		if err != nil {
			return nil, err
		}
		u.ID = game.UnitID(id)
		owner, err := n.int("players_id")
		if err != nil {
			return nil, err
		}
		u.Owner = game.PlayerID(owner)

		name, err := n.str("name")
		if err != nil {
			return nil, err
		}
		var ok bool
		if u.Class, ok = game.ParseUnitClass(name); !ok {
			return nil, invalid(n.at("name"), "unknown unit %q", name)
		}
		if u.Pos, err = position(n, m, "x", "y"); err != nil {
			return nil, err
		}
		if u.HP, err = n.tenths("hit_points"); err != nil {
			return nil, err
		}
		if u.HP <= 0 || u.HP > meta.MAX_HP {
			return nil, invalid(n.at("hit_points"), "health %d outside 1-%d", u.HP, meta.MAX_HP)
		}
		if u.Fuel, err = n.int("fuel"); err != nil {
			return nil, err
		}
		if u.Ammo, err = n.int("ammo"); err != nil {
			return nil, err
		}
		moved, _, err := n.optInt("moved")
		if err != nil {
			return nil, err
		}
		u.Acted = moved != 0
		for _, key := range []string{"cargo1_units_id", "cargo2_units_id"} {
			c, ok, err := n.optInt(key)
			if err != nil {
				return nil, err
			}
			if ok && c != 0 {
				u.Cargo = append(u.Cargo, game.UnitID(c))
			}
		}
		units = append(units, u)
	}
	return units, nil
}

func position(n node, m *MapDef, xKey, yKey string) (game.Position, error) {
	x, err := n.int(xKey)
	if err != nil {
		return game.Position{}, err
	}
	y, err := n.int(yKey)
	if err != nil {
		return game.Position{}, err
	}
	if !m.inBounds(x, y) {
		return game.Position{}, invalid(n.path, "position (%d,%d) is outside the %dx%d map", x, y, m.Width, m.Height)
	}
	return game.Position{X: x, Y: y}, nil
}

// captureProgress converts the archive's remaining capture points into
// progress made. A full count means no capture is under way.
func captureProgress(n node, key string) (int, error) {
	remaining, ok, err := n.optInt(key)
	if err != nil || !ok {
		return 0, err
	}
	if remaining < 0 || remaining > meta.CAPTURE_THRESHOLD {
		return 0, invalid(n.at(key), "%d capture points outside 0-%d", remaining, meta.CAPTURE_THRESHOLD)
	}
	return meta.CAPTURE_THRESHOLD - remaining, nil
}

func fieldIndex(prefix string, i int) string {
	return fmt.Sprintf("%s[%d]", prefix, i)
}
