package replay

import (
	"math"
	"strconv"
	"strings"

	"awreplay/game"
	"awreplay/meta"

	"github.com/tidwall/gjson"
)

// jnode is a JSON value with its path, the action-payload twin of node.
// Positions read through it are checked against grid.
type jnode struct {
	r    gjson.Result
	path string
	grid *MapDef
}

func (j jnode) child(r gjson.Result, path string) jnode {
	return jnode{r: r, path: path, grid: j.grid}
}

func (j jnode) at(key string) string {
	return j.path + "." + key
}

func (j jnode) get(key string) (jnode, error) {
	r := j.r.Get(key)
	if !r.Exists() {
		return jnode{}, invalid(j.at(key), "missing")
	}
	return j.child(r, j.at(key)), nil
}

// hidden reports values the archive masked from the viewer: null, "" or "?".
func (j jnode) hidden() bool {
	switch j.r.Type {
	case gjson.Null:
		return true
	case gjson.String:
		return j.r.Str == "" || j.r.Str == "?"
	}
	return !j.r.Exists()
}

// value reads the node itself as an integer. Numbers may arrive as strings.
func (j jnode) value() (int, error) {
	switch j.r.Type {
	case gjson.Number:
		if j.r.Num != math.Trunc(j.r.Num) {
			return 0, invalid(j.path, "want an integer, got %s", j.r.Raw)
		}
		return int(j.r.Num), nil
	case gjson.String:
		i, err := strconv.Atoi(strings.TrimSpace(j.r.Str))
		if err == nil {
			return i, nil
		}
	}
	return 0, invalid(j.path, "want an integer, got %s", j.r.Raw)
}

func (j jnode) int(key string) (int, error) {
	f, err := j.get(key)
	if err != nil {
		return 0, err
	}
	return f.value()
}

// optional reads the node as an integer unless it is hidden.
func (j jnode) optional() (*int, error) {
	if j.hidden() {
		return nil, nil
	}
	v, err := j.value()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (j jnode) optInt(key string) (*int, error) {
	return j.child(j.r.Get(key), j.at(key)).optional()
}

// health reads a display health (0..10, possibly fractional) onto the
// 0..100 scale.
func (j jnode) health(key string) (*int, error) {
	f := j.child(j.r.Get(key), j.at(key))
	if f.hidden() {
		return nil, nil
	}
	x := f.r.Float()
	if f.r.Type != gjson.Number {
		var err error
		if x, err = strconv.ParseFloat(strings.TrimSpace(f.r.Str), 64); err != nil {
			return nil, invalid(f.path, "want a number, got %s", f.r.Raw)
		}
	}
	hp := int(math.Round(x * 10))
	if hp < 0 || hp > meta.MAX_HP {
		return nil, invalid(f.path, "health %d outside 0-%d", hp, meta.MAX_HP)
	}
	return &hp, nil
}

func (j jnode) str(key string) (string, error) {
	f, err := j.get(key)
	if err != nil {
		return "", err
	}
	if f.r.Type != gjson.String {
		return "", invalid(f.path, "want a string, got %s", f.r.Raw)
	}
	return f.r.Str, nil
}

// targeted picks the entry of a per-viewer map meant for viewer: the
// "global" entry when there is one, then the viewer's own, then the first.
func (j jnode) targeted(key string, viewer game.PlayerID) (jnode, error) {
	f, err := j.get(key)
	if err != nil {
		return jnode{}, err
	}
	if !f.r.IsObject() {
		return jnode{}, invalid(f.path, "want a per-player map, got %s", f.r.Raw)
	}
	var first, own, global jnode
	self := strconv.Itoa(int(viewer))
	f.r.ForEach(func(k, v gjson.Result) bool {
		n := f.child(v, f.path+"."+k.String())
		switch {
		case k.String() == "global":
			global = n
		case k.String() == self:
			own = n
		}
		if !first.r.Exists() {
			first = n
		}
		return true
	})
	for _, n := range []jnode{global, own, first} {
		if n.r.Exists() {
			return n, nil
		}
	}
	return jnode{}, invalid(f.path, "empty per-player map")
}

func (j jnode) pos(xKey, yKey string) (game.Position, error) {
	x, err := j.int(xKey)
	if err != nil {
		return game.Position{}, err
	}
	y, err := j.int(yKey)
	if err != nil {
		return game.Position{}, err
	}
	if j.grid != nil && !j.grid.inBounds(x, y) {
		return game.Position{}, invalid(j.path, "position (%d,%d) is outside the %dx%d map", x, y, j.grid.Width, j.grid.Height)
	}
	return game.Position{X: x, Y: y}, nil
}

// parseAction converts one recorded action payload. viewer is the player
// whose turn recorded it; positions must lie on grid when it is set.
func parseAction(raw string, viewer game.PlayerID, grid *MapDef, path string) (game.Action, error) {
	if !gjson.Valid(raw) {
		return nil, invalid(path, "not valid JSON")
	}
	j := jnode{r: gjson.Parse(raw), path: path, grid: grid}
	kind, err := j.str("action")
	if err != nil {
		return nil, err
	}

	switch kind {
	case "Move":
		m, err := parseMove(j, viewer)
		if err != nil {
			return nil, err
		}
		return *m, nil
	case "Fire":
		return parseFire(j, viewer)
	case "AttackSeam":
		return parseAttackSeam(j, viewer)
	case "Capt":
		return parseCapture(j, viewer)
	case "Build":
		return parseBuild(j, viewer)
	case "Supply":
		return parseSupply(j, viewer)
	case "End":
		ui, err := j.get("updatedInfo")
		if err != nil {
			return nil, err
		}
		end, err := parseEndTurn(ui, viewer)
		if err != nil {
			return nil, err
		}
		end.Player = viewer
		return end, nil
	case "Load":
		return parseLoad(j, viewer)
	case "Unload":
		return parseUnload(j, viewer)
	case "Power":
		return parsePower(j)
	case "Resign":
		return parseResign(j, viewer)
	case "Join":
		return parseJoin(j, viewer)
	case "Repair":
		return parseRepair(j, viewer)
	}
	return nil, invalid(j.at("action"), "unknown action %q", kind)
}

func parseMove(j jnode, viewer game.PlayerID) (*game.Move, error) {
	u, err := j.targeted("unit", viewer)
	if err != nil {
		return nil, err
	}
	id, err := u.int("units_id")
	if err != nil {
		return nil, err
	}
	paths, err := j.targeted("paths", viewer)
	if err != nil {
		return nil, err
	}
	if !paths.r.IsArray() || len(paths.r.Array()) == 0 {
		return nil, invalid(paths.path, "want a non-empty path")
	}
	m := &game.Move{Unit: game.UnitID(id), Trapped: j.r.Get("trapped").Bool()}
	for i, step := range paths.r.Array() {
		p, err := paths.child(step, fieldIndex(paths.path, i)).pos("x", "y")
		if err != nil {
			return nil, err
		}
		m.Path = append(m.Path, p)
	}
	return m, nil
}

// leadingMove reads the "Move" member of a compound action. An empty array
// means the unit acted where it stood.
func leadingMove(j jnode, viewer game.PlayerID) (*game.Move, error) {
	f, err := j.get("Move")
	if err != nil {
		return nil, err
	}
	if f.r.IsArray() && len(f.r.Array()) == 0 {
		return nil, nil
	}
	if !f.r.IsObject() {
		return nil, invalid(f.path, "want a move, got %s", f.r.Raw)
	}
	return parseMove(f, viewer)
}

func requiredMove(j jnode, viewer game.PlayerID) (game.Move, error) {
	m, err := leadingMove(j, viewer)
	if err != nil {
		return game.Move{}, err
	}
	if m == nil {
		return game.Move{}, invalid(j.at("Move"), "missing")
	}
	return *m, nil
}

func parseFire(j jnode, viewer game.PlayerID) (game.Action, error) {
	move, err := leadingMove(j, viewer)
	if err != nil {
		return nil, err
	}
	fire, err := j.get("Fire")
	if err != nil {
		return nil, err
	}
	vision, err := fire.targeted("combatInfoVision", viewer)
	if err != nil {
		return nil, err
	}
	info, err := vision.get("combatInfo")
	if err != nil {
		return nil, err
	}
	att, err := info.get("attacker")
	if err != nil {
		return nil, err
	}
	def, err := info.get("defender")
	if err != nil {
		return nil, err
	}

	a := game.Attack{Move: move}
	ids := [2]int{}
	for i, side := range []jnode{att, def} {
		if ids[i], err = side.int("units_id"); err != nil {
			return nil, err
		}
	}
	a.Attacker, a.Defender = game.UnitID(ids[0]), game.UnitID(ids[1])
	if a.Recorded.AttackerHP, err = att.health("units_hit_points"); err != nil {
		return nil, err
	}
	if a.Recorded.DefenderHP, err = def.health("units_hit_points"); err != nil {
		return nil, err
	}
	if a.Recorded.AttackerAmmo, err = att.optInt("units_ammo"); err != nil {
		return nil, err
	}
	if a.Recorded.DefenderAmmo, err = def.optInt("units_ammo"); err != nil {
		return nil, err
	}
	return a, nil
}

func parseAttackSeam(j jnode, viewer game.PlayerID) (game.Action, error) {
	move, err := leadingMove(j, viewer)
	if err != nil {
		return nil, err
	}
	seam, err := j.get("AttackSeam")
	if err != nil {
		return nil, err
	}
	u, err := seam.targeted("unit", viewer)
	if err != nil {
		return nil, err
	}
	combat, err := u.get("combatInfo")
	if err != nil {
		return nil, err
	}
	a := game.AttackSeam{Move: move}
	id, err := combat.int("units_id")
	if err != nil {
		return nil, err
	}
	a.Attacker = game.UnitID(id)
	if a.AttackerAmmo, err = combat.optInt("units_ammo"); err != nil {
		return nil, err
	}
	if a.Seam, err = seam.pos("seamX", "seamY"); err != nil {
		return nil, err
	}
	hp, err := seam.int("buildings_hit_points")
	if err != nil {
		return nil, err
	}
	hp = max(hp, 0)
	a.SeamHP = &hp
	return a, nil
}

func parseCapture(j jnode, viewer game.PlayerID) (game.Action, error) {
	move, err := leadingMove(j, viewer)
	if err != nil {
		return nil, err
	}
	info, err := j.get("Capt")
	if err == nil {
		info, err = info.get("buildingInfo")
	}
	if err != nil {
		return nil, err
	}
	c := game.Capture{Move: move}
	if move != nil {
		c.Unit = move.Unit
	}
	if c.At, err = info.pos("buildings_x", "buildings_y"); err != nil {
		return nil, err
	}
	remaining, err := info.int("buildings_capture")
	if err != nil {
		return nil, err
	}
	if remaining < 0 || remaining > meta.CAPTURE_THRESHOLD {
		return nil, invalid(info.at("buildings_capture"), "%d capture points outside 0-%d", remaining, meta.CAPTURE_THRESHOLD)
	}
	progress := meta.CAPTURE_THRESHOLD - remaining
	c.Progress = &progress
	return c, nil
}

func parseBuild(j jnode, viewer game.PlayerID) (game.Action, error) {
	u, err := j.targeted("newUnit", viewer)
	if err != nil {
		return nil, err
	}
	var b game.Build
	id, err := u.int("units_id")
	if err != nil {
		return nil, err
	}
	owner, err := u.int("units_players_id")
	if err != nil {
		return nil, err
	}
	b.Unit, b.Player = game.UnitID(id), game.PlayerID(owner)
	name, err := u.str("units_name")
	if err != nil {
		return nil, err
	}
	var ok bool
	if b.Class, ok = game.ParseUnitClass(name); !ok {
		return nil, invalid(u.at("units_name"), "unknown unit %q", name)
	}
	if b.Pos, err = u.pos("units_x", "units_y"); err != nil {
		return nil, err
	}
	return b, nil
}

func parseSupply(j jnode, viewer game.PlayerID) (game.Action, error) {
	move, err := leadingMove(j, viewer)
	if err != nil {
		return nil, err
	}
	sup, err := j.get("Supply")
	if err != nil {
		return nil, err
	}
	u, err := sup.targeted("unit", viewer)
	if err != nil {
		return nil, err
	}
	id, err := u.value()
	if err != nil {
		return nil, err
	}
	s := game.Supply{Move: move, Unit: game.UnitID(id)}
	if sup.r.Get("supplied").IsObject() {
		supplied, err := sup.targeted("supplied", viewer)
		if err != nil {
			return nil, err
		}
		for i, t := range supplied.r.Array() {
			tid, err := supplied.child(t, fieldIndex(supplied.path, i)).value()
			if err != nil {
				return nil, err
			}
			s.Targets = append(s.Targets, game.UnitID(tid))
		}
	}
	return s, nil
}

// parseEndTurn reads the turn hand-over block shared by End and Resign.
func parseEndTurn(j jnode, viewer game.PlayerID) (game.EndTurn, error) {
	var e game.EndTurn
	next, err := j.int("nextPId")
	if err != nil {
		return e, err
	}
	e.NextPlayer = game.PlayerID(next)
	if day, err := j.optInt("day"); err != nil {
		return e, err
	} else if day != nil {
		e.Day = *day
	}
	if code := j.r.Get("nextWeather").String(); code != "" {
		w, ok := game.ParseWeather(code)
		if !ok {
			return e, invalid(j.at("nextWeather"), "unknown weather %q", code)
		}
		e.NextWeather = &w
	}
	if j.r.Get("nextFunds").IsObject() {
		funds, err := j.targeted("nextFunds", viewer)
		if err != nil {
			return e, err
		}
		if e.Funds, err = funds.optional(); err != nil {
			return e, err
		}
	}
	if j.r.Get("repaired").IsObject() {
		repaired, err := j.targeted("repaired", viewer)
		if err != nil {
			return e, err
		}
		for i, r := range repaired.r.Array() {
			n := repaired.child(r, fieldIndex(repaired.path, i))
			id, err := n.int("units_id")
			if err != nil {
				return e, err
			}
			hp, err := n.health("units_hit_points")
			if err != nil {
				return e, err
			}
			if hp == nil {
				continue
			}
			e.Repaired = append(e.Repaired, game.Repaired{Unit: game.UnitID(id), HP: *hp})
		}
	}
	return e, nil
}

func parseLoad(j jnode, viewer game.PlayerID) (game.Action, error) {
	move, err := requiredMove(j, viewer)
	if err != nil {
		return nil, err
	}
	load, err := j.get("Load")
	if err != nil {
		return nil, err
	}
	t, err := load.targeted("transport", viewer)
	if err != nil {
		return nil, err
	}
	transport, err := t.value()
	if err != nil {
		return nil, err
	}
	return game.Load{Move: move, Transport: game.UnitID(transport)}, nil
}

func parseUnload(j jnode, viewer game.PlayerID) (game.Action, error) {
	u, err := j.targeted("unit", viewer)
	if err != nil {
		return nil, err
	}
	var un game.Unload
	cargo, err := u.int("units_id")
	if err != nil {
		return nil, err
	}
	transport, err := j.int("transportID")
	if err != nil {
		return nil, err
	}
	un.Cargo, un.Transport = game.UnitID(cargo), game.UnitID(transport)
	if un.To, err = u.pos("units_x", "units_y"); err != nil {
		return nil, err
	}
	return un, nil
}

func parsePower(j jnode) (game.Action, error) {
	player, err := j.int("playerID")
	if err != nil {
		return nil, err
	}
	p := game.Power{Player: game.PlayerID(player), Name: j.r.Get("powerName").String()}
	switch code := j.r.Get("coPower").String(); code {
	case "Y":
		p.Level = game.COPower
	case "S":
		p.Level = game.SuperPower
	default:
		return nil, invalid(j.at("coPower"), "unknown power %q", code)
	}
	return p, nil
}

func parseResign(j jnode, viewer game.PlayerID) (game.Action, error) {
	res, err := j.get("Resign")
	if err != nil {
		return nil, err
	}
	player, err := res.int("playerId")
	if err != nil {
		return nil, err
	}
	r := game.Resign{Player: game.PlayerID(player)}
	if next := j.r.Get("NextTurn"); next.IsObject() {
		e, err := parseEndTurn(j.child(next, j.at("NextTurn")), viewer)
		if err != nil {
			return nil, err
		}
		r.Next = &e
	}
	return r, nil
}

func parseJoin(j jnode, viewer game.PlayerID) (game.Action, error) {
	move, err := requiredMove(j, viewer)
	if err != nil {
		return nil, err
	}
	join, err := j.get("Join")
	if err != nil {
		return nil, err
	}
	u, err := join.targeted("unit", viewer)
	if err != nil {
		return nil, err
	}
	target, err := u.int("units_id")
	if err != nil {
		return nil, err
	}
	jn := game.Join{Move: move, Target: game.UnitID(target)}
	if join.r.Get("newFunds").IsObject() {
		funds, err := join.targeted("newFunds", viewer)
		if err != nil {
			return nil, err
		}
		if jn.Funds, err = funds.optional(); err != nil {
			return nil, err
		}
	}
	return jn, nil
}

func parseRepair(j jnode, viewer game.PlayerID) (game.Action, error) {
	move, err := leadingMove(j, viewer)
	if err != nil {
		return nil, err
	}
	rep, err := j.get("Repair")
	if err != nil {
		return nil, err
	}
	u, err := rep.targeted("unit", viewer)
	if err != nil {
		return nil, err
	}
	id, err := u.value()
	if err != nil {
		return nil, err
	}
	repaired, err := rep.targeted("repaired", viewer)
	if err != nil {
		return nil, err
	}
	target, err := repaired.int("units_id")
	if err != nil {
		return nil, err
	}
	r := game.Repair{Move: move, Unit: game.UnitID(id), Target: game.UnitID(target)}
	if r.HP, err = repaired.health("units_hit_points"); err != nil {
		return nil, err
	}
	if rep.r.Get("funds").IsObject() {
		funds, err := rep.targeted("funds", viewer)
		if err != nil {
			return nil, err
		}
		if r.Funds, err = funds.optional(); err != nil {
			return nil, err
		}
	}
	return r, nil
}
