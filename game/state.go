package game

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"

	"awreplay/meta"
	"awreplay/utils"
)

type PlayerID int

type UnitID int

// NoPlayer marks an unowned tile.
const NoPlayer PlayerID = 0

type StateHash uint64

type Phase int

const (
	AwaitingAction Phase = iota
	TurnEnded
	Finished
)

func (p Phase) String() string {
	switch p {
	case AwaitingAction:
		return "awaiting action"
	case TurnEnded:
		return "turn ended"
	case Finished:
		return "finished"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Distance is the Manhattan distance between two positions.
func (p Position) Distance(o Position) int {
	dx, dy := p.X-o.X, p.Y-o.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// Neighbors returns the four orthogonally adjacent positions.
func (p Position) Neighbors() [4]Position {
	return [4]Position{{p.X, p.Y - 1}, {p.X + 1, p.Y}, {p.X, p.Y + 1}, {p.X - 1, p.Y}}
}

type Tile struct {
	Terrain   Terrain  `json:"terrain"`
	TerrainID int      `json:"terrainId"`
	Owner     PlayerID `json:"owner,omitempty"`
	Capture   int      `json:"capture,omitempty"` // progress toward the capture threshold
	HP        int      `json:"hp,omitempty"`      // pipe seams only
}

type Unit struct {
	ID      UnitID    `json:"id"`
	Owner   PlayerID  `json:"owner"`
	Class   UnitClass `json:"class"`
	Pos     Position  `json:"pos"`
	HP      int       `json:"hp"` // 0..100, displayed as ceil(HP/10)
	Fuel    int       `json:"fuel"`
	Ammo    int       `json:"ammo"`
	Cargo   []UnitID  `json:"cargo,omitempty"`
	Carrier UnitID    `json:"carrier,omitempty"` // set while loaded; Pos then follows the carrier
	Acted   bool      `json:"acted"`
}

func (u *Unit) Copy() *Unit {
	c := *u
	if u.Cargo != nil {
		c.Cargo = append([]UnitID(nil), u.Cargo...)
	}
	return &c
}

// Loaded reports whether the unit is inside a transport.
func (u *Unit) Loaded() bool {
	return u.Carrier != 0
}

// DisplayHP converts 0..100 health to the 0..10 value shown to players.
func DisplayHP(hp int) int {
	if hp <= 0 {
		return 0
	}
	return utils.CeilDiv(hp, 10)
}

type PowerKind int

const (
	NoPower PowerKind = iota
	COPower
	SuperPower
)

func (k PowerKind) String() string {
	switch k {
	case NoPower:
		return "none"
	case COPower:
		return "power"
	case SuperPower:
		return "super power"
	}
	return fmt.Sprintf("power(%d)", int(k))
}

type Player struct {
	ID         PlayerID  `json:"id"`
	Faction    Faction   `json:"faction"`
	Team       string    `json:"team,omitempty"`
	Funds      int       `json:"funds"`
	Eliminated bool      `json:"eliminated"`
	Order      int       `json:"order"`
	CO         string    `json:"co,omitempty"`
	Power      PowerKind `json:"power"`
}

// Rules are the per-match constants. A GameState shares its Rules with every
// state derived from it.
type Rules struct {
	Income           int
	CaptureThreshold int
	RepairHP         int
	// Strict makes recorded outcomes (combat HP, capture points, funds,
	// next player) that disagree with the computed ones a rule violation.
	// Otherwise recorded values win.
	Strict bool
}

func StandardRules() *Rules {
	return &Rules{
		Income:           meta.DEFAULT_INCOME,
		CaptureThreshold: meta.CAPTURE_THRESHOLD,
		RepairHP:         meta.REPAIR_HP,
		Strict:           true,
	}
}

// GameState is the full state of a match between two actions. States are
// treated as values: Apply always works on a Copy.
type GameState struct {
	Width   int              `json:"width"`
	Height  int              `json:"height"`
	Tiles   []Tile           `json:"tiles"` // row-major
	Units   map[UnitID]*Unit `json:"units"`
	Players []Player         `json:"players"` // turn order
	Day     int              `json:"day"`
	Active  int              `json:"active"` // index into Players
	Weather Weather          `json:"weather"`
	Fog     FogMode          `json:"fog"`
	Phase   Phase            `json:"phase"`
	Over    bool             `json:"over"`
	Winners []PlayerID       `json:"winners,omitempty"`
	Rules   *Rules           `json:"-"`
}

func (gs *GameState) Copy() *GameState {
	tiles := make([]Tile, len(gs.Tiles))
	copy(tiles, gs.Tiles)

	units := make(map[UnitID]*Unit, len(gs.Units))
	for id, u := range gs.Units {
		units[id] = u.Copy()
	}

	players := make([]Player, len(gs.Players))
	copy(players, gs.Players)

	var winners []PlayerID
	if gs.Winners != nil {
		winners = append([]PlayerID(nil), gs.Winners...)
	}

	return &GameState{
		Width:   gs.Width,
		Height:  gs.Height,
		Tiles:   tiles,
		Units:   units,
		Players: players,
		Day:     gs.Day,
		Active:  gs.Active,
		Weather: gs.Weather,
		Fog:     gs.Fog,
		Phase:   gs.Phase,
		Over:    gs.Over,
		Winners: winners,
		Rules:   gs.Rules, // immutable
	}
}

// Hash fingerprints everything that affects future play.
func (gs *GameState) Hash() StateHash {
	hasher := fnv.New64a()
	put := func(v int) {
		binary.Write(hasher, binary.LittleEndian, int64(v))
	}

	put(gs.Width)
	put(gs.Height)
	put(gs.Day)
	put(gs.Active)
	put(int(gs.Weather))
	put(int(gs.Fog))
	put(int(gs.Phase))

	for _, t := range gs.Tiles {
		put(int(t.Terrain))
		put(int(t.Owner))
		put(t.Capture)
		put(t.HP)
	}

	for _, id := range utils.SortedKeys(gs.Units) {
		u := gs.Units[id]
		put(int(u.ID))
		put(int(u.Owner))
		put(int(u.Class))
		put(u.Pos.X)
		put(u.Pos.Y)
		put(u.HP)
		put(u.Fuel)
		put(u.Ammo)
		put(int(u.Carrier))
		for _, c := range u.Cargo {
			put(int(c))
		}
		if u.Acted {
			put(1)
		} else {
			put(0)
		}
	}

	for _, p := range gs.Players {
		put(int(p.ID))
		put(p.Funds)
		put(int(p.Power))
		if p.Eliminated {
			put(1)
		} else {
			put(0)
		}
	}

	if gs.Over {
		put(1)
		for _, w := range gs.Winners {
			put(int(w))
		}
	}

	return StateHash(hasher.Sum64())
}

func (gs *GameState) InBounds(p Position) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < gs.Width && p.Y < gs.Height
}

// Tile returns the tile at p, or nil when p is off the map.
func (gs *GameState) Tile(p Position) *Tile {
	if !gs.InBounds(p) {
		return nil
	}
	return &gs.Tiles[p.Y*gs.Width+p.X]
}

// UnitAt returns the unit standing on p. Loaded units are never returned.
func (gs *GameState) UnitAt(p Position) *Unit {
	for _, u := range gs.Units {
		if u.Pos == p && !u.Loaded() {
			return u
		}
	}
	return nil
}

func (gs *GameState) Player(id PlayerID) *Player {
	for i := range gs.Players {
		if gs.Players[i].ID == id {
			return &gs.Players[i]
		}
	}
	return nil
}

// ActivePlayer is the player whose turn it is.
func (gs *GameState) ActivePlayer() *Player {
	if gs.Active < 0 || gs.Active >= len(gs.Players) {
		return nil
	}
	return &gs.Players[gs.Active]
}

// Allied reports whether two players share a side. A player is always allied
// with itself.
func (gs *GameState) Allied(a, b PlayerID) bool {
	if a == b {
		return true
	}
	pa, pb := gs.Player(a), gs.Player(b)
	if pa == nil || pb == nil {
		return false
	}
	return pa.Team != "" && pa.Team == pb.Team
}

// UnitsOf lists the ids of a player's units, loaded ones included, in id order.
func (gs *GameState) UnitsOf(owner PlayerID) []UnitID {
	var ids []UnitID
	for _, id := range utils.SortedKeys(gs.Units) {
		if gs.Units[id].Owner == owner {
			ids = append(ids, id)
		}
	}
	return ids
}

// IncomeProperties counts the properties a player owns that pay income.
func (gs *GameState) IncomeProperties(owner PlayerID) int {
	n := 0
	for _, t := range gs.Tiles {
		if t.Owner == owner && t.Terrain.GivesIncome() {
			n++
		}
	}
	return n
}

func (gs *GameState) positionOf(index int) Position {
	return Position{X: index % gs.Width, Y: index / gs.Width}
}
