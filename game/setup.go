package game

import (
	"fmt"
	"sort"

	"awreplay/meta"
	"awreplay/utils"
)

// Building overrides the terrain of one tile in the initial state. Archives
// encode property ownership in the terrain id, so a captured city shows up
// here with the capturer's city id.
type Building struct {
	Pos       Position
	TerrainID int
	Capture   int // progress already made, 0..threshold
}

// Setup describes the state before the first action.
type Setup struct {
	Width      int
	Height     int
	TerrainIDs []int // row-major
	Buildings  []Building
	Players    []Player
	Units      []Unit
	Day        int
	Active     PlayerID
	Weather    Weather
	Fog        FogMode
	Rules      *Rules
}

// NewState builds and checks the initial state. Players are put in turn
// order; property owners are derived from the faction in each terrain id.
func NewState(s Setup) (*GameState, error) {
	if s.Width <= 0 || s.Height <= 0 {
		return nil, fmt.Errorf("invalid map size %dx%d", s.Width, s.Height)
	}
	if len(s.TerrainIDs) != s.Width*s.Height {
		return nil, fmt.Errorf("map has %d tiles, want %d", len(s.TerrainIDs), s.Width*s.Height)
	}
	if len(s.Players) == 0 {
		return nil, fmt.Errorf("no players")
	}

	rules := s.Rules
	if rules == nil {
		rules = StandardRules()
	}

	players := make([]Player, len(s.Players))
	copy(players, s.Players)
	sort.SliceStable(players, func(i, j int) bool { return players[i].Order < players[j].Order })

	byFaction := make(map[Faction]PlayerID, len(players))
	seen := make(map[PlayerID]bool, len(players))
	for _, p := range players {
		if p.ID == NoPlayer {
			return nil, fmt.Errorf("player id 0 is reserved")
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate player %d", p.ID)
		}
		if p.Funds < 0 {
			return nil, fmt.Errorf("player %d has negative funds", p.ID)
		}
		seen[p.ID] = true
		byFaction[p.Faction] = p.ID
	}

	gs := &GameState{
		Width:   s.Width,
		Height:  s.Height,
		Tiles:   make([]Tile, len(s.TerrainIDs)),
		Units:   make(map[UnitID]*Unit, len(s.Units)),
		Players: players,
		Day:     s.Day,
		Weather: s.Weather,
		Fog:     s.Fog,
		Phase:   AwaitingAction,
		Rules:   rules,
	}
	if gs.Day < 1 {
		gs.Day = 1
	}

	setTile := func(i, id int) error {
		t, f, ok := TerrainByID(id)
		if !ok {
			return fmt.Errorf("unknown terrain id %d at %s", id, gs.positionOf(i))
		}
		tile := Tile{Terrain: t, TerrainID: id}
		if t == PipeSeam {
			tile.HP = meta.SEAM_HP
		}
		if f != Neutral {
			tile.Owner = byFaction[f]
		}
		gs.Tiles[i] = tile
		return nil
	}
	for i, id := range s.TerrainIDs {
		if err := setTile(i, id); err != nil {
			return nil, err
		}
	}
	for _, b := range s.Buildings {
		if !gs.InBounds(b.Pos) {
			return nil, fmt.Errorf("building at %s is off the map", b.Pos)
		}
		i := b.Pos.Y*gs.Width + b.Pos.X
		if err := setTile(i, b.TerrainID); err != nil {
			return nil, err
		}
		if b.Capture < 0 || b.Capture > rules.CaptureThreshold {
			return nil, fmt.Errorf("building at %s has capture progress %d", b.Pos, b.Capture)
		}
		if b.Capture > 0 && !gs.Tiles[i].Terrain.IsProperty() {
			return nil, fmt.Errorf("capture progress on non-property at %s", b.Pos)
		}
		gs.Tiles[i].Capture = b.Capture
	}

	for _, u := range s.Units {
		if err := gs.addSetupUnit(u, seen); err != nil {
			return nil, err
		}
	}
	if err := gs.checkCargo(); err != nil {
		return nil, err
	}

	gs.Active = 0
	if s.Active != NoPlayer {
		found := false
		for i, p := range gs.Players {
			if p.ID == s.Active {
				gs.Active, found = i, true
			}
		}
		if !found {
			return nil, fmt.Errorf("active player %d is not in the game", s.Active)
		}
	}
	return gs, nil
}

func (gs *GameState) addSetupUnit(u Unit, players map[PlayerID]bool) error {
	if u.ID == 0 {
		return fmt.Errorf("unit id 0 is reserved")
	}
	if _, dup := gs.Units[u.ID]; dup {
		return fmt.Errorf("duplicate unit %d", u.ID)
	}
	if !u.Class.Valid() {
		return fmt.Errorf("unit %d has unknown class %d", u.ID, u.Class)
	}
	if !players[u.Owner] {
		return fmt.Errorf("unit %d belongs to unknown player %d", u.ID, u.Owner)
	}
	if !gs.InBounds(u.Pos) {
		return fmt.Errorf("unit %d at %s is off the map", u.ID, u.Pos)
	}
	stats := u.Class.Stats()
	if u.HP <= 0 || u.HP > meta.MAX_HP {
		return fmt.Errorf("unit %d has hp %d", u.ID, u.HP)
	}
	if u.Fuel < 0 || u.Fuel > stats.Fuel {
		return fmt.Errorf("unit %d has fuel %d, max %d", u.ID, u.Fuel, stats.Fuel)
	}
	if u.Ammo < 0 || u.Ammo > stats.Ammo {
		return fmt.Errorf("unit %d has ammo %d, max %d", u.ID, u.Ammo, stats.Ammo)
	}
	c := u
	c.Cargo = nil
	if len(u.Cargo) > 0 {
		c.Cargo = append([]UnitID(nil), u.Cargo...)
	}
	gs.Units[u.ID] = &c
	return nil
}

// checkCargo makes carrier and cargo references agree and stacks at most one
// free-standing unit per tile.
func (gs *GameState) checkCargo() error {
	for _, id := range utils.SortedKeys(gs.Units) {
		t := gs.Units[id]
		for _, cid := range t.Cargo {
			c, ok := gs.Units[cid]
			if !ok {
				return fmt.Errorf("unit %d carries missing unit %d", t.ID, cid)
			}
			if c.Carrier != 0 && c.Carrier != t.ID {
				return fmt.Errorf("unit %d is loaded in both %d and %d", cid, c.Carrier, t.ID)
			}
			c.Carrier = t.ID
		}
	}
	for _, id := range utils.SortedKeys(gs.Units) {
		c := gs.Units[id]
		if c.Carrier == 0 {
			continue
		}
		t, ok := gs.Units[c.Carrier]
		if !ok {
			return fmt.Errorf("unit %d is loaded in missing unit %d", c.ID, c.Carrier)
		}
		if utils.FindIndex(t.Cargo, c.ID) < 0 {
			t.Cargo = append(t.Cargo, c.ID)
		}
	}

	occupied := make(map[Position]UnitID)
	for _, id := range utils.SortedKeys(gs.Units) {
		u := gs.Units[id]
		if u.Carrier != 0 {
			continue
		}
		if other, ok := occupied[u.Pos]; ok {
			return fmt.Errorf("units %d and %d share %s", other, u.ID, u.Pos)
		}
		occupied[u.Pos] = u.ID
		if len(u.Cargo) > u.Class.Stats().Capacity {
			return fmt.Errorf("unit %d carries %d units, capacity %d", u.ID, len(u.Cargo), u.Class.Stats().Capacity)
		}
		for _, cid := range u.Cargo {
			c := gs.Units[cid]
			if !u.Class.CanCarry(c.Class) {
				return fmt.Errorf("%s %d cannot carry %s %d", u.Class, u.ID, c.Class, cid)
			}
			c.Pos = u.Pos
		}
	}
	return nil
}
