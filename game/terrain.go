package game

import "fmt"

// Terrain is the gameplay kind of a tile. Cosmetic variants (river bends,
// road junctions, shoal edges) collapse to one kind.
type Terrain int

const (
	Plain Terrain = iota
	Mountain
	Wood
	River
	Road
	Bridge
	Sea
	Shoal
	Reef
	Pipe
	PipeSeam
	PipeRubble
	MissileSilo
	Teleporter
	City
	Base
	Airport
	Port
	HQ
	ComTower
	Lab
)

var terrainNames = [...]string{
	"plain", "mountain", "wood", "river", "road", "bridge", "sea", "shoal", "reef",
	"pipe", "pipe seam", "pipe rubble", "missile silo", "teleporter",
	"city", "base", "airport", "port", "hq", "comtower", "lab",
}

func (t Terrain) String() string {
	if t < 0 || int(t) >= len(terrainNames) {
		return fmt.Sprintf("terrain(%d)", int(t))
	}
	return terrainNames[t]
}

// IsProperty reports whether the terrain can be owned and captured.
func (t Terrain) IsProperty() bool {
	return t >= City
}

// GivesIncome reports whether an owned tile of this kind pays out each turn.
// Comtowers and labs do not.
func (t Terrain) GivesIncome() bool {
	switch t {
	case City, Base, Airport, Port, HQ:
		return true
	}
	return false
}

// DefenseStars is the terrain defense rating used in the damage formula.
func (t Terrain) DefenseStars() int {
	switch t {
	case Mountain, HQ:
		return 4
	case City, Base, Airport, Port, ComTower, Lab, MissileSilo:
		return 3
	case Wood:
		return 2
	case Plain, Reef, PipeRubble:
		return 1
	}
	return 0
}

// Produces reports which unit category the property can build, if any.
func (t Terrain) Produces() (Category, bool) {
	switch t {
	case Base:
		return Ground, true
	case Airport:
		return Air, true
	case Port:
		return Naval, true
	}
	return 0, false
}

// Repairs reports whether an owned tile of this kind heals and resupplies a
// unit of the given category at the start of its owner's turn.
func (t Terrain) Repairs(c Category) bool {
	switch t {
	case City, Base, HQ:
		return c == Ground
	case Airport:
		return c == Air
	case Port:
		return c == Naval
	}
	return false
}

// HidesUnits reports whether units on this terrain are only visible to
// adjacent enemies under fog.
func (t Terrain) HidesUnits() bool {
	return t == Wood || t == Reef
}

// Weather affects movement costs.
type Weather int

const (
	Clear Weather = iota
	Rain
	Snow
)

func (w Weather) String() string {
	switch w {
	case Clear:
		return "clear"
	case Rain:
		return "rain"
	case Snow:
		return "snow"
	}
	return fmt.Sprintf("weather(%d)", int(w))
}

// ParseWeather accepts the single-letter codes used by archives as well as
// full names.
func ParseWeather(s string) (Weather, bool) {
	switch s {
	case "C", "c", "clear", "Clear":
		return Clear, true
	case "R", "r", "rain", "Rain":
		return Rain, true
	case "S", "s", "snow", "Snow":
		return Snow, true
	}
	return Clear, false
}

// FogMode controls what each player can see.
type FogMode int

const (
	FogOff FogMode = iota
	// FogPartial: units and owned properties grant vision.
	FogPartial
	// FogFull: only units grant vision.
	FogFull
)

func (f FogMode) String() string {
	switch f {
	case FogOff:
		return "off"
	case FogPartial:
		return "partial"
	case FogFull:
		return "full"
	}
	return fmt.Sprintf("fog(%d)", int(f))
}

// TerrainByID resolves an archive terrain id to its kind and owning faction
// (Neutral for unowned or natural tiles).
func TerrainByID(id int) (Terrain, Faction, bool) {
	info, ok := terrainIDs[id]
	return info.terrain, info.faction, ok
}

// TerrainID is the inverse of TerrainByID for kinds that have a
// faction-specific id. Natural tiles map to their first variant.
func TerrainID(t Terrain, f Faction) (int, bool) {
	id, ok := terrainIDsByKind[terrainKey{t, f}]
	return id, ok
}

type terrainKey struct {
	terrain Terrain
	faction Faction
}

type terrainInfo struct {
	terrain Terrain
	faction Faction
}

var (
	terrainIDs       = map[int]terrainInfo{}
	terrainIDsByKind = map[terrainKey]int{}
)

func addTerrain(id int, t Terrain, f Faction) {
	terrainIDs[id] = terrainInfo{t, f}
	if _, seen := terrainIDsByKind[terrainKey{t, f}]; !seen {
		terrainIDsByKind[terrainKey{t, f}] = id
	}
}

func addTerrainRange(from, to int, t Terrain) {
	for id := from; id <= to; id++ {
		addTerrain(id, t, Neutral)
	}
}

func addPropertyGroup(start int, f Faction, kinds ...Terrain) {
	for i, t := range kinds {
		addTerrain(start+i, t, f)
	}
}

func init() {
	addTerrain(1, Plain, Neutral)
	addTerrain(2, Mountain, Neutral)
	addTerrain(3, Wood, Neutral)
	addTerrainRange(4, 14, River)
	addTerrainRange(15, 25, Road)
	addTerrainRange(26, 27, Bridge)
	addTerrain(28, Sea, Neutral)
	addTerrainRange(29, 32, Shoal)
	addTerrain(33, Reef, Neutral)
	addPropertyGroup(34, Neutral, City, Base, Airport, Port)

	classic := []Terrain{City, Base, Airport, Port, HQ}
	for _, g := range []struct {
		start   int
		faction Faction
	}{
		{38, OrangeStar}, {43, BlueMoon}, {48, GreenEarth}, {53, YellowComet},
		{81, RedFire}, {86, GreySky}, {91, BlackHole}, {96, BrownDesert},
	} {
		addPropertyGroup(g.start, g.faction, classic...)
	}

	addTerrainRange(101, 110, Pipe)
	addTerrainRange(111, 112, MissileSilo)
	addTerrainRange(113, 114, PipeSeam)
	addTerrainRange(115, 116, PipeRubble)

	later := []Terrain{Airport, Base, City, HQ, Port}
	addPropertyGroup(117, AmberBlaze, later...)
	addPropertyGroup(122, JadeSun, later...)

	addPropertyGroup(127, AmberBlaze, ComTower)
	addPropertyGroup(128, BlackHole, ComTower)
	addPropertyGroup(129, BlueMoon, ComTower)
	addPropertyGroup(130, BrownDesert, ComTower)
	addPropertyGroup(131, GreenEarth, ComTower)
	addPropertyGroup(132, JadeSun, ComTower)
	addPropertyGroup(133, Neutral, ComTower)
	addPropertyGroup(134, OrangeStar, ComTower)
	addPropertyGroup(135, RedFire, ComTower)
	addPropertyGroup(136, YellowComet, ComTower)
	addPropertyGroup(137, GreySky, ComTower)

	for i, f := range []Faction{AmberBlaze, BlackHole, BlueMoon, BrownDesert, GreenEarth, GreySky, JadeSun, Neutral, OrangeStar, RedFire, YellowComet} {
		addTerrain(138+i, Lab, f)
	}

	newest := []Terrain{Airport, Base, City, ComTower, HQ, Lab, Port}
	for _, g := range []struct {
		start   int
		faction Faction
	}{
		{149, CobaltIce}, {156, PinkCosmos}, {163, TealGalaxy}, {170, PurpleLightning},
		{181, AcidRain}, {188, WhiteNova}, {196, AzureAsteroid}, {203, NoirEclipse},
		{210, SilverClaw},
	} {
		addPropertyGroup(g.start, g.faction, newest...)
	}
	addTerrain(195, Teleporter, Neutral)
}
