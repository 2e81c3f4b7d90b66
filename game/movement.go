package game

import "fmt"

// MoveType is the movement class shared by units with the same cost table.
type MoveType int

const (
	Foot MoveType = iota
	Boot
	Treads
	Tires
	SeaMove
	LanderMove
	AirMove
	PipeMove
)

func (m MoveType) String() string {
	switch m {
	case Foot:
		return "foot"
	case Boot:
		return "boot"
	case Treads:
		return "treads"
	case Tires:
		return "tires"
	case SeaMove:
		return "sea"
	case LanderMove:
		return "lander"
	case AirMove:
		return "air"
	case PipeMove:
		return "pipe"
	}
	return fmt.Sprintf("movetype(%d)", int(m))
}

// 0 marks an impassable tile in the tables below.
const impassable = 0

// movement terrain groups
type ground int

const (
	gPlains ground = iota
	gMountain
	gWood
	gRiver
	gInfrastructure
	gSea
	gShoal
	gReef
	gPipes
	gPort
	gBase
	gTeleport
)

func groundOf(t Terrain) ground {
	switch t {
	case Plain, PipeRubble:
		return gPlains
	case Mountain:
		return gMountain
	case Wood:
		return gWood
	case River:
		return gRiver
	case Sea:
		return gSea
	case Shoal:
		return gShoal
	case Reef:
		return gReef
	case Pipe, PipeSeam:
		return gPipes
	case Port:
		return gPort
	case Base:
		return gBase
	case Teleporter:
		return gTeleport
	}
	return gInfrastructure
}

// clear-weather costs indexed by [ground][MoveType]:
// foot, boot, treads, tires, sea, lander, air, pipe
var clearCosts = [...][8]int{
	gPlains:         {1, 1, 1, 2, 0, 0, 1, 0},
	gMountain:       {2, 1, 0, 0, 0, 0, 1, 0},
	gWood:           {1, 1, 2, 3, 0, 0, 1, 0},
	gRiver:          {2, 1, 0, 0, 0, 0, 1, 0},
	gInfrastructure: {1, 1, 1, 1, 0, 0, 1, 0},
	gSea:            {0, 0, 0, 0, 1, 1, 1, 0},
	gShoal:          {1, 1, 1, 1, 0, 1, 1, 0},
	gReef:           {0, 0, 0, 0, 2, 2, 1, 0},
	gPipes:          {0, 0, 0, 0, 0, 0, 0, 1},
	gPort:           {1, 1, 1, 1, 1, 1, 1, 0},
	gBase:           {1, 1, 1, 1, 0, 0, 1, 1},
	gTeleport:       {0, 0, 0, 0, 0, 0, 0, 0},
}

type weatherKey struct {
	weather Weather
	ground  ground
	move    MoveType
}

var weatherCosts = map[weatherKey]int{
	{Rain, gPlains, Treads}: 2,
	{Rain, gWood, Treads}:   3,
	{Rain, gPlains, Tires}:  3,
	{Rain, gWood, Tires}:    4,

	{Snow, gPlains, Foot}:     2,
	{Snow, gWood, Foot}:       2,
	{Snow, gMountain, Foot}:   4,
	{Snow, gMountain, Boot}:   2,
	{Snow, gPlains, Treads}:   2,
	{Snow, gWood, Treads}:     2,
	{Snow, gPlains, Tires}:    3,
	{Snow, gWood, Tires}:      4,
	{Snow, gSea, SeaMove}:     2,
	{Snow, gSea, LanderMove}:  2,
	{Snow, gPort, SeaMove}:    2,
	{Snow, gPort, LanderMove}: 2,
}

// MoveCost returns the cost of entering a tile of terrain t, and false when
// the tile is impassable for the movement class.
func MoveCost(t Terrain, m MoveType, w Weather) (int, bool) {
	g := groundOf(t)
	if g == gTeleport {
		return 0, true
	}
	base := clearCosts[g][m]
	if base == impassable {
		return 0, false
	}
	if w == Snow && m == AirMove {
		return 2, true
	}
	if cost, ok := weatherCosts[weatherKey{w, g, m}]; ok {
		return cost, true
	}
	return base, true
}
