package game

import (
	"fmt"
	"strings"
	"unicode"
)

// UnitClass is one of the 25 unit types.
type UnitClass int

const (
	Infantry UnitClass = iota
	Mech
	Recon
	Tank
	MdTank
	Neotank
	MegaTank
	APC
	Artillery
	Rocket
	AntiAir
	Missile
	Piperunner
	BCopter
	TCopter
	Fighter
	Bomber
	Stealth
	BlackBomb
	Battleship
	Cruiser
	Lander
	Sub
	BlackBoat
	Carrier
	unitClassCount
)

// Category is the production and repair category of a unit class.
type Category int

const (
	Ground Category = iota
	Air
	Naval
)

func (c Category) String() string {
	switch c {
	case Ground:
		return "ground"
	case Air:
		return "air"
	case Naval:
		return "naval"
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// UnitStats is the static data of a unit class.
type UnitStats struct {
	Name       string
	Category   Category
	Cost       int
	Move       int
	MoveType   MoveType
	Fuel       int
	FuelPerDay int
	Ammo       int
	Vision     int
	MinRange   int
	MaxRange   int
	Capacity   int
}

var unitStats = [unitClassCount]UnitStats{
	Infantry:   {"Infantry", Ground, 1000, 3, Foot, 99, 0, 0, 2, 1, 1, 0},
	Mech:       {"Mech", Ground, 3000, 2, Boot, 70, 0, 3, 2, 1, 1, 0},
	Recon:      {"Recon", Ground, 4000, 8, Tires, 80, 0, 0, 5, 1, 1, 0},
	Tank:       {"Tank", Ground, 7000, 6, Treads, 70, 0, 9, 3, 1, 1, 0},
	MdTank:     {"Md.Tank", Ground, 16000, 5, Treads, 50, 0, 8, 1, 1, 1, 0},
	Neotank:    {"Neotank", Ground, 22000, 6, Treads, 99, 0, 9, 1, 1, 1, 0},
	MegaTank:   {"Mega Tank", Ground, 28000, 4, Treads, 50, 0, 3, 1, 1, 1, 0},
	APC:        {"APC", Ground, 5000, 6, Treads, 70, 0, 0, 1, 0, 0, 1},
	Artillery:  {"Artillery", Ground, 6000, 5, Treads, 50, 0, 9, 1, 2, 3, 0},
	Rocket:     {"Rocket", Ground, 15000, 5, Tires, 50, 0, 6, 1, 3, 5, 0},
	AntiAir:    {"Anti-Air", Ground, 8000, 6, Treads, 60, 0, 9, 2, 1, 1, 0},
	Missile:    {"Missile", Ground, 12000, 4, Tires, 50, 0, 6, 5, 3, 5, 0},
	Piperunner: {"Piperunner", Ground, 20000, 9, PipeMove, 99, 0, 9, 4, 2, 5, 0},
	BCopter:    {"B-Copter", Air, 9000, 6, AirMove, 99, 2, 6, 3, 1, 1, 0},
	TCopter:    {"T-Copter", Air, 5000, 6, AirMove, 99, 2, 0, 2, 0, 0, 1},
	Fighter:    {"Fighter", Air, 20000, 9, AirMove, 99, 5, 9, 2, 1, 1, 0},
	Bomber:     {"Bomber", Air, 22000, 7, AirMove, 99, 5, 9, 2, 1, 1, 0},
	Stealth:    {"Stealth", Air, 24000, 6, AirMove, 60, 5, 6, 4, 1, 1, 0},
	BlackBomb:  {"Black Bomb", Air, 25000, 9, AirMove, 45, 5, 0, 1, 0, 0, 0},
	Battleship: {"Battleship", Naval, 28000, 5, SeaMove, 99, 1, 9, 2, 2, 6, 0},
	Cruiser:    {"Cruiser", Naval, 18000, 6, SeaMove, 99, 1, 9, 3, 1, 1, 2},
	Lander:     {"Lander", Naval, 12000, 6, LanderMove, 99, 1, 0, 1, 0, 0, 2},
	Sub:        {"Sub", Naval, 20000, 5, SeaMove, 60, 1, 6, 5, 1, 1, 0},
	BlackBoat:  {"Black Boat", Naval, 7500, 7, LanderMove, 60, 1, 0, 1, 0, 0, 2},
	Carrier:    {"Carrier", Naval, 30000, 5, SeaMove, 99, 1, 9, 4, 3, 8, 2},
}

// Stats returns the static data of the class.
func (c UnitClass) Stats() UnitStats {
	if c < 0 || c >= unitClassCount {
		return UnitStats{}
	}
	return unitStats[c]
}

func (c UnitClass) Valid() bool {
	return c >= 0 && c < unitClassCount
}

func (c UnitClass) String() string {
	if !c.Valid() {
		return fmt.Sprintf("unit(%d)", int(c))
	}
	return unitStats[c].Name
}

// IsIndirect reports whether the class fires at range and so can neither
// move and fire in the same action nor counter-attack.
func (c UnitClass) IsIndirect() bool {
	return c.Stats().MinRange > 1
}

// CanCapture reports whether the class may capture properties.
func (c UnitClass) CanCapture() bool {
	return c == Infantry || c == Mech
}

// CanSupply reports whether the class resupplies adjacent units.
func (c UnitClass) CanSupply() bool {
	return c == APC
}

// CanRepair reports whether the class heals adjacent units.
func (c UnitClass) CanRepair() bool {
	return c == BlackBoat
}

// CanCarry reports whether transport class c can load cargo class other.
func (c UnitClass) CanCarry(other UnitClass) bool {
	switch c {
	case APC, TCopter, BlackBoat:
		return other == Infantry || other == Mech
	case Lander:
		return other.Stats().Category == Ground && other != Piperunner
	case Cruiser:
		return other == BCopter || other == TCopter
	case Carrier:
		return other.Stats().Category == Air
	}
	return false
}

var unitClassByKey = func() map[string]UnitClass {
	m := make(map[string]UnitClass, unitClassCount)
	for c := UnitClass(0); c < unitClassCount; c++ {
		m[nameKey(unitStats[c].Name)] = c
	}
	return m
}()

// nameKey lower-cases a display name and strips everything but letters and
// digits, so "Md.Tank", "md tank" and "MDTANK" all compare equal.
func nameKey(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// ParseUnitClass resolves a unit display name.
func ParseUnitClass(name string) (UnitClass, bool) {
	c, ok := unitClassByKey[nameKey(name)]
	return c, ok
}
