package game

import "fmt"

type EventKind int

const (
	UnitMovedEvent EventKind = iota
	UnitBuiltEvent
	UnitDamagedEvent
	UnitDestroyedEvent
	CaptureProgressedEvent
	TileCapturedEvent
	UnitSuppliedEvent
	UnitRepairedEvent
	UnitLoadedEvent
	UnitUnloadedEvent
	UnitsJoinedEvent
	PowerActivatedEvent
	TurnStartedEvent
	DayAdvancedEvent
	WeatherChangedEvent
	PlayerEliminatedEvent
	GameOverEvent
	SeamAttackedEvent
)

var eventKindNames = [...]string{
	"unit_moved", "unit_built", "unit_damaged", "unit_destroyed",
	"capture_progressed", "tile_captured", "unit_supplied", "unit_repaired",
	"unit_loaded", "unit_unloaded", "units_joined", "power_activated",
	"turn_started", "day_advanced", "weather_changed", "player_eliminated",
	"game_over", "seam_attacked",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventKindNames) {
		return fmt.Sprintf("event(%d)", int(k))
	}
	return eventKindNames[k]
}

// Event describes one observable consequence of an action, in the order it
// happened.
type Event interface {
	Kind() EventKind
}

type UnitMoved struct {
	Unit    UnitID     `json:"unit"`
	Path    []Position `json:"path"`
	Fuel    int        `json:"fuel"`
	Trapped bool       `json:"trapped,omitempty"`
}

type UnitBuilt struct {
	Unit  Unit `json:"unit"`
	Funds int  `json:"funds"`
}

type UnitDamaged struct {
	Unit     UnitID `json:"unit"`
	Attacker UnitID `json:"attacker"`
	Damage   int    `json:"damage"`
	HP       int    `json:"hp"`
}

type UnitDestroyed struct {
	Unit  UnitID    `json:"unit"`
	Owner PlayerID  `json:"owner"`
	Class UnitClass `json:"class"`
	Pos   Position  `json:"pos"`
}

type CaptureProgressed struct {
	Unit     UnitID   `json:"unit"`
	Pos      Position `json:"pos"`
	Progress int      `json:"progress"`
}

type TileCaptured struct {
	Pos  Position `json:"pos"`
	From PlayerID `json:"from"`
	To   PlayerID `json:"to"`
}

type UnitSupplied struct {
	Unit UnitID `json:"unit"`
	By   UnitID `json:"by,omitempty"` // 0 for property resupply
	Fuel int    `json:"fuel"`
	Ammo int    `json:"ammo"`
}

type UnitRepaired struct {
	Unit UnitID `json:"unit"`
	By   UnitID `json:"by,omitempty"` // 0 for property repair
	HP   int    `json:"hp"`
	Cost int    `json:"cost"`
}

type UnitLoaded struct {
	Unit      UnitID `json:"unit"`
	Transport UnitID `json:"transport"`
}

type UnitUnloaded struct {
	Unit      UnitID   `json:"unit"`
	Transport UnitID   `json:"transport"`
	Pos       Position `json:"pos"`
}

type UnitsJoined struct {
	Unit   UnitID `json:"unit"`
	Into   UnitID `json:"into"`
	HP     int    `json:"hp"`
	Refund int    `json:"refund"`
}

type PowerActivated struct {
	Player PlayerID  `json:"player"`
	Power  PowerKind `json:"power"`
	Name   string    `json:"name,omitempty"`
}

type TurnStarted struct {
	Player PlayerID `json:"player"`
	Day    int      `json:"day"`
	Income int      `json:"income"`
	Funds  int      `json:"funds"`
}

type DayAdvanced struct {
	Day int `json:"day"`
}

type WeatherChanged struct {
	Weather Weather `json:"weather"`
}

type PlayerEliminated struct {
	Player     PlayerID   `json:"player"`
	By         PlayerID   `json:"by,omitempty"`
	Units      []UnitID   `json:"units,omitempty"`
	Properties []Position `json:"properties,omitempty"`
}

type GameOver struct {
	Winners []PlayerID `json:"winners"`
}

// SeamAttacked reports a hit on a pipe seam. A broken seam turns to rubble.
type SeamAttacked struct {
	Pos      Position `json:"pos"`
	Attacker UnitID   `json:"attacker"`
	HP       int      `json:"hp"`
	Broken   bool     `json:"broken,omitempty"`
}

func (UnitMoved) Kind() EventKind         { return UnitMovedEvent }
func (UnitBuilt) Kind() EventKind         { return UnitBuiltEvent }
func (UnitDamaged) Kind() EventKind       { return UnitDamagedEvent }
func (UnitDestroyed) Kind() EventKind     { return UnitDestroyedEvent }
func (CaptureProgressed) Kind() EventKind { return CaptureProgressedEvent }
func (TileCaptured) Kind() EventKind      { return TileCapturedEvent }
func (UnitSupplied) Kind() EventKind      { return UnitSuppliedEvent }
func (UnitRepaired) Kind() EventKind      { return UnitRepairedEvent }
func (UnitLoaded) Kind() EventKind        { return UnitLoadedEvent }
func (UnitUnloaded) Kind() EventKind      { return UnitUnloadedEvent }
func (UnitsJoined) Kind() EventKind       { return UnitsJoinedEvent }
func (PowerActivated) Kind() EventKind    { return PowerActivatedEvent }
func (TurnStarted) Kind() EventKind       { return TurnStartedEvent }
func (DayAdvanced) Kind() EventKind       { return DayAdvancedEvent }
func (WeatherChanged) Kind() EventKind    { return WeatherChangedEvent }
func (PlayerEliminated) Kind() EventKind  { return PlayerEliminatedEvent }
func (GameOver) Kind() EventKind          { return GameOverEvent }
func (SeamAttacked) Kind() EventKind      { return SeamAttackedEvent }
