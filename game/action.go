package game

import "fmt"

type ActionKind int

const (
	MoveAction ActionKind = iota
	AttackAction
	BuildAction
	CaptureAction
	SupplyAction
	EndTurnAction
	LoadAction
	UnloadAction
	PowerAction
	ResignAction
	JoinAction
	RepairAction
	AttackSeamAction
)

var actionKindNames = [...]string{
	"move", "attack", "build", "capture", "supply", "end turn",
	"load", "unload", "power", "resign", "join", "repair", "attack seam",
}

func (k ActionKind) String() string {
	if k < 0 || int(k) >= len(actionKindNames) {
		return fmt.Sprintf("action(%d)", int(k))
	}
	return actionKindNames[k]
}

// Action is one recorded player command.
type Action interface {
	Kind() ActionKind
}

// Move walks a unit along Path, which starts at the unit's position. A
// one-element path keeps the unit in place. Trapped moves were cut short by
// a hidden unit; the unit's action ends where the path ends.
type Move struct {
	Unit    UnitID
	Path    []Position
	Trapped bool
}

// Luck holds the recorded luck rolls of one combat.
type Luck struct {
	Attack  int
	Counter int
}

// CombatRecord holds post-combat values an archive recorded. HP is on the
// 0..100 scale. Nil fields were not recorded.
type CombatRecord struct {
	AttackerHP   *int
	DefenderHP   *int
	AttackerAmmo *int
	DefenderAmmo *int
}

type Attack struct {
	Move     *Move
	Attacker UnitID
	Defender UnitID
	Luck     *Luck
	Recorded CombatRecord
}

type Build struct {
	Player PlayerID // optional, checked against the active player
	Unit   UnitID   // id the archive assigned to the new unit
	Class  UnitClass
	Pos    Position
}

type Capture struct {
	Move *Move
	Unit UnitID
	// At locates the capturing unit when Unit is 0 and there is no move.
	At Position
	// Progress is the recorded progress after the action, 0 once the
	// property changed hands.
	Progress *int
}

// AttackSeam fires at the pipe seam on Seam. SeamHP is the recorded seam
// health afterwards, 0 when the seam broke.
type AttackSeam struct {
	Move         *Move
	Attacker     UnitID
	Seam         Position
	SeamHP       *int
	AttackerAmmo *int
}

type Supply struct {
	Move    *Move
	Unit    UnitID
	Targets []UnitID // empty: every adjacent own unit
}

// Repaired records a unit's HP after start-of-turn repairs.
type Repaired struct {
	Unit UnitID
	HP   int
}

type EndTurn struct {
	Player      PlayerID // optional, checked against the active player
	NextPlayer  PlayerID // 0: not recorded
	NextWeather *Weather
	Day         int  // 0: not recorded
	Funds       *int // next player's funds after income and repairs
	Repaired    []Repaired
}

type Load struct {
	Move      Move
	Transport UnitID
}

type Unload struct {
	Transport UnitID
	Cargo     UnitID
	To        Position
}

type Power struct {
	Player PlayerID
	Level  PowerKind
	Name   string
}

type Resign struct {
	Player PlayerID
	Next   *EndTurn // turn hand-over when the active player resigns
}

type Join struct {
	Move   Move
	Target UnitID
	Funds  *int
}

type Repair struct {
	Move   *Move
	Unit   UnitID
	Target UnitID
	HP     *int
	Funds  *int
}

func (Move) Kind() ActionKind    { return MoveAction }
func (Attack) Kind() ActionKind  { return AttackAction }
func (Build) Kind() ActionKind   { return BuildAction }
func (Capture) Kind() ActionKind { return CaptureAction }
func (Supply) Kind() ActionKind  { return SupplyAction }
func (EndTurn) Kind() ActionKind { return EndTurnAction }
func (Load) Kind() ActionKind    { return LoadAction }
func (Unload) Kind() ActionKind  { return UnloadAction }
func (Power) Kind() ActionKind   { return PowerAction }
func (Resign) Kind() ActionKind  { return ResignAction }
func (Join) Kind() ActionKind    { return JoinAction }
func (Repair) Kind() ActionKind  { return RepairAction }

func (AttackSeam) Kind() ActionKind { return AttackSeamAction }
