package replay

import (
	"sort"

	"awreplay/game"
)

// Info is the match metadata from the first game snapshot.
type Info struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	MapID         int    `json:"mapId"`
	StartDate     string `json:"startDate,omitempty"`
	EndDate       string `json:"endDate,omitempty"`
	Type          string `json:"type,omitempty"`
	Funds         int    `json:"funds"` // income per property
	StartingFunds int    `json:"startingFunds"`
	CaptureWin    int    `json:"captureWin,omitempty"`
	Fog           bool   `json:"fog"`
	Teams         bool   `json:"teams"`
	UsePowers     bool   `json:"usePowers"`
}

// Turn locates one player's turn inside Match.Actions.
type Turn struct {
	Player game.PlayerID `json:"player"`
	Day    int           `json:"day"`
	First  int           `json:"first"`
	Count  int           `json:"count"`
}

// Match is a decoded replay. It is not modified after Build returns, so one
// Match can back any number of playbacks.
type Match struct {
	Info    Info
	Map     MapDef
	Setup   game.Setup
	Actions []game.Action
	Turns   []Turn
	// Snapshots counts the game snapshots found; only the first seeds Setup.
	Snapshots int
}

// NewState builds a fresh initial state.
func (m *Match) NewState() (*game.GameState, error) {
	return game.NewState(m.Setup)
}

// TurnAt finds the turn an action index belongs to.
func (m *Match) TurnAt(action int) (Turn, bool) {
	i := sort.Search(len(m.Turns), func(i int) bool {
		return m.Turns[i].First+m.Turns[i].Count > action
	})
	if action < 0 || i == len(m.Turns) || action < m.Turns[i].First {
		return Turn{}, false
	}
	return m.Turns[i], true
}

// Player looks up a player of the initial roster.
func (m *Match) Player(id game.PlayerID) (game.Player, bool) {
	for _, p := range m.Setup.Players {
		if p.ID == id {
			return p, true
		}
	}
	return game.Player{}, false
}
