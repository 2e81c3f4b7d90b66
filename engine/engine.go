package engine

import (
	"encoding/json"
	"errors"

	"awreplay/game"
)

var ErrAtEnd = errors.New("replay is at its end")

// Engine walks a decoded replay one recorded action at a time.
type Engine interface {
	Step() (Update, error)
	Seek(index int) ([]Update, error)
	Cursor() int
	Len() int
	IsAtEnd() bool
	CurrentDay() int
	State() *game.GameState
	Position() Update
	Halted() *game.RuleViolation
}

// Update is the outcome of one applied action. Index is -1 when the update
// only reports a new position (after a seek).
type Update struct {
	Index  int
	Cursor int
	Action game.ActionKind
	Player game.PlayerID // who acted
	Active game.PlayerID // whose turn it is afterwards
	Day    int
	Events []game.Event
	Hash   game.StateHash
}

func (u Update) IsPosition() bool {
	return u.Index < 0
}

type eventJSON struct {
	Kind string     `json:"kind"`
	Data game.Event `json:"data"`
}

type updateJSON struct {
	Index  int         `json:"index"`
	Cursor int         `json:"cursor"`
	Action string      `json:"action,omitempty"`
	Player int         `json:"player,omitempty"`
	Active int         `json:"active"`
	Day    int         `json:"day"`
	Events []eventJSON `json:"events"`
	Hash   uint64      `json:"hash,string"`
}

func (u Update) MarshalJSON() ([]byte, error) {
	out := updateJSON{
		Index:  u.Index,
		Cursor: u.Cursor,
		Player: int(u.Player),
		Active: int(u.Active),
		Day:    u.Day,
		Events: make([]eventJSON, len(u.Events)),
		Hash:   uint64(u.Hash),
	}
	if !u.IsPosition() {
		out.Action = u.Action.String()
	}
	for i, e := range u.Events {
		out.Events[i] = eventJSON{Kind: e.Kind().String(), Data: e}
	}
	return json.Marshal(out)
}
