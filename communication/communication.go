package communication

import (
	"context"
	"encoding/json"
	"errors"

	"awreplay/engine"
	"awreplay/replay"
)

var ErrNoReplay = errors.New("no replay loaded")

// Command names accepted by Controller.Control.
const (
	StepCommand   = "step"
	SeekCommand   = "seek"
	PauseCommand  = "pause"
	ResumeCommand = "resume"
	SpeedCommand  = "speed"
)

type Command struct {
	Action     string `json:"action"`
	Index      int    `json:"index,omitempty"`
	IntervalMs int    `json:"intervalMs,omitempty"`
}

// Controller abstracts where a playback runs: in process or behind a server.
type Controller interface {
	Load(ctx context.Context, archive []byte) (LoadResponse, error)
	Snapshot(ctx context.Context) (engine.Snapshot, error)
	Control(ctx context.Context, cmd Command) (engine.Status, error)
}

type LoadResponse struct {
	Info   replay.Info   `json:"info"`
	Turns  int           `json:"turns"`
	Status engine.Status `json:"status"`
}

// Message is the JSON envelope for websocket traffic.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Message types.
const (
	HelloMessage    = "hello"
	UpdateMessage   = "update"
	SnapshotMessage = "snapshot"
	ControlMessage  = "control"
	StatusMessage   = "status"
	ErrorMessage    = "error"
)

type Hello struct {
	Subscriber string `json:"subscriber"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// UpdateView is the decoded form of a streamed engine.Update.
type UpdateView struct {
	Index  int         `json:"index"`
	Cursor int         `json:"cursor"`
	Action string      `json:"action"`
	Player int         `json:"player"`
	Active int         `json:"active"`
	Day    int         `json:"day"`
	Hash   uint64      `json:"hash,string"`
	Events []EventView `json:"events"`
}

type EventView struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// NewMessage wraps a payload in an envelope.
func NewMessage(msgType string, payload any) ([]byte, error) {
	p, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: msgType, Payload: p})
}

func (u UpdateView) IsPosition() bool {
	return u.Index < 0
}
