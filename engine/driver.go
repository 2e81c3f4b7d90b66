package engine

import (
	"errors"
	"fmt"
	"time"

	"awreplay/experiments/metrics"
	"awreplay/game"
	"awreplay/replay"

	"github.com/rs/zerolog/log"
)

// Driver applies a match's recorded actions in order. It is not safe for
// concurrent use; Playback serializes access to one.
type Driver struct {
	match     *replay.Match
	initial   *game.GameState
	state     *game.GameState
	cursor    int
	halted    *game.RuleViolation
	collector metrics.Collector
}

type Option func(*Driver)

func WithCollector(c metrics.Collector) Option {
	return func(d *Driver) {
		d.collector = c
	}
}

func NewDriver(m *replay.Match, opts ...Option) (*Driver, error) {
	initial, err := m.NewState()
	if err != nil {
		return nil, fmt.Errorf("failed to build initial state: %w", err)
	}
	d := &Driver{
		match:     m,
		initial:   initial,
		state:     initial,
		collector: metrics.NewDummyCollector(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.collector.Start(m.Info.ID)
	return d, nil
}

func (d *Driver) Match() *replay.Match { return d.match }
func (d *Driver) Cursor() int          { return d.cursor }
func (d *Driver) Len() int             { return len(d.match.Actions) }
func (d *Driver) IsAtEnd() bool        { return d.cursor >= len(d.match.Actions) }
func (d *Driver) CurrentDay() int      { return d.state.Day }

// State returns a copy of the current state.
func (d *Driver) State() *game.GameState {
	return d.state.Copy()
}

// Halted is the violation that stopped playback, if any.
func (d *Driver) Halted() *game.RuleViolation {
	return d.halted
}

// Position reports where the driver stands without applying anything.
func (d *Driver) Position() Update {
	return Update{
		Index:  -1,
		Cursor: d.cursor,
		Active: d.state.ActivePlayer().ID,
		Day:    d.state.Day,
		Hash:   d.state.Hash(),
	}
}

// Step applies the next action.
func (d *Driver) Step() (Update, error) {
	if d.halted != nil {
		return Update{}, d.halted
	}
	if d.IsAtEnd() {
		return Update{}, ErrAtEnd
	}
	return d.apply()
}

// Seek moves to the position before action index by replaying from the
// initial state. Seeking to the current position does nothing. If an action
// on the way is illegal the driver halts at the last good state.
func (d *Driver) Seek(index int) ([]Update, error) {
	if index < 0 || index > len(d.match.Actions) {
		return nil, fmt.Errorf("seek to %d outside 0..%d", index, len(d.match.Actions))
	}
	if index == d.cursor {
		return nil, nil
	}

	d.state = d.initial
	d.cursor = 0
	d.halted = nil
	d.collector.Start(d.match.Info.ID)

	updates := make([]Update, 0, index)
	for d.cursor < index {
		u, err := d.apply()
		if err != nil {
			return updates, err
		}
		updates = append(updates, u)
	}
	log.Debug().Msgf("seeked to action %d on day %d", d.cursor, d.state.Day)
	return updates, nil
}

// Run applies every remaining action and returns the last update.
func (d *Driver) Run() (Update, error) {
	last := d.Position()
	for !d.IsAtEnd() {
		u, err := d.Step()
		if err != nil {
			return last, err
		}
		last = u
	}
	return last, nil
}

func (d *Driver) apply() (Update, error) {
	index := d.cursor
	action := d.match.Actions[index]
	player := d.state.ActivePlayer().ID
	if t, ok := d.match.TurnAt(index); ok {
		player = t.Player
	}

	start := time.Now()
	next, events, err := game.Apply(d.state, action)
	if err != nil {
		var v *game.RuleViolation
		if !errors.As(err, &v) {
			v = &game.RuleViolation{Action: action.Kind(), Reason: err.Error()}
		}
		halted := *v
		halted.ActionIndex = index
		d.halted = &halted
		d.collector.Halt(halted.Reason)
		log.Warn().Msgf("playback halted at action %d (%s): %s", index, action.Kind(), halted.Reason)
		return Update{}, d.halted
	}

	d.state = next
	d.cursor++
	d.collector.Observe(metrics.ActionMetric{
		Index:    index,
		Kind:     action.Kind(),
		Player:   player,
		Day:      next.Day,
		Events:   len(events),
		Duration: time.Since(start),
	})

	return Update{
		Index:  index,
		Cursor: d.cursor,
		Action: action.Kind(),
		Player: player,
		Active: next.ActivePlayer().ID,
		Day:    next.Day,
		Events: events,
		Hash:   next.Hash(),
	}, nil
}
